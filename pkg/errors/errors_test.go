package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("db down")
	err := ErrInternalServer.WithInternal(inner)

	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "db down")
}

func TestFromErrorPassesThroughAppError(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrForbidden)

	appErr := FromError(err)
	require.Equal(t, ErrForbidden.Code, appErr.Code)
	require.Equal(t, http.StatusForbidden, appErr.StatusCode)
}

func TestFromErrorWrapsUnknownError(t *testing.T) {
	appErr := FromError(errors.New("boom"))

	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}

func TestQuotaErrorClass(t *testing.T) {
	err := &QuotaError{Service: "consultation", Used: 10, Limit: 10}

	require.ErrorIs(t, err, ErrQuotaExceeded)

	appErr := FromError(fmt.Errorf("booking: %w", err))
	require.Equal(t, ErrQuotaExceeded.Code, appErr.Code)
	require.Equal(t, http.StatusPaymentRequired, appErr.StatusCode)
	require.Contains(t, appErr.Message, "10 of 10")
}
