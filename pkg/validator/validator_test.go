package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type purchaseRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
	Email  string `json:"email" validate:"required,email"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&purchaseRequest{PlanID: "nope", Email: "not-an-email"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)
	require.Equal(t, "plan_id", failures[0].Field)
	require.Equal(t, "email", failures[1].Field)
}

func TestValidateStructPasses(t *testing.T) {
	req := &purchaseRequest{
		PlanID: "0b3b3c9e-9a56-4a8f-9d6e-0f2f9a3d1c11",
		Email:  "jordan@example.com",
	}
	require.NoError(t, ValidateStruct(req))
}
