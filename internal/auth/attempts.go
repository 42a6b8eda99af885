package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carenethq/carenet/internal/cache"
	"github.com/carenethq/carenet/pkg/logger"
)

const (
	// DefaultMaxLoginAttempts locks an identifier after this many failures
	// inside the window.
	DefaultMaxLoginAttempts = 5
	// DefaultLoginAttemptWindow is the sliding window for failure counting.
	DefaultLoginAttemptWindow = 15 * time.Minute

	loginAttemptKeyPrefix = "auth:login:attempts:"
)

// AttemptLimiterConfig tunes the login attempt limiter.
type AttemptLimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// AttemptLimiter tracks failed sign-in attempts per identifier and client IP
// in an external counter store, so the lockout state survives process
// restarts and is shared across replicas.
type AttemptLimiter struct {
	store       cache.Store
	maxAttempts int
	window      time.Duration
}

// NewAttemptLimiter constructs a limiter backed by the provided counter store.
func NewAttemptLimiter(store cache.Store, cfg AttemptLimiterConfig) (*AttemptLimiter, error) {
	if store == nil {
		return nil, errors.New("attempt limiter: store is required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultLoginAttemptWindow
	}

	return &AttemptLimiter{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
	}, nil
}

// RecordFailure increments the failure counter for the identifier/IP pair and
// reports whether the pair is now locked out.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, identifier, ip string) (bool, error) {
	key := attemptKey(identifier, ip)
	count, _, err := l.store.IncrementWithTTL(ctx, key, l.window)
	if err != nil {
		// A broken counter store must not turn into an authentication
		// bypass; treat the failure as locked.
		logger.WithModule("auth").Warn("login attempt counter unavailable", zap.Error(err))
		return true, err
	}
	return count >= int64(l.maxAttempts), nil
}

// IsLocked reports whether the identifier/IP pair has exhausted its attempts.
func (l *AttemptLimiter) IsLocked(ctx context.Context, identifier, ip string) (bool, error) {
	key := attemptKey(identifier, ip)
	data, found, err := l.store.Get(ctx, key)
	if err != nil {
		logger.WithModule("auth").Warn("login attempt counter unavailable", zap.Error(err))
		return true, err
	}
	if !found {
		return false, nil
	}
	// Both backends expose the counter as a decimal string: Redis via GET
	// after INCR, the database store via its mirrored value column.
	count, parseErr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if parseErr != nil {
		return false, nil
	}
	return count >= int64(l.maxAttempts), nil
}

// Reset clears the failure counter after a successful sign-in.
func (l *AttemptLimiter) Reset(ctx context.Context, identifier, ip string) error {
	return l.store.Delete(ctx, attemptKey(identifier, ip))
}

func attemptKey(identifier, ip string) string {
	id := strings.ToLower(strings.TrimSpace(identifier))
	return loginAttemptKeyPrefix + id + ":" + strings.TrimSpace(ip)
}
