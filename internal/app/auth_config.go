package app

import (
	"github.com/carenethq/carenet/internal/auth"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// SessionServiceConfig converts AuthConfig into SessionService parameters.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	ttl := c.Session.RefreshTTL
	if ttl <= 0 {
		ttl = auth.DefaultRefreshTokenTTL
	}

	length := c.Session.RefreshLength
	if length <= 0 {
		length = 48
	}

	return auth.SessionConfig{
		RefreshTokenTTL: ttl,
		RefreshLength:   length,
	}
}

// AttemptLimiterConfig converts AuthConfig into the attempt limiter parameters.
func (c AuthConfig) AttemptLimiterConfig() auth.AttemptLimiterConfig {
	attempts := c.Lockout.MaxAttempts
	if attempts <= 0 {
		attempts = auth.DefaultMaxLoginAttempts
	}

	window := c.Lockout.Window
	if window <= 0 {
		window = auth.DefaultLoginAttemptWindow
	}

	return auth.AttemptLimiterConfig{
		MaxAttempts: attempts,
		Window:      window,
	}
}
