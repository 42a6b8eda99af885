package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/crypto"
	apperrors "github.com/carenethq/carenet/pkg/errors"
	"github.com/carenethq/carenet/pkg/metrics"
)

// LoginInput carries the credentials and client context for a sign-in attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult bundles the signed tokens with the authenticated user.
type LoginResult struct {
	Tokens  TokenPair
	User    *models.User
	Session *models.Session
}

// LoginService authenticates credentials and issues sessions. Failed attempts
// are counted per email/IP pair in the shared attempt limiter.
type LoginService struct {
	db       *gorm.DB
	sessions *SessionService
	limiter  *AttemptLimiter
	now      func() time.Time
}

// NewLoginService constructs a LoginService.
func NewLoginService(db *gorm.DB, sessions *SessionService, limiter *AttemptLimiter) (*LoginService, error) {
	if db == nil {
		return nil, errors.New("login service: db is required")
	}
	if sessions == nil {
		return nil, errors.New("login service: session service is required")
	}
	if limiter == nil {
		return nil, errors.New("login service: attempt limiter is required")
	}

	return &LoginService{
		db:       db,
		sessions: sessions,
		limiter:  limiter,
		now:      time.Now,
	}, nil
}

// Login verifies the supplied credentials and, when valid, creates a session.
// Lockout is evaluated before the password check so that a locked pair cannot
// probe credentials, and the counter resets only on success.
func (s *LoginService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	locked, _ := s.limiter.IsLocked(ctx, email, input.IPAddress)
	if locked {
		metrics.AuthAttempts.WithLabelValues("locked").Inc()
		return nil, apperrors.ErrAccountLocked
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.fail(ctx, email, input.IPAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("login service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, s.fail(ctx, email, input.IPAddress)
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("disabled").Inc()
		return nil, apperrors.ErrAccountDisabled
	}

	tokens, session, err := s.sessions.CreateSession(&user, SessionMetadata{
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("login service: create session: %w", err)
	}

	_ = s.limiter.Reset(ctx, email, input.IPAddress)

	now := s.now()
	updates := map[string]any{
		"last_login_at": now,
		"last_login_ip": strings.TrimSpace(input.IPAddress),
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err == nil {
		user.LastLoginAt = &now
		user.LastLoginIP = strings.TrimSpace(input.IPAddress)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	return &LoginResult{
		Tokens:  tokens,
		User:    &user,
		Session: session,
	}, nil
}

func (s *LoginService) fail(ctx context.Context, email, ip string) error {
	metrics.AuthAttempts.WithLabelValues("failure").Inc()
	nowLocked, _ := s.limiter.RecordFailure(ctx, email, ip)
	if nowLocked {
		return apperrors.ErrAccountLocked
	}
	return apperrors.ErrInvalidCredentials
}
