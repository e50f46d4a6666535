package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/infra/logger"
	"github.com/arklim/campus-records/internal/infra/security"
	"github.com/arklim/campus-records/internal/repository"
)

const (
	loginRateLimitScope = "login_identifier"
	sessionIDBytes      = 32
	defaultSessionTTL   = 8 * time.Hour
)

// LoginInput captures a credential check and the client it came from.
type LoginInput struct {
	Identifier string
	Password   string
	IP         *string
	UserAgent  *string
}

// LoginResult is a successful login: the signed token, its session and the principal.
type LoginResult struct {
	Token     string
	Session   domain.Session
	Principal domain.Principal
}

// AuthService verifies credentials and resolves session tokens back into principals.
type AuthService struct {
	cfg        config.AuthSettings
	principals port.PrincipalRepository
	sessions   port.SessionStore
	hasher     port.PasswordHasher
	tokens     *security.SessionTokenManager
	rateLimits port.RateLimitStore
	rateCfg    config.RateLimitSettings
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg config.AuthSettings,
	principals port.PrincipalRepository,
	sessions port.SessionStore,
	hasher port.PasswordHasher,
	tokens *security.SessionTokenManager,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		cfg:        cfg,
		principals: principals,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRateLimiter enables the sliding-window limit on failed logins per identifier.
func (s *AuthService) WithRateLimiter(store port.RateLimitStore, cfg config.RateLimitSettings) *AuthService {
	s.rateLimits = store
	s.rateCfg = cfg
	return s
}

// WithClock overrides the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login validates credentials, opens a server-side session and signs a token for it.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return LoginResult{}, &domain.ValidationError{Field: string(domain.FieldIdentifier), Reason: "is required"}
	}
	if input.Password == "" {
		return LoginResult{}, &domain.ValidationError{Field: "password", Reason: "is required"}
	}

	now := s.now()
	if err := s.enforceLoginRateLimit(ctx, identifier, now); err != nil {
		return LoginResult{}, err
	}

	principal, err := s.principals.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordLoginFailure(ctx, identifier, now)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, &domain.StorageError{Op: "lookup principal", Err: err}
	}

	ok, err := s.hasher.Verify(input.Password, principal.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.recordLoginFailure(ctx, identifier, now)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !principal.Enabled {
		return LoginResult{}, ErrInactiveAccount
	}

	sessionID, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session id: %w", err)
	}

	ttl := s.cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	session := domain.Session{
		ID:          sessionID,
		PrincipalID: principal.ID,
		Role:        principal.Role,
		IP:          input.IP,
		UserAgent:   input.UserAgent,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}

	token, err := s.tokens.Sign(session)
	if err != nil {
		return LoginResult{}, err
	}
	s.clearLoginFailures(ctx, identifier)

	s.logger.With(logger.ContextFields(ctx)...).Info("principal signed in",
		zap.String("principal_id", principal.ID),
		zap.String("role", principal.Role.String()),
	)

	return LoginResult{Token: token, Session: session, Principal: principal.Sanitized()}, nil
}

// Logout removes the session referenced by token. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredSessionToken) {
			return nil
		}
		return ErrInvalidSession
	}

	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ResolvePrincipal maps a session token to the live principal behind it.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (domain.Principal, *domain.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Principal{}, nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Principal{}, nil, ErrInvalidSession
		}
		return domain.Principal{}, nil, fmt.Errorf("load session: %w", err)
	}
	if session.PrincipalID != claims.Subject || !session.IsActive(s.now()) {
		return domain.Principal{}, nil, ErrInvalidSession
	}

	principal, err := s.principals.GetByID(ctx, session.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Principal{}, nil, ErrInvalidSession
		}
		return domain.Principal{}, nil, &domain.StorageError{Op: "load principal", Err: err}
	}
	if !principal.Enabled {
		return domain.Principal{}, nil, ErrInactiveAccount
	}

	return principal.Sanitized(), session, nil
}

func (s *AuthService) enforceLoginRateLimit(ctx context.Context, identifier string, now time.Time) error {
	if !s.loginLimited() {
		return nil
	}

	window := s.loginWindow()
	state, err := s.rateLimits.Window(ctx, loginRateLimitScope, loginSubject(identifier), window, now)
	if err != nil {
		s.logger.Warn("login rate limit check failed", zap.String("scope", loginRateLimitScope), zap.Error(err))
		return nil
	}
	if state.Count < s.rateCfg.LoginMaxAttempts {
		return nil
	}

	retryAfter := max(state.Oldest.Add(window).Sub(now), 0)
	return &RateLimitExceededError{Scope: loginRateLimitScope, RetryAfter: retryAfter}
}

func (s *AuthService) recordLoginFailure(ctx context.Context, identifier string, now time.Time) {
	if !s.loginLimited() {
		return
	}
	if err := s.rateLimits.Record(ctx, loginRateLimitScope, loginSubject(identifier), now); err != nil {
		s.logger.Warn("login rate limit record failed", zap.Error(err))
	}
}

// clearLoginFailures forgets earlier failures once the identifier signs in.
func (s *AuthService) clearLoginFailures(ctx context.Context, identifier string) {
	if !s.loginLimited() {
		return
	}
	if err := s.rateLimits.Reset(ctx, loginRateLimitScope, loginSubject(identifier)); err != nil {
		s.logger.Warn("login rate limit reset failed", zap.Error(err))
	}
}

func (s *AuthService) loginLimited() bool {
	return s.rateLimits != nil && s.rateCfg.LoginMaxAttempts > 0
}

func (s *AuthService) loginWindow() time.Duration {
	if s.rateCfg.WindowDuration <= 0 {
		return time.Hour
	}
	return s.rateCfg.WindowDuration
}

// loginSubject keeps raw login names out of Redis keys.
func loginSubject(identifier string) string {
	return security.HashToken(strings.ToLower(identifier))
}
