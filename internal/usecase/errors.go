package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the principal is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrInvalidSession indicates the session token is malformed, expired or was logged out.
	ErrInvalidSession = errors.New("invalid session")
)

// RateLimitExceededError reports a sliding-window rejection and when the caller may retry.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("%s rate limit exceeded", e.Scope)
	}
	return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Scope, e.RetryAfter.Round(time.Second))
}
