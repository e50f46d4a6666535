package port

import (
	"context"
	"time"
)

// AttemptWindow is what remains of one subject's attempts inside a window.
// Oldest is zero when Count is zero.
type AttemptWindow struct {
	Count  int
	Oldest time.Time
}

// RateLimitStore keeps sliding windows of attempts. A scope names the limit
// (login by IP, failed logins per identifier, API calls per principal) and a
// subject is who is being counted within it.
type RateLimitStore interface {
	// Window drops attempts older than window and reports the rest.
	Window(ctx context.Context, scope, subject string, window time.Duration, now time.Time) (AttemptWindow, error)
	Record(ctx context.Context, scope, subject string, at time.Time) error
	Reset(ctx context.Context, scope, subject string) error
}
