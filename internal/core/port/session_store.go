package port

import (
	"context"

	"github.com/arklim/campus-records/internal/core/domain"
)

// SessionStore keeps server-side login sessions.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
