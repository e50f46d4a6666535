package port

import (
	"context"

	"github.com/arklim/campus-records/internal/core/domain"
)

// PrincipalRepository exposes persistence behavior for login identities.
type PrincipalRepository interface {
	Create(ctx context.Context, principal domain.Principal) error
	GetByID(ctx context.Context, id string) (*domain.Principal, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Delete(ctx context.Context, id string) error
}
