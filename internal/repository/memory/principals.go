package memory

import (
	"context"
	"errors"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/repository"
)

type principalRepo struct{ v view }

func (r principalRepo) Create(_ context.Context, p domain.Principal) error {
	return r.v.read(func(d *dataset) error {
		for _, existing := range d.principals {
			if existing.Identifier == p.Identifier {
				return &domain.ConflictError{Field: domain.FieldIdentifier}
			}
		}
		d.principals[p.ID] = p
		return nil
	})
}

func (r principalRepo) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	var out *domain.Principal
	err := r.v.read(func(d *dataset) error {
		p, ok := d.principals[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r principalRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.Principal, error) {
	var out *domain.Principal
	err := r.v.read(func(d *dataset) error {
		for _, p := range d.principals {
			if p.Identifier == identifier {
				out = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r principalRepo) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	_, err := r.GetByIdentifier(ctx, identifier)
	return found(err)
}

// Delete removes the principal and clears owner links pointing at it.
func (r principalRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.principals[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.principals, id)

		for key, s := range d.students {
			if ownedBy(s.OwnerPrincipalID, id) {
				s.OwnerPrincipalID = nil
				d.students[key] = s
			}
		}
		for key, t := range d.teachers {
			if ownedBy(t.OwnerPrincipalID, id) {
				t.OwnerPrincipalID = nil
				d.teachers[key] = t
			}
		}
		return nil
	})
}

func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func checkOwner(d *dataset, owner *string) error {
	if owner == nil {
		return nil
	}
	if _, ok := d.principals[*owner]; !ok {
		return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "referenced principal does not exist"}
	}
	return nil
}
