package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/repository"
)

// BootstrapReport lists the identifiers created and skipped by Seed.
type BootstrapReport struct {
	Created []string
	Skipped []string
}

// BootstrapService seeds the default teacher and student accounts.
type BootstrapService struct {
	store  port.Store
	hasher port.PasswordHasher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewBootstrapService constructs a BootstrapService.
func NewBootstrapService(store port.Store, hasher port.PasswordHasher, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Seed creates each configured account that does not exist yet, together
// with its owned record. An existing unowned record with the same unique key
// is linked instead of duplicated. Running Seed again changes nothing.
func (s *BootstrapService) Seed(ctx context.Context, cfg config.BootstrapSettings) (BootstrapReport, error) {
	var report BootstrapReport
	if !cfg.Enabled {
		return report, nil
	}

	seeds := []struct {
		role   domain.Role
		record config.BootstrapRecord
	}{
		{domain.RoleTeacher, cfg.Teacher},
		{domain.RoleStudent, cfg.Student},
	}

	for _, seed := range seeds {
		identifier := strings.TrimSpace(seed.record.Identifier)
		if identifier == "" {
			continue
		}

		created, err := s.seedOne(ctx, seed.role, seed.record)
		if err != nil {
			return report, err
		}
		if created {
			report.Created = append(report.Created, identifier)
			s.logger.Info("seeded account", zap.String("identifier", identifier), zap.String("role", seed.role.String()))
		} else {
			report.Skipped = append(report.Skipped, identifier)
		}
	}

	return report, nil
}

func (s *BootstrapService) seedOne(ctx context.Context, role domain.Role, rec config.BootstrapRecord) (bool, error) {
	identifier := strings.TrimSpace(rec.Identifier)

	exists, err := s.store.Principals().ExistsByIdentifier(ctx, identifier)
	if err != nil {
		return false, classify("check bootstrap identifier", err)
	}
	if exists {
		return false, nil
	}

	hash, err := s.hasher.Hash(rec.Password)
	if err != nil {
		return false, &domain.StorageError{Op: "hash bootstrap password", Err: err}
	}

	now := s.now()
	principal := domain.Principal{
		ID:           s.newID(),
		Identifier:   identifier,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Principals().Create(ctx, principal); err != nil {
			return classify("create bootstrap principal", err)
		}
		if role == domain.RoleTeacher {
			return s.seedTeacher(ctx, repos, principal.ID, rec, now)
		}
		return s.seedStudent(ctx, repos, principal.ID, rec, now)
	})
	if err != nil {
		return false, classify("seed "+identifier, err)
	}
	return true, nil
}

func (s *BootstrapService) seedTeacher(ctx context.Context, repos port.Repositories, ownerID string, rec config.BootstrapRecord, now time.Time) error {
	existing, err := repos.Teachers().GetByEmployeeID(ctx, rec.UniqueKey)
	switch {
	case err == nil:
		if existing.OwnerPrincipalID != nil {
			return &domain.ConflictError{Kind: domain.KindTeacher, Field: domain.FieldEmployeeID}
		}
		existing.OwnerPrincipalID = &ownerID
		existing.UpdatedAt = now
		return classify("link bootstrap teacher", repos.Teachers().Update(ctx, *existing))
	case !errors.Is(err, repository.ErrNotFound):
		return classify("load bootstrap teacher", err)
	}

	return classify("create bootstrap teacher", repos.Teachers().Create(ctx, domain.Teacher{
		ID:               s.newID(),
		Name:             rec.Name,
		EmployeeID:       rec.UniqueKey,
		Email:            rec.Email,
		OwnerPrincipalID: &ownerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}))
}

func (s *BootstrapService) seedStudent(ctx context.Context, repos port.Repositories, ownerID string, rec config.BootstrapRecord, now time.Time) error {
	existing, err := repos.Students().GetByRollNumber(ctx, rec.UniqueKey)
	switch {
	case err == nil:
		if existing.OwnerPrincipalID != nil {
			return &domain.ConflictError{Kind: domain.KindStudent, Field: domain.FieldRollNumber}
		}
		existing.OwnerPrincipalID = &ownerID
		existing.UpdatedAt = now
		return classify("link bootstrap student", repos.Students().Update(ctx, *existing))
	case !errors.Is(err, repository.ErrNotFound):
		return classify("load bootstrap student", err)
	}

	return classify("create bootstrap student", repos.Students().Create(ctx, domain.Student{
		ID:               s.newID(),
		Name:             rec.Name,
		RollNumber:       rec.UniqueKey,
		Email:            rec.Email,
		OwnerPrincipalID: &ownerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}))
}
