package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

// DepartmentInput is the payload for creating a department.
type DepartmentInput struct {
	Name        string
	Description *string
}

// DepartmentService manages departments.
type DepartmentService struct {
	recordCore
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(store port.Store, policy *AccessPolicy, logger *zap.Logger, opts ...RecordOption) *DepartmentService {
	return &DepartmentService{recordCore: newRecordCore(store, policy, nil, logger, opts)}
}

func (s *DepartmentService) Create(ctx context.Context, actor domain.Principal, input DepartmentInput) (*domain.Department, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionCreate, domain.KindDepartment, ""); err != nil {
		return nil, err
	}

	now := s.now()
	department := domain.Department{
		ID:          s.newID(),
		Name:        strings.TrimSpace(input.Name),
		Description: optionalText(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := requireText(domain.FieldName, department.Name); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := ensureUnique(ctx, domain.KindDepartment, domain.FieldName, func(ctx context.Context) (bool, error) {
			return repos.Departments().ExistsByName(ctx, department.Name)
		}); err != nil {
			return err
		}
		return classify("create department", repos.Departments().Create(ctx, department))
	})
	if err != nil {
		return nil, classify("create department", err)
	}

	s.afterCommit(ctx, actor, domain.KindDepartment, department.ID, domain.RecordCreated, domain.KindDepartment.Fields(), false)
	return &department, nil
}

func (s *DepartmentService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.DepartmentPatch) (*domain.Department, error) {
	decision, err := s.policy.Authorize(ctx, actor, domain.ActionUpdate, domain.KindDepartment, id)
	if err != nil {
		return nil, err
	}

	var (
		updated domain.Department
		changed []domain.Field
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Departments().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindDepartment, id, err)
		}

		updated = *current
		changed = patch.Apply(&updated, decision.Mutable)
		if len(changed) == 0 {
			return nil
		}
		if err := requireText(domain.FieldName, updated.Name); err != nil {
			return err
		}
		if changedAny(changed, domain.FieldName) {
			if err := ensureUnique(ctx, domain.KindDepartment, domain.FieldName, func(ctx context.Context) (bool, error) {
				return repos.Departments().ExistsByName(ctx, updated.Name)
			}); err != nil {
				return err
			}
		}

		updated.UpdatedAt = s.now()
		return classify("update department", repos.Departments().Update(ctx, updated))
	})
	if err != nil {
		return nil, classify("update department", err)
	}

	if len(changed) > 0 {
		s.afterCommit(ctx, actor, domain.KindDepartment, updated.ID, domain.RecordUpdated, changed, false)
	}
	return &updated, nil
}

func (s *DepartmentService) Delete(ctx context.Context, actor domain.Principal, id string, _ DeleteOptions) error {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionDelete, domain.KindDepartment, id); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if _, err := repos.Departments().GetByID(ctx, id); err != nil {
			return notFound(domain.KindDepartment, id, err)
		}
		return classify("delete department", repos.Departments().Delete(ctx, id))
	})
	if err != nil {
		return classify("delete department", err)
	}

	s.afterCommit(ctx, actor, domain.KindDepartment, id, domain.RecordDeleted, nil, false)
	return nil
}

func (s *DepartmentService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Department, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionView, domain.KindDepartment, id); err != nil {
		return nil, err
	}
	department, err := s.store.Departments().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(domain.KindDepartment, id, err)
	}
	return department, nil
}

func (s *DepartmentService) List(ctx context.Context, actor domain.Principal) ([]domain.Department, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionList, domain.KindDepartment, ""); err != nil {
		return nil, err
	}
	departments, err := s.store.Departments().List(ctx)
	if err != nil {
		return nil, classify("list departments", err)
	}
	return departments, nil
}
