package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

// TeacherInput is the payload for creating a teacher record.
type TeacherInput struct {
	Name             string
	EmployeeID       string
	Email            string
	Department       *string
	OwnerPrincipalID *string
	Account          *AccountInput
}

// TeacherService manages teacher records.
type TeacherService struct {
	recordCore
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(store port.Store, policy *AccessPolicy, hasher port.PasswordHasher, logger *zap.Logger, opts ...RecordOption) *TeacherService {
	return &TeacherService{recordCore: newRecordCore(store, policy, hasher, logger, opts)}
}

func (s *TeacherService) Create(ctx context.Context, actor domain.Principal, input TeacherInput) (*domain.Teacher, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionCreate, domain.KindTeacher, ""); err != nil {
		return nil, err
	}

	if input.Account != nil && optionalText(input.OwnerPrincipalID) != nil {
		return nil, &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "cannot be combined with account credentials"}
	}

	now := s.now()
	teacher := domain.Teacher{
		ID:               s.newID(),
		Name:             strings.TrimSpace(input.Name),
		EmployeeID:       strings.TrimSpace(input.EmployeeID),
		Email:            strings.TrimSpace(input.Email),
		Department:       optionalText(input.Department),
		OwnerPrincipalID: optionalText(input.OwnerPrincipalID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateTeacher(teacher); err != nil {
		return nil, err
	}

	var account *domain.Principal
	if input.Account != nil {
		var err error
		if account, err = s.newAccount(*input.Account, domain.RoleTeacher); err != nil {
			return nil, err
		}
		teacher.OwnerPrincipalID = &account.ID
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := ensureUnique(ctx, domain.KindTeacher, domain.FieldEmployeeID, func(ctx context.Context) (bool, error) {
			return repos.Teachers().ExistsByEmployeeID(ctx, teacher.EmployeeID)
		}); err != nil {
			return err
		}
		if err := ensureUnique(ctx, domain.KindTeacher, domain.FieldEmail, func(ctx context.Context) (bool, error) {
			return repos.Teachers().ExistsByEmail(ctx, teacher.Email)
		}); err != nil {
			return err
		}

		switch {
		case account != nil:
			if err := s.createAccount(ctx, repos, *account); err != nil {
				return err
			}
		case teacher.OwnerPrincipalID != nil:
			if err := s.checkOwner(ctx, repos, domain.KindTeacher, *teacher.OwnerPrincipalID, teacher.ID); err != nil {
				return err
			}
		}

		return classify("create teacher", repos.Teachers().Create(ctx, teacher))
	})
	if err != nil {
		return nil, classify("create teacher", err)
	}

	s.afterCommit(ctx, actor, domain.KindTeacher, teacher.ID, domain.RecordCreated, domain.KindTeacher.Fields(), false)
	return &teacher, nil
}

func (s *TeacherService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.TeacherPatch) (*domain.Teacher, error) {
	decision, err := s.policy.Authorize(ctx, actor, domain.ActionUpdate, domain.KindTeacher, id)
	if err != nil {
		return nil, err
	}

	var (
		updated domain.Teacher
		changed []domain.Field
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Teachers().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindTeacher, id, err)
		}

		updated = *current
		changed = patch.Apply(&updated, decision.Mutable)
		if len(changed) == 0 {
			return nil
		}
		if err := validateTeacher(updated); err != nil {
			return err
		}

		if changedAny(changed, domain.FieldEmployeeID) {
			if err := ensureUnique(ctx, domain.KindTeacher, domain.FieldEmployeeID, func(ctx context.Context) (bool, error) {
				return repos.Teachers().ExistsByEmployeeID(ctx, updated.EmployeeID)
			}); err != nil {
				return err
			}
		}
		if changedAny(changed, domain.FieldEmail) {
			if err := ensureUnique(ctx, domain.KindTeacher, domain.FieldEmail, func(ctx context.Context) (bool, error) {
				return repos.Teachers().ExistsByEmail(ctx, updated.Email)
			}); err != nil {
				return err
			}
		}
		if changedAny(changed, domain.FieldOwnerPrincipalID) && updated.OwnerPrincipalID != nil {
			if err := s.checkOwner(ctx, repos, domain.KindTeacher, *updated.OwnerPrincipalID, updated.ID); err != nil {
				return err
			}
		}

		updated.UpdatedAt = s.now()
		return classify("update teacher", repos.Teachers().Update(ctx, updated))
	})
	if err != nil {
		return nil, classify("update teacher", err)
	}

	if len(changed) > 0 {
		s.afterCommit(ctx, actor, domain.KindTeacher, updated.ID, domain.RecordUpdated, changed, false)
	}
	return &updated, nil
}

func (s *TeacherService) Delete(ctx context.Context, actor domain.Principal, id string, opts DeleteOptions) error {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionDelete, domain.KindTeacher, id); err != nil {
		return err
	}

	var ownerRemoved bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Teachers().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindTeacher, id, err)
		}
		if err := repos.Teachers().Delete(ctx, id); err != nil {
			return classify("delete teacher", err)
		}
		ownerRemoved, err = removeOwner(ctx, repos, actor, current.OwnerPrincipalID, opts)
		return err
	})
	if err != nil {
		return classify("delete teacher", err)
	}

	s.afterCommit(ctx, actor, domain.KindTeacher, id, domain.RecordDeleted, nil, ownerRemoved)
	return nil
}

func (s *TeacherService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Teacher, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionView, domain.KindTeacher, id); err != nil {
		return nil, err
	}
	teacher, err := s.store.Teachers().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(domain.KindTeacher, id, err)
	}
	return teacher, nil
}

func (s *TeacherService) List(ctx context.Context, actor domain.Principal) ([]domain.Teacher, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionList, domain.KindTeacher, ""); err != nil {
		return nil, err
	}
	teachers, err := s.store.Teachers().List(ctx)
	if err != nil {
		return nil, classify("list teachers", err)
	}
	return teachers, nil
}

func validateTeacher(t domain.Teacher) error {
	if err := requireText(domain.FieldName, t.Name); err != nil {
		return err
	}
	if err := requireText(domain.FieldEmployeeID, t.EmployeeID); err != nil {
		return err
	}
	return requireEmail(t.Email)
}
