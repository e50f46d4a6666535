package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

// StudentInput is the payload for creating a student record. Account, when
// set, creates the student's login principal in the same unit of work.
type StudentInput struct {
	Name             string
	RollNumber       string
	Email            string
	Course           string
	PhoneNumber      *string
	Address          *string
	OwnerPrincipalID *string
	Account          *AccountInput
}

// StudentService manages student records.
type StudentService struct {
	recordCore
}

// NewStudentService constructs a StudentService.
func NewStudentService(store port.Store, policy *AccessPolicy, hasher port.PasswordHasher, logger *zap.Logger, opts ...RecordOption) *StudentService {
	return &StudentService{recordCore: newRecordCore(store, policy, hasher, logger, opts)}
}

// Create inserts a student, and its principal when credentials are supplied.
func (s *StudentService) Create(ctx context.Context, actor domain.Principal, input StudentInput) (*domain.Student, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionCreate, domain.KindStudent, ""); err != nil {
		return nil, err
	}

	if input.Account != nil && optionalText(input.OwnerPrincipalID) != nil {
		return nil, &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "cannot be combined with account credentials"}
	}

	now := s.now()
	student := domain.Student{
		ID:               s.newID(),
		Name:             strings.TrimSpace(input.Name),
		RollNumber:       strings.TrimSpace(input.RollNumber),
		Email:            strings.TrimSpace(input.Email),
		Course:           strings.TrimSpace(input.Course),
		PhoneNumber:      optionalText(input.PhoneNumber),
		Address:          optionalText(input.Address),
		OwnerPrincipalID: optionalText(input.OwnerPrincipalID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateStudent(student); err != nil {
		return nil, err
	}

	var account *domain.Principal
	if input.Account != nil {
		var err error
		if account, err = s.newAccount(*input.Account, domain.RoleStudent); err != nil {
			return nil, err
		}
		student.OwnerPrincipalID = &account.ID
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := ensureUnique(ctx, domain.KindStudent, domain.FieldRollNumber, func(ctx context.Context) (bool, error) {
			return repos.Students().ExistsByRollNumber(ctx, student.RollNumber)
		}); err != nil {
			return err
		}
		if err := ensureUnique(ctx, domain.KindStudent, domain.FieldEmail, func(ctx context.Context) (bool, error) {
			return repos.Students().ExistsByEmail(ctx, student.Email)
		}); err != nil {
			return err
		}

		switch {
		case account != nil:
			if err := s.createAccount(ctx, repos, *account); err != nil {
				return err
			}
		case student.OwnerPrincipalID != nil:
			if err := s.checkOwner(ctx, repos, domain.KindStudent, *student.OwnerPrincipalID, student.ID); err != nil {
				return err
			}
		}

		return classify("create student", repos.Students().Create(ctx, student))
	})
	if err != nil {
		return nil, classify("create student", err)
	}

	s.afterCommit(ctx, actor, domain.KindStudent, student.ID, domain.RecordCreated, domain.KindStudent.Fields(), false)
	return &student, nil
}

// Update applies the fields of patch the actor may change. Fields outside the
// actor's mask are ignored; applying the same patch twice leaves the same state.
func (s *StudentService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.StudentPatch) (*domain.Student, error) {
	decision, err := s.policy.Authorize(ctx, actor, domain.ActionUpdate, domain.KindStudent, id)
	if err != nil {
		return nil, err
	}

	var (
		updated domain.Student
		changed []domain.Field
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Students().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindStudent, id, err)
		}

		updated = *current
		changed = patch.Apply(&updated, decision.Mutable)
		if len(changed) == 0 {
			return nil
		}
		if err := validateStudent(updated); err != nil {
			return err
		}

		if changedAny(changed, domain.FieldRollNumber) {
			if err := ensureUnique(ctx, domain.KindStudent, domain.FieldRollNumber, func(ctx context.Context) (bool, error) {
				return repos.Students().ExistsByRollNumber(ctx, updated.RollNumber)
			}); err != nil {
				return err
			}
		}
		if changedAny(changed, domain.FieldEmail) {
			if err := ensureUnique(ctx, domain.KindStudent, domain.FieldEmail, func(ctx context.Context) (bool, error) {
				return repos.Students().ExistsByEmail(ctx, updated.Email)
			}); err != nil {
				return err
			}
		}
		if changedAny(changed, domain.FieldOwnerPrincipalID) && updated.OwnerPrincipalID != nil {
			if err := s.checkOwner(ctx, repos, domain.KindStudent, *updated.OwnerPrincipalID, updated.ID); err != nil {
				return err
			}
		}

		updated.UpdatedAt = s.now()
		return classify("update student", repos.Students().Update(ctx, updated))
	})
	if err != nil {
		return nil, classify("update student", err)
	}

	if len(changed) > 0 {
		s.afterCommit(ctx, actor, domain.KindStudent, updated.ID, domain.RecordUpdated, changed, false)
	}
	return &updated, nil
}

// Delete removes the student and, when opts.CascadeOwner is set, its principal.
func (s *StudentService) Delete(ctx context.Context, actor domain.Principal, id string, opts DeleteOptions) error {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionDelete, domain.KindStudent, id); err != nil {
		return err
	}

	var ownerRemoved bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Students().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindStudent, id, err)
		}
		if err := repos.Students().Delete(ctx, id); err != nil {
			return classify("delete student", err)
		}
		ownerRemoved, err = removeOwner(ctx, repos, actor, current.OwnerPrincipalID, opts)
		return err
	})
	if err != nil {
		return classify("delete student", err)
	}

	s.afterCommit(ctx, actor, domain.KindStudent, id, domain.RecordDeleted, nil, ownerRemoved)
	return nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Student, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionView, domain.KindStudent, id); err != nil {
		return nil, err
	}
	student, err := s.store.Students().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(domain.KindStudent, id, err)
	}
	return student, nil
}

// List returns every student ordered by roll number.
func (s *StudentService) List(ctx context.Context, actor domain.Principal) ([]domain.Student, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionList, domain.KindStudent, ""); err != nil {
		return nil, err
	}
	students, err := s.store.Students().List(ctx)
	if err != nil {
		return nil, classify("list students", err)
	}
	return students, nil
}

func validateStudent(s domain.Student) error {
	if err := requireText(domain.FieldName, s.Name); err != nil {
		return err
	}
	if err := requireText(domain.FieldRollNumber, s.RollNumber); err != nil {
		return err
	}
	return requireEmail(s.Email)
}
