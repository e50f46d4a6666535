package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

// CourseInput is the payload for creating a course.
type CourseInput struct {
	Name   string
	Code   string
	Credit int
}

// CourseService manages the course catalogue. Only teachers may change it.
type CourseService struct {
	recordCore
}

// NewCourseService constructs a CourseService.
func NewCourseService(store port.Store, policy *AccessPolicy, logger *zap.Logger, opts ...RecordOption) *CourseService {
	return &CourseService{recordCore: newRecordCore(store, policy, nil, logger, opts)}
}

func (s *CourseService) Create(ctx context.Context, actor domain.Principal, input CourseInput) (*domain.Course, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionCreate, domain.KindCourse, ""); err != nil {
		return nil, err
	}

	now := s.now()
	course := domain.Course{
		ID:        s.newID(),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.TrimSpace(input.Code),
		Credit:    input.Credit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := ensureUnique(ctx, domain.KindCourse, domain.FieldCode, func(ctx context.Context) (bool, error) {
			return repos.Courses().ExistsByCode(ctx, course.Code)
		}); err != nil {
			return err
		}
		return classify("create course", repos.Courses().Create(ctx, course))
	})
	if err != nil {
		return nil, classify("create course", err)
	}

	s.afterCommit(ctx, actor, domain.KindCourse, course.ID, domain.RecordCreated, domain.KindCourse.Fields(), false)
	return &course, nil
}

func (s *CourseService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.CoursePatch) (*domain.Course, error) {
	decision, err := s.policy.Authorize(ctx, actor, domain.ActionUpdate, domain.KindCourse, id)
	if err != nil {
		return nil, err
	}

	var (
		updated domain.Course
		changed []domain.Field
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		current, err := repos.Courses().GetByID(ctx, id)
		if err != nil {
			return notFound(domain.KindCourse, id, err)
		}

		updated = *current
		changed = patch.Apply(&updated, decision.Mutable)
		if len(changed) == 0 {
			return nil
		}
		if err := validateCourse(updated); err != nil {
			return err
		}
		if changedAny(changed, domain.FieldCode) {
			if err := ensureUnique(ctx, domain.KindCourse, domain.FieldCode, func(ctx context.Context) (bool, error) {
				return repos.Courses().ExistsByCode(ctx, updated.Code)
			}); err != nil {
				return err
			}
		}

		updated.UpdatedAt = s.now()
		return classify("update course", repos.Courses().Update(ctx, updated))
	})
	if err != nil {
		return nil, classify("update course", err)
	}

	if len(changed) > 0 {
		s.afterCommit(ctx, actor, domain.KindCourse, updated.ID, domain.RecordUpdated, changed, false)
	}
	return &updated, nil
}

// Delete removes a course. Courses have no owner, so opts is ignored.
func (s *CourseService) Delete(ctx context.Context, actor domain.Principal, id string, _ DeleteOptions) error {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionDelete, domain.KindCourse, id); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if _, err := repos.Courses().GetByID(ctx, id); err != nil {
			return notFound(domain.KindCourse, id, err)
		}
		return classify("delete course", repos.Courses().Delete(ctx, id))
	})
	if err != nil {
		return classify("delete course", err)
	}

	s.afterCommit(ctx, actor, domain.KindCourse, id, domain.RecordDeleted, nil, false)
	return nil
}

func (s *CourseService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Course, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionView, domain.KindCourse, id); err != nil {
		return nil, err
	}
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(domain.KindCourse, id, err)
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, actor domain.Principal) ([]domain.Course, error) {
	if _, err := s.policy.Authorize(ctx, actor, domain.ActionList, domain.KindCourse, ""); err != nil {
		return nil, err
	}
	courses, err := s.store.Courses().List(ctx)
	if err != nil {
		return nil, classify("list courses", err)
	}
	return courses, nil
}

func validateCourse(c domain.Course) error {
	if err := requireText(domain.FieldName, c.Name); err != nil {
		return err
	}
	if err := requireText(domain.FieldCode, c.Code); err != nil {
		return err
	}
	if c.Credit < 0 {
		return &domain.ValidationError{Field: string(domain.FieldCredit), Reason: "must not be negative"}
	}
	return nil
}
