package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/repository"
)

// Profile is the acting principal together with the record it owns.
type Profile struct {
	Principal domain.Principal
	Student   *domain.Student
	Teacher   *domain.Teacher
}

// ProfilePatch carries self-service changes. Only the part matching the
// principal's role is applied; unique keys and owner links are never taken
// from it.
type ProfilePatch struct {
	Student domain.StudentPatch
	Teacher domain.TeacherPatch
}

// ProfileService serves the "my profile" views for any signed-in principal.
type ProfileService struct {
	store    port.Store
	students *StudentService
	teachers *TeacherService
}

// NewProfileService constructs a ProfileService.
func NewProfileService(store port.Store, students *StudentService, teachers *TeacherService) *ProfileService {
	return &ProfileService{store: store, students: students, teachers: teachers}
}

// Me returns the actor and its owned record, if any.
func (s *ProfileService) Me(ctx context.Context, actor domain.Principal) (Profile, error) {
	profile := Profile{Principal: actor.Sanitized()}

	switch actor.Role {
	case domain.RoleStudent:
		student, err := s.store.Students().GetByOwner(ctx, actor.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return Profile{}, classify("load own student", err)
		}
		profile.Student = student
	case domain.RoleTeacher:
		teacher, err := s.store.Teachers().GetByOwner(ctx, actor.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return Profile{}, classify("load own teacher", err)
		}
		profile.Teacher = teacher
	}

	return profile, nil
}

// UpdateMyProfile applies patch to the actor's own record through the regular
// update path, so the access policy still decides the writable fields.
func (s *ProfileService) UpdateMyProfile(ctx context.Context, actor domain.Principal, patch ProfilePatch) (Profile, error) {
	kind := domain.KindStudent
	if actor.Role == domain.RoleTeacher {
		kind = domain.KindTeacher
	}

	id, ok, err := s.store.OwnedRecordID(ctx, kind, actor.ID)
	if err != nil {
		return Profile{}, &domain.StorageError{Op: "resolve own record", Err: err}
	}
	if !ok {
		return Profile{}, fmt.Errorf("%w: no %s record is linked to this account", domain.ErrNotFound, kind)
	}

	profile := Profile{Principal: actor.Sanitized()}
	switch kind {
	case domain.KindTeacher:
		p := patch.Teacher
		p.EmployeeID, p.OwnerPrincipalID = nil, nil
		if profile.Teacher, err = s.teachers.Update(ctx, actor, id, p); err != nil {
			return Profile{}, err
		}
	default:
		p := patch.Student
		p.RollNumber, p.OwnerPrincipalID = nil, nil
		if profile.Student, err = s.students.Update(ctx, actor, id, p); err != nil {
			return Profile{}, err
		}
	}
	return profile, nil
}
