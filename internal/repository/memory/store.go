// Package memory implements the record store in process memory. It enforces
// the same unique indexes and owner-link semantics as the PostgreSQL schema
// and backs the "memory" storage driver and service tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

type dataset struct {
	principals  map[string]domain.Principal
	students    map[string]domain.Student
	teachers    map[string]domain.Teacher
	courses     map[string]domain.Course
	departments map[string]domain.Department
}

func newDataset() *dataset {
	return &dataset{
		principals:  map[string]domain.Principal{},
		students:    map[string]domain.Student{},
		teachers:    map[string]domain.Teacher{},
		courses:     map[string]domain.Course{},
		departments: map[string]domain.Department{},
	}
}

func (d *dataset) clone() *dataset {
	return &dataset{
		principals:  maps.Clone(d.principals),
		students:    maps.Clone(d.students),
		teachers:    maps.Clone(d.teachers),
		courses:     maps.Clone(d.courses),
		departments: maps.Clone(d.departments),
	}
}

// Store implements port.Store. Transactions are serialised and applied by
// swapping in a modified copy on commit.
type Store struct {
	mu   sync.Mutex
	data *dataset

	// FailWith, when set, is returned by every repository call. Tests use it
	// to simulate an unavailable store.
	FailWith error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// view scopes repository calls either to the committed data (locking per
// call) or to an open transaction's working copy.
type view struct {
	store *Store
	tx    *dataset
}

func (v view) read(fn func(d *dataset) error) error {
	if v.store.FailWith != nil {
		return v.store.FailWith
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

func (v view) Principals() port.PrincipalRepository   { return principalRepo{v} }
func (v view) Students() port.StudentRepository       { return studentRepo{v} }
func (v view) Teachers() port.TeacherRepository       { return teacherRepo{v} }
func (v view) Courses() port.CourseRepository         { return courseRepo{v} }
func (v view) Departments() port.DepartmentRepository { return departmentRepo{v} }

func (s *Store) committed() view { return view{store: s} }

func (s *Store) Principals() port.PrincipalRepository   { return s.committed().Principals() }
func (s *Store) Students() port.StudentRepository       { return s.committed().Students() }
func (s *Store) Teachers() port.TeacherRepository       { return s.committed().Teachers() }
func (s *Store) Courses() port.CourseRepository         { return s.committed().Courses() }
func (s *Store) Departments() port.DepartmentRepository { return s.committed().Departments() }

// WithinTx runs fn against a private copy and publishes it only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	if s.FailWith != nil {
		return s.FailWith
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	if err := fn(ctx, view{store: s, tx: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = working
	return nil
}

// OwnedRecordID finds the record of kind linked to principalID.
func (s *Store) OwnedRecordID(_ context.Context, kind domain.Kind, principalID string) (string, bool, error) {
	var (
		id string
		ok bool
	)
	err := s.committed().read(func(d *dataset) error {
		switch kind {
		case domain.KindStudent:
			for _, st := range d.students {
				if ownedBy(st.OwnerPrincipalID, principalID) {
					id, ok = st.ID, true
					return nil
				}
			}
		case domain.KindTeacher:
			for _, t := range d.teachers {
				if ownedBy(t.OwnerPrincipalID, principalID) {
					id, ok = t.ID, true
					return nil
				}
			}
		}
		return nil
	})
	return id, ok, err
}

// Ping reports the configured failure, if any.
func (s *Store) Ping(context.Context) error {
	return s.FailWith
}

func ownedBy(owner *string, principalID string) bool {
	return owner != nil && *owner == principalID
}

var _ port.Store = (*Store)(nil)
