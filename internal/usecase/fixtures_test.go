package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/repository/memory"
)

// plainHasher stores passwords with a readable prefix so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain$") {
		return false, errors.New("unexpected hash format")
	}
	return encoded == "plain$"+password, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.RecordChangedEvent
	err    error
}

func (r *eventRecorder) PublishRecordChanged(_ context.Context, event domain.RecordChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *eventRecorder) changes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, fmt.Sprintf("%s.%s", e.Kind, e.Change))
	}
	return out
}

type recordsEnv struct {
	store       *memory.Store
	policy      *AccessPolicy
	students    *StudentService
	teachers    *TeacherService
	courses     *CourseService
	departments *DepartmentService
	profiles    *ProfileService
	events      *eventRecorder
	seq         int
}

var fixedNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func newRecordsEnv(t *testing.T) *recordsEnv {
	t.Helper()

	env := &recordsEnv{store: memory.NewStore(), events: &eventRecorder{}}
	env.policy = NewAccessPolicy(env.store)

	opts := []RecordOption{
		WithEventPublisher(env.events),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			env.seq++
			return fmt.Sprintf("id-%03d", env.seq)
		}),
	}
	log := zaptest.NewLogger(t)

	env.students = NewStudentService(env.store, env.policy, plainHasher{}, log, opts...)
	env.teachers = NewTeacherService(env.store, env.policy, plainHasher{}, log, opts...)
	env.courses = NewCourseService(env.store, env.policy, log, opts...)
	env.departments = NewDepartmentService(env.store, env.policy, log, opts...)
	env.profiles = NewProfileService(env.store, env.students, env.teachers)
	return env
}

func teacherPrincipal() domain.Principal {
	return domain.Principal{ID: "teacher-principal", Identifier: "teacher", Role: domain.RoleTeacher, Enabled: true}
}

// addStudentAccount creates a student record owned by a fresh student principal
// and returns both.
func (e *recordsEnv) addStudentAccount(t *testing.T, identifier, rollNumber string) (domain.Principal, *domain.Student) {
	t.Helper()

	student, err := e.students.Create(context.Background(), teacherPrincipal(), StudentInput{
		Name:       "Student " + identifier,
		RollNumber: rollNumber,
		Email:      identifier + "@x.edu",
		Account:    &AccountInput{Identifier: identifier, Password: "secret-" + identifier},
	})
	if err != nil {
		t.Fatalf("create student account: %v", err)
	}

	principal, err := e.store.Principals().GetByIdentifier(context.Background(), identifier)
	if err != nil {
		t.Fatalf("load principal: %v", err)
	}
	return *principal, student
}

func strPtr(v string) *string { return &v }

// failingStudentsStore fails every student insert made inside a transaction.
type failingStudentsStore struct {
	*memory.Store
	err error
}

func (s failingStudentsStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		return fn(ctx, failingRepos{Repositories: repos, err: s.err})
	})
}

type failingRepos struct {
	port.Repositories
	err error
}

func (r failingRepos) Students() port.StudentRepository {
	return failingStudents{StudentRepository: r.Repositories.Students(), err: r.err}
}

type failingStudents struct {
	port.StudentRepository
	err error
}

func (f failingStudents) Create(context.Context, domain.Student) error {
	return f.err
}

type ownerResolverFunc func(ctx context.Context, kind domain.Kind, principalID string) (string, bool, error)

func (f ownerResolverFunc) OwnedRecordID(ctx context.Context, kind domain.Kind, principalID string) (string, bool, error) {
	return f(ctx, kind, principalID)
}
