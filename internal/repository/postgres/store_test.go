package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/repository"
)

const (
	studentID   = "8f0c6d2e-1b7a-4c39-9a51-3f2d6e0b7c11"
	principalID = "2a4e9c17-6d35-4f0b-8e21-7c9b1d3a5f40"
	teacherID   = "c3d1b8a2-5e47-4f96-a0d3-9b2e6c4f1a58"
	courseID    = "5b7e2f90-3c1d-4a86-b4e2-0d9f8a6c3e17"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewStore(mock)
}

func TestStudentRepository_Create(t *testing.T) {
	mock, store := newMockStore(t)

	now := time.Now().UTC()
	owner := principalID
	student := domain.Student{
		ID:               studentID,
		Name:             "Ada",
		RollNumber:       "R100",
		Email:            "ada@campus.edu",
		Course:           "CS",
		OwnerPrincipalID: &owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec(`INSERT INTO records\.students`).
		WithArgs(
			student.ID,
			student.Name,
			student.RollNumber,
			student.Email,
			student.Course,
			student.PhoneNumber,
			student.Address,
			student.OwnerPrincipalID,
			student.CreatedAt,
			student.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Students().Create(context.Background(), student); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStudentRepository_CreateMapsUniqueViolation(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`INSERT INTO records\.students`).
		WithArgs(anyArgs(len(studentColumns))...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "students_roll_number_key"})

	err := store.Students().Create(context.Background(), domain.Student{ID: studentID, RollNumber: "R100"})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != domain.KindStudent || conflict.Field != domain.FieldRollNumber {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected errors.Is ErrConflict")
	}
}

func TestStudentRepository_GetByIDNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM records\.students WHERE id = \$1`).
		WithArgs(studentID).
		WillReturnRows(pgxmock.NewRows(studentColumns))

	_, err := store.Students().GetByID(context.Background(), studentID)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentRepository_GetByOwner(t *testing.T) {
	mock, store := newMockStore(t)

	now := time.Now().UTC()
	owner := principalID
	var missing *string
	rows := pgxmock.NewRows(studentColumns).AddRow(
		studentID, "Ada", "R100", "ada@campus.edu", "CS", missing, missing, &owner, now, now,
	)
	mock.ExpectQuery(`SELECT .* FROM records\.students WHERE owner_principal_id = \$1`).
		WithArgs(principalID).
		WillReturnRows(rows)

	student, err := store.Students().GetByOwner(context.Background(), principalID)
	if err != nil {
		t.Fatalf("GetByOwner returned error: %v", err)
	}
	if student.RollNumber != "R100" || student.PhoneNumber != nil {
		t.Fatalf("unexpected student %+v", student)
	}
	if student.OwnerPrincipalID == nil || *student.OwnerPrincipalID != principalID {
		t.Fatalf("expected owner link populated")
	}
}

func TestCourseRepository_UpdateMissingRow(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec(`UPDATE records\.courses SET`).
		WithArgs("MA101", 3, "Algebra", pgxmock.AnyArg(), courseID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Courses().Update(context.Background(), domain.Course{ID: courseID, Name: "Algebra", Code: "MA101", Credit: 3})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPrincipalRepository_ExistsByIdentifier(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM records\.principals WHERE identifier = \$1\)`).
		WithArgs("teacher").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := store.Principals().ExistsByIdentifier(context.Background(), "teacher")
	if err != nil {
		t.Fatalf("ExistsByIdentifier returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected identifier to exist")
	}
}

func TestPrincipalRepository_GetByIdentifier(t *testing.T) {
	mock, store := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .* FROM records\.principals WHERE identifier = \$1`).
		WithArgs("student").
		WillReturnRows(pgxmock.NewRows(principalColumns).AddRow(principalID, "student", "hash", "STUDENT", true, now))

	principal, err := store.Principals().GetByIdentifier(context.Background(), "student")
	if err != nil {
		t.Fatalf("GetByIdentifier returned error: %v", err)
	}
	if principal.Role != domain.RoleStudent || !principal.Enabled {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestStore_WithinTxCommits(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records\.principals`).
		WithArgs(anyArgs(len(principalColumns))...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO records\.students`).
		WithArgs(anyArgs(len(studentColumns))...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Principals().Create(ctx, domain.Principal{ID: principalID, Identifier: "ada", Role: domain.RoleStudent}); err != nil {
			return err
		}
		return repos.Students().Create(ctx, domain.Student{ID: studentID, RollNumber: "R1"})
	})
	if err != nil {
		t.Fatalf("WithinTx returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO records\.principals`).
		WithArgs(anyArgs(len(principalColumns))...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO records\.students`).
		WithArgs(anyArgs(len(studentColumns))...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "students_email_key"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Principals().Create(ctx, domain.Principal{ID: principalID, Identifier: "ada", Role: domain.RoleStudent}); err != nil {
			return err
		}
		return repos.Students().Create(ctx, domain.Student{ID: studentID, RollNumber: "R1", Email: "dup@campus.edu"})
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Field != domain.FieldEmail {
		t.Fatalf("expected email conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_OwnedRecordID(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM records\.teachers WHERE owner_principal_id = \$1`).
		WithArgs(principalID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(teacherID))

	id, ok, err := store.OwnedRecordID(context.Background(), domain.KindTeacher, principalID)
	if err != nil || !ok || id != teacherID {
		t.Fatalf("unexpected result id=%q ok=%v err=%v", id, ok, err)
	}

	id, ok, err = store.OwnedRecordID(context.Background(), domain.KindCourse, principalID)
	if err != nil || ok || id != "" {
		t.Fatalf("courses are never owned, got id=%q ok=%v err=%v", id, ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_OwnedRecordIDMissing(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM records\.students`).
		WithArgs(principalID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, ok, err := store.OwnedRecordID(context.Background(), domain.KindStudent, principalID)
	if err != nil || ok {
		t.Fatalf("expected no owned record, ok=%v err=%v", ok, err)
	}
}

func TestRepositories_MalformedIDIsNotFound(t *testing.T) {
	mock, store := newMockStore(t)
	ctx := context.Background()

	if _, err := store.Students().GetByID(ctx, "404"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("students: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Teachers().GetByOwner(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("teachers: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Principals().GetByID(ctx, "p-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("principals: expected ErrNotFound, got %v", err)
	}
	if err := store.Courses().Delete(ctx, "CS101"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("courses delete: expected ErrNotFound, got %v", err)
	}
	if err := store.Departments().Update(ctx, domain.Department{ID: "math", Name: "Math"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("departments update: expected ErrNotFound, got %v", err)
	}
	if _, ok, err := store.OwnedRecordID(ctx, domain.KindStudent, "404"); err != nil || ok {
		t.Fatalf("expected no owned record, ok=%v err=%v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("malformed ids must not reach the database: %v", err)
	}
}

func TestStudentRepository_GetByIDInvalidTextIsNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM records\.students WHERE id = \$1`).
		WithArgs(studentID).
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})

	_, err := store.Students().GetByID(context.Background(), studentID)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentRepository_MalformedOwnerIsValidationError(t *testing.T) {
	mock, store := newMockStore(t)

	owner := "not-a-uuid"
	err := store.Students().Create(context.Background(), domain.Student{ID: studentID, RollNumber: "R1", OwnerPrincipalID: &owner})

	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != string(domain.FieldOwnerPrincipalID) {
		t.Fatalf("expected owner validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMapWriteError_InvalidText(t *testing.T) {
	err := mapWriteError(&pgconn.PgError{Code: "22P02"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
