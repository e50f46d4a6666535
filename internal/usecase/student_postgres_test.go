package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-records/internal/core/domain"
	postgresrepo "github.com/arklim/campus-records/internal/repository/postgres"
)

func newPostgresStudents(t *testing.T) (pgxmock.PgxPoolIface, *StudentService) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	store := postgresrepo.NewStore(mock)
	return mock, NewStudentService(store, NewAccessPolicy(store), plainHasher{}, zaptest.NewLogger(t))
}

func TestStudentService_Get_MalformedIDIsNotFound(t *testing.T) {
	mock, students := newPostgresStudents(t)

	_, err := students.Get(context.Background(), teacherPrincipal(), "404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrStorage) {
		t.Fatalf("malformed id reported as storage failure: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStudentService_Get_InvalidTextFromServerIsNotFound(t *testing.T) {
	mock, students := newPostgresStudents(t)

	id := "0e6f3a52-9d1c-4b87-a2f4-6c8d0b1e3a79"
	mock.ExpectQuery(`SELECT .* FROM records\.students`).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid`})

	_, err := students.Get(context.Background(), teacherPrincipal(), id)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentService_Create_MalformedOwnerIsValidationError(t *testing.T) {
	mock, students := newPostgresStudents(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM records\.students WHERE roll_number = \$1\)`).
		WithArgs("R-9").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM records\.students WHERE email = \$1\)`).
		WithArgs("nine@x.edu").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := students.Create(context.Background(), teacherPrincipal(), StudentInput{
		Name:             "Nine",
		RollNumber:       "R-9",
		Email:            "nine@x.edu",
		Course:           "CS",
		OwnerPrincipalID: strPtr("principal-nine"),
	})

	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != string(domain.FieldOwnerPrincipalID) {
		t.Fatalf("expected owner validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
