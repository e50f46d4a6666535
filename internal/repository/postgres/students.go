package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/repository"
)

const studentsTable = "records.students"

var studentColumns = []string{
	"id",
	"name",
	"roll_number",
	"email",
	"course",
	"phone_number",
	"address",
	"owner_principal_id",
	"created_at",
	"updated_at",
}

// StudentRepository implements port.StudentRepository using PostgreSQL.
type StudentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// Create inserts a new student row.
func (r *StudentRepository) Create(ctx context.Context, s domain.Student) error {
	if err := checkOwnerColumn(s.OwnerPrincipalID); err != nil {
		return err
	}
	stmt, args, err := r.builder.Insert(studentsTable).
		Columns(studentColumns...).
		Values(
			s.ID,
			s.Name,
			s.RollNumber,
			s.Email,
			s.Course,
			s.PhoneNumber,
			s.Address,
			s.OwnerPrincipalID,
			s.CreatedAt,
			s.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert student sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert student: %w", mapWriteError(err))
	}
	return nil
}

// Update overwrites every mutable column of an existing student.
func (r *StudentRepository) Update(ctx context.Context, s domain.Student) error {
	if err := checkOwnerColumn(s.OwnerPrincipalID); err != nil {
		return err
	}
	return updateByID(ctx, r.exec, r.builder, studentsTable, s.ID, map[string]any{
		"name":               s.Name,
		"roll_number":        s.RollNumber,
		"email":              s.Email,
		"course":             s.Course,
		"phone_number":       s.PhoneNumber,
		"address":            s.Address,
		"owner_principal_id": s.OwnerPrincipalID,
		"updated_at":         s.UpdatedAt,
	})
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.exec, r.builder, studentsTable, id)
}

// GetByID retrieves a student by id.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	if !parseableID(id) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByRollNumber retrieves a student by roll number.
func (r *StudentRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*domain.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"roll_number": rollNumber})
}

// GetByOwner retrieves the student linked to a principal.
func (r *StudentRepository) GetByOwner(ctx context.Context, principalID string) (*domain.Student, error) {
	if !parseableID(principalID) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"owner_principal_id": principalID})
}

func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error) {
	return exists(ctx, r.exec, r.builder, studentsTable, squirrel.Eq{"roll_number": rollNumber})
}

func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.exec, r.builder, studentsTable, squirrel.Eq{"email": email})
}

// List returns every student ordered by roll number.
func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	stmt, args, err := r.builder.
		Select(studentColumns...).
		From(studentsTable).
		OrderBy("roll_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Student, error) {
	stmt, args, err := r.builder.
		Select(studentColumns...).
		From(studentsTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select student sql: %w", err)
	}

	s, err := scanStudent(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var s domain.Student
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.RollNumber,
		&s.Email,
		&s.Course,
		&s.PhoneNumber,
		&s.Address,
		&s.OwnerPrincipalID,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan student: %w", err)
	}
	return &s, nil
}

var _ port.StudentRepository = (*StudentRepository)(nil)
