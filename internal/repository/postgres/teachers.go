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

const teachersTable = "records.teachers"

var teacherColumns = []string{
	"id",
	"name",
	"employee_id",
	"email",
	"department",
	"owner_principal_id",
	"created_at",
	"updated_at",
}

// TeacherRepository implements port.TeacherRepository using PostgreSQL.
type TeacherRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// Create inserts a new teacher row.
func (r *TeacherRepository) Create(ctx context.Context, t domain.Teacher) error {
	if err := checkOwnerColumn(t.OwnerPrincipalID); err != nil {
		return err
	}
	stmt, args, err := r.builder.Insert(teachersTable).
		Columns(teacherColumns...).
		Values(
			t.ID,
			t.Name,
			t.EmployeeID,
			t.Email,
			t.Department,
			t.OwnerPrincipalID,
			t.CreatedAt,
			t.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert teacher sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert teacher: %w", mapWriteError(err))
	}
	return nil
}

// Update overwrites every mutable column of an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, t domain.Teacher) error {
	if err := checkOwnerColumn(t.OwnerPrincipalID); err != nil {
		return err
	}
	return updateByID(ctx, r.exec, r.builder, teachersTable, t.ID, map[string]any{
		"name":               t.Name,
		"employee_id":        t.EmployeeID,
		"email":              t.Email,
		"department":         t.Department,
		"owner_principal_id": t.OwnerPrincipalID,
		"updated_at":         t.UpdatedAt,
	})
}

func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.exec, r.builder, teachersTable, id)
}

func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*domain.Teacher, error) {
	if !parseableID(id) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *TeacherRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"employee_id": employeeID})
}

// GetByOwner retrieves the teacher linked to a principal.
func (r *TeacherRepository) GetByOwner(ctx context.Context, principalID string) (*domain.Teacher, error) {
	if !parseableID(principalID) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"owner_principal_id": principalID})
}

func (r *TeacherRepository) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	return exists(ctx, r.exec, r.builder, teachersTable, squirrel.Eq{"employee_id": employeeID})
}

func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.exec, r.builder, teachersTable, squirrel.Eq{"email": email})
}

// List returns every teacher ordered by employee id.
func (r *TeacherRepository) List(ctx context.Context) ([]domain.Teacher, error) {
	stmt, args, err := r.builder.
		Select(teacherColumns...).
		From(teachersTable).
		OrderBy("employee_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list teachers sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query teachers: %w", err)
	}
	defer rows.Close()

	var teachers []domain.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}
	return teachers, nil
}

func (r *TeacherRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Teacher, error) {
	stmt, args, err := r.builder.
		Select(teacherColumns...).
		From(teachersTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select teacher sql: %w", err)
	}

	t, err := scanTeacher(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTeacher(row pgx.Row) (*domain.Teacher, error) {
	var t domain.Teacher
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.EmployeeID,
		&t.Email,
		&t.Department,
		&t.OwnerPrincipalID,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan teacher: %w", err)
	}
	return &t, nil
}

var _ port.TeacherRepository = (*TeacherRepository)(nil)
