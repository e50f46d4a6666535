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

const departmentsTable = "records.departments"

var departmentColumns = []string{"id", "name", "description", "created_at", "updated_at"}

// DepartmentRepository implements port.DepartmentRepository using PostgreSQL.
type DepartmentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func (r *DepartmentRepository) Create(ctx context.Context, d domain.Department) error {
	stmt, args, err := r.builder.Insert(departmentsTable).
		Columns(departmentColumns...).
		Values(d.ID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert department sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert department: %w", mapWriteError(err))
	}
	return nil
}

func (r *DepartmentRepository) Update(ctx context.Context, d domain.Department) error {
	return updateByID(ctx, r.exec, r.builder, departmentsTable, d.ID, map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"updated_at":  d.UpdatedAt,
	})
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.exec, r.builder, departmentsTable, id)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if !parseableID(id) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name})
}

func (r *DepartmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return exists(ctx, r.exec, r.builder, departmentsTable, squirrel.Eq{"name": name})
}

func (r *DepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	stmt, args, err := r.builder.Select(departmentColumns...).From(departmentsTable).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list departments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return departments, nil
}

func (r *DepartmentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Department, error) {
	stmt, args, err := r.builder.Select(departmentColumns...).From(departmentsTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select department sql: %w", err)
	}

	var d domain.Department
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan department: %w", err)
	}
	return &d, nil
}

var _ port.DepartmentRepository = (*DepartmentRepository)(nil)
