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

const coursesTable = "records.courses"

var courseColumns = []string{"id", "name", "code", "credit", "created_at", "updated_at"}

// CourseRepository implements port.CourseRepository using PostgreSQL.
type CourseRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func (r *CourseRepository) Create(ctx context.Context, c domain.Course) error {
	stmt, args, err := r.builder.Insert(coursesTable).
		Columns(courseColumns...).
		Values(c.ID, c.Name, c.Code, c.Credit, c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert course sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert course: %w", mapWriteError(err))
	}
	return nil
}

func (r *CourseRepository) Update(ctx context.Context, c domain.Course) error {
	return updateByID(ctx, r.exec, r.builder, coursesTable, c.ID, map[string]any{
		"name":       c.Name,
		"code":       c.Code,
		"credit":     c.Credit,
		"updated_at": c.UpdatedAt,
	})
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.exec, r.builder, coursesTable, id)
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	if !parseableID(id) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.exec, r.builder, coursesTable, squirrel.Eq{"code": code})
}

func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	stmt, args, err := r.builder.Select(courseColumns...).From(coursesTable).OrderBy("code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list courses sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Credit, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Course, error) {
	stmt, args, err := r.builder.Select(courseColumns...).From(coursesTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select course sql: %w", err)
	}

	var c domain.Course
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&c.ID, &c.Name, &c.Code, &c.Credit, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return &c, nil
}

var _ port.CourseRepository = (*CourseRepository)(nil)
