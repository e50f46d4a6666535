package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/core/port"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgPool is satisfied by *pgxpool.Pool and by pgxmock pools.
type pgPool interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store implements port.Store on PostgreSQL.
type Store struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
	repos   *repositories
}

// NewStore wires repositories backed by the supplied pool.
func NewStore(pool pgPool) *Store {
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return &Store{
		pool:    pool,
		builder: builder,
		repos:   newRepositories(pool, builder),
	}
}

type repositories struct {
	principals  *PrincipalRepository
	students    *StudentRepository
	teachers    *TeacherRepository
	courses     *CourseRepository
	departments *DepartmentRepository
}

func newRepositories(exec pgExecutor, builder squirrel.StatementBuilderType) *repositories {
	return &repositories{
		principals:  &PrincipalRepository{exec: exec, builder: builder},
		students:    &StudentRepository{exec: exec, builder: builder},
		teachers:    &TeacherRepository{exec: exec, builder: builder},
		courses:     &CourseRepository{exec: exec, builder: builder},
		departments: &DepartmentRepository{exec: exec, builder: builder},
	}
}

func (r *repositories) Principals() port.PrincipalRepository   { return r.principals }
func (r *repositories) Students() port.StudentRepository       { return r.students }
func (r *repositories) Teachers() port.TeacherRepository       { return r.teachers }
func (r *repositories) Courses() port.CourseRepository         { return r.courses }
func (r *repositories) Departments() port.DepartmentRepository { return r.departments }

func (s *Store) Principals() port.PrincipalRepository   { return s.repos.principals }
func (s *Store) Students() port.StudentRepository       { return s.repos.students }
func (s *Store) Teachers() port.TeacherRepository       { return s.repos.teachers }
func (s *Store) Courses() port.CourseRepository         { return s.repos.courses }
func (s *Store) Departments() port.DepartmentRepository { return s.repos.departments }

// WithinTx runs fn inside a single database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, newRepositories(tx, s.builder)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// OwnedRecordID looks up the record of kind linked to principalID.
func (s *Store) OwnedRecordID(ctx context.Context, kind domain.Kind, principalID string) (string, bool, error) {
	table, ok := ownableTables[kind]
	if !ok || !parseableID(principalID) {
		return "", false, nil
	}

	stmt, args, err := s.builder.
		Select("id").
		From(table).
		Where(squirrel.Eq{"owner_principal_id": principalID}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build owned record sql: %w", err)
	}

	var id string
	if err := s.pool.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select owned %s: %w", kind, err)
	}
	return id, true, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var ownableTables = map[domain.Kind]string{
	domain.KindStudent: studentsTable,
	domain.KindTeacher: teachersTable,
}

var _ port.Store = (*Store)(nil)
