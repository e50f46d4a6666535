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

const principalsTable = "records.principals"

var principalColumns = []string{"id", "identifier", "password_hash", "role", "enabled", "created_at"}

// PrincipalRepository implements port.PrincipalRepository using PostgreSQL.
type PrincipalRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// Create inserts a new principal row.
func (r *PrincipalRepository) Create(ctx context.Context, principal domain.Principal) error {
	stmt, args, err := r.builder.Insert(principalsTable).
		Columns(principalColumns...).
		Values(
			principal.ID,
			principal.Identifier,
			principal.PasswordHash,
			string(principal.Role),
			principal.Enabled,
			principal.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert principal sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert principal: %w", mapWriteError(err))
	}
	return nil
}

// GetByID retrieves a principal by id.
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	if !parseableID(id) {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByIdentifier retrieves a principal by login name.
func (r *PrincipalRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Principal, error) {
	return r.getOne(ctx, squirrel.Eq{"identifier": identifier})
}

// ExistsByIdentifier reports whether the login name is taken.
func (r *PrincipalRepository) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	return exists(ctx, r.exec, r.builder, principalsTable, squirrel.Eq{"identifier": identifier})
}

// Delete removes a principal. Owned records keep their rows with a cleared owner link.
func (r *PrincipalRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.exec, r.builder, principalsTable, id)
}

func (r *PrincipalRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Principal, error) {
	stmt, args, err := r.builder.
		Select(principalColumns...).
		From(principalsTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select principal sql: %w", err)
	}

	var (
		principal domain.Principal
		role      string
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&principal.ID,
		&principal.Identifier,
		&principal.PasswordHash,
		&role,
		&principal.Enabled,
		&principal.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}

	principal.Role = domain.Role(role)
	return &principal, nil
}

var _ port.PrincipalRepository = (*PrincipalRepository)(nil)
