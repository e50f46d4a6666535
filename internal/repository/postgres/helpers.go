package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/repository"
)

// parseableID reports whether id can be compared against a uuid column.
// Other values never match a row.
func parseableID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func checkOwnerColumn(owner *string) error {
	if owner == nil || parseableID(*owner) {
		return nil
	}
	return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "must be a UUID"}
}

func exists(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table string, where squirrel.Sqlizer) (bool, error) {
	inner, args, err := builder.Select("1").From(table).Where(where).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists sql for %s: %w", table, err)
	}

	var found bool
	if err := exec.QueryRow(ctx, "SELECT EXISTS ("+inner+")", args...).Scan(&found); err != nil {
		return false, fmt.Errorf("query exists on %s: %w", table, err)
	}
	return found, nil
}

func deleteByID(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table, id string) error {
	if !parseableID(id) {
		return repository.ErrNotFound
	}
	stmt, args, err := builder.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete sql for %s: %w", table, err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isInvalidText(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func updateByID(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table, id string, values map[string]any) error {
	if !parseableID(id) {
		return repository.ErrNotFound
	}
	stmt, args, err := builder.Update(table).SetMap(values).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update sql for %s: %w", table, err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, mapWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
