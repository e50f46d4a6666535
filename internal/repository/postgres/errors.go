package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/campus-records/internal/core/domain"
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

type uniqueTarget struct {
	kind  domain.Kind
	field domain.Field
}

var uniqueConstraints = map[string]uniqueTarget{
	"principals_identifier_key":       {field: domain.FieldIdentifier},
	"students_roll_number_key":        {kind: domain.KindStudent, field: domain.FieldRollNumber},
	"students_email_key":              {kind: domain.KindStudent, field: domain.FieldEmail},
	"students_owner_principal_id_key": {kind: domain.KindStudent, field: domain.FieldOwnerPrincipalID},
	"teachers_employee_id_key":        {kind: domain.KindTeacher, field: domain.FieldEmployeeID},
	"teachers_email_key":              {kind: domain.KindTeacher, field: domain.FieldEmail},
	"teachers_owner_principal_id_key": {kind: domain.KindTeacher, field: domain.FieldOwnerPrincipalID},
	"courses_code_key":                {kind: domain.KindCourse, field: domain.FieldCode},
	"departments_name_key":            {kind: domain.KindDepartment, field: domain.FieldName},
}

// mapWriteError converts unique index violations into domain conflicts, a
// dangling or malformed owner link into a validation error, and leaves every
// other error untouched.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case foreignKeyViolation:
		return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "referenced principal does not exist"}
	case invalidTextRepresentation:
		return &domain.ValidationError{Field: string(domain.FieldOwnerPrincipalID), Reason: "must be a UUID"}
	}
	if pgErr.Code != uniqueViolation {
		return err
	}
	if target, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
		return &domain.ConflictError{Kind: target.kind, Field: target.field}
	}
	return &domain.ConflictError{Field: domain.Field(pgErr.ConstraintName)}
}

// isInvalidText reports a value the server could not parse for its column
// type, such as a non-UUID id.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}
