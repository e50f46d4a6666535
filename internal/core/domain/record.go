package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind names a family of records.
type Kind string

const (
	KindStudent    Kind = "student"
	KindTeacher    Kind = "teacher"
	KindCourse     Kind = "course"
	KindDepartment Kind = "department"
)

// Field names a mutable attribute of a record.
type Field string

const (
	FieldName             Field = "name"
	FieldRollNumber       Field = "roll_number"
	FieldEmail            Field = "email"
	FieldCourse           Field = "course"
	FieldPhoneNumber      Field = "phone_number"
	FieldAddress          Field = "address"
	FieldEmployeeID       Field = "employee_id"
	FieldDepartment       Field = "department"
	FieldCode             Field = "code"
	FieldCredit           Field = "credit"
	FieldDescription      Field = "description"
	FieldOwnerPrincipalID Field = "owner_principal_id"
	FieldIdentifier       Field = "identifier"
)

type kindSchema struct {
	fields    []Field
	uniqueKey Field
	ownable   bool
}

var kindSchemas = map[Kind]kindSchema{
	KindStudent: {
		fields:    []Field{FieldName, FieldRollNumber, FieldEmail, FieldCourse, FieldPhoneNumber, FieldAddress, FieldOwnerPrincipalID},
		uniqueKey: FieldRollNumber,
		ownable:   true,
	},
	KindTeacher: {
		fields:    []Field{FieldName, FieldEmployeeID, FieldEmail, FieldDepartment, FieldOwnerPrincipalID},
		uniqueKey: FieldEmployeeID,
		ownable:   true,
	},
	KindCourse: {
		fields:    []Field{FieldName, FieldCode, FieldCredit},
		uniqueKey: FieldCode,
	},
	KindDepartment: {
		fields:    []Field{FieldName, FieldDescription},
		uniqueKey: FieldName,
	},
}

// Kinds lists every record kind.
func Kinds() []Kind {
	return []Kind{KindStudent, KindTeacher, KindCourse, KindDepartment}
}

var kindSegments = map[string]Kind{
	"students":    KindStudent,
	"teachers":    KindTeacher,
	"courses":     KindCourse,
	"departments": KindDepartment,
}

// Segment is the collection name of the kind in URLs and CLI arguments.
func (k Kind) Segment() string {
	for segment, kind := range kindSegments {
		if kind == k {
			return segment
		}
	}
	return ""
}

// ParseKind converts a collection segment such as "students" into a Kind.
func ParseKind(value string) (Kind, error) {
	k, ok := kindSegments[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown record collection %q", value)}
	}
	return k, nil
}

// Fields lists every writable field of the kind.
func (k Kind) Fields() []Field {
	schema := kindSchemas[k]
	out := make([]Field, len(schema.fields))
	copy(out, schema.fields)
	return out
}

// UniqueKey returns the field that identifies a record of this kind.
func (k Kind) UniqueKey() Field {
	return kindSchemas[k].uniqueKey
}

// Ownable reports whether records of this kind may be linked to a principal.
func (k Kind) Ownable() bool {
	return kindSchemas[k].ownable
}

// SelfServiceMask is the mask an owner gets on their own record.
func (k Kind) SelfServiceMask() FieldMask {
	if !k.Ownable() {
		return NoFields()
	}
	return FieldsOf(k.Fields()...).Without(k.UniqueKey(), FieldOwnerPrincipalID)
}

func (k Kind) String() string {
	return string(k)
}

// Student is a learner record; RollNumber and Email are unique.
type Student struct {
	ID               string
	Name             string
	RollNumber       string
	Email            string
	Course           string
	PhoneNumber      *string
	Address          *string
	OwnerPrincipalID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Teacher is a staff record; EmployeeID and Email are unique.
type Teacher struct {
	ID               string
	Name             string
	EmployeeID       string
	Email            string
	Department       *string
	OwnerPrincipalID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Course is a catalogue entry; Code is unique.
type Course struct {
	ID        string
	Name      string
	Code      string
	Credit    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Department is an organizational unit; Name is unique.
type Department struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
