package domain

import "strings"

// StudentPatch carries optional changes to a Student. Nil fields are absent
// from the request; a pointer to "" clears an optional field.
type StudentPatch struct {
	Name             *string
	RollNumber       *string
	Email            *string
	Course           *string
	PhoneNumber      *string
	Address          *string
	OwnerPrincipalID *string
}

// Apply writes the fields permitted by mask onto s and returns the fields that changed.
// Fields outside the mask are ignored.
func (p StudentPatch) Apply(s *Student, mask FieldMask) []Field {
	var changed []Field
	setString(&changed, mask, FieldName, p.Name, &s.Name)
	setString(&changed, mask, FieldRollNumber, p.RollNumber, &s.RollNumber)
	setString(&changed, mask, FieldEmail, p.Email, &s.Email)
	setString(&changed, mask, FieldCourse, p.Course, &s.Course)
	setOptional(&changed, mask, FieldPhoneNumber, p.PhoneNumber, &s.PhoneNumber)
	setOptional(&changed, mask, FieldAddress, p.Address, &s.Address)
	setOptional(&changed, mask, FieldOwnerPrincipalID, p.OwnerPrincipalID, &s.OwnerPrincipalID)
	return changed
}

// TeacherPatch carries optional changes to a Teacher.
type TeacherPatch struct {
	Name             *string
	EmployeeID       *string
	Email            *string
	Department       *string
	OwnerPrincipalID *string
}

func (p TeacherPatch) Apply(t *Teacher, mask FieldMask) []Field {
	var changed []Field
	setString(&changed, mask, FieldName, p.Name, &t.Name)
	setString(&changed, mask, FieldEmployeeID, p.EmployeeID, &t.EmployeeID)
	setString(&changed, mask, FieldEmail, p.Email, &t.Email)
	setOptional(&changed, mask, FieldDepartment, p.Department, &t.Department)
	setOptional(&changed, mask, FieldOwnerPrincipalID, p.OwnerPrincipalID, &t.OwnerPrincipalID)
	return changed
}

// CoursePatch carries optional changes to a Course.
type CoursePatch struct {
	Name   *string
	Code   *string
	Credit *int
}

func (p CoursePatch) Apply(c *Course, mask FieldMask) []Field {
	var changed []Field
	setString(&changed, mask, FieldName, p.Name, &c.Name)
	setString(&changed, mask, FieldCode, p.Code, &c.Code)
	if p.Credit != nil && mask.Allows(FieldCredit) && *p.Credit != c.Credit {
		c.Credit = *p.Credit
		changed = append(changed, FieldCredit)
	}
	return changed
}

// DepartmentPatch carries optional changes to a Department.
type DepartmentPatch struct {
	Name        *string
	Description *string
}

func (p DepartmentPatch) Apply(d *Department, mask FieldMask) []Field {
	var changed []Field
	setString(&changed, mask, FieldName, p.Name, &d.Name)
	setOptional(&changed, mask, FieldDescription, p.Description, &d.Description)
	return changed
}

func setString(changed *[]Field, mask FieldMask, field Field, value *string, target *string) {
	if value == nil || !mask.Allows(field) {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == *target {
		return
	}
	*target = trimmed
	*changed = append(*changed, field)
}

func setOptional(changed *[]Field, mask FieldMask, field Field, value *string, target **string) {
	if value == nil || !mask.Allows(field) {
		return
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		if *target == nil {
			return
		}
		*target = nil
		*changed = append(*changed, field)
		return
	}

	if *target != nil && **target == trimmed {
		return
	}
	*target = &trimmed
	*changed = append(*changed, field)
}
