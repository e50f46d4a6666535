package domain

import (
	"slices"

	"github.com/samber/lo"
)

// Action is an operation a principal attempts against a record kind.
type Action string

const (
	ActionList   Action = "LIST"
	ActionView   Action = "VIEW"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Mutates reports whether the action changes stored state.
func (a Action) Mutates() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// FieldMask is the set of record fields a decision permits changing.
// The zero value permits nothing.
type FieldMask struct {
	all    bool
	fields map[Field]struct{}
}

// AllFields returns a mask that permits every field.
func AllFields() FieldMask {
	return FieldMask{all: true}
}

// NoFields returns an empty mask.
func NoFields() FieldMask {
	return FieldMask{}
}

// FieldsOf returns a mask permitting exactly the listed fields.
func FieldsOf(fields ...Field) FieldMask {
	set := make(map[Field]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return FieldMask{fields: set}
}

// IsAll reports whether the mask is unrestricted.
func (m FieldMask) IsAll() bool {
	return m.all
}

// Allows reports whether field f may be written.
func (m FieldMask) Allows(f Field) bool {
	if m.all {
		return true
	}
	_, ok := m.fields[f]
	return ok
}

// Without returns a copy of an explicit mask minus the listed fields.
// Calling Without on an ALL mask is not meaningful; resolve ALL against a
// kind with Kind.Fields first.
func (m FieldMask) Without(fields ...Field) FieldMask {
	if m.all {
		return m
	}
	return FieldsOf(lo.Without(m.Fields(), fields...)...)
}

// Fields lists the explicit fields in stable order; nil for ALL.
func (m FieldMask) Fields() []Field {
	if m.all {
		return nil
	}
	keys := lo.Keys(m.fields)
	slices.Sort(keys)
	return keys
}

// AccessDecision is the per-request outcome of the access policy.
type AccessDecision struct {
	Allowed bool
	Mutable FieldMask
	Reason  string
}

// Deny builds a denying decision.
func Deny(reason string) AccessDecision {
	return AccessDecision{Allowed: false, Mutable: NoFields(), Reason: reason}
}

// Allow builds a permitting decision with the supplied mask.
func Allow(mask FieldMask, reason string) AccessDecision {
	return AccessDecision{Allowed: true, Mutable: mask, Reason: reason}
}
