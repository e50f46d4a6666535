package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role enumerates the closed set of principal roles.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// ParseRole converts free text into a Role, accepting the Spring-style ROLE_ prefix.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "ROLE_")

	switch Role(normalized) {
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", &ValidationError{Field: "role", Reason: fmt.Sprintf("unsupported role %q", value)}
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

func (r Role) String() string {
	return string(r)
}

// Principal mirrors the persisted representation in the principals table.
// Identifier and Role never change after creation.
type Principal struct {
	ID           string
	Identifier   string
	PasswordHash string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
}

// Sanitized returns a copy safe to hand to callers outside the core.
func (p Principal) Sanitized() Principal {
	p.PasswordHash = ""
	return p
}

