package auth

import (
	"strings"
)

// Role is the account's role. Only the predefined values are valid.
type Role string

const (
	// RoleAdmin manages accounts (i.e. view, create, edit, delete)
	RoleAdmin Role = "Admin"
	// RoleTeacher is a staff member with read access to schedules
	RoleTeacher Role = "Teacher"
	// RoleStudent is the default end user role
	RoleStudent Role = "Student"
)

// legacyRoleUser is the spelling older records use for RoleStudent
const legacyRoleUser = "user"

var landingPages = map[Role]string{
	RoleAdmin:   "/admin",
	RoleTeacher: "/teacher",
	RoleStudent: "/schedule",
}

func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// In reports whether the role is part of the allow-list.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// LandingPage is where a client sends an account of this role when it
// lands on a page its role may not see.
func (r Role) LandingPage() string {
	if page, ok := landingPages[r]; ok {
		return page
	}
	return ""
}

// AllRoles returns all predefined roles
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleTeacher,
		RoleStudent,
	}
}

// ParseRole parses user supplied input into a Role. Matching is case
// insensitive and the legacy "User" spelling resolves to RoleStudent.
func ParseRole(raw string) (Role, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrMissingRole
	}

	if value == legacyRoleUser {
		return RoleStudent, nil
	}

	for _, role := range AllRoles() {
		if strings.ToLower(string(role)) == value {
			return role, nil
		}
	}

	return "", withMetadata(ErrInvalidRole, map[string]any{
		"role":    raw,
		"allowed": AllRoles(),
	})
}

// normalizeStoredRole maps persisted values onto the closed set, keeping
// unknown values untouched so token issuance can reject them.
func normalizeStoredRole(raw string) Role {
	if role, err := ParseRole(raw); err == nil {
		return role
	}
	return Role(strings.TrimSpace(raw))
}
