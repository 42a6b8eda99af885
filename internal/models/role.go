package models

import "strings"

// Role enumerates the fixed set of principal roles.
type Role string

const (
	RolePatient     Role = "PATIENT"
	RoleDoctor      Role = "DOCTOR"
	RoleAttendant   Role = "ATTENDANT"
	RoleControlRoom Role = "CONTROL_ROOM"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

// Roles lists every valid role value.
var Roles = []Role{
	RolePatient,
	RoleDoctor,
	RoleAttendant,
	RoleControlRoom,
	RoleAdmin,
	RoleSuperAdmin,
}

// ParseRole normalises a raw role string into a Role value.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// SelfAccess reports whether the role only ever accesses resources it owns.
func (r Role) SelfAccess() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAttendant:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }
