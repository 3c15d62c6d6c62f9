package common

import "slices"

type Role string

const (
	RoleReader Role = "Reader"
	RoleAuthor Role = "Author"
	RoleAdmin  Role = "Admin"
)

// Roles is the set of role tags held by a user.
type Roles []Role

func (r Role) IsValid() bool {
	switch r {
	case RoleReader, RoleAuthor, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRoles converts stored role names into Roles, dropping unknown and duplicate entries.
func ParseRoles(names []string) Roles {
	roles := make(Roles, 0, len(names))
	for _, n := range names {
		role := Role(n)
		if role.IsValid() && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func (r Roles) Has(role Role) bool {
	return slices.Contains(r, role)
}

// Strings returns the role names in storage form.
func (r Roles) Strings() []string {
	names := make([]string, len(r))
	for i, role := range r {
		names[i] = string(role)
	}
	return names
}

// DefaultRoles are assigned at registration.
func DefaultRoles() Roles {
	return Roles{RoleReader}
}

// Actor is an authenticated identity performing an operation.
type Actor struct {
	ID    int
	Roles Roles
}

func (a Actor) HasRole(role Role) bool {
	return a.Roles.Has(role)
}
