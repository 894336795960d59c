package domain

import "time"

// Role is the closed set of portal roles.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleAnalyst     Role = "analyst"
	RoleStakeholder Role = "stakeholder"
	RolePublic      Role = "public"
)

// Valid reports whether r is one of the four portal roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleStakeholder, RolePublic:
		return true
	}
	return false
}

// Is reports an exact role match.
func (r Role) Is(other Role) bool { return r == other }

// In reports whether r is one of the given roles.
func (r Role) In(roles ...Role) bool {
	for _, other := range roles {
		if r == other {
			return true
		}
	}
	return false
}

// User is the domain entity for a portal account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
