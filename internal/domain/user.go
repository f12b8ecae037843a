package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents the access tier of a user.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN" // reserved, currently equivalent to ADMIN
)

// CanBypassOwnership reports whether the role may act on records it does not own.
func (r Role) CanBypassOwnership() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanBypassEditWindow reports whether the role may mutate records past the
// 24-hour edit window.
func (r Role) CanBypassEditWindow() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

// UserStatus represents the lifecycle status of a user account.
type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
)

// User represents an account in the system.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              Role
	Status            UserStatus
	HourlyRate        decimal.Decimal // rounded to 2 decimal places at storage
	PasswordChangedAt time.Time       // zero if the password was never changed
	CreatedAt         time.Time
}

// Actor is the authenticated identity attached to a request, taken from a
// verified token payload.
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  Role
}
