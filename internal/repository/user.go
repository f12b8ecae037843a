package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
)

// UserFilter narrows user list queries.
type UserFilter struct {
	// SearchTerm is matched case-insensitively as a substring of name or email.
	SearchTerm string
	// VisibleToID, when set together with RestrictToRole, widens the role
	// restriction to always include this user's own row.
	VisibleToID string
	// RestrictToRole limits results to a single role (plus VisibleToID).
	RestrictToRole domain.Role
}

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List retrieves users matching the filter, paginated.
	List(ctx context.Context, filter UserFilter, page Page) ([]*domain.User, error)

	// Count returns the number of users matching the filter.
	Count(ctx context.Context, filter UserFilter) (int, error)

	// GetByIDs retrieves all users whose IDs are in the given set.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// Update persists changed fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// UpdatePassword stores a new password hash and password-changed time.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateHourlyRate stores a new hourly rate for the user.
	UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes all users in the given ID set as one statement.
	DeleteMany(ctx context.Context, ids []string) error
}
