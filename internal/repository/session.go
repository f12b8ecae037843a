package repository

import (
	"context"

	"timesheet/internal/domain"
)

// SessionRepository defines the persistence operations for login sessions.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by ID.
	GetByID(ctx context.Context, id string) (*domain.Session, error)

	// ListByUser retrieves all sessions for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByIDAndUser removes a session only if it belongs to the user.
	DeleteByIDAndUser(ctx context.Context, id, userID string) error
}
