package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when a write violates a unique constraint.
	// The store constraint is the authoritative guard for tripId and email
	// uniqueness; the service-level pre-checks only exist for better errors.
	ErrDuplicateKey = errors.New("duplicate key")
)
