package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
)

// TimesheetFilter narrows timesheet list and aggregate queries.
type TimesheetFilter struct {
	// UserID restricts results to entries owned by this user.
	UserID string
	// SearchTerm is matched case-insensitively as a substring of the owner
	// name or the trip ID.
	SearchTerm string
	// DateFrom/DateTo bound the entry date, inclusive on both ends.
	DateFrom *time.Time
	DateTo   *time.Time
}

// TimesheetRepository defines the persistence operations for timesheets.
type TimesheetRepository interface {
	// Create persists a new entry.
	Create(ctx context.Context, entry *domain.Timesheet) error

	// GetByID retrieves an entry by storage ID.
	GetByID(ctx context.Context, id string) (*domain.Timesheet, error)

	// GetByTripID retrieves the entry holding the given business trip ID,
	// skipping excludeID when non-empty. Returns nil when none exists.
	GetByTripID(ctx context.Context, tripID, excludeID string) (*domain.Timesheet, error)

	// FindOverlapping returns an entry on the given date whose [start,end)
	// interval overlaps the candidate interval under the half-open test,
	// skipping excludeID when non-empty. Returns nil when none exists.
	FindOverlapping(ctx context.Context, date, start, end time.Time, excludeID string) (*domain.Timesheet, error)

	// List retrieves entries matching the filter, paginated.
	List(ctx context.Context, filter TimesheetFilter, page Page) ([]*domain.Timesheet, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter TimesheetFilter) (int, error)

	// SumPayment sums the payment column over entries matching the filter.
	SumPayment(ctx context.Context, filter TimesheetFilter) (decimal.Decimal, error)

	// SumHours sums the duration-hours column over entries matching the filter.
	SumHours(ctx context.Context, filter TimesheetFilter) (decimal.Decimal, error)

	// Update persists changed fields of an existing entry.
	Update(ctx context.Context, entry *domain.Timesheet) error

	// Delete removes an entry by storage ID.
	Delete(ctx context.Context, id string) error
}
