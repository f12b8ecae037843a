package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/repository"
)

// TimesheetRepository is a PostgreSQL implementation of repository.TimesheetRepository.
type TimesheetRepository struct {
	q Querier
}

// NewTimesheetRepository creates a new PostgreSQL timesheet repository.
func NewTimesheetRepository(db *sql.DB) *TimesheetRepository {
	return &TimesheetRepository{q: db}
}

// NewTimesheetRepositoryWithTx creates a timesheet repository using a transaction.
func NewTimesheetRepositoryWithTx(tx *sql.Tx) *TimesheetRepository {
	return &TimesheetRepository{q: tx}
}

const timesheetColumns = "id, trip_id, user_id, name, date, start_time, end_time, duration, duration_hours, hourly_rate, payment, receipt, memo, created_at"

// Create persists a new entry. Uniqueness of trip_id is ultimately enforced
// by the table's unique constraint; the service pre-check only improves the
// error message under races.
func (r *TimesheetRepository) Create(ctx context.Context, entry *domain.Timesheet) error {
	query := `
		INSERT INTO timesheets (id, trip_id, user_id, name, date, start_time, end_time, duration, duration_hours, hourly_rate, payment, receipt, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.TripID,
		entry.UserID,
		entry.Name,
		entry.Date,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.DurationHours,
		entry.HourlyRate,
		entry.Payment,
		nullString(entry.Receipt),
		nullString(entry.Memo),
		entry.CreatedAt,
	)

	return mapWriteError(err)
}

// GetByID retrieves an entry by storage ID.
func (r *TimesheetRepository) GetByID(ctx context.Context, id string) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = $1`

	entry, err := r.scanRow(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetByTripID retrieves the entry holding the given business trip ID,
// skipping excludeID when non-empty. Returns nil when none exists.
func (r *TimesheetRepository) GetByTripID(ctx context.Context, tripID, excludeID string) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE trip_id = $1 AND id != $2 LIMIT 1`

	entry, err := r.scanRow(r.q.QueryRowContext(ctx, query, tripID, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// FindOverlapping returns an entry on the given date overlapping [start,end)
// under the half-open test, skipping excludeID when non-empty. Returns nil
// when none exists.
func (r *TimesheetRepository) FindOverlapping(ctx context.Context, date, start, end time.Time, excludeID string) (*domain.Timesheet, error) {
	query := `
		SELECT ` + timesheetColumns + `
		FROM timesheets
		WHERE date = $1 AND start_time < $2 AND end_time > $3 AND id != $4
		LIMIT 1
	`

	entry, err := r.scanRow(r.q.QueryRowContext(ctx, query, date, end, start, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// List retrieves entries matching the filter, paginated.
func (r *TimesheetRepository) List(ctx context.Context, filter repository.TimesheetFilter, page repository.Page) ([]*domain.Timesheet, error) {
	page = page.Normalize()
	where, args := timesheetWhere(filter)

	query := fmt.Sprintf(
		`SELECT %s FROM timesheets %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		timesheetColumns, where,
		sortColumn(page.SortBy, map[string]bool{"created_at": true, "date": true, "trip_id": true}),
		sortDirection(page.SortOrder),
		page.Limit, page.Offset(),
	)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Timesheet
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of entries matching the filter.
func (r *TimesheetRepository) Count(ctx context.Context, filter repository.TimesheetFilter) (int, error) {
	where, args := timesheetWhere(filter)

	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM timesheets `+where, args...).Scan(&count)
	return count, err
}

// SumPayment sums the payment column over entries matching the filter.
func (r *TimesheetRepository) SumPayment(ctx context.Context, filter repository.TimesheetFilter) (decimal.Decimal, error) {
	return r.sumColumn(ctx, "payment", filter)
}

// SumHours sums the duration-hours column over entries matching the filter.
func (r *TimesheetRepository) SumHours(ctx context.Context, filter repository.TimesheetFilter) (decimal.Decimal, error) {
	return r.sumColumn(ctx, "duration_hours", filter)
}

func (r *TimesheetRepository) sumColumn(ctx context.Context, column string, filter repository.TimesheetFilter) (decimal.Decimal, error) {
	where, args := timesheetWhere(filter)

	var sum decimal.Decimal
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM timesheets %s`, column, where)
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Update persists changed fields of an existing entry.
func (r *TimesheetRepository) Update(ctx context.Context, entry *domain.Timesheet) error {
	query := `
		UPDATE timesheets
		SET trip_id = $1, date = $2, start_time = $3, end_time = $4, duration = $5, duration_hours = $6, hourly_rate = $7, payment = $8, receipt = $9, memo = $10
		WHERE id = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		entry.TripID,
		entry.Date,
		entry.StartTime,
		entry.EndTime,
		entry.Duration,
		entry.DurationHours,
		entry.HourlyRate,
		entry.Payment,
		nullString(entry.Receipt),
		nullString(entry.Memo),
		entry.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return requireRows(result)
}

// Delete removes an entry by storage ID.
func (r *TimesheetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM timesheets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// timesheetWhere builds the WHERE clause for timesheet filters.
func timesheetWhere(filter repository.TimesheetFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if filter.SearchTerm != "" {
		args = append(args, "%"+filter.SearchTerm+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR trip_id ILIKE $%d)", n, n))
	}

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}

	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *TimesheetRepository) scanRow(row rowScanner) (*domain.Timesheet, error) {
	var entry domain.Timesheet
	var receipt sql.NullString
	var memo sql.NullString

	if err := row.Scan(
		&entry.ID,
		&entry.TripID,
		&entry.UserID,
		&entry.Name,
		&entry.Date,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Duration,
		&entry.DurationHours,
		&entry.HourlyRate,
		&entry.Payment,
		&receipt,
		&memo,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	entry.Receipt = receipt.String
	entry.Memo = memo.String

	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure TimesheetRepository implements repository.TimesheetRepository.
var _ repository.TimesheetRepository = (*TimesheetRepository)(nil)
