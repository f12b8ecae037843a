package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/repository"
	"timesheet/internal/worktime"
)

// editWindow is the mutation grace period after entry creation for users
// without the edit-window bypass.
const editWindow = 24 * time.Hour

// ratePrecision is the number of fractional digits kept on stored hourly rates.
const ratePrecision = 2

// TimesheetService handles timesheet operations: derivation of duration and
// pay, conflict detection, the edit-window policy, role scoping and
// aggregation.
type TimesheetService struct {
	timesheetRepo repository.TimesheetRepository
	userRepo      repository.UserRepository
	assets        AssetStore
}

// NewTimesheetService creates a new TimesheetService.
func NewTimesheetService(
	timesheetRepo repository.TimesheetRepository,
	userRepo repository.UserRepository,
	assets AssetStore,
) *TimesheetService {
	return &TimesheetService{
		timesheetRepo: timesheetRepo,
		userRepo:      userRepo,
		assets:        assets,
	}
}

// CreateTimesheetRequest contains the parameters for recording a trip.
type CreateTimesheetRequest struct {
	TripID    string
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
	Receipt   string
	Memo      string
}

// Create records a new trip for the acting user. Duration, decimal hours and
// payment are derived from the start/end pair and the user's current hourly
// rate, snapshotted onto the entry.
func (s *TimesheetService) Create(ctx context.Context, actor domain.Actor, req CreateTimesheetRequest) (*domain.Timesheet, error) {
	if req.TripID == "" || req.Date.IsZero() {
		return nil, ErrValidation
	}

	user, err := s.activeUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	duration, err := worktime.ComputeDuration(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	rate := user.HourlyRate.Round(ratePrecision)

	entry := &domain.Timesheet{
		ID:            uuid.New().String(),
		TripID:        req.TripID,
		UserID:        user.ID,
		Name:          user.Name,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Duration:      duration.Label,
		DurationHours: duration.Hours,
		HourlyRate:    rate,
		Payment:       worktime.ComputePay(duration.Hours, rate),
		Receipt:       req.Receipt,
		Memo:          req.Memo,
		CreatedAt:     time.Now(),
	}

	if err := s.checkConflicts(ctx, entry, ""); err != nil {
		return nil, err
	}

	if err := s.timesheetRepo.Create(ctx, entry); err != nil {
		// The unique constraint is the authoritative guard; a concurrent
		// create can slip past the pre-check.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateTripID
		}
		return nil, err
	}

	return entry, nil
}

// UpdateTimesheetRequest contains the fields being changed; nil fields keep
// the entry's prior values.
type UpdateTimesheetRequest struct {
	TripID     *string
	Date       *time.Time
	StartTime  *time.Time
	EndTime    *time.Time
	HourlyRate *decimal.Decimal
	Receipt    *string
	Memo       *string
}

// Update mutates an existing entry, subject to ownership and the 24-hour
// edit window. Conflict checks run only for fields actually changing, using
// prior values for anything unspecified, and exclude the entry itself. The
// overlap check runs only when both start and end are supplied.
func (s *TimesheetService) Update(ctx context.Context, actor domain.Actor, id string, req UpdateTimesheetRequest) (*domain.Timesheet, error) {
	entry, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.assertEditable(entry, actor); err != nil {
		return nil, err
	}

	if req.TripID != nil && *req.TripID != "" {
		existing, err := s.timesheetRepo.GetByTripID(ctx, *req.TripID, entry.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateTripID
		}
		entry.TripID = *req.TripID
	}

	if req.Date != nil {
		entry.Date = *req.Date
	}

	timesChanged := req.StartTime != nil || req.EndTime != nil
	if req.StartTime != nil {
		entry.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		entry.EndTime = *req.EndTime
	}

	// Overlap is only checked when the caller supplies both bounds; a
	// partial update of a single bound skips the check.
	if req.StartTime != nil && req.EndTime != nil {
		overlapping, err := s.timesheetRepo.FindOverlapping(ctx, entry.Date, entry.StartTime, entry.EndTime, entry.ID)
		if err != nil {
			return nil, err
		}
		if overlapping != nil {
			return nil, ErrOverlappingInterval
		}
	}

	if timesChanged {
		duration, err := worktime.ComputeDuration(entry.StartTime, entry.EndTime)
		if err != nil {
			return nil, err
		}
		entry.Duration = duration.Label
		entry.DurationHours = duration.Hours
		entry.Payment = worktime.ComputePay(duration.Hours, entry.HourlyRate)
	}

	if req.HourlyRate != nil {
		rate := req.HourlyRate.Round(ratePrecision)
		entry.HourlyRate = rate
		entry.Payment = worktime.ComputePay(entry.DurationHours, rate)

		// The entry rate is a snapshot; changing it writes the new rate
		// through to the owning user.
		if err := s.userRepo.UpdateHourlyRate(ctx, entry.UserID, rate); err != nil {
			return nil, err
		}
	}

	if req.Receipt != nil {
		entry.Receipt = *req.Receipt
	}
	if req.Memo != nil {
		entry.Memo = *req.Memo
	}

	if err := s.timesheetRepo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateTripID
		}
		return nil, err
	}

	return entry, nil
}

// Delete removes an entry, subject to ownership and the edit window. The
// receipt asset is removed after the record delete succeeds; an asset-store
// failure is logged and never rolls back the deletion.
func (s *TimesheetService) Delete(ctx context.Context, actor domain.Actor, id string) (*domain.Timesheet, error) {
	entry, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.assertEditable(entry, actor); err != nil {
		return nil, err
	}

	if err := s.timesheetRepo.Delete(ctx, id); err != nil {
		return nil, err
	}

	if entry.Receipt != "" && s.assets != nil {
		if err := s.assets.Remove(ctx, entry.Receipt); err != nil {
			log.Printf("failed to remove receipt asset %s for trip %s: %v", entry.Receipt, entry.TripID, err)
		}
	}

	return entry, nil
}

// ListTimesheetsRequest narrows and paginates the trip listing.
type ListTimesheetsRequest struct {
	SearchTerm string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       repository.Page
}

// ListTimesheetsResult is the paginated listing plus the summed payment over
// the same filter.
type ListTimesheetsResult struct {
	Entries      []*domain.Timesheet
	TotalPayment decimal.Decimal
	Total        int
}

// List retrieves entries visible to the acting user. USER-role callers only
// ever see their own entries; admins see everything matching the filters.
func (s *TimesheetService) List(ctx context.Context, actor domain.Actor, req ListTimesheetsRequest) (*ListTimesheetsResult, error) {
	filter := s.scopeFilter(actor, repository.TimesheetFilter{SearchTerm: req.SearchTerm})
	applyDayBounds(&filter, req.StartDate, req.EndDate)

	entries, err := s.timesheetRepo.List(ctx, filter, req.Page)
	if err != nil {
		return nil, err
	}

	total, err := s.timesheetRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPayment, err := s.timesheetRepo.SumPayment(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListTimesheetsResult{
		Entries:      entries,
		TotalPayment: totalPayment,
		Total:        total,
	}, nil
}

// Get retrieves a single entry, subject to ownership scoping.
func (s *TimesheetService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Timesheet, error) {
	entry, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanBypassOwnership() && entry.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return entry, nil
}

// SummaryRequest narrows the aggregation window. When Month and Year are set
// the window is the UTC calendar month, which intentionally differs from the
// local-day bounds used for list filtering.
type SummaryRequest struct {
	SearchTerm string
	StartDate  *time.Time
	EndDate    *time.Time
	Month      time.Month
	Year       int
}

// Summary aggregates trip count, summed payment and summed duration over the
// scoped filter.
type Summary struct {
	TotalTrips int
	// TotalPayment is formatted to 4 fractional digits, a coarser precision
	// than the 5-digit per-entry amounts.
	TotalPayment string
	// TotalDuration is "HH:MM" with both fields zero-padded.
	TotalDuration string
}

// Summarize computes totals over the same role-scoped filter as List.
func (s *TimesheetService) Summarize(ctx context.Context, actor domain.Actor, req SummaryRequest) (*Summary, error) {
	filter := s.scopeFilter(actor, repository.TimesheetFilter{SearchTerm: req.SearchTerm})
	applyDayBounds(&filter, req.StartDate, req.EndDate)

	if req.Year > 0 && req.Month >= time.January && req.Month <= time.December {
		from := time.Date(req.Year, req.Month, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
		filter.DateFrom = &from
		filter.DateTo = &to
	}

	count, err := s.timesheetRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPayment, err := s.timesheetRepo.SumPayment(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalHours, err := s.timesheetRepo.SumHours(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Summary{
		TotalTrips:    count,
		TotalPayment:  totalPayment.Round(worktime.AggregatePrecision).StringFixed(worktime.AggregatePrecision),
		TotalDuration: worktime.FormatTotalHours(totalHours),
	}, nil
}

// UploadReceipt stores a receipt file and returns its reference.
func (s *TimesheetService) UploadReceipt(ctx context.Context, filename string, r io.Reader) (string, error) {
	return s.assets.Upload(ctx, filename, r)
}

// assertEditable enforces ownership and the 24-hour edit window for a
// mutation by the acting user.
func (s *TimesheetService) assertEditable(entry *domain.Timesheet, actor domain.Actor) error {
	if !actor.Role.CanBypassOwnership() && entry.UserID != actor.ID {
		return ErrForbidden
	}
	if !actor.Role.CanBypassEditWindow() && time.Since(entry.CreatedAt) > editWindow {
		return ErrEditWindowExpired
	}
	return nil
}

// scopeFilter narrows a filter to the acting user's own entries unless the
// role can bypass ownership.
func (s *TimesheetService) scopeFilter(actor domain.Actor, filter repository.TimesheetFilter) repository.TimesheetFilter {
	if !actor.Role.CanBypassOwnership() {
		filter.UserID = actor.ID
	}
	return filter
}

// checkConflicts runs the tripId-uniqueness and same-date overlap checks for
// a candidate entry, skipping excludeID.
func (s *TimesheetService) checkConflicts(ctx context.Context, entry *domain.Timesheet, excludeID string) error {
	existing, err := s.timesheetRepo.GetByTripID(ctx, entry.TripID, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateTripID
	}

	overlapping, err := s.timesheetRepo.FindOverlapping(ctx, entry.Date, entry.StartTime, entry.EndTime, excludeID)
	if err != nil {
		return err
	}
	if overlapping != nil {
		return ErrOverlappingInterval
	}

	return nil
}

// activeUser loads a user and requires ACTIVE status.
func (s *TimesheetService) activeUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// applyDayBounds widens caller-supplied dates to whole local calendar days:
// a lone start date covers that entire day, a start/end pair covers
// [startOfDay(start), endOfDay(end)]. A lone end date is ignored.
func applyDayBounds(filter *repository.TimesheetFilter, startDate, endDate *time.Time) {
	if startDate == nil {
		return
	}

	from := startOfDay(*startDate)
	to := endOfDay(*startDate)
	if endDate != nil {
		to = endOfDay(*endDate)
	}

	filter.DateFrom = &from
	filter.DateTo = &to
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
