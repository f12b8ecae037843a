package tests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/service"
)

// ──────────────────────────────────────────────
// 3. AGGREGATION
// ──────────────────────────────────────────────

func seedTrip(tsRepo *MockTimesheetRepository, id, userID string, date time.Time, hours, payment string) {
	tsRepo.AddEntry(&domain.Timesheet{
		ID:            id,
		TripID:        "TRIP-" + id,
		UserID:        userID,
		Name:          "Worker " + userID,
		Date:          date,
		StartTime:     date.Add(9 * time.Hour),
		EndTime:       date.Add(10 * time.Hour),
		DurationHours: decimal.RequireFromString(hours),
		HourlyRate:    decimal.RequireFromString("20"),
		Payment:       decimal.RequireFromString(payment),
		CreatedAt:     date,
	})
}

func TestSummary_MonthWindow(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")

	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	seedTrip(tsRepo, "e1", "owner", feb, "2", "40")
	seedTrip(tsRepo, "e2", "owner", feb.AddDate(0, 0, 5), "1.25", "25")
	// Outside the requested month.
	seedTrip(tsRepo, "e3", "owner", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), "4", "80")

	summary, err := svc.Summarize(context.Background(), owner, service.SummaryRequest{
		Month: time.February,
		Year:  2025,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalTrips != 2 {
		t.Errorf("expected 2 trips in February, got %d", summary.TotalTrips)
	}
	// Aggregate payment carries 4 fractional digits, not the 5 used per entry.
	if summary.TotalPayment != "65.0000" {
		t.Errorf("expected payment 65.0000, got %s", summary.TotalPayment)
	}
	// Aggregate duration is zero-padded HH:MM.
	if summary.TotalDuration != "03:15" {
		t.Errorf("expected duration 03:15, got %s", summary.TotalDuration)
	}
}

func TestSummary_ScopedToOwnEntriesForUsers(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")
	addWorker(userRepo, "other", "20")
	admin := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	seedTrip(tsRepo, "e1", "owner", feb, "2", "40")
	seedTrip(tsRepo, "e2", "other", feb.AddDate(0, 0, 1), "3", "60")

	summary, err := svc.Summarize(context.Background(), owner, service.SummaryRequest{Month: time.February, Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalTrips != 1 || summary.TotalPayment != "40.0000" {
		t.Errorf("user summary must be scoped, got %d trips / %s", summary.TotalTrips, summary.TotalPayment)
	}

	adminSummary, err := svc.Summarize(context.Background(), admin, service.SummaryRequest{Month: time.February, Year: 2025})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adminSummary.TotalTrips != 2 || adminSummary.TotalPayment != "100.0000" {
		t.Errorf("admin summary must span all users, got %d trips / %s", adminSummary.TotalTrips, adminSummary.TotalPayment)
	}
}

func TestSummary_DayRangeFilter(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")

	day1 := time.Date(2025, 2, 10, 0, 0, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 5)
	seedTrip(tsRepo, "e1", "owner", day1, "2", "40")
	seedTrip(tsRepo, "e2", "owner", day2, "1", "20")
	seedTrip(tsRepo, "e3", "owner", day3, "1", "20")

	// A lone start date covers just that day.
	summary, err := svc.Summarize(context.Background(), owner, service.SummaryRequest{StartDate: &day1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalTrips != 1 {
		t.Errorf("lone start date should cover one day, got %d trips", summary.TotalTrips)
	}

	// A start/end pair covers whole days inclusively.
	summary, err = svc.Summarize(context.Background(), owner, service.SummaryRequest{StartDate: &day1, EndDate: &day2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalTrips != 2 {
		t.Errorf("range should cover both days, got %d trips", summary.TotalTrips)
	}
}
