package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/service"
)

// ──────────────────────────────────────────────
// 2. OWNERSHIP AND EDIT-WINDOW POLICY
// ──────────────────────────────────────────────

func seedEntry(tsRepo *MockTimesheetRepository, id, userID string, createdAt time.Time) *domain.Timesheet {
	day := tripDay()
	entry := &domain.Timesheet{
		ID:            id,
		TripID:        "TRIP-" + id,
		UserID:        userID,
		Name:          "Worker " + userID,
		Date:          day,
		StartTime:     day.Add(9 * time.Hour),
		EndTime:       day.Add(10 * time.Hour),
		Duration:      "1:00",
		DurationHours: decimal.RequireFromString("1"),
		HourlyRate:    decimal.RequireFromString("20"),
		Payment:       decimal.RequireFromString("20"),
		CreatedAt:     createdAt,
	}
	tsRepo.AddEntry(entry)
	return entry
}

func TestPolicy_OtherUsersEntryForbidden(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	addWorker(userRepo, "owner", "20")
	other := addWorker(userRepo, "other", "20")

	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now())

	memo := "not yours"
	if _, err := svc.Update(context.Background(), other, entry.ID, service.UpdateTimesheetRequest{Memo: &memo}); err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden on update, got %v", err)
	}

	if _, err := svc.Delete(context.Background(), other, entry.ID); err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden on delete, got %v", err)
	}

	if _, err := svc.Get(context.Background(), other, entry.ID); err != service.ErrForbidden {
		t.Errorf("expected ErrForbidden on get, got %v", err)
	}
}

func TestPolicy_EditWindowExpired(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")

	// Created 25 hours ago, past the 24-hour window.
	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now().Add(-25*time.Hour))

	memo := "too late"
	if _, err := svc.Update(context.Background(), owner, entry.ID, service.UpdateTimesheetRequest{Memo: &memo}); err != service.ErrEditWindowExpired {
		t.Errorf("expected ErrEditWindowExpired on update, got %v", err)
	}

	if _, err := svc.Delete(context.Background(), owner, entry.ID); err != service.ErrEditWindowExpired {
		t.Errorf("expected ErrEditWindowExpired on delete, got %v", err)
	}
}

func TestPolicy_FreshEntryEditableByOwner(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")

	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now().Add(-23*time.Hour))

	memo := "still in the window"
	if _, err := svc.Update(context.Background(), owner, entry.ID, service.UpdateTimesheetRequest{Memo: &memo}); err != nil {
		t.Errorf("owner should edit within 24h, got %v", err)
	}
}

func TestPolicy_AdminBypassesOwnershipAndWindow(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	addWorker(userRepo, "owner", "20")
	admin := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now().Add(-48*time.Hour))

	memo := "admin correction"
	if _, err := svc.Update(context.Background(), admin, entry.ID, service.UpdateTimesheetRequest{Memo: &memo}); err != nil {
		t.Errorf("admin should bypass ownership and window, got %v", err)
	}

	if _, err := svc.Delete(context.Background(), admin, entry.ID); err != nil {
		t.Errorf("admin should delete past the window, got %v", err)
	}
}

func TestPolicy_DeleteRemovesReceiptAsset(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, assets := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")

	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now())
	entry.Receipt = "/uploads/receipt.png"
	assets.assets["/uploads/receipt.png"] = []byte("img")

	if _, err := svc.Delete(context.Background(), owner, entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assets.Has("/uploads/receipt.png") {
		t.Error("expected receipt asset to be removed with the entry")
	}
}

func TestPolicy_AssetRemovalFailureDoesNotBlockDelete(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, assets := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")
	assets.RemoveError = errors.New("storage down")

	entry := seedEntry(tsRepo, "entry-1", "owner", time.Now())
	entry.Receipt = "/uploads/receipt.png"

	if _, err := svc.Delete(context.Background(), owner, entry.ID); err != nil {
		t.Fatalf("asset failure must not block the delete, got %v", err)
	}

	if tsRepo.GetEntry(entry.ID) != nil {
		t.Error("expected entry removed from the repository")
	}
}

func TestPolicy_ListScopedToOwnEntries(t *testing.T) {
	t.Parallel()

	svc, tsRepo, userRepo, _ := newTimesheetFixture()
	owner := addWorker(userRepo, "owner", "20")
	addWorker(userRepo, "other", "20")
	admin := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	seedEntry(tsRepo, "entry-1", "owner", time.Now())
	otherEntry := seedEntry(tsRepo, "entry-2", "other", time.Now())
	otherEntry.Date = tripDay().AddDate(0, 0, 1)
	otherEntry.StartTime = otherEntry.StartTime.AddDate(0, 0, 1)
	otherEntry.EndTime = otherEntry.EndTime.AddDate(0, 0, 1)

	result, err := svc.List(context.Background(), owner, service.ListTimesheetsRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].UserID != "owner" {
		t.Errorf("user listing must only contain own entries, got %d", len(result.Entries))
	}
	if got := result.TotalPayment.StringFixed(2); got != "20.00" {
		t.Errorf("expected scoped payment total 20.00, got %s", got)
	}

	adminResult, err := svc.List(context.Background(), admin, service.ListTimesheetsRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adminResult.Total != 2 {
		t.Errorf("admin listing must span all users, got %d", adminResult.Total)
	}
	if got := adminResult.TotalPayment.StringFixed(2); got != "40.00" {
		t.Errorf("expected unscoped payment total 40.00, got %s", got)
	}
}
