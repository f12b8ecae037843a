package tests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/service"
)

// ──────────────────────────────────────────────
// 4. ACCOUNT MANAGEMENT
// ──────────────────────────────────────────────

func newUserFixture() (*service.UserService, *MockUserRepository) {
	userRepo := NewMockUserRepository()
	hasher := auth.NewPasswordHasher(4)
	return service.NewUserService(userRepo, hasher), userRepo
}

func addAccount(userRepo *MockUserRepository, id string, role domain.Role) *domain.User {
	user := &domain.User{
		ID:         id,
		Name:       "Account " + id,
		Email:      id + "@example.com",
		Role:       role,
		Status:     domain.UserStatusActive,
		HourlyRate: decimal.RequireFromString("20"),
		CreatedAt:  time.Now(),
	}
	userRepo.AddUser(user)
	return user
}

func TestUser_CreateHashesPassword(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()

	user, err := svc.Create(context.Background(), service.CreateUserRequest{
		Name:       "Dara",
		Email:      "dara@example.com",
		Password:   "hunter22",
		Role:       domain.RoleUser,
		HourlyRate: decimal.RequireFromString("18.5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := userRepo.GetUser(user.ID)
	if stored.PasswordHash == "hunter22" || stored.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if stored.Status != domain.UserStatusActive {
		t.Errorf("expected default ACTIVE status, got %s", stored.Status)
	}
	if got := stored.HourlyRate.StringFixed(2); got != "18.50" {
		t.Errorf("expected rate 18.50, got %s", got)
	}
}

func TestUser_DuplicateEmailRejected(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "existing", domain.RoleUser)

	_, err := svc.Create(context.Background(), service.CreateUserRequest{
		Name:     "Dup",
		Email:    "existing@example.com",
		Password: "hunter22",
		Role:     domain.RoleUser,
	})
	if err != service.ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUser_SelfUpdateRejected(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	admin := addAccount(userRepo, "admin-1", domain.RoleAdmin)
	actor := domain.Actor{ID: admin.ID, Role: admin.Role}

	name := "New Name"
	_, err := svc.AdminUpdate(context.Background(), actor, admin.ID, service.AdminUpdateRequest{Name: &name})
	if err != service.ErrSelfUpdate {
		t.Errorf("expected ErrSelfUpdate, got %v", err)
	}
}

func TestUser_BulkDeleteRejectsAdminTargets(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "admin-1", domain.RoleAdmin)
	addAccount(userRepo, "user-1", domain.RoleUser)

	err := svc.DeleteMany(context.Background(), []string{"admin-1", "user-1"})
	if err != service.ErrAdminBulkDelete {
		t.Fatalf("expected ErrAdminBulkDelete, got %v", err)
	}

	// The batch is all-or-nothing: neither account may be deleted.
	if userRepo.GetUser("admin-1") == nil || userRepo.GetUser("user-1") == nil {
		t.Error("no accounts may be deleted when the batch is rejected")
	}
	if userRepo.DeleteManyCallCount != 0 {
		t.Error("repository delete must not run for a rejected batch")
	}
}

func TestUser_BulkDeleteMissingIDRejectsBatch(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "user-1", domain.RoleUser)

	err := svc.DeleteMany(context.Background(), []string{"user-1", "ghost"})
	if err != service.ErrUsersNotFound {
		t.Fatalf("expected ErrUsersNotFound, got %v", err)
	}
	if userRepo.GetUser("user-1") == nil {
		t.Error("no accounts may be deleted when the batch references a missing user")
	}
}

func TestUser_BulkDeleteAdminGuardWinsOverMissingID(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "admin-1", domain.RoleAdmin)

	// An admin in the batch trumps the missing id.
	err := svc.DeleteMany(context.Background(), []string{"admin-1", "ghost"})
	if err != service.ErrAdminBulkDelete {
		t.Fatalf("expected ErrAdminBulkDelete, got %v", err)
	}
	if userRepo.GetUser("admin-1") == nil {
		t.Error("no accounts may be deleted when the batch is rejected")
	}
}

func TestUser_BulkDeleteRemovesAllTargets(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "user-1", domain.RoleUser)
	addAccount(userRepo, "user-2", domain.RoleUser)

	if err := svc.DeleteMany(context.Background(), []string{"user-1", "user-2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userRepo.GetUser("user-1") != nil || userRepo.GetUser("user-2") != nil {
		t.Error("expected both accounts deleted")
	}
}

func TestUser_ListScopedForNonAdmin(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	addAccount(userRepo, "admin-1", domain.RoleAdmin)
	self := addAccount(userRepo, "user-1", domain.RoleUser)
	addAccount(userRepo, "user-2", domain.RoleUser)

	actor := domain.Actor{ID: self.ID, Role: self.Role}
	result, err := svc.List(context.Background(), actor, service.ListUsersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, u := range result.Users {
		if u.Role != domain.RoleUser && u.ID != self.ID {
			t.Errorf("non-admin listing leaked account %s with role %s", u.ID, u.Role)
		}
	}
	if result.Total != 2 {
		t.Errorf("expected 2 visible accounts, got %d", result.Total)
	}

	adminActor := domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	adminResult, err := svc.List(context.Background(), adminActor, service.ListUsersRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adminResult.Total != 3 {
		t.Errorf("expected admin to see all accounts, got %d", adminResult.Total)
	}
}

func TestUser_BlockedAccountHiddenFromGet(t *testing.T) {
	t.Parallel()

	svc, userRepo := newUserFixture()
	blocked := addAccount(userRepo, "user-1", domain.RoleUser)
	blocked.Status = domain.UserStatusBlocked

	_, err := svc.Get(context.Background(), "user-1")
	if err != service.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound for blocked account, got %v", err)
	}
}
