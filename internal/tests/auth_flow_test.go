package tests

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/service"
)

// ──────────────────────────────────────────────
// 5. LOGIN, TOKENS AND SESSIONS
// ──────────────────────────────────────────────

type authFixture struct {
	svc         *service.AuthService
	users       *MockUserRepository
	sessions    *MockSessionRepository
	hasher      *auth.PasswordHasher
	resetTokens *MockResetTokenStore
	mailer      *MockMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:       NewMockUserRepository(),
		sessions:    NewMockSessionRepository(),
		hasher:      auth.NewPasswordHasher(4),
		resetTokens: NewMockResetTokenStore(),
		mailer:      NewMockMailer(),
	}
	tokens := auth.NewTokenManager(
		auth.TokenConfig{Secret: "access-secret", TTL: time.Minute},
		auth.TokenConfig{Secret: "refresh-secret", TTL: time.Hour},
		auth.TokenConfig{Secret: "reset-secret", TTL: 15 * time.Minute},
	)
	f.svc = service.NewAuthService(f.users, f.sessions, tokens, f.hasher, f.resetTokens, f.mailer, "http://localhost:3000")
	return f
}

func addCredentialedUser(t *testing.T, userRepo *MockUserRepository, hasher *auth.PasswordHasher, id, password string, status domain.UserStatus) *domain.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &domain.User{
		ID:           id,
		Name:         "Account " + id,
		Email:        id + "@example.com",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       status,
		HourlyRate:   decimal.RequireFromString("20"),
		CreatedAt:    time.Now(),
	}
	userRepo.AddUser(user)
	return user
}

func TestAuth_LoginIssuesTokensAndSession(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	result, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:     "user-1@example.com",
		Password:  "hunter22",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected both tokens to be issued")
	}

	session, err := fx.sessions.GetByID(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("expected a session recorded for the login: %v", err)
	}
	if session.Browser != "Chrome" {
		t.Errorf("expected browser parsed from the user agent, got %s", session.Browser)
	}
	if session.City != "Unknown City" || session.Country != "Unknown Country" {
		t.Errorf("expected unknown location defaults, got %s/%s", session.City, session.Country)
	}
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	_, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "wrong",
	})
	if err != service.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_LoginBlockedAccount(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusBlocked)

	_, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "hunter22",
	})
	if err != service.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for blocked account, got %v", err)
	}
}

func TestAuth_RefreshIssuesAccessToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	result, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	accessToken, err := fx.svc.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accessToken == "" {
		t.Error("expected a fresh access token")
	}

	// An access token is not a refresh token.
	if _, err := fx.svc.Refresh(context.Background(), result.AccessToken); err != service.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized for wrong token kind, got %v", err)
	}
}

func TestAuth_TokenStaleAfterPasswordChange(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	result, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := fx.svc.VerifyAccess(context.Background(), result.AccessToken); err != nil {
		t.Fatalf("token should verify before the password change: %v", err)
	}

	// Password changed strictly after the token was issued.
	user.PasswordChangedAt = time.Now().Add(2 * time.Second)
	fx.users.AddUser(user)

	if _, err := fx.svc.VerifyAccess(context.Background(), result.AccessToken); err != service.ErrStaleToken {
		t.Errorf("expected ErrStaleToken after password change, got %v", err)
	}
}

func TestAuth_ChangePasswordRequiresOldPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)
	actor := domain.Actor{ID: user.ID, Email: user.Email, Role: user.Role}

	if _, err := fx.svc.ChangePassword(context.Background(), actor, "wrong", "newpass99"); err != service.ErrPasswordIncorrect {
		t.Errorf("expected ErrPasswordIncorrect, got %v", err)
	}

	if _, err := fx.svc.ChangePassword(context.Background(), actor, "hunter22", "newpass99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The new password now authenticates.
	if _, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "newpass99",
	}); err != nil {
		t.Errorf("expected login with the new password, got %v", err)
	}
}

func TestAuth_ForgotPasswordStoresTokenAndEmailsLink(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	if err := fx.svc.ForgotPassword(context.Background(), "user-1@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token := fx.resetTokens.Token("user-1")
	if token == "" {
		t.Fatal("expected a reset token stored for the user")
	}

	// Delivery is fire-and-forget; wait for the recorded email.
	deadline := time.Now().Add(2 * time.Second)
	for len(fx.mailer.SentTo()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	sent := fx.mailer.SentTo()
	if len(sent) != 1 || sent[0] != "user-1@example.com" {
		t.Fatalf("expected one reset email to the account, got %v", sent)
	}
	link := fx.mailer.Links()[0]
	if !strings.Contains(link, "/reset-password?id=user-1&token="+token) {
		t.Errorf("expected the link to carry the stored token, got %s", link)
	}
}

func TestAuth_ResetPasswordRejectsMismatchedToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	if err := fx.svc.ForgotPassword(context.Background(), "user-1@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := fx.resetTokens.Token("user-1")

	// A newer token supersedes the one in flight.
	if err := fx.resetTokens.SaveResetToken(context.Background(), "user-1", "superseded"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := fx.svc.ResetPassword(context.Background(), "user-1", token, "newpass99"); err != service.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized for a superseded token, got %v", err)
	}
}

func TestAuth_ResetPasswordRejectsForeignToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)
	addCredentialedUser(t, fx.users, fx.hasher, "user-2", "hunter22", domain.UserStatusActive)

	if err := fx.svc.ForgotPassword(context.Background(), "user-1@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := fx.resetTokens.Token("user-1")

	if err := fx.svc.ResetPassword(context.Background(), "user-2", token, "newpass99"); err != service.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized for another user's token, got %v", err)
	}
}

func TestAuth_ResetPasswordConsumesToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	addCredentialedUser(t, fx.users, fx.hasher, "user-1", "hunter22", domain.UserStatusActive)

	if err := fx.svc.ForgotPassword(context.Background(), "user-1@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := fx.resetTokens.Token("user-1")

	if err := fx.svc.ResetPassword(context.Background(), "user-1", "", "newpass99"); err != service.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized for an empty token, got %v", err)
	}

	if err := fx.svc.ResetPassword(context.Background(), "user-1", token, "newpass99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.resetTokens.Token("user-1") != "" {
		t.Error("expected the token to be consumed after a successful reset")
	}

	// A second redemption of the same token fails.
	if err := fx.svc.ResetPassword(context.Background(), "user-1", token, "anotherpass"); err == nil {
		t.Error("expected the consumed token to be rejected")
	}

	// The new password now authenticates.
	if _, err := fx.svc.Login(context.Background(), service.LoginRequest{
		Email:    "user-1@example.com",
		Password: "newpass99",
	}); err != nil {
		t.Errorf("expected login with the new password, got %v", err)
	}
}

func TestAuth_RemoveSessionEnforcesOwnership(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.sessions.AddSession(&domain.Session{ID: "sess-1", UserID: "owner", CreatedAt: time.Now()})

	other := domain.Actor{ID: "other", Role: domain.RoleUser}
	if err := fx.svc.RemoveSession(context.Background(), other, "sess-1"); err != service.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound for foreign session, got %v", err)
	}

	owner := domain.Actor{ID: "owner", Role: domain.RoleUser}
	if err := fx.svc.RemoveSession(context.Background(), owner, "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live, err := fx.svc.SessionLive(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live {
		t.Error("expected session to be gone")
	}
}
