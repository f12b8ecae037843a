package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/repository"
)

// ResetTokenStore keeps the most recently issued password-reset token per
// user so each can be redeemed at most once.
type ResetTokenStore interface {
	SaveResetToken(ctx context.Context, userID, token string) error
	ResetTokenMatches(ctx context.Context, userID, token string) (bool, error)
	ConsumeResetToken(ctx context.Context, userID string) error
}

// AuthService handles login, token lifecycle, password recovery and login
// sessions.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *auth.TokenManager
	hasher      *auth.PasswordHasher
	resetTokens ResetTokenStore
	mailer      Mailer
	resetURL    string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	resetTokens ResetTokenStore,
	mailer Mailer,
	resetURL string,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		hasher:      hasher,
		resetTokens: resetTokens,
		mailer:      mailer,
		resetURL:    resetURL,
	}
}

// LoginRequest contains the credentials and client metadata for a login.
type LoginRequest struct {
	Email     string
	Password  string
	City      string
	Country   string
	UserAgent string
}

// LoginResult carries the issued token pair and the created session.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

// Login verifies credentials against an ACTIVE account, issues an
// access/refresh token pair, and records one session for this login event.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.AccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.RefreshToken(user)
	if err != nil {
		return nil, err
	}

	session := newSession(user.ID, req)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
	}, nil
}

// Refresh verifies a refresh token and issues a fresh access token for the
// still-ACTIVE account behind it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrUnauthorized
	}

	user, err := s.activeUserByEmail(ctx, claims.Email)
	if err != nil {
		return "", err
	}

	if stale(user, claims) {
		return "", ErrStaleToken
	}

	return s.tokens.AccessToken(user)
}

// ChangePassword verifies the old password and stores a new hash, stamping
// password_changed_at so earlier tokens stop validating.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) (*domain.User, error) {
	if newPassword == "" {
		return nil, ErrValidation
	}

	user, err := s.activeUserByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Compare(user.PasswordHash, oldPassword) {
		return nil, ErrPasswordIncorrect
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}

	return user, nil
}

// ForgotPassword issues a short-lived single-use reset token and emails the
// reset link. Email delivery is fire-and-forget.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.activeUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.ResetToken(user)
	if err != nil {
		return err
	}

	if err := s.resetTokens.SaveResetToken(ctx, user.ID, token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?id=%s&token=%s", s.resetURL, user.ID, token)

	go func() {
		if err := s.mailer.SendPasswordResetEmail(context.Background(), user.Email, link); err != nil {
			log.Printf("failed to send password reset email to %s: %v", user.Email, err)
		}
	}()

	return nil
}

// ResetPassword redeems a reset token for the given user and stores the new
// password. The token must be the one most recently issued, must belong to
// the user, and is consumed on success.
func (s *AuthService) ResetPassword(ctx context.Context, userID, token, password string) error {
	if password == "" {
		return ErrValidation
	}

	user, err := s.activeUserByID(ctx, userID)
	if err != nil {
		return err
	}

	claims, err := s.tokens.VerifyReset(token)
	if err != nil || claims.ID != userID {
		return ErrUnauthorized
	}

	if stale(user, claims) {
		return ErrStaleToken
	}

	ok, err := s.resetTokens.ResetTokenMatches(ctx, userID, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.resetTokens.ConsumeResetToken(ctx, userID); err != nil {
		log.Printf("failed to consume reset token for user %s: %v", userID, err)
	}

	return nil
}

// Sessions lists the acting user's login sessions, newest first.
func (s *AuthService) Sessions(ctx context.Context, actor domain.Actor) ([]*domain.Session, error) {
	return s.sessionRepo.ListByUser(ctx, actor.ID)
}

// SessionLive reports whether the session still exists.
func (s *AuthService) SessionLive(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	_, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveSession deletes one of the acting user's sessions by id.
func (s *AuthService) RemoveSession(ctx context.Context, actor domain.Actor, sessionID string) error {
	err := s.sessionRepo.DeleteByIDAndUser(ctx, sessionID, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// VerifyAccess validates an access token against the current account state:
// the account must exist and be ACTIVE, and the token must postdate the last
// password change.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (domain.Actor, error) {
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		return domain.Actor{}, ErrUnauthorized
	}

	user, err := s.activeUserByID(ctx, claims.ID)
	if err != nil {
		return domain.Actor{}, ErrUnauthorized
	}

	if stale(user, claims) {
		return domain.Actor{}, ErrStaleToken
	}

	return claims.Actor(), nil
}

func (s *AuthService) activeUserByID(ctx context.Context, id string) (*domain.User, error) {
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

func (s *AuthService) activeUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
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

// stale reports whether the token was issued before the user's last password
// change. Issue times are compared at second precision, matching the JWT
// iat claim.
func stale(user *domain.User, claims *auth.Claims) bool {
	if user.PasswordChangedAt.IsZero() || claims.IssuedAt == nil {
		return false
	}
	return user.PasswordChangedAt.Unix() > claims.IssuedAt.Unix()
}

// newSession builds a session from the login request, parsing browser and
// OS out of the User-Agent header.
func newSession(userID string, req LoginRequest) *domain.Session {
	ua := useragent.Parse(req.UserAgent)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown Browser"
	}
	device := ua.OS
	if device == "" {
		device = "Unknown Device"
	}
	city := req.City
	if city == "" {
		city = "Unknown City"
	}
	country := req.Country
	if country == "" {
		country = "Unknown Country"
	}

	return &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Browser:   browser,
		Device:    device,
		City:      city,
		Country:   country,
		CreatedAt: time.Now(),
	}
}
