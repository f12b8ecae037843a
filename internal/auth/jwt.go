// Package auth provides JWT issuing/verification and password hashing for
// the service. Three token kinds are issued with separate secrets and
// lifetimes: access, refresh, and password-reset.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timesheet/internal/domain"
)

var (
	// ErrInvalidToken is returned when a token fails to parse or verify.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload carried by every token issued by the service.
type Claims struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts the verified claims into the acting-user identity.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}

// TokenConfig holds the secret and lifetime for one token kind.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenManager issues and verifies the service's JWT tokens.
type TokenManager struct {
	access  TokenConfig
	refresh TokenConfig
	reset   TokenConfig
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(access, refresh, reset TokenConfig) *TokenManager {
	return &TokenManager{access: access, refresh: refresh, reset: reset}
}

// AccessToken issues a signed access token for the user.
func (m *TokenManager) AccessToken(user *domain.User) (string, error) {
	return m.sign(user, m.access)
}

// RefreshToken issues a signed refresh token for the user.
func (m *TokenManager) RefreshToken(user *domain.User) (string, error) {
	return m.sign(user, m.refresh)
}

// ResetToken issues a signed short-lived password-reset token for the user.
func (m *TokenManager) ResetToken(user *domain.User) (string, error) {
	return m.sign(user, m.reset)
}

// VerifyAccess verifies an access token and returns its claims.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, m.access)
}

// VerifyRefresh verifies a refresh token and returns its claims.
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, m.refresh)
}

// VerifyReset verifies a password-reset token and returns its claims.
func (m *TokenManager) VerifyReset(token string) (*Claims, error) {
	return m.verify(token, m.reset)
}

func (m *TokenManager) sign(user *domain.User, cfg TokenConfig) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func (m *TokenManager) verify(token string, cfg TokenConfig) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseBearerToken extracts the token from an Authorization header value.
// A bare token without the "Bearer " prefix is accepted as well.
func ParseBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrInvalidToken
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		if token == "" {
			return "", ErrInvalidToken
		}
		return token, nil
	}
	return header, nil
}
