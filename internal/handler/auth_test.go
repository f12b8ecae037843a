package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/service"
	"timesheet/internal/tests"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *tests.MockSessionRepository) {
	t.Helper()
	sessionRepo := tests.NewMockSessionRepository()
	tokens := auth.NewTokenManager(
		auth.TokenConfig{Secret: "access-secret", TTL: time.Minute},
		auth.TokenConfig{Secret: "refresh-secret", TTL: time.Hour},
		auth.TokenConfig{Secret: "reset-secret", TTL: 15 * time.Minute},
	)
	svc := service.NewAuthService(
		tests.NewMockUserRepository(),
		sessionRepo,
		tokens,
		auth.NewPasswordHasher(4),
		tests.NewMockResetTokenStore(),
		tests.NewMockMailer(),
		"http://localhost:3000",
	)
	return NewAuthHandler(svc), sessionRepo
}

func TestLogoutRemovesSessionBestEffort(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, sessionRepo := newAuthHandler(t)
	sessionRepo.AddSession(&domain.Session{ID: "sess-1", UserID: "user-1", CreatedAt: time.Now()})

	logout := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(body))
		c.Set("actor", domain.Actor{ID: "user-1", Role: domain.RoleUser})
		h.Logout(c)
		return w
	}

	w := logout(`{"sessionId":"sess-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := sessionRepo.GetByID(context.Background(), "sess-1")
	assert.Error(t, err, "session should be deleted")

	// A repeat logout for the already-removed session still succeeds.
	w = logout(`{"sessionId":"sess-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// No session id in the body is fine too.
	w = logout(`{}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
