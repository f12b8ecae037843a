package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"timesheet/internal/domain"
	"timesheet/internal/middleware"
	"timesheet/internal/service"
)

// AuthHandler handles HTTP requests for login, tokens, password recovery and
// sessions.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginHTTPRequest is the body for the login endpoint. City and country are
// optional client hints recorded on the session.
type LoginHTTPRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "email and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		City:      req.City,
		Country:   req.Country,
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Logged in successfully", gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"sessionId":    result.SessionID,
	})
}

// RefreshRequest is the body for the token refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "refreshToken is required")
		return
	}

	accessToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Access token refreshed successfully", gin.H{
		"accessToken": accessToken,
	})
}

// LogoutRequest is the body for the logout endpoint. The session id is
// optional; when present the matching session is removed.
type LogoutRequest struct {
	SessionID string `json:"sessionId"`
}

// Logout handles POST /v1/auth/logout. Removing the session is best effort;
// an already-gone session still logs out cleanly.
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if req.SessionID != "" {
		if err := h.authService.RemoveSession(c.Request.Context(), actor, req.SessionID); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
			respondError(c, err)
			return
		}
	}

	respondOK(c, "Logged out successfully", nil)
}

// ChangePasswordRequest is the body for the authenticated password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ChangePassword handles POST /v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "oldPassword and newPassword are required")
		return
	}

	if _, err := h.authService.ChangePassword(c.Request.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password changed successfully", nil)
}

// ForgotPasswordRequest is the body for requesting a password reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword handles POST /v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "email is required")
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password reset email sent", nil)
}

// ResetPasswordRequest is the body for redeeming a reset token.
type ResetPasswordRequest struct {
	UserID   string `json:"id" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "id, token and password are required")
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.UserID, req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Password reset successfully", nil)
}

// SessionResponse is the HTTP representation of a login session.
type SessionResponse struct {
	ID        string `json:"id"`
	Browser   string `json:"browser"`
	Device    string `json:"device"`
	City      string `json:"city"`
	Country   string `json:"country"`
	CreatedAt string `json:"createdAt"`
}

// Sessions handles GET /v1/auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	sessions, err := h.authService.Sessions(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionResponse(session))
	}

	respondOK(c, "Sessions retrieved successfully", out)
}

// RemoveSession handles DELETE /v1/auth/sessions/:id
func (h *AuthHandler) RemoveSession(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	if err := h.authService.RemoveSession(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Session removed successfully", nil)
}

func toSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		Browser:   session.Browser,
		Device:    session.Device,
		City:      session.City,
		Country:   session.Country,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
	}
}
