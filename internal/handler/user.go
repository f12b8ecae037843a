package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/middleware"
	"timesheet/internal/service"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// UserResponse is the HTTP representation of an account. The password hash
// never appears here.
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	HourlyRate string `json:"hourlyRate"`
	CreatedAt  string `json:"createdAt"`
}

// CreateUserHTTPRequest is the body for registering an account.
type CreateUserHTTPRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	HourlyRate string `json:"hourlyRate"`
}

// Create handles POST /v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "invalid request body")
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleUser
	}

	rate := decimal.Zero
	if req.HourlyRate != "" {
		parsed, err := decimal.NewFromString(req.HourlyRate)
		if err != nil || parsed.IsNegative() {
			respondValidationError(c, "hourlyRate must be a non-negative decimal")
			return
		}
		rate = parsed
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserRequest{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       role,
		Status:     domain.UserStatus(req.Status),
		HourlyRate: rate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User created successfully", toUserResponse(user))
}

// List handles GET /v1/users
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	page := parsePage(c)

	result, err := h.userService.List(c.Request.Context(), actor, service.ListUsersRequest{
		SearchTerm: c.Query("searchTerm"),
		Page:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	users := make([]UserResponse, 0, len(result.Users))
	for _, user := range result.Users {
		users = append(users, toUserResponse(user))
	}

	respondWithMeta(c, "Users retrieved successfully", users,
		Meta{Page: page.Page, Limit: page.Limit, Total: result.Total})
}

// Profile handles GET /v1/users/me. The optional sessionId query parameter
// lets the client learn whether that login session is still live.
func (h *UserHandler) Profile(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	user, err := h.userService.Get(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	sessionLive, err := h.authService.SessionLive(c.Request.Context(), c.Query("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Profile retrieved successfully", gin.H{
		"user":        toUserResponse(user),
		"sessionLive": sessionLive,
	})
}

// Get handles GET /v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User retrieved successfully", toUserResponse(user))
}

// UpdateNameRequest is the body for the self-service name change.
type UpdateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateName handles PATCH /v1/users/:id/name. Users may only rename
// themselves; admins may rename anyone.
func (h *UserHandler) UpdateName(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	id := c.Param("id")
	if id != actor.ID && !actor.Role.CanBypassOwnership() {
		respondError(c, service.ErrForbidden)
		return
	}

	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "name is required")
		return
	}

	user, err := h.userService.UpdateName(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User updated successfully", toUserResponse(user))
}

// AdminUpdateHTTPRequest is the body for the admin account update. Absent
// fields keep their stored values.
type AdminUpdateHTTPRequest struct {
	Name       *string `json:"name"`
	Password   *string `json:"password"`
	Role       *string `json:"role"`
	Status     *string `json:"status"`
	HourlyRate *string `json:"hourlyRate"`
}

// AdminUpdate handles PUT /v1/users/:id
func (h *UserHandler) AdminUpdate(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	var req AdminUpdateHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "invalid request body")
		return
	}

	update := service.AdminUpdateRequest{
		Name:     req.Name,
		Password: req.Password,
	}

	if req.Role != nil {
		role := domain.Role(*req.Role)
		update.Role = &role
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		update.Status = &status
	}
	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil || rate.IsNegative() {
			respondValidationError(c, "hourlyRate must be a non-negative decimal")
			return
		}
		update.HourlyRate = &rate
	}

	user, err := h.userService.AdminUpdate(c.Request.Context(), actor, c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User updated successfully", toUserResponse(user))
}

// Delete handles DELETE /v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	user, err := h.userService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "User deleted successfully", toUserResponse(user))
}

// DeleteManyRequest is the body for the bulk account delete.
type DeleteManyRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// DeleteMany handles DELETE /v1/users
func (h *UserHandler) DeleteMany(c *gin.Context) {
	var req DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "ids is required")
		return
	}

	if err := h.userService.DeleteMany(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Users deleted successfully", nil)
}

// toUserResponse converts a domain user into its HTTP representation.
func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		Status:     string(user.Status),
		HourlyRate: user.HourlyRate.StringFixed(2),
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
}
