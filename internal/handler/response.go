package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet/internal/repository"
	"timesheet/internal/service"
	"timesheet/internal/worktime"
)

// Response is the uniform envelope emitted by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries pagination details for list responses.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// respondOK sends a success envelope.
func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// respondWithMeta sends a success envelope with pagination meta.
func respondWithMeta(c *gin.Context, message string, data any, meta Meta) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data, Meta: &meta})
}

// respondError sends an error envelope with the mapped HTTP status code.
// Unmapped errors can carry driver or SQL detail, so they are logged and the
// envelope gets a generic message.
func respondError(c *gin.Context, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "something went wrong"
	}
	c.JSON(status, Response{Success: false, Message: message})
}

// respondValidationError sends a 400 envelope for malformed request shapes.
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
// Internal store detail never leaks; only the duplicate-key case carries
// structured detail through ErrDuplicateKey.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrUsersNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflicts
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateTripID),
		errors.Is(err, service.ErrOverlappingInterval),
		errors.Is(err, repository.ErrDuplicateKey):
		return http.StatusConflict

	// Forbidden / business rules
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrEditWindowExpired),
		errors.Is(err, service.ErrAdminBulkDelete),
		errors.Is(err, service.ErrSelfUpdate):
		return http.StatusForbidden

	// Unauthorized
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrStaleToken),
		errors.Is(err, service.ErrPasswordIncorrect):
		return http.StatusUnauthorized

	// Bad request
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, worktime.ErrInvalidInterval):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
