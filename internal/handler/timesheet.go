package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/middleware"
	"timesheet/internal/service"
	"timesheet/internal/worktime"
)

// TimesheetHandler handles HTTP requests for timesheet entries.
type TimesheetHandler struct {
	timesheetService *service.TimesheetService
}

// NewTimesheetHandler creates a new TimesheetHandler.
func NewTimesheetHandler(timesheetService *service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetService: timesheetService}
}

// CreateTimesheetRequest is the HTTP request body for recording a trip.
type CreateTimesheetRequest struct {
	TripID        string `json:"tripId" binding:"required"`
	Date          string `json:"date" binding:"required"`
	TripStartTime string `json:"tripStartTime" binding:"required"`
	TripEndTime   string `json:"tripEndTime" binding:"required"`
	TripReceipt   string `json:"tripReceipt"`
	Memo          string `json:"memo"`
}

// TimesheetResponse is the HTTP representation of a timesheet entry.
// Money and hour values are fixed-precision strings.
type TimesheetResponse struct {
	ID               string `json:"id"`
	TripID           string `json:"tripId"`
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Date             string `json:"date"`
	TripStartTime    string `json:"tripStartTime"`
	TripEndTime      string `json:"tripEndTime"`
	Duration         string `json:"duration"`
	DurationInNumber string `json:"durationInNumber"`
	HourlyRate       string `json:"hourlyRate"`
	Payment          string `json:"payment"`
	TripReceipt      string `json:"tripReceipt,omitempty"`
	Memo             string `json:"memo,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// Create handles POST /v1/timesheets
func (h *TimesheetHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	var req CreateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondValidationError(c, "date must be formatted as YYYY-MM-DD")
		return
	}

	start, err := parseTimestamp(req.TripStartTime)
	if err != nil {
		respondError(c, worktime.ErrInvalidInterval)
		return
	}

	end, err := parseTimestamp(req.TripEndTime)
	if err != nil {
		respondError(c, worktime.ErrInvalidInterval)
		return
	}

	entry, err := h.timesheetService.Create(c.Request.Context(), actor, service.CreateTimesheetRequest{
		TripID:    req.TripID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Receipt:   req.TripReceipt,
		Memo:      req.Memo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Time sheet created successfully", toTimesheetResponse(entry))
}

// ListData is the payload for the trip listing: the page of trips plus the
// payment sum over the whole filtered set.
type ListData struct {
	Trips        []TimesheetResponse `json:"trips"`
	TotalPayment string              `json:"totalPayment"`
}

// List handles GET /v1/timesheets
func (h *TimesheetHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	startDate, ok := queryDate(c, "startDate")
	if !ok {
		respondValidationError(c, "startDate must be formatted as YYYY-MM-DD")
		return
	}
	endDate, ok := queryDate(c, "endDate")
	if !ok {
		respondValidationError(c, "endDate must be formatted as YYYY-MM-DD")
		return
	}

	page := parsePage(c)

	result, err := h.timesheetService.List(c.Request.Context(), actor, service.ListTimesheetsRequest{
		SearchTerm: c.Query("searchTerm"),
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	trips := make([]TimesheetResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		trips = append(trips, toTimesheetResponse(entry))
	}

	respondWithMeta(c, "All time sheets retrieved successfully", ListData{
		Trips:        trips,
		TotalPayment: result.TotalPayment.Round(worktime.AggregatePrecision).StringFixed(worktime.AggregatePrecision),
	}, Meta{Page: page.Page, Limit: page.Limit, Total: result.Total})
}

// Summary handles GET /v1/timesheets/summary
func (h *TimesheetHandler) Summary(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	startDate, ok := queryDate(c, "startDate")
	if !ok {
		respondValidationError(c, "startDate must be formatted as YYYY-MM-DD")
		return
	}
	endDate, ok := queryDate(c, "endDate")
	if !ok {
		respondValidationError(c, "endDate must be formatted as YYYY-MM-DD")
		return
	}

	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))

	summary, err := h.timesheetService.Summarize(c.Request.Context(), actor, service.SummaryRequest{
		SearchTerm: c.Query("searchTerm"),
		StartDate:  startDate,
		EndDate:    endDate,
		Month:      time.Month(month),
		Year:       year,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Time sheet summary retrieved successfully", gin.H{
		"totalTrips":    summary.TotalTrips,
		"totalPayment":  summary.TotalPayment,
		"totalDuration": summary.TotalDuration,
	})
}

// Get handles GET /v1/timesheets/:id
func (h *TimesheetHandler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	entry, err := h.timesheetService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Time sheet retrieved successfully", toTimesheetResponse(entry))
}

// UpdateTimesheetRequest is the HTTP request body for updating a trip.
// Absent fields keep their stored values.
type UpdateTimesheetRequest struct {
	TripID        *string `json:"tripId"`
	Date          *string `json:"date"`
	TripStartTime *string `json:"tripStartTime"`
	TripEndTime   *string `json:"tripEndTime"`
	HourlyRate    *string `json:"hourlyRate"`
	TripReceipt   *string `json:"tripReceipt"`
	Memo          *string `json:"memo"`
}

// Update handles PUT /v1/timesheets/:id
func (h *TimesheetHandler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	var req UpdateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "invalid request body")
		return
	}

	update := service.UpdateTimesheetRequest{
		TripID:  req.TripID,
		Receipt: req.TripReceipt,
		Memo:    req.Memo,
	}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			respondValidationError(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		update.Date = &date
	}

	if req.TripStartTime != nil {
		start, err := parseTimestamp(*req.TripStartTime)
		if err != nil {
			respondError(c, worktime.ErrInvalidInterval)
			return
		}
		update.StartTime = &start
	}

	if req.TripEndTime != nil {
		end, err := parseTimestamp(*req.TripEndTime)
		if err != nil {
			respondError(c, worktime.ErrInvalidInterval)
			return
		}
		update.EndTime = &end
	}

	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil || rate.IsNegative() {
			respondValidationError(c, "hourlyRate must be a non-negative decimal")
			return
		}
		update.HourlyRate = &rate
	}

	entry, err := h.timesheetService.Update(c.Request.Context(), actor, c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Time sheet updated successfully", toTimesheetResponse(entry))
}

// Delete handles DELETE /v1/timesheets/:id
func (h *TimesheetHandler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}

	entry, err := h.timesheetService.Delete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Time sheet deleted successfully", toTimesheetResponse(entry))
}

// UploadReceipt handles POST /v1/timesheets/receipt
func (h *TimesheetHandler) UploadReceipt(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondValidationError(c, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	url, err := h.timesheetService.UploadReceipt(c.Request.Context(), file.Filename, src)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Receipt uploaded successfully", gin.H{"url": url})
}

// toTimesheetResponse converts a domain entry into its HTTP representation.
func toTimesheetResponse(entry *domain.Timesheet) TimesheetResponse {
	return TimesheetResponse{
		ID:               entry.ID,
		TripID:           entry.TripID,
		UserID:           entry.UserID,
		Name:             entry.Name,
		Date:             entry.Date.Format(dateLayout),
		TripStartTime:    entry.StartTime.Format(time.RFC3339),
		TripEndTime:      entry.EndTime.Format(time.RFC3339),
		Duration:         entry.Duration,
		DurationInNumber: entry.DurationHours.StringFixed(worktime.HoursPrecision),
		HourlyRate:       entry.HourlyRate.StringFixed(2),
		Payment:          entry.Payment.StringFixed(worktime.HoursPrecision),
		TripReceipt:      entry.Receipt,
		Memo:             entry.Memo,
		CreatedAt:        entry.CreatedAt.Format(time.RFC3339),
	}
}
