package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"timesheet/internal/repository"
)

const dateLayout = "2006-01-02"

// timestampLayouts are the accepted start/end time formats, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseDate parses a calendar date in the local zone.
func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.Local)
}

// parseTimestamp parses a start/end timestamp, trying each accepted layout.
func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parsePage extracts pagination and sorting from query parameters, falling
// back to page=1, limit=10, created_at desc.
func parsePage(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	return repository.Page{
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}.Normalize()
}

// queryDate parses an optional date query parameter. The bool reports
// whether the parameter was present and valid.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, false
	}
	return &t, true
}
