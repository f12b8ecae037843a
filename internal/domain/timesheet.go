package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timesheet represents one recorded work trip with derived duration and pay.
//
// TripID is a caller-assigned business key, unique system-wide and distinct
// from the storage ID. Duration, DurationHours and Payment are derived from
// the start/end pair and the hourly rate snapshot taken at creation time.
type Timesheet struct {
	ID            string
	TripID        string
	UserID        string
	Name          string // owner name snapshot, searchable
	Date          time.Time
	StartTime     time.Time
	EndTime       time.Time
	Duration      string          // "H:MM" label
	DurationHours decimal.Decimal // 5 decimal places
	HourlyRate    decimal.Decimal // snapshot, 2 decimal places
	Payment       decimal.Decimal // 5 decimal places
	Receipt       string          // optional asset reference
	Memo          string
	CreatedAt     time.Time
}

// Overlaps reports whether the entry's [start,end) interval overlaps the
// given one under the half-open test.
func (t *Timesheet) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && t.EndTime.After(start)
}
