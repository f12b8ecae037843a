// Package worktime holds the pure time-interval and pay arithmetic shared by
// the timesheet service. All money and hour values are decimal to keep the
// rounding behavior exact across repeated aggregation.
package worktime

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInterval is returned when a start/end pair is malformed or the
// end does not come after the start.
var ErrInvalidInterval = errors.New("invalid time interval")

// HoursPrecision is the number of fractional digits kept on per-entry
// duration-hours and payment amounts.
const HoursPrecision = 5

// AggregatePrecision is the number of fractional digits used for summed
// payment amounts on read paths. It intentionally differs from
// HoursPrecision; both precisions are part of the observed contract.
const AggregatePrecision = 4

var minutesPerHour = decimal.NewFromInt(60)

// Duration is the derived duration of a work interval.
type Duration struct {
	// Label is "H:MM" with zero-padded minutes, e.g. "2:05" or "0:45".
	Label string
	// Hours is the duration in decimal hours, rounded to HoursPrecision.
	Hours decimal.Decimal
}

// ComputeDuration derives the duration of [start,end). Both timestamps are
// truncated to whole minutes before subtraction, so two inputs differing only
// in seconds or milliseconds produce identical results.
func ComputeDuration(start, end time.Time) (Duration, error) {
	if start.IsZero() || end.IsZero() {
		return Duration{}, ErrInvalidInterval
	}
	if !end.After(start) {
		return Duration{}, ErrInvalidInterval
	}

	totalMinutes := int64(end.Truncate(time.Minute).Sub(start.Truncate(time.Minute)) / time.Minute)
	if totalMinutes < 0 {
		return Duration{}, ErrInvalidInterval
	}

	hours := decimal.NewFromInt(totalMinutes).Div(minutesPerHour).Round(HoursPrecision)

	return Duration{
		Label: formatMinutes(totalMinutes),
		Hours: hours,
	}, nil
}

// ComputePay multiplies decimal hours by an hourly rate, rounded to
// HoursPrecision fractional digits.
func ComputePay(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate).Round(HoursPrecision)
}

// FormatTotalHours renders summed decimal hours as "HH:MM" with both fields
// zero-padded to two digits. This is the aggregate label format, distinct
// from the per-entry Label produced by ComputeDuration.
func FormatTotalHours(hours decimal.Decimal) string {
	whole := hours.Floor().IntPart()
	minutes := hours.Sub(hours.Floor()).Mul(minutesPerHour).Round(0).IntPart()
	// A fraction just under a full hour rounds to 60 minutes; carry it.
	if minutes == 60 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", whole, minutes)
}

// formatMinutes renders total minutes as "H:MM". Durations under one hour
// keep a leading "0".
func formatMinutes(totalMinutes int64) string {
	return fmt.Sprintf("%d:%02d", totalMinutes/60, totalMinutes%60)
}
