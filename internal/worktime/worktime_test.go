package worktime

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDuration(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("two and a half hours", func(t *testing.T) {
		d, err := ComputeDuration(day.Add(9*time.Hour), day.Add(11*time.Hour+30*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "2:30", d.Label)
		assert.Equal(t, "2.50000", d.Hours.StringFixed(HoursPrecision))
	})

	t.Run("under one hour keeps leading zero hour", func(t *testing.T) {
		d, err := ComputeDuration(day.Add(9*time.Hour), day.Add(9*time.Hour+45*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "0:45", d.Label)
	})

	t.Run("minutes are zero padded, hours are not", func(t *testing.T) {
		d, err := ComputeDuration(day.Add(8*time.Hour), day.Add(18*time.Hour+5*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "10:05", d.Label)
	})

	t.Run("sub-minute jitter does not change the result", func(t *testing.T) {
		exact, err := ComputeDuration(day.Add(9*time.Hour), day.Add(11*time.Hour+30*time.Minute))
		require.NoError(t, err)

		jittered, err := ComputeDuration(
			day.Add(9*time.Hour+45*time.Second+120*time.Millisecond),
			day.Add(11*time.Hour+30*time.Minute+10*time.Second),
		)
		require.NoError(t, err)

		assert.Equal(t, exact.Label, jittered.Label)
		assert.True(t, exact.Hours.Equal(jittered.Hours))
	})

	t.Run("end equal to start fails", func(t *testing.T) {
		_, err := ComputeDuration(day.Add(9*time.Hour), day.Add(9*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("end before start fails", func(t *testing.T) {
		_, err := ComputeDuration(day.Add(11*time.Hour), day.Add(9*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("zero timestamps fail", func(t *testing.T) {
		_, err := ComputeDuration(time.Time{}, day.Add(9*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidInterval)

		_, err = ComputeDuration(day.Add(9*time.Hour), time.Time{})
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("twenty minutes rounds to five digits", func(t *testing.T) {
		d, err := ComputeDuration(day.Add(9*time.Hour), day.Add(9*time.Hour+20*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "0.33333", d.Hours.StringFixed(HoursPrecision))
	})
}

func TestComputePay(t *testing.T) {
	t.Parallel()

	hours := decimal.RequireFromString("2.5")
	rate := decimal.RequireFromString("20")
	assert.Equal(t, "50.00000", ComputePay(hours, rate).StringFixed(HoursPrecision))

	fractional := ComputePay(decimal.RequireFromString("0.33333"), decimal.RequireFromString("17.25"))
	assert.Equal(t, "5.74994", fractional.StringFixed(HoursPrecision))
}

func TestFormatTotalHours(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "03:15", FormatTotalHours(decimal.RequireFromString("3.25")))
	assert.Equal(t, "10:30", FormatTotalHours(decimal.RequireFromString("10.5")))
	assert.Equal(t, "00:00", FormatTotalHours(decimal.Zero))
	assert.Equal(t, "26:45", FormatTotalHours(decimal.RequireFromString("26.75")))

	// Fractions that round to a full hour carry into the hour field.
	assert.Equal(t, "59:00", FormatTotalHours(decimal.RequireFromString("58.9998")))
}
