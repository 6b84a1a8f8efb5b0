package util

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 3, 3, 15, 4, 5, 0, time.UTC)
	from, to := DateRange(now, 5)
	assert.Equal(t, "2024-02-27", FormatDay(from))
	assert.Equal(t, "2024-03-03", FormatDay(to))
}

func TestFormatDayUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ts := time.Date(2024, 1, 1, 3, 0, 0, 0, loc)
	assert.Equal(t, "2023-12-31", FormatDay(ts))
}
