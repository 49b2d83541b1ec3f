package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDateFor(t *testing.T) {
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{name: "morning tick", now: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC), expected: "2025-11-30"},
		{name: "just after midnight", now: time.Date(2025, 12, 1, 0, 0, 1, 0, time.UTC), expected: "2025-11-30"},
		{name: "just before midnight", now: time.Date(2025, 12, 1, 23, 59, 59, 0, time.UTC), expected: "2025-11-30"},
		{name: "year boundary", now: time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC), expected: "2025-12-31"},
		{name: "non utc input", now: time.Date(2025, 12, 1, 0, 30, 0, 0, plusTwo), expected: "2025-11-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DigestDateFor(tt.now)
			assert.Equal(t, tt.expected, got.Format(DigestDateLayout))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDigestDate(t *testing.T) {
	date, err := ParseDigestDate("2025-11-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDigestDate("30/11/2025")
	assert.Error(t, err)
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "November 30, 2025", FormatDisplayDate(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)))
}

func TestDatesIn(t *testing.T) {
	dec5 := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		text     string
		expected []time.Time
	}{
		{name: "month day year", text: "Daily News Digest - December 5, 2025", expected: []time.Time{dec5}},
		{name: "abbreviated with ordinal", text: "Dec. 5th 2025 edition", expected: []time.Time{dec5}},
		{name: "day month year", text: "News for 5 December 2025", expected: []time.Time{dec5}},
		{name: "iso", text: "Digest 2025-12-05", expected: []time.Time{dec5}},
		{name: "zero padded display form", text: "December 05, 2025", expected: []time.Time{dec5}},
		{name: "no date", text: "Technology"},
		{name: "impossible day", text: "February 30, 2025"},
		{name: "impossible iso month", text: "2025-13-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DatesIn(tt.text))
		})
	}
}
