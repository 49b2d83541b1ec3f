package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DigestDateLayout  = time.DateOnly
	DisplayDateLayout = "January 02, 2006"
)

// DigestDateFor is the canonical digest date for a generation started at now:
// the UTC calendar date of now minus one day.
func DigestDateFor(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func ParseDigestDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DigestDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid digest date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

func FormatDisplayDate(date time.Time) string {
	return date.Format(DisplayDateLayout)
}

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	monthDayYearPattern = regexp.MustCompile(
		`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`,
	)
	dayMonthYearPattern = regexp.MustCompile(
		`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)\.?,?\s+(\d{4})\b`,
	)
	isoDatePattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// DatesIn returns the calendar dates written in text, as UTC midnights.
// Recognizes "December 5, 2025", "5 Dec 2025" and "2025-12-05".
func DatesIn(text string) []time.Time {
	var dates []time.Time

	for _, match := range monthDayYearPattern.FindAllStringSubmatch(text, -1) {
		if date, ok := buildDate(match[3], monthFromName(match[1]), match[2]); ok {
			dates = append(dates, date)
		}
	}
	for _, match := range dayMonthYearPattern.FindAllStringSubmatch(text, -1) {
		if date, ok := buildDate(match[3], monthFromName(match[2]), match[1]); ok {
			dates = append(dates, date)
		}
	}
	for _, match := range isoDatePattern.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(match[2])
		if date, ok := buildDate(match[1], time.Month(month), match[3]); ok {
			dates = append(dates, date)
		}
	}

	return dates
}

func monthFromName(name string) time.Month {
	prefix := strings.ToLower(name)[:3]
	for month := time.January; month <= time.December; month++ {
		if strings.ToLower(month.String()[:3]) == prefix {
			return month
		}
	}
	return 0
}

// buildDate rejects out of range values instead of normalizing them.
func buildDate(year string, month time.Month, day string) (time.Time, bool) {
	y, yErr := strconv.Atoi(year)
	d, dErr := strconv.Atoi(day)
	if yErr != nil || dErr != nil || month < time.January || month > time.December {
		return time.Time{}, false
	}

	date := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if date.Day() != d || date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}
