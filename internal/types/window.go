package types

import (
	"time"

	. "newsdigest/internal/models"
)

// TimeWindow is a half-open [Start, End) interval of UTC times of day.
// Start > End means the window crosses midnight.
type TimeWindow struct {
	Start TimeOfDay
	End   TimeOfDay
	All   bool
}

// WindowEndingAt returns the window [tick-width, tick).
func WindowEndingAt(tick time.Time, width time.Duration) TimeWindow {
	if width >= 24*time.Hour {
		return TimeWindow{All: true}
	}
	return TimeWindow{
		Start: TimeOfDayOf(tick.Add(-width)),
		End:   TimeOfDayOf(tick),
	}
}

func (w TimeWindow) CrossesMidnight() bool {
	return !w.All && w.Start > w.End
}

func (w TimeWindow) Contains(t TimeOfDay) bool {
	if w.All {
		return true
	}
	if w.CrossesMidnight() {
		return t >= w.Start || t < w.End
	}
	return t >= w.Start && t < w.End
}

// FetchWindow is the publish-time range headlines are gathered for.
type FetchWindow struct {
	From time.Time
	To   time.Time
}

// FetchWindowFor covers the 24 hours of digestDate in UTC.
func FetchWindowFor(digestDate time.Time) FetchWindow {
	from := time.Date(digestDate.Year(), digestDate.Month(), digestDate.Day(), 0, 0, 0, 0, time.UTC)
	return FetchWindow{From: from, To: from.AddDate(0, 0, 1)}
}

// Admits reports whether an article published at publishedAt is recent
// enough for the window. Undated articles are admitted.
func (w FetchWindow) Admits(publishedAt *time.Time) bool {
	if publishedAt == nil || w.From.IsZero() {
		return true
	}
	return !publishedAt.Before(w.From)
}
