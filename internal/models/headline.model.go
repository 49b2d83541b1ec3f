package models

import "time"

// Headline is a normalized article returned by a news provider.
type Headline struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    string     `json:"category"`
}

// HeadlineSnapshot is the point-in-time copy embedded in a digest.
type HeadlineSnapshot struct {
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    string     `json:"category"`
}

func (h Headline) Snapshot() HeadlineSnapshot {
	return HeadlineSnapshot{
		Title:       h.Title,
		Source:      h.Source,
		URL:         h.URL,
		PublishedAt: h.PublishedAt,
		Category:    h.Category,
	}
}
