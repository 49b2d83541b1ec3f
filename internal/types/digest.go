package types

import (
	"time"

	. "newsdigest/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

type DigestResponse struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"user_id"`
	DigestDate        string             `json:"digest_date"`
	Content           string             `json:"content"`
	Summary           string             `json:"summary"`
	HeadlinesUsed     []HeadlineSnapshot `json:"headlines_used"`
	InterestsIncluded []string           `json:"interests_included"`
	WordCount         int                `json:"word_count"`
	Status            DigestStatus       `json:"status"`
	ErrorMessage      *string            `json:"error_message"`
	GenerationTimeMs  *int64             `json:"generation_time_ms"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func NewDigestResponse(digest *Digest) DigestResponse {
	headlines := []HeadlineSnapshot(digest.HeadlinesUsed)
	if headlines == nil {
		headlines = []HeadlineSnapshot{}
	}
	interests := []string(digest.InterestsIncluded)
	if interests == nil {
		interests = []string{}
	}

	return DigestResponse{
		ID:                digest.ID,
		UserID:            digest.UserID,
		DigestDate:        digest.DigestDate.Format(time.DateOnly),
		Content:           digest.Content,
		Summary:           digest.Summary,
		HeadlinesUsed:     headlines,
		InterestsIncluded: interests,
		WordCount:         digest.WordCount,
		Status:            digest.Status,
		ErrorMessage:      digest.ErrorMessage,
		GenerationTimeMs:  digest.GenerationTimeMs,
		CreatedAt:         digest.CreatedAt,
		UpdatedAt:         digest.UpdatedAt,
	}
}

type DigestListResponse struct {
	Digests []DigestResponse `json:"digests"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	HasNext bool             `json:"has_next"`
}

type Pagination struct {
	Page    int
	PerPage int
}

// NewPagination clamps page to >= 1 and per page to [1, MaxPerPage].
func NewPagination(page, perPage int) Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

type GenerateDigestRequest struct {
	Force bool `json:"force"`
}

type SchedulerJobInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	NextRunTime *time.Time `json:"next_run_time"`
}

type SchedulerStatus struct {
	Enabled     bool               `json:"enabled"`
	Running     bool               `json:"running"`
	Jobs        []string           `json:"jobs"`
	JobDetails  []SchedulerJobInfo `json:"job_details"`
	JobCount    int                `json:"job_count"`
	NextRunTime *time.Time         `json:"next_run_time"`
}
