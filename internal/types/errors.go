package types

import (
	"errors"
	"fmt"

	. "newsdigest/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNoInterests   = errors.New("user has no interests selected")
	ErrInactiveUser  = errors.New("user is not active")
	ErrClaimLost     = errors.New("digest is no longer pending")
	ErrInvalidDigest = errors.New("invalid digest")
)

// TransientFetchError is a retryable news provider failure.
type TransientFetchError struct {
	Category string
	Err      error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch error for %s: %v", e.Category, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// QuotaExceededError is a news or LLM rate limit. Never retried within a cycle.
type QuotaExceededError struct {
	Provider string
	Err      error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %v", e.Provider, e.Err)
}

func (e *QuotaExceededError) Unwrap() error { return e.Err }

type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %s", e.Provider, e.Reason)
}

// LLMError is a summarizer call failure that is neither quota nor parsing, e.g. a timeout.
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// FetchError reports that no category produced usable headlines.
type FetchError struct {
	Failures map[string]error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch headlines for all %d categories", len(e.Failures))
}

// DuplicateGenerationError is returned when the guard for (user, date) is
// already held or satisfied. Digest is the existing row.
type DuplicateGenerationError struct {
	Digest *Digest
}

func (e *DuplicateGenerationError) Error() string {
	if e.Digest == nil {
		return "digest generation already in progress"
	}
	return fmt.Sprintf(
		"digest for %s already %s",
		e.Digest.DigestDate.Format("2006-01-02"),
		e.Digest.Status,
	)
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s digest: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsRetryable reports whether a fetch error should be retried.
func IsRetryable(err error) bool {
	var transient *TransientFetchError
	return errors.As(err, &transient)
}
