package services

import (
	"context"
	"errors"
	"fmt"
	"newsdigest/config"
	. "newsdigest/internal/models"
	"newsdigest/internal/repositories"
	"newsdigest/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

const (
	DIGEST_WRITE_TIMEOUT = 5 * time.Second
	DIGEST_POLL_INTERVAL = 500 * time.Millisecond
)

type GenerateOptions struct {
	// Force regenerates a completed digest.
	Force bool
	// Wait polls an in-progress generation up to the configured wait timeout
	// before reporting a duplicate.
	Wait bool
}

type PromptComposer interface {
	Compose(digestDate time.Time, categories []CategoryResult) (ComposedPrompt, error)
}

// DigestService runs guard, fetch, compose, summarize and persist for one user.
type DigestService struct {
	digests      repositories.DigestRepository
	fetcher      HeadlineFetcher
	composer     PromptComposer
	summarizer   Summarizer
	staleAfter   time.Duration
	waitTimeout  time.Duration
	pollInterval time.Duration
	now          func() time.Time
	log          logger.Logger
}

func NewDigestService(
	config config.Config,
	digests repositories.DigestRepository,
	fetcher HeadlineFetcher,
	composer PromptComposer,
	summarizer Summarizer,
) *DigestService {
	return &DigestService{
		digests:      digests,
		fetcher:      fetcher,
		composer:     composer,
		summarizer:   summarizer,
		staleAfter:   config.DigestStalePending(),
		waitTimeout:  config.DigestWaitTimeout(),
		pollInterval: DIGEST_POLL_INTERVAL,
		now:          time.Now,
		log:          logger.New("DigestService"),
	}
}

// Generate produces the digest for (user, digestDate). It returns
// DuplicateGenerationError carrying the existing row when the guard is held
// or already satisfied.
func (s *DigestService) Generate(
	ctx context.Context,
	user *User,
	digestDate time.Time,
	opts GenerateOptions,
) (*Digest, error) {
	log := s.log.Function("Generate").TraceFromContext(ctx)

	if !user.IsActive {
		return nil, types.ErrInactiveUser
	}
	if len(user.Interests) == 0 {
		return nil, types.ErrNoInterests
	}

	digest, claimed, err := s.digests.Claim(ctx, user.ID, digestDate, repositories.ClaimOptions{
		Force:      opts.Force,
		StaleAfter: s.staleAfter,
	})
	if err != nil {
		return nil, err
	}

	if !claimed {
		if opts.Wait && digest.Status == DigestStatusPending && s.waitTimeout > 0 {
			digest = s.waitForOutcome(ctx, user.ID, digestDate, digest)
		}
		log.Info(
			"Digest already claimed",
			"userID", user.ID,
			"digestDate", digestDate.Format(time.DateOnly),
			"status", digest.Status,
		)
		return nil, &types.DuplicateGenerationError{Digest: digest}
	}

	started := s.now()
	log.Info("Generating digest", "userID", user.ID, "digestDate", digestDate.Format(time.DateOnly))

	if err := s.safeBuild(ctx, log, user, digest); err != nil {
		elapsed := s.now().Sub(started).Milliseconds()
		s.fail(ctx, log, digest.ID, err, elapsed)
		return nil, err
	}

	elapsed := s.now().Sub(started).Milliseconds()
	digest.GenerationTimeMs = &elapsed

	writeCtx, cancel := detachedIfDone(ctx)
	defer cancel()
	if err := s.digests.Complete(writeCtx, digest); err != nil {
		// Release the guard so a retry does not wait out the stale window
		s.fail(writeCtx, log, digest.ID, err, elapsed)
		return nil, err
	}

	log.Info(
		"Digest completed",
		"userID", user.ID,
		"digestID", digest.ID,
		"wordCount", digest.WordCount,
		"headlines", len(digest.HeadlinesUsed),
		"generationTimeMs", elapsed,
	)
	return digest, nil
}

// safeBuild converts a panic while building into an error so the claimed row
// can be marked failed.
func (s *DigestService) safeBuild(
	ctx context.Context,
	log logger.Logger,
	user *User,
	digest *Digest,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during digest generation: %v", r)
			log.Er(
				"Recovered digest generation panic",
				err,
				"userID", user.ID,
				"digestDate", digest.DigestDate.Format(time.DateOnly),
			)
		}
	}()
	return s.build(ctx, user, digest)
}

func (s *DigestService) build(ctx context.Context, user *User, digest *Digest) error {
	fetched, err := s.fetcher.Fetch(ctx, user.Interests, digest.DigestDate)
	if err != nil {
		return err
	}

	prompt, err := s.composer.Compose(digest.DigestDate, fetched.Succeeded())
	if err != nil {
		return err
	}

	summary, err := s.summarizer.Summarize(ctx, prompt)
	if err != nil {
		return err
	}

	snapshots := make([]HeadlineSnapshot, 0, len(prompt.Headlines))
	for _, headline := range prompt.Headlines {
		snapshots = append(snapshots, headline.Snapshot())
	}

	digest.Content = summary.Content
	digest.Summary = summary.Summary
	digest.WordCount = summary.WordCount
	digest.HeadlinesUsed = snapshots
	digest.InterestsIncluded = prompt.CategorySlugs()
	return nil
}

func (s *DigestService) fail(
	ctx context.Context,
	log logger.Logger,
	id uuid.UUID,
	cause error,
	elapsed int64,
) {
	_ = log.Err("Digest generation failed", cause, "digestID", id)

	writeCtx, cancel := detachedIfDone(ctx)
	defer cancel()

	if err := s.digests.Fail(writeCtx, id, cause.Error(), &elapsed); err != nil {
		_ = log.Err("failed to record digest failure", err, "digestID", id)
	}
}

// waitForOutcome polls until the pending row resolves or the wait expires.
func (s *DigestService) waitForOutcome(
	ctx context.Context,
	userID uuid.UUID,
	digestDate time.Time,
	current *Digest,
) *Digest {
	log := s.log.Function("waitForOutcome")

	deadline := time.NewTimer(s.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return current
		case <-deadline.C:
			return current
		case <-ticker.C:
			latest, err := s.digests.GetByDate(ctx, userID, digestDate)
			if err != nil {
				if !errors.Is(err, types.ErrNotFound) {
					log.Warn("failed to poll digest", "userID", userID, "error", err)
				}
				continue
			}
			current = latest
			if latest.Status != DigestStatusPending {
				return latest
			}
		}
	}
}

// detachedIfDone keeps final status writes alive after the caller's context
// has been cancelled.
func detachedIfDone(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), DIGEST_WRITE_TIMEOUT)
}
