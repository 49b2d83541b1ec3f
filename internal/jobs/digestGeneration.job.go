package jobs

import (
	"context"
	"errors"
	"fmt"
	"newsdigest/config"
	. "newsdigest/internal/models"
	"newsdigest/internal/services"
	"newsdigest/internal/types"
	"sync/atomic"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"golang.org/x/sync/errgroup"
)

const DIGEST_GENERATION_JOB_ID = "digest_generation"

type DueUserSelector interface {
	DueNow(ctx context.Context, width time.Duration) ([]services.DueUser, error)
}

type DigestGenerator interface {
	Generate(
		ctx context.Context,
		user *User,
		digestDate time.Time,
		opts services.GenerateOptions,
	) (*Digest, error)
}

// DigestGenerationJob generates digests for every user whose preferred time
// fell inside the last check interval. One user's failure never stops the batch.
type DigestGenerationJob struct {
	eligibility DueUserSelector
	digests     DigestGenerator
	interval    time.Duration
	concurrency int
	log         logger.Logger
}

type generationTally struct {
	generated  atomic.Int32
	duplicates atomic.Int32
	failed     atomic.Int32
	skipped    atomic.Int32
}

func NewDigestGenerationJob(
	config config.Config,
	eligibility DueUserSelector,
	digests DigestGenerator,
) *DigestGenerationJob {
	log := logger.New("digestGenerationJob")
	log.Info(
		"Creating new digest generation job",
		"interval", config.DigestCheckInterval().String(),
		"concurrency", config.DigestWorkerConcurrency,
	)

	return &DigestGenerationJob{
		eligibility: eligibility,
		digests:     digests,
		interval:    config.DigestCheckInterval(),
		concurrency: max(config.DigestWorkerConcurrency, 1),
		log:         log,
	}
}

func (j *DigestGenerationJob) ID() string {
	return DIGEST_GENERATION_JOB_ID
}

func (j *DigestGenerationJob) Name() string {
	return "Generate digests for due users"
}

func (j *DigestGenerationJob) Schedule() services.Schedule {
	return services.Schedule{Interval: j.interval, RunImmediately: true}
}

func (j *DigestGenerationJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute").TraceFromContext(ctx)
	done := log.Timer("Digest generation cycle")
	defer done()

	due, err := j.eligibility.DueNow(ctx, j.interval)
	if err != nil {
		return log.Err("failed to select due users", err)
	}

	if len(due) == 0 {
		log.Info("No users due for a digest")
		return nil
	}

	log.Info("Starting digest generation cycle", "users", len(due), "concurrency", j.concurrency)

	var tally generationTally
	var group errgroup.Group
	group.SetLimit(j.concurrency)

	for i := range due {
		if ctx.Err() != nil {
			tally.skipped.Add(int32(len(due) - i))
			log.Warn("Cycle cancelled, not dispatching remaining users", "remaining", len(due)-i)
			break
		}

		entry := due[i]
		group.Go(func() error {
			j.generate(ctx, log, entry, &tally)
			return nil
		})
	}
	_ = group.Wait()

	log.Info(
		"Digest generation cycle finished",
		"due", len(due),
		"generated", tally.generated.Load(),
		"duplicates", tally.duplicates.Load(),
		"failed", tally.failed.Load(),
		"skipped", tally.skipped.Load(),
	)
	return nil
}

func (j *DigestGenerationJob) generate(
	ctx context.Context,
	log logger.Logger,
	entry services.DueUser,
	tally *generationTally,
) {
	if ctx.Err() != nil {
		tally.skipped.Add(1)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			tally.failed.Add(1)
			log.Er(
				"Digest generation panicked for user",
				fmt.Errorf("panic: %v", r),
				"userID", entry.User.ID,
				"digestDate", entry.DigestDate.Format(time.DateOnly),
			)
		}
	}()

	_, err := j.digests.Generate(ctx, &entry.User, entry.DigestDate, services.GenerateOptions{})

	var duplicate *types.DuplicateGenerationError
	switch {
	case err == nil:
		tally.generated.Add(1)
	case errors.As(err, &duplicate):
		tally.duplicates.Add(1)
		log.Debug("Digest already handled", "userID", entry.User.ID)
	default:
		tally.failed.Add(1)
		_ = log.Err(
			"Digest generation failed for user",
			err,
			"userID", entry.User.ID,
			"digestDate", entry.DigestDate.Format(time.DateOnly),
		)
	}
}
