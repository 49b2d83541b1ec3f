package services

import (
	"context"
	. "newsdigest/internal/models"
	"newsdigest/internal/repositories"
	"newsdigest/internal/types"
	"newsdigest/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type DueUser struct {
	User       User
	DigestDate time.Time
}

type EligibilityService struct {
	users   repositories.UserRepository
	digests repositories.DigestRepository
	now     func() time.Time
	log     logger.Logger
}

func NewEligibilityService(
	users repositories.UserRepository,
	digests repositories.DigestRepository,
) *EligibilityService {
	return &EligibilityService{
		users:   users,
		digests: digests,
		now:     time.Now,
		log:     logger.New("EligibilityService"),
	}
}

// DueNow selects users due within the width ending at the current time.
func (s *EligibilityService) DueNow(ctx context.Context, width time.Duration) ([]DueUser, error) {
	return s.DueUsers(ctx, s.now(), width)
}

// DueUsers returns active users with interests whose preferred time falls in
// [tick-width, tick) and who have no completed digest for the tick's digest
// date. The digest date is computed once for the whole batch.
func (s *EligibilityService) DueUsers(
	ctx context.Context,
	tick time.Time,
	width time.Duration,
) ([]DueUser, error) {
	log := s.log.Function("DueUsers").TraceFromContext(ctx)

	tick = tick.UTC()
	digestDate := utils.DigestDateFor(tick)
	window := types.WindowEndingAt(tick, width)

	users, err := s.users.ListActiveUsersDue(ctx, window)
	if err != nil {
		return nil, err
	}

	candidates := make([]User, 0, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, user := range users {
		if !user.IsActive || !window.Contains(user.PreferredTime) {
			continue
		}
		if len(user.Interests) == 0 {
			log.Debug("Skipping user without interests", "userID", user.ID)
			continue
		}
		candidates = append(candidates, user)
		ids = append(ids, user.ID)
	}

	completed, err := s.digests.CompletedUserIDs(ctx, digestDate, ids)
	if err != nil {
		return nil, err
	}

	due := make([]DueUser, 0, len(candidates))
	for _, user := range candidates {
		if completed[user.ID] {
			log.Debug("Skipping user with completed digest", "userID", user.ID)
			continue
		}
		due = append(due, DueUser{User: user, DigestDate: digestDate})
	}

	log.Info(
		"Selected due users",
		"tick", tick.Format(time.RFC3339),
		"digestDate", digestDate.Format(time.DateOnly),
		"windowStart", window.Start.String(),
		"windowEnd", window.End.String(),
		"matched", len(users),
		"due", len(due),
	)
	return due, nil
}
