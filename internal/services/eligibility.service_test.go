package services

import (
	"context"
	. "newsdigest/internal/models"
	"newsdigest/internal/repositories"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueUserIDs(due []DueUser) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(due))
	for _, user := range due {
		ids = append(ids, user.User.ID)
	}
	return ids
}

func completeDigest(t *testing.T, digests *memoryDigestRepository, userID uuid.UUID, digestDate time.Time) {
	t.Helper()

	digest, claimed, err := digests.Claim(context.Background(), userID, digestDate, repositories.ClaimOptions{})
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, digests.Complete(context.Background(), digest))
}

func TestEligibility_DueUsers(t *testing.T) {
	due := newTestUser(NewTimeOfDay(8, 50, 0), "technology")
	atWindowStart := newTestUser(NewTimeOfDay(8, 45, 0), "science")
	atTick := newTestUser(NewTimeOfDay(9, 0, 0), "technology")
	tooEarly := newTestUser(NewTimeOfDay(8, 44, 59), "technology")
	noInterests := newTestUser(NewTimeOfDay(8, 50, 0))
	inactive := newTestUser(NewTimeOfDay(8, 50, 0), "technology")
	inactive.IsActive = false
	alreadyDone := newTestUser(NewTimeOfDay(8, 55, 0), "sports")

	digests := newMemoryDigestRepository()
	completeDigest(t, digests, alreadyDone.ID, testDigestDate)

	users := &fakeUserRepository{users: []User{
		due, atWindowStart, atTick, tooEarly, noInterests, inactive, alreadyDone,
	}}
	service := NewEligibilityService(users, digests)

	result, err := service.DueUsers(context.Background(), testTick, 15*time.Minute)

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{due.ID, atWindowStart.ID}, dueUserIDs(result))
	for _, user := range result {
		assert.Equal(t, testDigestDate, user.DigestDate)
	}
}

func TestEligibility_FailedDigestStaysDue(t *testing.T) {
	user := newTestUser(NewTimeOfDay(8, 50, 0), "technology")
	digests := newMemoryDigestRepository()

	digest, _, err := digests.Claim(context.Background(), user.ID, testDigestDate, repositories.ClaimOptions{})
	require.NoError(t, err)
	require.NoError(t, digests.Fail(context.Background(), digest.ID, "quota", nil))

	service := NewEligibilityService(&fakeUserRepository{users: []User{user}}, digests)

	result, err := service.DueUsers(context.Background(), testTick, 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user.ID}, dueUserIDs(result))
}

func TestEligibility_WindowCrossingMidnight(t *testing.T) {
	lateEvening := newTestUser(NewTimeOfDay(23, 55, 0), "technology")
	justAfterMidnight := newTestUser(NewTimeOfDay(0, 1, 0), "science")
	outside := newTestUser(NewTimeOfDay(23, 40, 0), "technology")

	service := NewEligibilityService(
		&fakeUserRepository{users: []User{lateEvening, justAfterMidnight, outside}},
		newMemoryDigestRepository(),
	)
	tick := time.Date(2025, 12, 1, 0, 5, 0, 0, time.UTC)

	result, err := service.DueUsers(context.Background(), tick, 15*time.Minute)

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{lateEvening.ID, justAfterMidnight.ID}, dueUserIDs(result))
	for _, user := range result {
		assert.Equal(t, testDigestDate, user.DigestDate)
	}
}

func TestEligibility_NormalizesTickToUTC(t *testing.T) {
	user := newTestUser(NewTimeOfDay(8, 50, 0), "technology")
	service := NewEligibilityService(&fakeUserRepository{users: []User{user}}, newMemoryDigestRepository())

	eastern := time.FixedZone("EST", -5*60*60)
	tick := testTick.In(eastern)

	result, err := service.DueUsers(context.Background(), tick, 15*time.Minute)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, testDigestDate, result[0].DigestDate)
}

func TestEligibility_DueNowUsesClock(t *testing.T) {
	user := newTestUser(NewTimeOfDay(8, 50, 0), "technology")
	service := NewEligibilityService(&fakeUserRepository{users: []User{user}}, newMemoryDigestRepository())
	service.now = func() time.Time { return testTick }

	result, err := service.DueNow(context.Background(), 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user.ID}, dueUserIDs(result))
}
