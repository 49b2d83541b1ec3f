package services

import (
	"context"
	"fmt"
	. "newsdigest/internal/models"
	"newsdigest/internal/repositories"
	"newsdigest/internal/types"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	testTick       = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	testDigestDate = time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)
)

func testInterest(slug string) Interest {
	for _, interest := range PredefinedInterests {
		if interest.Slug == slug {
			return interest
		}
	}
	return Interest{Slug: slug, Name: slug, NewsAPICategory: slug}
}

func testHeadlines(category string, count int) []Headline {
	headlines := make([]Headline, 0, count)
	for i := range count {
		published := testDigestDate.Add(time.Duration(i+1) * time.Hour)
		headlines = append(headlines, Headline{
			Title:       fmt.Sprintf("%s story %d", category, i+1),
			Description: fmt.Sprintf("Details about %s story %d", category, i+1),
			Source:      "Wire",
			URL:         fmt.Sprintf("https://news.example.com/%s/%d", category, i+1),
			PublishedAt: &published,
			Category:    category,
		})
	}
	return headlines
}

const validDigestMarkdown = `# Daily News Digest – November 30, 2025

**Executive Summary:** Chipmakers announced faster processors while researchers reported progress on fusion.

## Technology

New processors promise **major** gains.

- Chip story one
- Chip story two

## Science

Fusion research advanced.

## Key Takeaways

- Technology moved quickly
- Science kept pace
- Expect follow-ups`

type fakeNewsProvider struct {
	mu        sync.Mutex
	responses map[string][]Headline
	errs      map[string][]error
	calls     map[string]int
}

func newFakeNewsProvider() *fakeNewsProvider {
	return &fakeNewsProvider{
		responses: make(map[string][]Headline),
		errs:      make(map[string][]error),
		calls:     make(map[string]int),
	}
}

func (p *fakeNewsProvider) Name() string {
	return "fake"
}

func (p *fakeNewsProvider) FetchHeadlines(
	ctx context.Context,
	category string,
	window types.FetchWindow,
) ([]Headline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[category]++
	if errs := p.errs[category]; len(errs) > 0 {
		err := errs[0]
		p.errs[category] = errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return append([]Headline(nil), p.responses[category]...), nil
}

func (p *fakeNewsProvider) callCount(category string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[category]
}

type memoryHeadlineCache struct {
	mu      sync.Mutex
	entries map[string][]Headline
}

func newMemoryHeadlineCache() *memoryHeadlineCache {
	return &memoryHeadlineCache{entries: make(map[string][]Headline)}
}

func (c *memoryHeadlineCache) Get(ctx context.Context, key string) ([]Headline, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	headlines, ok := c.entries[key]
	return append([]Headline(nil), headlines...), ok, nil
}

func (c *memoryHeadlineCache) Set(
	ctx context.Context,
	key string,
	headlines []Headline,
	ttl time.Duration,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]Headline(nil), headlines...)
	return nil
}

type fakeLLMProvider struct {
	mu       sync.Mutex
	response string
	err      error
	delay    time.Duration
	block    bool
	panics   string
	calls    int
	lastUser string
}

func (p *fakeLLMProvider) Name() string {
	return "fake-llm"
}

func (p *fakeLLMProvider) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	p.mu.Lock()
	p.calls++
	p.lastUser = user
	response, err, delay, block, panics := p.response, p.err, p.delay, p.block, p.panics
	p.mu.Unlock()

	if panics != "" {
		panic(panics)
	}
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return response, err
}

func (p *fakeLLMProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// memoryDigestRepository mirrors the guard semantics of the SQL repository:
// one row per (user, date), conditional completion and failure.
type memoryDigestRepository struct {
	mu          sync.Mutex
	rows        map[string]*Digest
	completions map[uuid.UUID]int
	completeErr error
	now         func() time.Time
}

func newMemoryDigestRepository() *memoryDigestRepository {
	return &memoryDigestRepository{
		rows:        make(map[string]*Digest),
		completions: make(map[uuid.UUID]int),
		now:         time.Now,
	}
}

func digestKey(userID uuid.UUID, digestDate time.Time) string {
	return userID.String() + "|" + digestDate.Format(time.DateOnly)
}

func copyDigest(digest *Digest) *Digest {
	clone := *digest
	return &clone
}

func (r *memoryDigestRepository) Claim(
	ctx context.Context,
	userID uuid.UUID,
	digestDate time.Time,
	opts repositories.ClaimOptions,
) (*Digest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := digestKey(userID, digestDate)
	existing, ok := r.rows[key]
	if !ok {
		row := &Digest{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New(), CreatedAt: r.now(), UpdatedAt: r.now()},
			UserID:        userID,
			DigestDate:    digestDate,
			Status:        DigestStatusPending,
		}
		r.rows[key] = row
		return copyDigest(row), true, nil
	}

	reclaim := false
	switch existing.Status {
	case DigestStatusFailed:
		reclaim = true
	case DigestStatusCompleted:
		reclaim = opts.Force
	case DigestStatusPending:
		reclaim = opts.StaleAfter > 0 && r.now().Sub(existing.UpdatedAt) >= opts.StaleAfter
	}
	if !reclaim {
		return copyDigest(existing), false, nil
	}

	existing.Status = DigestStatusPending
	existing.ErrorMessage = nil
	existing.UpdatedAt = r.now()
	return copyDigest(existing), true, nil
}

func (r *memoryDigestRepository) findByID(id uuid.UUID) *Digest {
	for _, row := range r.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (r *memoryDigestRepository) Complete(ctx context.Context, digest *Digest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completeErr != nil {
		return &types.PersistenceError{Op: "complete", Err: r.completeErr}
	}

	row := r.findByID(digest.ID)
	if row == nil || row.Status != DigestStatusPending {
		return &types.PersistenceError{Op: "complete", Err: types.ErrClaimLost}
	}

	row.Content = digest.Content
	row.Summary = digest.Summary
	row.HeadlinesUsed = digest.HeadlinesUsed
	row.InterestsIncluded = digest.InterestsIncluded
	row.WordCount = digest.WordCount
	row.GenerationTimeMs = digest.GenerationTimeMs
	row.ErrorMessage = nil
	row.Status = DigestStatusCompleted
	row.UpdatedAt = r.now()
	r.completions[row.ID]++

	digest.Status = DigestStatusCompleted
	return nil
}

func (r *memoryDigestRepository) Fail(
	ctx context.Context,
	id uuid.UUID,
	message string,
	generationTimeMs *int64,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.findByID(id)
	if row == nil || row.Status != DigestStatusPending {
		return &types.PersistenceError{Op: "fail", Err: types.ErrClaimLost}
	}

	row.Status = DigestStatusFailed
	row.ErrorMessage = &message
	row.Content = ""
	row.Summary = ""
	row.WordCount = 0
	row.GenerationTimeMs = generationTimeMs
	row.UpdatedAt = r.now()
	return nil
}

func (r *memoryDigestRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Digest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.findByID(id)
	if row == nil || row.UserID != userID {
		return nil, types.ErrNotFound
	}
	return copyDigest(row), nil
}

func (r *memoryDigestRepository) GetByDate(
	ctx context.Context,
	userID uuid.UUID,
	digestDate time.Time,
) (*Digest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[digestKey(userID, digestDate)]
	if !ok {
		return nil, types.ErrNotFound
	}
	return copyDigest(row), nil
}

func (r *memoryDigestRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*Digest, error) {
	digests, _, _ := r.ListByUser(ctx, userID, types.NewPagination(1, types.MaxPerPage))
	for i := range digests {
		if digests[i].Status == DigestStatusCompleted {
			return &digests[i], nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *memoryDigestRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	pagination types.Pagination,
) ([]Digest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var digests []Digest
	for _, row := range r.rows {
		if row.UserID == userID {
			digests = append(digests, *row)
		}
	}
	sort.Slice(digests, func(i, j int) bool {
		return digests[i].DigestDate.After(digests[j].DigestDate)
	})

	total := int64(len(digests))
	start := min(pagination.Offset(), len(digests))
	end := min(start+pagination.PerPage, len(digests))
	return digests[start:end], total, nil
}

func (r *memoryDigestRepository) CompletedUserIDs(
	ctx context.Context,
	digestDate time.Time,
	userIDs []uuid.UUID,
) (map[uuid.UUID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed := make(map[uuid.UUID]bool)
	for _, id := range userIDs {
		if row, ok := r.rows[digestKey(id, digestDate)]; ok && row.Status == DigestStatusCompleted {
			completed[id] = true
		}
	}
	return completed, nil
}

func (r *memoryDigestRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, row := range r.rows {
		if row.ID == id && row.UserID == userID {
			delete(r.rows, key)
			return nil
		}
	}
	return types.ErrNotFound
}

func (r *memoryDigestRepository) rowFor(userID uuid.UUID, digestDate time.Time) *Digest {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[digestKey(userID, digestDate)]
	if !ok {
		return nil
	}
	return copyDigest(row)
}

func (r *memoryDigestRepository) completionCount(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions[id]
}

func (r *memoryDigestRepository) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeUserRepository struct {
	users []User
}

func (r *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			user := r.users[i]
			return &user, nil
		}
	}
	return nil, types.ErrNotFound
}

func (r *fakeUserRepository) ListActiveUsersDue(
	ctx context.Context,
	window types.TimeWindow,
) ([]User, error) {
	var due []User
	for _, user := range r.users {
		if user.IsActive && window.Contains(user.PreferredTime) {
			due = append(due, user)
		}
	}
	return due, nil
}

func newTestUser(preferred TimeOfDay, slugs ...string) User {
	interests := make([]Interest, 0, len(slugs))
	for _, slug := range slugs {
		interests = append(interests, testInterest(slug))
	}
	SortInterests(interests)

	return User{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		Email:         "reader@example.com",
		PreferredTime: preferred,
		IsActive:      true,
		Interests:     interests,
	}
}
