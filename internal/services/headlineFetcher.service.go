package services

import (
	"context"
	"errors"
	"newsdigest/config"
	"newsdigest/internal/database"
	. "newsdigest/internal/models"
	"newsdigest/internal/types"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"golang.org/x/text/cases"
)

const HEADLINE_CACHE_PREFIX = "headlines"

var ErrNoHeadlines = errors.New("no usable headlines returned")

// HeadlineCache stores raw provider results per provider category and day.
type HeadlineCache interface {
	Get(ctx context.Context, key string) ([]Headline, bool, error)
	Set(ctx context.Context, key string, headlines []Headline, ttl time.Duration) error
}

type valkeyHeadlineCache struct {
	client database.CacheClient
}

func NewHeadlineCache(client database.CacheClient) HeadlineCache {
	return &valkeyHeadlineCache{client: client}
}

func (c *valkeyHeadlineCache) Get(ctx context.Context, key string) ([]Headline, bool, error) {
	var headlines []Headline
	found, err := database.NewCacheBuilder(c.client, key).
		WithContext(ctx).
		WithHash(HEADLINE_CACHE_PREFIX).
		Get(&headlines)
	return headlines, found, err
}

func (c *valkeyHeadlineCache) Set(
	ctx context.Context,
	key string,
	headlines []Headline,
	ttl time.Duration,
) error {
	return database.NewCacheBuilder(c.client, key).
		WithContext(ctx).
		WithHash(HEADLINE_CACHE_PREFIX).
		WithStruct(headlines).
		WithTTL(ttl).
		Set()
}

// CategoryResult is the outcome for one interest. Err is set when the
// category produced no usable headlines.
type CategoryResult struct {
	Interest  Interest
	Headlines []Headline
	Err       error
}

func (r CategoryResult) Succeeded() bool {
	return r.Err == nil && len(r.Headlines) > 0
}

type FetchResult struct {
	Categories []CategoryResult
}

func (r *FetchResult) Succeeded() []CategoryResult {
	succeeded := make([]CategoryResult, 0, len(r.Categories))
	for _, category := range r.Categories {
		if category.Succeeded() {
			succeeded = append(succeeded, category)
		}
	}
	return succeeded
}

func (r *FetchResult) Failures() map[string]error {
	failures := make(map[string]error)
	for _, category := range r.Categories {
		if !category.Succeeded() {
			failures[category.Interest.Slug] = category.Err
		}
	}
	return failures
}

type HeadlineFetcher interface {
	Fetch(ctx context.Context, interests []Interest, digestDate time.Time) (*FetchResult, error)
}

type HeadlineFetcherService struct {
	provider       NewsProvider
	cache          HeadlineCache
	retry          RetryPolicy
	maxPerCategory int
	cacheTTL       time.Duration
	log            logger.Logger
}

func NewHeadlineFetcherService(
	config config.Config,
	provider NewsProvider,
	cache HeadlineCache,
) *HeadlineFetcherService {
	return &HeadlineFetcherService{
		provider:       provider,
		cache:          cache,
		retry:          DefaultRetryPolicy,
		maxPerCategory: config.NewsMaxPerCategory,
		cacheTTL:       config.NewsCacheTTL(),
		log:            logger.New("HeadlineFetcherService"),
	}
}

// Fetch queries one provider category per interest, in interest order. A
// category failing never stops the others; FetchError is returned only when
// no category yields a usable headline.
func (s *HeadlineFetcherService) Fetch(
	ctx context.Context,
	interests []Interest,
	digestDate time.Time,
) (*FetchResult, error) {
	log := s.log.Function("Fetch").TraceFromContext(ctx)
	window := types.FetchWindowFor(digestDate)
	seen := newHeadlineDeduper()

	result := &FetchResult{Categories: make([]CategoryResult, 0, len(interests))}
	for _, interest := range interests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := s.fetchCategory(ctx, interest.NewsAPICategory, digestDate, window)
		if err != nil {
			log.Warn(
				"Failed to fetch category",
				"interest", interest.Slug,
				"category", interest.NewsAPICategory,
				"error", err,
			)
			result.Categories = append(result.Categories, CategoryResult{Interest: interest, Err: err})
			continue
		}

		headlines := s.normalize(raw, interest.Slug, seen)
		category := CategoryResult{Interest: interest, Headlines: headlines}
		if len(headlines) == 0 {
			category.Err = ErrNoHeadlines
			log.Warn("Category returned no usable headlines", "interest", interest.Slug)
		}
		result.Categories = append(result.Categories, category)
	}

	if len(result.Succeeded()) == 0 {
		return result, &types.FetchError{Failures: result.Failures()}
	}

	log.Info(
		"Fetched headlines",
		"categories", len(result.Succeeded()),
		"failed", len(result.Categories)-len(result.Succeeded()),
	)
	return result, nil
}

func (s *HeadlineFetcherService) fetchCategory(
	ctx context.Context,
	category string,
	digestDate time.Time,
	window types.FetchWindow,
) ([]Headline, error) {
	log := s.log.Function("fetchCategory")
	key := s.provider.Name() + ":" + category + ":" + digestDate.Format(time.DateOnly)

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Debug("headline cache unavailable", "key", key, "error", err)
		}
		if found {
			log.Debug("Using cached headlines", "category", category)
			return cached, nil
		}
	}

	var headlines []Headline
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		headlines, fetchErr = s.provider.FetchHeadlines(ctx, category, window)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(headlines) > 0 {
		if err := s.cache.Set(ctx, key, headlines, s.cacheTTL); err != nil {
			log.Debug("failed to cache headlines", "key", key, "error", err)
		}
	}

	return headlines, nil
}

func (s *HeadlineFetcherService) normalize(
	raw []Headline,
	slug string,
	seen *headlineDeduper,
) []Headline {
	headlines := make([]Headline, 0, min(len(raw), max(s.maxPerCategory, 0)))
	for _, headline := range raw {
		if s.maxPerCategory > 0 && len(headlines) >= s.maxPerCategory {
			break
		}

		headline.Title = collapseWhitespace(headline.Title)
		if headline.Title == "" || headline.Title == "[Removed]" {
			continue
		}
		headline.Source = collapseWhitespace(headline.Source)
		headline.Description = collapseWhitespace(headline.Description)
		headline.URL = strings.TrimSpace(headline.URL)
		headline.Category = slug

		if !seen.add(headline) {
			continue
		}
		headlines = append(headlines, headline)
	}
	return headlines
}

// headlineDeduper rejects repeats by folded (title, source) and by exact URL.
type headlineDeduper struct {
	titles map[string]struct{}
	urls   map[string]struct{}
}

func newHeadlineDeduper() *headlineDeduper {
	return &headlineDeduper{
		titles: make(map[string]struct{}),
		urls:   make(map[string]struct{}),
	}
}

func (d *headlineDeduper) add(headline Headline) bool {
	fold := cases.Fold()
	titleKey := fold.String(headline.Title) + "\x00" + fold.String(headline.Source)
	if _, ok := d.titles[titleKey]; ok {
		return false
	}
	if headline.URL != "" {
		if _, ok := d.urls[headline.URL]; ok {
			return false
		}
		d.urls[headline.URL] = struct{}{}
	}
	d.titles[titleKey] = struct{}{}
	return true
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
