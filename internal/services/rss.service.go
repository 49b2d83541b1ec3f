package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	. "newsdigest/internal/models"
	"newsdigest/internal/types"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	RSS_PROVIDER = "rss"
	RSS_TIMEOUT  = 30 * time.Second
)

// RSSProvider reads one feed per category, configured as category=url pairs.
type RSSProvider struct {
	parser *gofeed.Parser
	feeds  map[string]string
	log    logger.Logger
}

func NewRSSProvider(feeds map[string]string) *RSSProvider {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: RSS_TIMEOUT}

	return &RSSProvider{
		parser: parser,
		feeds:  feeds,
		log:    logger.New("RSSProvider"),
	}
}

func (p *RSSProvider) Name() string {
	return RSS_PROVIDER
}

func (p *RSSProvider) FetchHeadlines(
	ctx context.Context,
	category string,
	window types.FetchWindow,
) ([]Headline, error) {
	log := p.log.Function("FetchHeadlines").TraceFromContext(ctx)

	feedURL, ok := p.feeds[category]
	if !ok {
		_ = log.Error("No feed configured for category", "category", category)
		return nil, &types.MalformedResponseError{
			Provider: RSS_PROVIDER,
			Reason:   "no feed configured for category " + category,
		}
	}

	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, p.classify(log, category, err)
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = NEWSAPI_UNKNOWN_SOURCE
	}

	headlines := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		publishedAt := item.PublishedParsed
		if publishedAt == nil {
			publishedAt = item.UpdatedParsed
		}
		if publishedAt != nil {
			utc := publishedAt.UTC()
			publishedAt = &utc
		}
		if !window.Admits(publishedAt) {
			continue
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		headlines = append(headlines, Headline{
			Title:       item.Title,
			Description: htmlToText(description),
			Source:      source,
			URL:         item.Link,
			PublishedAt: publishedAt,
			Category:    category,
		})
	}

	log.Debug("Fetched feed items", "category", category, "count", len(headlines))
	return headlines, nil
}

func (p *RSSProvider) classify(log logger.Logger, category string, err error) error {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			log.Warn("Feed rate limited", "category", category)
			return &types.QuotaExceededError{Provider: RSS_PROVIDER, Err: err}
		case httpErr.StatusCode >= http.StatusInternalServerError:
			log.Warn("Feed server error", "category", category, "statusCode", httpErr.StatusCode)
			return &types.TransientFetchError{Category: category, Err: err}
		default:
			_ = log.Err("Feed request rejected", err, "category", category)
			return &types.MalformedResponseError{Provider: RSS_PROVIDER, Reason: err.Error()}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Feed request failed", "category", category, "error", err)
		return &types.TransientFetchError{Category: category, Err: err}
	}

	_ = log.Err("failed to parse feed", err, "category", category)
	return &types.MalformedResponseError{Provider: RSS_PROVIDER, Reason: err.Error()}
}

func htmlToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
