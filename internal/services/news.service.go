package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"newsdigest/config"
	. "newsdigest/internal/models"
	"newsdigest/internal/types"
	"strconv"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	NEWSAPI_PROVIDER       = "newsapi"
	NEWSAPI_COUNTRY        = "us"
	NEWSAPI_PAGE_SIZE      = 20
	NEWSAPI_TIMEOUT        = 30 * time.Second
	NEWSAPI_UNKNOWN_SOURCE = "Unknown"
)

// NewsProvider returns raw headlines for one provider category. Errors are
// TransientFetchError, QuotaExceededError or MalformedResponseError.
type NewsProvider interface {
	Name() string
	FetchHeadlines(ctx context.Context, category string, window types.FetchWindow) ([]Headline, error)
}

func NewNewsProvider(cfg config.Config) NewsProvider {
	if cfg.NewsProvider == config.NewsProviderRSS {
		return NewRSSProvider(cfg.RSSFeedMap())
	}
	return NewNewsAPIProvider(cfg)
}

type NewsAPIProvider struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	country  string
	pageSize int
	log      logger.Logger
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

func NewNewsAPIProvider(config config.Config) *NewsAPIProvider {
	return &NewsAPIProvider{
		client: &http.Client{
			Timeout: NEWSAPI_TIMEOUT,
		},
		baseURL:  strings.TrimRight(config.NewsAPIBaseURL, "/"),
		apiKey:   config.NewsAPIKey,
		country:  NEWSAPI_COUNTRY,
		pageSize: NEWSAPI_PAGE_SIZE,
		log:      logger.New("NewsAPIProvider"),
	}
}

func (p *NewsAPIProvider) Name() string {
	return NEWSAPI_PROVIDER
}

func (p *NewsAPIProvider) FetchHeadlines(
	ctx context.Context,
	category string,
	window types.FetchWindow,
) ([]Headline, error) {
	log := p.log.Function("FetchHeadlines").TraceFromContext(ctx)

	query := url.Values{}
	query.Set("country", p.country)
	query.Set("pageSize", strconv.Itoa(p.pageSize))
	if category != "" {
		query.Set("category", category)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+"/v2/top-headlines?"+query.Encode(),
		nil,
	)
	if err != nil {
		return nil, log.Err("failed to create request", err, "category", category)
	}
	req.Header.Set("X-Api-Key", p.apiKey)
	req.Header.Set("User-Agent", "NewsDigest/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn("NewsAPI request failed", "category", category, "error", err)
		return nil, &types.TransientFetchError{Category: category, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	var body newsAPIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || isNewsAPIQuotaCode(body.Code):
		log.Warn("NewsAPI quota exceeded", "category", category, "code", body.Code)
		return nil, &types.QuotaExceededError{
			Provider: NEWSAPI_PROVIDER,
			Err:      newsAPIStatusError(resp.StatusCode, body.Message),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		log.Warn("NewsAPI server error", "category", category, "statusCode", resp.StatusCode)
		return nil, &types.TransientFetchError{
			Category: category,
			Err:      newsAPIStatusError(resp.StatusCode, body.Message),
		}
	case resp.StatusCode != http.StatusOK:
		_ = log.Error("NewsAPI rejected request", "category", category, "statusCode", resp.StatusCode)
		return nil, &types.MalformedResponseError{
			Provider: NEWSAPI_PROVIDER,
			Reason:   newsAPIStatusError(resp.StatusCode, body.Message).Error(),
		}
	case decodeErr != nil:
		_ = log.Err("failed to decode response", decodeErr, "category", category)
		return nil, &types.MalformedResponseError{Provider: NEWSAPI_PROVIDER, Reason: decodeErr.Error()}
	case body.Status != "ok":
		_ = log.Error("NewsAPI returned error status", "category", category, "message", body.Message)
		return nil, &types.MalformedResponseError{
			Provider: NEWSAPI_PROVIDER,
			Reason:   fmt.Sprintf("status %q: %s", body.Status, body.Message),
		}
	}

	headlines := make([]Headline, 0, len(body.Articles))
	for _, article := range body.Articles {
		publishedAt := parsePublishedAt(article.PublishedAt)
		if !window.Admits(publishedAt) {
			continue
		}

		source := article.Source.Name
		if source == "" {
			source = NEWSAPI_UNKNOWN_SOURCE
		}

		headlines = append(headlines, Headline{
			Title:       article.Title,
			Description: article.Description,
			Source:      source,
			URL:         article.URL,
			PublishedAt: publishedAt,
			Category:    category,
		})
	}

	log.Debug("Fetched headlines", "category", category, "count", len(headlines))
	return headlines, nil
}

func isNewsAPIQuotaCode(code string) bool {
	return code == "rateLimited" || code == "apiKeyExhausted"
}

func newsAPIStatusError(statusCode int, message string) error {
	if message == "" {
		return fmt.Errorf("HTTP %d", statusCode)
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, message)
}

func parsePublishedAt(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}
