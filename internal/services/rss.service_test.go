package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"newsdigest/internal/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tech Feed</title>
    <link>https://feeds.example.com</link>
    <description>Technology news</description>
    <item>
      <title>Chip breakthrough</title>
      <link>https://feeds.example.com/chip</link>
      <description>&lt;p&gt;Faster &lt;b&gt;chips&lt;/b&gt; arrive&lt;/p&gt;</description>
      <pubDate>Sun, 30 Nov 2025 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Old news</title>
      <link>https://feeds.example.com/old</link>
      <pubDate>Thu, 20 Nov 2025 12:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestRSSProvider_FetchHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	provider := NewRSSProvider(map[string]string{"technology": srv.URL + "/tech.xml"})

	headlines, err := provider.FetchHeadlines(
		context.Background(),
		"technology",
		types.FetchWindowFor(testDigestDate),
	)

	require.NoError(t, err)
	require.Len(t, headlines, 1)
	assert.Equal(t, "Chip breakthrough", headlines[0].Title)
	assert.Equal(t, "Faster chips arrive", headlines[0].Description)
	assert.Equal(t, "Tech Feed", headlines[0].Source)
	assert.Equal(t, "https://feeds.example.com/chip", headlines[0].URL)
	assert.Equal(t, "technology", headlines[0].Category)
	require.NotNil(t, headlines[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC), *headlines[0].PublishedAt)
}

func TestRSSProvider_MissingFeedIsMalformed(t *testing.T) {
	provider := NewRSSProvider(map[string]string{})

	_, err := provider.FetchHeadlines(context.Background(), "sports", types.FetchWindow{})

	var malformed *types.MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestRSSProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "server error is transient",
			statusCode: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				assert.True(t, types.IsRetryable(err))
			},
		},
		{
			name:       "rate limit is quota",
			statusCode: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				var quota *types.QuotaExceededError
				assert.ErrorAs(t, err, &quota)
			},
		},
		{
			name:       "not found is malformed",
			statusCode: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var malformed *types.MalformedResponseError
				assert.ErrorAs(t, err, &malformed)
			},
		},
		{
			name:       "unparseable body is malformed",
			statusCode: http.StatusOK,
			body:       "this is not a feed",
			check: func(t *testing.T, err error) {
				var malformed *types.MalformedResponseError
				assert.ErrorAs(t, err, &malformed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			provider := NewRSSProvider(map[string]string{"science": srv.URL})

			_, err := provider.FetchHeadlines(context.Background(), "science", types.FetchWindow{})

			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "plain text", htmlToText("plain text"))
	assert.Equal(t, "Bold and italic", htmlToText("<b>Bold</b> and <i>italic</i>"))
	assert.Equal(t, "", htmlToText(""))
}
