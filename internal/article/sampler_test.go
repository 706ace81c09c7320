package article

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
	"github.com/msnewsgroup/newsaudit/internal/fetcher"
)

func testClient() *fetcher.Client {
	cfg := fetcher.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RetryAttempts = 0
	cfg.RateLimit = 0
	return fetcher.New(cfg)
}

func feedItems(links ...string) []feed.Item {
	items := make([]feed.Item, 0, len(links))
	for _, link := range links {
		items = append(items, feed.Item{Link: link})
	}
	return items
}

func TestSelectCandidatesFeedOrder(t *testing.T) {
	// Fifteen feed items, sample size ten: exactly the first ten
	// unique links, in feed document order.
	var links []string
	for i := 1; i <= 15; i++ {
		links = append(links, fmt.Sprintf("https://example.com/post-%d/", i))
	}

	urls := SelectCandidates(feedItems(links...), nil, "https://example.com/", 10)

	require.Len(t, urls, 10)
	for i, u := range urls {
		assert.Equal(t, fmt.Sprintf("https://example.com/post-%d/", i+1), u)
	}
}

func TestSelectCandidatesDeduplicatesByCanonicalForm(t *testing.T) {
	urls := SelectCandidates(feedItems(
		"https://example.com/post/",
		"https://example.com/post",        // trailing slash difference
		"https://example.com/post?utm=x",  // query difference
		"https://example.com/other/",
	), nil, "https://example.com/", 10)

	assert.Equal(t, []string{
		"https://example.com/post/",
		"https://example.com/other/",
	}, urls)
}

func TestSelectCandidatesDropsOffSiteLinks(t *testing.T) {
	urls := SelectCandidates(feedItems(
		"https://example.com/mine/",
		"https://elsewhere.org/theirs/",
	), nil, "https://example.com/", 10)

	assert.Equal(t, []string{"https://example.com/mine/"}, urls)
}

func TestSelectCandidatesSitemapFallback(t *testing.T) {
	now := time.Now()
	entries := []discovery.Entry{
		{URL: "https://example.com/old/", LastMod: now.Add(-48 * time.Hour)},
		{URL: "https://example.com/new/", LastMod: now},
		{URL: "https://example.com/from-feed/", LastMod: now.Add(-1 * time.Hour)},
	}

	urls := SelectCandidates(feedItems("https://example.com/from-feed/"), entries, "https://example.com/", 3)

	// Feed link first, then sitemap entries newest-first, duplicate dropped.
	assert.Equal(t, []string{
		"https://example.com/from-feed/",
		"https://example.com/new/",
		"https://example.com/old/",
	}, urls)
}

func TestSelectCandidatesRelativeLinks(t *testing.T) {
	urls := SelectCandidates(feedItems("/relative-post/"), nil, "https://example.com/", 5)
	assert.Equal(t, []string{"https://example.com/relative-post/"}, urls)
}

func TestFetchAllPreservesOrder(t *testing.T) {
	// Slow early pages, fast late pages: output order must still be
	// candidate order.
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/post-0/" {
			time.Sleep(100 * time.Millisecond)
		}
		fmt.Fprintf(w, `<html><head><link rel="canonical" href="http://%s%s"></head></html>`, r.Host, r.URL.Path)
	}))
	defer server.Close()

	var urls []string
	for i := 0; i < 5; i++ {
		urls = append(urls, fmt.Sprintf("%s/post-%d/", server.URL, i))
	}

	samples := FetchAll(context.Background(), testClient(), urls, 4)

	require.Len(t, samples, 5)
	for i, sample := range samples {
		assert.Equal(t, urls[i], sample.URL)
		assert.True(t, sample.Fetched)
		assert.True(t, sample.CanonicalMatches)
	}
}

func TestFetchAllPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken/" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	samples := FetchAll(context.Background(), testClient(), []string{
		server.URL + "/fine/",
		server.URL + "/broken/",
	}, 2)

	require.Len(t, samples, 2)
	assert.True(t, samples[0].Fetched)
	assert.False(t, samples[1].Fetched)
	assert.Equal(t, http.StatusInternalServerError, samples[1].StatusCode)
}

func TestFetchAllEmptyInput(t *testing.T) {
	samples := FetchAll(context.Background(), testClient(), nil, 4)
	assert.Empty(t, samples)
}
