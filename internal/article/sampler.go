package article

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/msnewsgroup/newsaudit/internal/discovery"
	"github.com/msnewsgroup/newsaudit/internal/feed"
	"github.com/msnewsgroup/newsaudit/internal/fetcher"
	"github.com/msnewsgroup/newsaudit/internal/util"
)

// Sample holds everything extracted from one sampled article page. A
// page that never fetched keeps zero values with Fetched false.
type Sample struct {
	URL               string   `json:"url"`
	StatusCode        int      `json:"status_code"`
	Fetched           bool     `json:"fetched"`
	FetchError        string   `json:"fetch_error,omitempty"`
	CanonicalURL      string   `json:"canonical_url,omitempty"`
	CanonicalMatches  bool     `json:"canonical_matches"`
	MetaRobots        string   `json:"meta_robots,omitempty"`
	Noindex           bool     `json:"noindex"`
	HasArticleSchema  bool     `json:"has_jsonld_article"`
	MissingFields     []string `json:"jsonld_missing_fields,omitempty"`
	OGTitlePresent    bool     `json:"og_title_present"`
	OGTypePresent     bool     `json:"og_type_present"`
	OGURLPresent      bool     `json:"og_url_present"`
	OGImagePresent    bool     `json:"og_image_present"`
	OGImageDims       bool     `json:"og_image_dims_present"`
	PublishedAt       string   `json:"published_at,omitempty"`
	ModifiedAt        string   `json:"modified_at,omitempty"`
	DateVisible       bool     `json:"date_visible"`
	ResponseSizeBytes int64    `json:"response_size_bytes"`
	ElapsedMs         int64    `json:"elapsed_ms"`
	BlockingScripts   int      `json:"blocking_scripts"`
	HugeInlineScripts int      `json:"huge_inline_scripts"`
}

// SelectCandidates picks up to n unique article URLs. Feed links come
// first because their "most recent" ordering is reliable; sitemap
// entries ordered by lastmod descending fill any remaining slots.
// Uniqueness is by canonical form: scheme+host+path, trailing slash
// ignored. Off-site links are dropped.
func SelectCandidates(items []feed.Item, entries []discovery.Entry, site string, n int) []string {
	if n <= 0 {
		return nil
	}

	var urls []string
	seen := make(map[string]bool)

	add := func(raw string) bool {
		resolved := util.ResolveRef(site, raw)
		if resolved == "" || !util.SameHost(resolved, site) {
			return false
		}
		key := util.CanonicalKey(resolved)
		if seen[key] {
			return false
		}
		seen[key] = true
		urls = append(urls, resolved)
		return len(urls) >= n
	}

	for _, item := range items {
		if item.Link == "" {
			continue
		}
		if add(item.Link) {
			return urls
		}
	}

	for _, entry := range discovery.SortByLastModDesc(entries) {
		if add(entry.URL) {
			return urls
		}
	}

	return urls
}

// FetchAll fetches every candidate URL concurrently with a bounded
// worker pool and parses each page into a Sample. Results come back
// in candidate order regardless of fetch completion order, since
// finding ordering downstream depends on it.
func FetchAll(ctx context.Context, client *fetcher.Client, urls []string, concurrency int) []Sample {
	if concurrency <= 0 {
		concurrency = 6
	}

	samples := make([]Sample, len(urls))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		group.Go(func() error {
			samples[i] = fetchOne(groupCtx, client, pageURL)
			return nil
		})
	}

	// Workers never return errors; failures live inside each Sample.
	_ = group.Wait()

	log.Debug().
		Int("sampled", len(samples)).
		Int("concurrency", concurrency).
		Msg("Article sampling complete")

	return samples
}

func fetchOne(ctx context.Context, client *fetcher.Client, pageURL string) Sample {
	res := client.Fetch(ctx, pageURL)

	sample := Sample{
		URL:        pageURL,
		StatusCode: res.StatusCode,
		FetchError: res.Error,
	}

	if !res.OK() {
		log.Debug().
			Str("url", pageURL).
			Int("status", res.StatusCode).
			Str("error", res.Error).
			Msg("Article fetch failed")
		return sample
	}

	sample.Fetched = true
	sample.ResponseSizeBytes = res.SizeBytes
	sample.ElapsedMs = res.ElapsedMs

	parsePage(&sample, res.Body)
	return sample
}
