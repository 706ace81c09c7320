package article

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/msnewsgroup/newsaudit/internal/util"
)

// hugeInlineScriptBytes is the size past which an inline head script
// counts as a crawl-cost problem of its own.
const hugeInlineScriptBytes = 50_000

var visibleDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},\s+\d{4}\b`),
}

// parsePage extracts the audit signals from a fetched article body.
// Parse failures inside a single fragment (a JSON-LD block, a broken
// tag) degrade to absent signals; they never fail the sample.
func parsePage(sample *Sample, body []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Debug().Err(err).Str("url", sample.URL).Msg("Article HTML failed to parse")
		return
	}

	extractCanonical(sample, doc)
	extractMetaRobots(sample, doc)
	extractOpenGraph(sample, doc)
	extractSchema(sample, doc)
	extractDates(sample, doc)
	countHeadScripts(sample, doc)
}

func extractCanonical(sample *Sample, doc *goquery.Document) {
	doc.Find("link[rel]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		if !containsWord(rel, "canonical") {
			return true
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		sample.CanonicalURL = util.ResolveRef(sample.URL, href)
		sample.CanonicalMatches = util.URLsEquivalent(sample.CanonicalURL, sample.URL)
		return false
	})
}

func extractMetaRobots(sample *Sample, doc *goquery.Document) {
	doc.Find("meta[name]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.ToLower(strings.TrimSpace(s.AttrOr("name", ""))) != "robots" {
			return true
		}
		sample.MetaRobots = strings.TrimSpace(s.AttrOr("content", ""))
		sample.Noindex = strings.Contains(strings.ToLower(sample.MetaRobots), "noindex")
		return false
	})
}

func extractOpenGraph(sample *Sample, doc *goquery.Document) {
	var width, height bool

	doc.Find("meta[property]").Each(func(i int, s *goquery.Selection) {
		prop := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		switch prop {
		case "og:title":
			sample.OGTitlePresent = true
		case "og:type":
			sample.OGTypePresent = true
		case "og:url":
			sample.OGURLPresent = true
		case "og:image":
			sample.OGImagePresent = true
		case "og:image:width":
			width = true
		case "og:image:height":
			height = true
		}
	})

	sample.OGImageDims = width && height
}

func extractSchema(sample *Sample, doc *goquery.Document) {
	entities := extractJSONLD(doc)
	hasArticle, missing, published, modified := validateArticleSchema(entities)

	sample.HasArticleSchema = hasArticle
	sample.MissingFields = missing
	if published != "" {
		sample.PublishedAt = published
	}
	if modified != "" {
		sample.ModifiedAt = modified
	}
}

func extractDates(sample *Sample, doc *goquery.Document) {
	// Machine-readable meta dates fill gaps JSON-LD left.
	doc.Find("meta[property]").Each(func(i int, s *goquery.Selection) {
		prop := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		switch prop {
		case "article:published_time":
			if sample.PublishedAt == "" {
				sample.PublishedAt = content
			}
		case "article:modified_time":
			if sample.ModifiedAt == "" {
				sample.ModifiedAt = content
			}
		}
	})

	if doc.Find("time[datetime]").Length() > 0 {
		sample.DateVisible = true
		if sample.PublishedAt == "" {
			sample.PublishedAt = strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", ""))
		}
		return
	}

	// Fall back to an obvious date string near the top of the page.
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(text) > 10_000 {
		text = text[:10_000]
	}
	for _, pattern := range visibleDatePatterns {
		if pattern.MatchString(text) {
			sample.DateVisible = true
			return
		}
	}
}

// countHeadScripts tallies render-blocking scripts in <head>: anything
// without async/defer that is not a module or JSON-LD block.
func countHeadScripts(sample *Sample, doc *goquery.Document) {
	doc.Find("head script").Each(func(i int, s *goquery.Selection) {
		scriptType := strings.ToLower(s.AttrOr("type", ""))
		if strings.Contains(scriptType, "ld+json") || scriptType == "module" {
			return
		}
		if _, async := s.Attr("async"); async {
			return
		}
		if _, deferred := s.Attr("defer"); deferred {
			return
		}

		sample.BlockingScripts++
		if len(strings.TrimSpace(s.Text())) > hugeInlineScriptBytes {
			sample.HugeInlineScripts++
		}
	})
}

// containsWord reports whether value, treated as a space-separated
// token list (like an HTML rel attribute), contains the given token.
func containsWord(value, word string) bool {
	for _, token := range strings.Fields(value) {
		if token == word {
			return true
		}
	}
	return false
}
