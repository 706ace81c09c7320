package article

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RequiredSchemaFields are the JSON-LD properties news aggregators
// expect on an Article/NewsArticle block. The author/publisher entries
// refer to the nested name property.
var RequiredSchemaFields = []string{
	"headline",
	"datePublished",
	"dateModified",
	"author.name",
	"publisher.name",
	"image",
}

var articleTypes = map[string]bool{
	"article":     true,
	"newsarticle": true,
	"blogposting": true,
}

// extractJSONLD parses every application/ld+json script on the page.
// Each block parses independently; a malformed block is skipped, not
// fatal. @graph containers and top-level arrays are flattened.
func extractJSONLD(doc *goquery.Document) []map[string]any {
	var entities []map[string]any

	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		if !strings.Contains(strings.ToLower(s.AttrOr("type", "")), "ld+json") {
			return
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}
		entities = collect(parsed, entities)
	})

	return entities
}

func collect(node any, entities []map[string]any) []map[string]any {
	switch value := node.(type) {
	case map[string]any:
		entities = append(entities, value)
		if graph, ok := value["@graph"].([]any); ok {
			for _, child := range graph {
				entities = collect(child, entities)
			}
		}
	case []any:
		for _, child := range value {
			entities = collect(child, entities)
		}
	}
	return entities
}

// typeList normalises a JSON-LD @type value, which may be a string or
// an array of strings, to lowercase names.
func typeList(rawType any) []string {
	switch value := rawType.(type) {
	case string:
		return []string{strings.ToLower(value)}
	case []any:
		types := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				types = append(types, strings.ToLower(s))
			}
		}
		return types
	default:
		return nil
	}
}

func isArticleEntity(entity map[string]any) bool {
	for _, t := range typeList(entity["@type"]) {
		if articleTypes[t] {
			return true
		}
	}
	return false
}

// validateArticleSchema checks the page's entities for an
// Article/NewsArticle block and reports which required fields no
// article entity provides. When no article entity exists at all,
// hasArticle is false and no field check runs.
func validateArticleSchema(entities []map[string]any) (hasArticle bool, missing []string, published, modified string) {
	var articles []map[string]any
	for _, entity := range entities {
		if isArticleEntity(entity) {
			articles = append(articles, entity)
		}
	}

	if len(articles) == 0 {
		return false, nil, "", ""
	}

	missingSet := make(map[string]bool)
	for _, field := range RequiredSchemaFields {
		if !anyArticleHasField(articles, field) {
			missingSet[field] = true
		}
	}

	missing = make([]string, 0, len(missingSet))
	for field := range missingSet {
		missing = append(missing, field)
	}
	sort.Strings(missing)

	for _, entity := range articles {
		if published == "" {
			published = stringValue(entity["datePublished"])
		}
		if modified == "" {
			modified = stringValue(entity["dateModified"])
		}
	}

	return true, missing, published, modified
}

func anyArticleHasField(articles []map[string]any, field string) bool {
	nested := ""
	if idx := strings.Index(field, "."); idx != -1 {
		field, nested = field[:idx], field[idx+1:]
	}

	for _, entity := range articles {
		value, ok := entity[field]
		if !ok {
			continue
		}
		if nested == "" {
			if hasValue(value) {
				return true
			}
			continue
		}
		if nestedHasValue(value, nested) {
			return true
		}
	}
	return false
}

// nestedHasValue handles author/publisher shapes: a single object with
// the nested key, or a list of such objects.
func nestedHasValue(value any, key string) bool {
	switch v := value.(type) {
	case map[string]any:
		return hasValue(v[key])
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok && hasValue(obj[key]) {
				return true
			}
		}
	}
	return false
}

func hasValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case bool:
		return v
	default:
		// Numbers and anything else non-nil count as present.
		return true
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
