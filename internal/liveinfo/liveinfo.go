// Package liveinfo decides whether a question needs current information from
// the web and fetches a snippet to ground the answer.
package liveinfo

import (
	"context"
	"regexp"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/logger"
)

var triggerKeywords = []string{
	"today", "current", "latest", "who is", "when is", "what is happening",
	"recent", "now", "this year", "new", "breaking", "update", "news",
}

// NeedsLiveInfo reports whether the query mentions something time-sensitive.
// Matching is a case-insensitive substring test, so "know" matches "now".
func NeedsLiveInfo(query string) bool {
	lower := strings.ToLower(query)
	for _, k := range triggerKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var (
	leadingQuestionRe = regexp.MustCompile(`(?i)^(what|how|when|where|why|who|which|can you|tell me|explain)\b\s*`)
	trailingMarksRe   = regexp.MustCompile(`\?+$`)
)

// CleanQuery drops a leading interrogative and trailing question marks so
// the query reads as search keywords.
func CleanQuery(query string) string {
	q := strings.TrimSpace(query)
	q = leadingQuestionRe.ReplaceAllString(q, "")
	q = trailingMarksRe.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// Result is one search hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Router fetches live context for queries. It never returns errors: any
// failure means no live context.
type Router struct {
	searcher Searcher
	log      *logger.Logger
}

// NewRouter creates a router. A nil searcher disables live lookups.
func NewRouter(s Searcher, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{searcher: s, log: log}
}

// FetchSnippet returns the first result's snippet, or its title when the
// snippet is blank.
func (r *Router) FetchSnippet(ctx context.Context, query string) (string, bool) {
	if r.searcher == nil {
		return "", false
	}
	q := CleanQuery(query)
	if q == "" {
		return "", false
	}

	results, err := r.searcher.Search(ctx, q, 1)
	if err != nil {
		r.log.Warn("live search failed", "query", q, "error", err)
		return "", false
	}
	if len(results) == 0 {
		r.log.Debug("live search returned nothing", "query", q)
		return "", false
	}

	first := results[0]
	if s := strings.TrimSpace(first.Snippet); s != "" {
		return s, true
	}
	if t := strings.TrimSpace(first.Title); t != "" {
		return t, true
	}
	return "", false
}

// Augment fetches a snippet only when the query needs live information.
// live is true only when a snippet was found.
func (r *Router) Augment(ctx context.Context, query string) (snippet string, live bool) {
	if !NeedsLiveInfo(query) {
		return "", false
	}
	return r.FetchSnippet(ctx, query)
}
