package liveinfo

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

// DefaultNewsFeedURL is the Google News RSS search endpoint.
const DefaultNewsFeedURL = "https://news.google.com/rss/search"

var tagRe = regexp.MustCompile(`<[^>]*>`)

// NewsFeedSearcher searches an RSS news search feed. It needs no API key.
type NewsFeedSearcher struct {
	feedURL string
	parser  *gofeed.Parser
}

// NewNewsFeedSearcher creates a feed searcher. An empty URL uses Google News.
func NewNewsFeedSearcher(feedURL string) *NewsFeedSearcher {
	if feedURL == "" {
		feedURL = DefaultNewsFeedURL
	}
	return &NewsFeedSearcher{feedURL: feedURL, parser: gofeed.NewParser()}
}

func (s *NewsFeedSearcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	u, err := url.Parse(s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	u.RawQuery = params.Encode()

	feed, err := s.parser.ParseURLWithContext(u.String(), ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}

	var results []Result
	for _, item := range feed.Items {
		if limit > 0 && len(results) == limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		results = append(results, Result{
			Title:   title,
			Snippet: plainText(item.Description),
			URL:     item.Link,
		})
	}
	return results, nil
}

// plainText strips markup from a feed description.
func plainText(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
