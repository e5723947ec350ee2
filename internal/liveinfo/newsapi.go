package liveinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPISearcher searches recent articles on NewsAPI.
type NewsAPISearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPISearcher creates a NewsAPI searcher reading its key from the
// named environment variable.
func NewNewsAPISearcher(apiKeyEnv string) *NewsAPISearcher {
	return &NewsAPISearcher{
		apiKey:  os.Getenv(apiKeyEnv),
		baseURL: newsAPIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether the API key is available.
func (s *NewsAPISearcher) IsConfigured() bool {
	return s.apiKey != ""
}

func (s *NewsAPISearcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, errors.New("NewsAPI not configured")
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}

	params := url.Values{
		"q":        {query},
		"language": {"en"},
		"pageSize": {fmt.Sprintf("%d", limit)},
		"sortBy":   {"publishedAt"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI HTTP error: %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("NewsAPI decode: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI status: %s", result.Status)
	}

	var results []Result
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		snippet := a.Description
		if snippet == "" {
			snippet = a.Content
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(a.Title),
			Snippet: strings.TrimSpace(snippet),
			URL:     a.URL,
		})
	}
	return results, nil
}
