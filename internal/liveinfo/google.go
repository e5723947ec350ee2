package liveinfo

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearcher queries a Programmable Search Engine.
type GoogleSearcher struct {
	svc      *customsearch.Service
	engineID string
}

// NewGoogleSearcher creates a searcher for the given engine. Extra options
// are passed to the API client.
func NewGoogleSearcher(ctx context.Context, apiKey, engineID string, opts ...option.ClientOption) (*GoogleSearcher, error) {
	if apiKey == "" || engineID == "" {
		return nil, errors.New("google search needs an API key and a search engine id")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search client: %w", err)
	}
	return &GoogleSearcher{svc: svc, engineID: engineID}, nil
}

func (g *GoogleSearcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit < 1 || limit > 10 {
		limit = 10
	}
	res, err := g.svc.Cse.List().Cx(g.engineID).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}

	results := make([]Result, 0, len(res.Items))
	for _, item := range res.Items {
		results = append(results, Result{Title: item.Title, Snippet: item.Snippet, URL: item.Link})
	}
	return results, nil
}
