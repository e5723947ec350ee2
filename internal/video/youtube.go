package video

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeClient reads video snippets from the YouTube Data API.
type YouTubeClient struct {
	svc *youtube.Service
}

// NewYouTubeClient creates a client authenticated with an API key. Extra
// options are passed to the API client.
func NewYouTubeClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: API key not set")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube client: %w", err)
	}
	return &YouTubeClient{svc: svc}, nil
}

func (c *YouTubeClient) VideoInfo(ctx context.Context, id string) (*Info, error) {
	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, nil
	}
	s := resp.Items[0].Snippet
	return &Info{Title: s.Title, Description: s.Description, Channel: s.ChannelTitle}, nil
}
