// Package video recognizes video links and resolves them to a text stand-in
// built from the video's metadata.
package video

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/logger"
)

const idPattern = `([a-zA-Z0-9_-]{11})`

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=` + idPattern),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/` + idPattern),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/` + idPattern),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/` + idPattern),
}

// IsVideoLink reports whether text contains a recognized video URL.
func IsVideoLink(text string) bool {
	return ExtractID(text) != ""
}

// ExtractID returns the 11-character video id, or "" when text has none.
func ExtractID(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range linkPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// Info is the metadata needed to describe a video.
type Info struct {
	Title       string
	Description string
	Channel     string
}

// MetadataClient looks up video metadata by id. A nil Info with a nil error
// means the video does not exist.
type MetadataClient interface {
	VideoInfo(ctx context.Context, id string) (*Info, error)
}

// Content is the text stand-in for a video.
type Content struct {
	Content string
	Title   string
}

// Resolver turns video links into summarizable text.
type Resolver struct {
	client MetadataClient
	log    *logger.Logger
}

// NewResolver creates a resolver. A nil client resolves nothing.
func NewResolver(c MetadataClient, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{client: c, log: log}
}

// Resolve returns the description-based stand-in for a video, or nil when
// the id cannot be extracted or the metadata lookup fails.
func (r *Resolver) Resolve(ctx context.Context, link string) *Content {
	id := ExtractID(link)
	if id == "" || r.client == nil {
		return nil
	}

	info, err := r.client.VideoInfo(ctx, id)
	if err != nil {
		r.log.Warn("video metadata lookup failed", "id", id, "error", err)
		return nil
	}
	if info == nil {
		r.log.Info("video not found", "id", id)
		return nil
	}

	return &Content{Content: describe(info), Title: info.Title}
}

func describe(info *Info) string {
	return fmt.Sprintf("Video Title: %s\nChannel: %s\n\nVideo Description:\n%s\n\n"+
		"Note: This summary is based on the video's title and description. "+
		"For more detailed analysis, please provide the video transcript or key points you'd like me to focus on.",
		info.Title, info.Channel, info.Description)
}
