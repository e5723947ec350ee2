// Package askme answers free-form study questions, video links and article
// links with the help of the completion gateway.
package askme

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/fetch"
	"github.com/TobiSchelling/studydeck/internal/liveinfo"
	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/video"
)

const (
	msgVideoUnavailable = "I was unable to retrieve information from this YouTube video. Please check the URL or try a different video."
	msgVideoFailed      = "I encountered an error while processing this YouTube video. The video might be private, unavailable, or there might be an issue with the YouTube API."
	msgQuestionFailed   = "I apologize, but I encountered an error while processing your question. Please try rephrasing your question or try again later."
)

// Source says which flow produced an answer.
type Source string

const (
	SourceGeneral Source = "general"
	SourceLive    Source = "live"
	SourceVideo   Source = "video"
	SourceArticle Source = "article"
)

// Answer is the reply to one Ask-Me input.
type Answer struct {
	Response     string `json:"response"`
	IsVideoLink  bool   `json:"is_video_link"`
	VideoTitle   string `json:"video_title,omitempty"`
	ArticleTitle string `json:"article_title,omitempty"`
	HasLiveInfo  bool   `json:"has_live_info"`
	Source       Source `json:"source"`
}

// ArticleResolver fetches the readable text behind a URL.
type ArticleResolver interface {
	Resolve(ctx context.Context, url string) *fetch.Article
}

// Service routes an input to the video, article or question flow.
type Service struct {
	completer llm.Completer
	videos    *video.Resolver
	articles  ArticleResolver
	live      *liveinfo.Router
	maxChars  int
	log       *logger.Logger
}

// NewService wires the Ask-Me flow. Any collaborator may be nil; the
// matching flow then degrades to the general tutor prompt or a fixed
// message.
func NewService(c llm.Completer, videos *video.Resolver, articles ArticleResolver, live *liveinfo.Router, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if videos == nil {
		videos = video.NewResolver(nil, log)
	}
	if live == nil {
		live = liveinfo.NewRouter(nil, log)
	}
	return &Service{
		completer: c,
		videos:    videos,
		articles:  articles,
		live:      live,
		maxChars:  llm.DefaultMaxInputChars,
		log:       log,
	}
}

// Ask answers input. It never returns an error; failures produce a fixed
// apology in Response.
func (s *Service) Ask(ctx context.Context, input string) Answer {
	input = strings.TrimSpace(input)

	if video.IsVideoLink(input) {
		return s.askVideo(ctx, input)
	}
	if s.articles != nil && fetch.IsBareURL(input) {
		if a, ok := s.askArticle(ctx, input); ok {
			return a
		}
	}
	return s.askGeneral(ctx, input)
}

func (s *Service) askVideo(ctx context.Context, link string) Answer {
	content := s.videos.Resolve(ctx, link)
	if content == nil {
		return Answer{Response: msgVideoUnavailable, IsVideoLink: true, Source: SourceVideo}
	}

	text, err := s.complete(ctx, fmt.Sprintf(videoSummaryPrompt, content.Content))
	if err != nil {
		s.log.Warn("video summary failed", "title", content.Title, "error", err)
		return Answer{Response: msgVideoFailed, IsVideoLink: true, Source: SourceVideo}
	}
	return Answer{Response: text, IsVideoLink: true, VideoTitle: content.Title, Source: SourceVideo}
}

func (s *Service) askArticle(ctx context.Context, link string) (Answer, bool) {
	article := s.articles.Resolve(ctx, link)
	if article == nil {
		return Answer{}, false
	}

	text, err := s.complete(ctx, fmt.Sprintf(articleSummaryPrompt, article.Title, llm.Truncate(article.Content, s.maxChars)))
	if err != nil {
		s.log.Warn("article summary failed", "url", link, "error", err)
		return Answer{Response: msgQuestionFailed, Source: SourceArticle}, true
	}
	return Answer{Response: text, ArticleTitle: article.Title, Source: SourceArticle}, true
}

func (s *Service) askGeneral(ctx context.Context, question string) Answer {
	snippet, live := s.live.Augment(ctx, question)

	prompt := fmt.Sprintf(tutorPrompt, question)
	source := SourceGeneral
	if live {
		prompt = fmt.Sprintf(liveInfoPrompt, snippet, question)
		source = SourceLive
	}

	text, err := s.complete(ctx, prompt)
	if err != nil {
		s.log.Warn("question answer failed", "error", err)
		return Answer{Response: msgQuestionFailed, Source: source}
	}
	return Answer{Response: text, HasLiveInfo: live, Source: source}
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.completer == nil {
		return "", &llm.CompletionError{Err: llm.ErrNoProvider}
	}
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

const liveInfoPrompt = `You are a helpful assistant.

Here is recent information from the web:
"%s"

Now, using that and your knowledge, answer this:
"%s"`

const videoSummaryPrompt = `You are an expert summarizer and educational assistant.

Task: write an 8-12 sentence summary of the YouTube video described below. Start with a descriptive title, then summarize the main points in well-structured paragraphs, and finish with the key takeaways. Keep it educational and include important details or examples.

Video content:
%s

Format your response as:
**Title:** [Descriptive title]

**Summary:**
[Your summary here]

**Key Takeaways:**
- [Key point 1]
- [Key point 2]
- [Key point 3]`

const articleSummaryPrompt = `You are an expert summarizer and educational assistant.

Summarize the web article below for a student in 6-10 sentences, then list its key takeaways as bullet points.

Article title: %s

Article text:
%s`

const tutorPrompt = `You are a helpful, knowledgeable tutor. Answer the question below clearly and in detail, in a friendly and encouraging tone.

Guidelines:
- Give a well-structured answer and break complex topics into understandable parts
- Use examples and practical insights when helpful
- Include relevant background where it aids understanding

Question:
"%s"`
