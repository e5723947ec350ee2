// Package summarize produces length-tiered document summaries.
package summarize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/tier"
)

const summaryPrompt = `Task: summarize the document below. It is approximately %[1]d page(s) long.

Length requirements:
- Summary type: %[2]s
- Summary length: exactly %[3]s lines
- Key highlights: %[4]s
- Key topics: %[5]s

1. Title: extract the document's title if it has one, otherwise write a suitable one.
2. Summary: write a %[2]s summary of exactly %[3]s lines. Each line is a complete sentence covering the purpose and key points of the document in simple, clear language.%[6]s
3. Highlights: list the %[4]s most important, specific points.
4. Key topics: name %[5]s main topics or themes.

Ignore formatting tags, XML fragments and file metadata.

Document content:
%[7]s

Respond with ONLY this JSON:
{
    "title": "Document title",
    "summary": "Line 1 of summary.\nLine 2 of summary.\n...",
    "highlights": ["Key point 1", "Key point 2"],
    "keyTopics": ["Topic 1", "Topic 2"],
    "estimatedReadTime": 5
}`

// Generator builds summaries from a completion collaborator. It never
// returns an error: failures produce a tier-matched fallback summary.
type Generator struct {
	completer     llm.Completer
	maxInputChars int
	log           *logger.Logger
}

// NewGenerator creates a summary generator. A nil completer always yields
// fallback summaries.
func NewGenerator(c llm.Completer, maxInputChars int, log *logger.Logger) *Generator {
	if maxInputChars <= 0 {
		maxInputChars = llm.DefaultMaxInputChars
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{completer: c, maxInputChars: maxInputChars, log: log}
}

// Summarize summarizes content. name is the uploaded file name, used for the
// title when the model does not supply one.
func (g *Generator) Summarize(ctx context.Context, content, name string) models.DocumentSummary {
	pages, t := tier.For(content)

	if g.completer == nil {
		return Fallback(content, name, t)
	}

	prompt := BuildPrompt(llm.Truncate(content, g.maxInputChars), pages, t)
	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		g.log.Warn("summary completion failed, using fallback", "file", name, "error", err)
		return Fallback(content, name, t)
	}

	parsed, ok := llm.ParseJSONObject(text)
	if !ok {
		g.log.Warn("summary response was not valid JSON, using fallback", "file", name)
		return Fallback(content, name, t)
	}

	fb := fallbackFor(t)
	s := models.DocumentSummary{
		Title:             llm.GetString(parsed, "title", TitleFromFileName(name)),
		Summary:           llm.GetString(parsed, "summary", fb.summary),
		Highlights:        llm.GetStringSlice(parsed, "highlights"),
		KeyTopics:         llm.GetStringSlice(parsed, "keyTopics"),
		EstimatedReadTime: llm.GetInt(parsed, "estimatedReadTime", 0),
		Source:            models.SourceAI,
	}
	if s.EstimatedReadTime <= 0 {
		s.EstimatedReadTime = tier.ReadTime(content)
	}
	return s
}

// BuildPrompt renders the summary prompt for a tier.
func BuildPrompt(content string, pages int, t tier.Tier) string {
	extra := ""
	switch {
	case t.MaxPages == 0:
		extra = "\n   Include detailed coverage of the main sections and important subtopics."
	case t.MaxPages <= 1:
		extra = "\n   Keep it brief but capture the essential message."
	}
	return fmt.Sprintf(summaryPrompt, pages, t.Name, t.SummaryLines, t.Highlights, t.Topics, extra, content)
}

// TitleFromFileName derives a display title from a file name: the extension
// is dropped, dashes and underscores become spaces and every word is
// capitalized.
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return "Untitled Document"
	}
	return strings.Join(words, " ")
}
