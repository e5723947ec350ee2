// Package quiz generates multiple choice questions for a document.
package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/tier"
)

const questionPrompt = `You are an exam trainer. Based on the study document below, write multiple choice questions.

Instructions:
- Each question has exactly 4 options and one correct answer.
- Cover the whole document and all of its key topics.
- Use simple, clear language suitable for students from 12th grade to graduate level.
- Explain why the correct answer is right.

Difficulty: %s
Document length: %s

Document content:
%s

Provide exactly %d questions. Respond with ONLY this JSON:
{
    "questions": [
        {
            "id": "1",
            "question": "Question text here?",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correctAnswer": 0,
            "explanation": "Why this answer is correct",
            "topic": "Topic name"
        }
    ]
}

correctAnswer is the 0-based index of the correct option.`

var placeholderOptions = []string{"Option A", "Option B", "Option C", "Option D"}

// Generator produces question sets of an exact length. It never returns an
// error: failures are replaced with fallback questions.
type Generator struct {
	completer     llm.Completer
	maxInputChars int
	log           *logger.Logger
}

// NewGenerator creates a question generator. A nil completer always yields
// fallback questions.
func NewGenerator(c llm.Completer, maxInputChars int, log *logger.Logger) *Generator {
	if maxInputChars <= 0 {
		maxInputChars = llm.DefaultMaxInputChars
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{completer: c, maxInputChars: maxInputChars, log: log}
}

// QuestionCount is the number of questions a test on content should have.
func QuestionCount(d models.Difficulty, content string) int {
	_, t := tier.For(content)
	return t.QuestionCount(d)
}

// Generate returns exactly count questions. The source is ai when at least
// one question came from the model.
func (g *Generator) Generate(ctx context.Context, content string, d models.Difficulty, count int) ([]models.Question, models.Source) {
	if count <= 0 {
		return []models.Question{}, models.SourceAI
	}
	if g.completer == nil {
		return Fallback(count), models.SourceFallback
	}

	pages, _ := tier.For(content)
	prompt := fmt.Sprintf(questionPrompt, d.Title(), tier.LengthLabel(pages),
		llm.Truncate(content, g.maxInputChars), count)

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		g.log.Warn("question completion failed, using fallback", "error", err)
		return Fallback(count), models.SourceFallback
	}

	parsed, ok := llm.ParseJSONObject(text)
	if !ok {
		g.log.Warn("question response was not valid JSON, using fallback")
		return Fallback(count), models.SourceFallback
	}
	items, ok := llm.GetList(parsed, "questions")
	if !ok {
		g.log.Warn("question response has no questions list, using fallback")
		return Fallback(count), models.SourceFallback
	}

	questions := Sanitize(items, count)
	if len(questions) == 0 {
		g.log.Warn("question response had no usable questions, using fallback")
		return Fallback(count), models.SourceFallback
	}
	if len(questions) < count {
		g.log.Info("padding question set", "generated", len(questions), "requested", count)
		questions = Pad(questions, count)
	}
	return questions, models.SourceAI
}

// Sanitize converts raw model items into at most max well-formed questions.
// Entries that are not objects are dropped.
func Sanitize(items []any, max int) []models.Question {
	seen := make(map[string]bool)
	var out []models.Question
	for _, item := range items {
		if len(out) == max {
			break
		}
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		n := len(out) + 1

		q := models.Question{
			ID:            uniqueID(questionID(m, n), seen),
			Question:      llm.GetString(m, "question", fmt.Sprintf("Question %d", n)),
			Options:       options(m),
			CorrectAnswer: llm.GetInt(m, "correctAnswer", 0),
			Explanation:   llm.GetString(m, "explanation", "Explanation not available."),
			Topic:         llm.GetString(m, "topic", "General"),
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			q.CorrectAnswer = 0
		}
		out = append(out, q)
	}
	return out
}

func questionID(m map[string]any, n int) string {
	if s, ok := llm.Stringify(m["id"]); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fmt.Sprintf("q_%d", n)
}

func uniqueID(id string, seen map[string]bool) string {
	candidate := id
	for i := 2; seen[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", id, i)
	}
	seen[candidate] = true
	return candidate
}

// options returns the four option strings, or placeholders when the model
// did not supply exactly four scalar options.
func options(m map[string]any) []string {
	raw, ok := llm.GetList(m, "options")
	if !ok || len(raw) != models.OptionsPerQuestion {
		return append([]string(nil), placeholderOptions...)
	}
	out := make([]string, 0, models.OptionsPerQuestion)
	for _, v := range raw {
		s, ok := llm.Stringify(v)
		if !ok {
			return append([]string(nil), placeholderOptions...)
		}
		out = append(out, s)
	}
	return out
}
