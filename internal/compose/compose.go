// Package compose turns a scored test into a markdown study report.
package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
)

const maxFocusTopics = 5

const tipsPrompt = `You are a tutor reviewing a student's multiple choice test on the document "%s".

The student scored %.1f out of 10. These are the questions they missed, with the correct answer and its explanation:

%s

Write 3-5 short study tips that would help the student close these gaps. Each tip is one sentence and names the concept to revisit.

Respond with ONLY this JSON:
{
    "tips": [
        "First tip",
        "Second tip",
        "Third tip"
    ]
}`

// Report is a rendered review of one test result.
type Report struct {
	ResultID        string        `json:"resultId"`
	DocumentID      string        `json:"documentId"`
	Title           string        `json:"title"`
	Score           float64       `json:"score"`
	Level           string        `json:"level"`
	TimeSpent       string        `json:"timeSpent"`
	Recommendations []string      `json:"recommendations"`
	WeakTopics      []string      `json:"weakTopics"`
	StudyTips       []string      `json:"studyTips"`
	TipsSource      models.Source `json:"tipsSource"`
	Markdown        string        `json:"markdown"`
}

// Composer builds reports. Study tips come from the model when one is
// wired in and there is something to review.
type Composer struct {
	completer llm.Completer
	log       *logger.Logger
}

// NewComposer creates a report composer. A nil completer always yields
// topic-based tips.
func NewComposer(c llm.Completer, log *logger.Logger) *Composer {
	if log == nil {
		log = logger.Nop()
	}
	return &Composer{completer: c, log: log}
}

// Compose builds the report for a result. doc may be nil when the document
// is no longer available.
func (c *Composer) Compose(ctx context.Context, doc *models.Document, r *models.TestResult) Report {
	rep := Report{
		ResultID:        r.ID,
		DocumentID:      r.DocumentID,
		Title:           documentTitle(doc),
		Score:           r.Score,
		Level:           Level(r.Score),
		TimeSpent:       FormatDuration(r.TimeSpent),
		Recommendations: Recommendations(r.Score),
		WeakTopics:      WeakTopics(r),
	}

	missed := missedQuestions(r)
	if len(missed) == 0 {
		rep.StudyTips = []string{}
		rep.TipsSource = models.SourceFallback
	} else {
		rep.StudyTips, rep.TipsSource = c.studyTips(ctx, rep.Title, r, missed, rep.WeakTopics)
	}

	rep.Markdown = assemble(rep, r)
	return rep
}

func (c *Composer) studyTips(ctx context.Context, title string, r *models.TestResult, missed []int, topics []string) ([]string, models.Source) {
	if c.completer == nil {
		return fallbackTips(topics), models.SourceFallback
	}

	var parts []string
	for _, i := range missed {
		q := r.Questions[i]
		parts = append(parts, fmt.Sprintf("- %s\n  Correct answer: %s\n  Explanation: %s",
			q.Question, optionText(q, q.CorrectAnswer), q.Explanation))
	}

	prompt := fmt.Sprintf(tipsPrompt, title, r.Score, strings.Join(parts, "\n"))
	text, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		c.log.Warn("study tips completion failed, using topics", "result", r.ID, "error", err)
		return fallbackTips(topics), models.SourceFallback
	}

	parsed, ok := llm.ParseJSONObject(text)
	if ok {
		if tips := llm.GetStringSlice(parsed, "tips"); len(tips) > 0 {
			return tips, models.SourceAI
		}
	}
	c.log.Warn("study tips response had no tips, using topics", "result", r.ID)
	return fallbackTips(topics), models.SourceFallback
}

func fallbackTips(topics []string) []string {
	tips := make([]string, 0, len(topics))
	for _, t := range topics {
		tips = append(tips, fmt.Sprintf("Revisit the section on %s and re-read its highlights.", t))
	}
	if len(tips) == 0 {
		tips = append(tips, "Re-read the explanations of the questions you missed.")
	}
	return tips
}

// Level maps a score out of 10 to a performance band.
func Level(score float64) string {
	switch {
	case score >= 8:
		return "Excellent"
	case score >= 6:
		return "Good"
	case score >= 4:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// Recommendations returns the generic advice for a score band.
func Recommendations(score float64) []string {
	switch {
	case score >= 8:
		return []string{
			"Excellent performance! You have mastered the material.",
			"Consider trying a harder difficulty level for more challenge.",
			"Review any incorrect answers to maintain your understanding.",
		}
	case score >= 6:
		return []string{
			"Good understanding of the material with room for improvement.",
			"Focus on areas where you got questions wrong.",
			"Review the document highlights for better retention.",
		}
	default:
		return []string{
			"Consider reviewing the document more thoroughly.",
			"Focus on understanding key concepts and highlights.",
			"Try taking the test again after additional study.",
		}
	}
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// WeakTopics lists the topics of missed or skipped questions, most missed
// first. Ties keep question order.
func WeakTopics(r *models.TestResult) []string {
	counts := map[string]int{}
	var order []string
	for _, i := range missedQuestions(r) {
		topic := strings.TrimSpace(r.Questions[i].Topic)
		if topic == "" {
			continue
		}
		if counts[topic] == 0 {
			order = append(order, topic)
		}
		counts[topic]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	if len(order) > maxFocusTopics {
		order = order[:maxFocusTopics]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// missedQuestions returns the indexes of questions not answered correctly.
func missedQuestions(r *models.TestResult) []int {
	var missed []int
	for i, q := range r.Questions {
		if a := answerAt(r, i); a == nil || *a != q.CorrectAnswer {
			missed = append(missed, i)
		}
	}
	return missed
}

func answerAt(r *models.TestResult, i int) *int {
	if i < len(r.Answers) {
		return r.Answers[i]
	}
	return nil
}

func documentTitle(doc *models.Document) string {
	switch {
	case doc == nil:
		return "Deleted document"
	case doc.Summary != nil && strings.TrimSpace(doc.Summary.Title) != "":
		return doc.Summary.Title
	default:
		return doc.Name
	}
}

func optionText(q models.Question, i int) string {
	if i < 0 || i >= len(q.Options) {
		return "(invalid choice)"
	}
	return fmt.Sprintf("%c) %s", 'A'+i, q.Options[i])
}

func assemble(rep Report, r *models.TestResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Test Report: %s\n\n", rep.Title)
	fmt.Fprintf(&sb, "**Score:** %.1f/10 (%s)\n\n", rep.Score, rep.Level)
	if d := r.Config.Difficulty.Title(); d != "" {
		fmt.Fprintf(&sb, "**Difficulty:** %s\n\n", d)
	}
	fmt.Fprintf(&sb, "**Time spent:** %s\n\n", rep.TimeSpent)
	fmt.Fprintf(&sb, "Correct: %d | Incorrect: %d | Unanswered: %d\n\n",
		r.CorrectAnswers, r.IncorrectAnswers, r.Unanswered)

	sb.WriteString("## Recommendations\n\n")
	for _, rec := range rep.Recommendations {
		sb.WriteString("- " + rec + "\n")
	}

	if len(rep.StudyTips) > 0 {
		sb.WriteString("\n## Focus Areas\n\n")
		for _, tip := range rep.StudyTips {
			sb.WriteString("- " + tip + "\n")
		}
	}

	sb.WriteString("\n## Question Review\n")
	for i, q := range r.Questions {
		fmt.Fprintf(&sb, "\n### %d. %s\n\n", i+1, q.Question)
		a := answerAt(r, i)
		switch {
		case a == nil:
			sb.WriteString("- Your answer: not answered\n")
		case *a == q.CorrectAnswer:
			fmt.Fprintf(&sb, "- Your answer: %s (correct)\n", optionText(q, *a))
		default:
			fmt.Fprintf(&sb, "- Your answer: %s (incorrect)\n", optionText(q, *a))
		}
		if a == nil || *a != q.CorrectAnswer {
			fmt.Fprintf(&sb, "- Correct answer: %s\n", optionText(q, q.CorrectAnswer))
		}
		if q.Explanation != "" {
			fmt.Fprintf(&sb, "\n> %s\n", q.Explanation)
		}
	}

	return sb.String()
}
