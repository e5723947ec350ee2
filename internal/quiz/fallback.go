package quiz

import (
	"fmt"

	"github.com/TobiSchelling/studydeck/internal/models"
)

var fallbackTemplates = []models.Question{
	{
		Question: "What is the primary focus of this document?",
		Options: []string{
			"Theoretical concepts and principles",
			"Practical implementation only",
			"Historical overview",
			"Future predictions",
		},
		CorrectAnswer: 0,
		Explanation:   "The document primarily focuses on theoretical concepts and principles as evidenced by the structured approach to explaining fundamental ideas.",
		Topic:         "Core Concepts",
	},
	{
		Question: "Which methodology is emphasized throughout the content?",
		Options: []string{
			"Experimental approach",
			"Systematic analysis",
			"Random sampling",
			"Intuitive reasoning",
		},
		CorrectAnswer: 1,
		Explanation:   "The content emphasizes systematic analysis as the preferred methodology for understanding complex topics.",
		Topic:         "Methodology",
	},
	{
		Question: "What is the key takeaway from the practical examples provided?",
		Options: []string{
			"Theory and practice must be integrated",
			"Practice is more important than theory",
			"Examples are merely illustrative",
			"Practical applications are limited",
		},
		CorrectAnswer: 0,
		Explanation:   "The examples demonstrate that theory and practice must be integrated for complete understanding.",
		Topic:         "Practical Applications",
	},
}

// fallbackAt returns the template for slot i (0-based), re-identified so
// every slot is unique.
func fallbackAt(i int) models.Question {
	tpl := fallbackTemplates[i%len(fallbackTemplates)]
	q := tpl
	q.ID = fmt.Sprintf("fallback_q_%d", i+1)
	q.Question = fmt.Sprintf("%s (Question %d)", tpl.Question, i+1)
	q.Options = append([]string(nil), tpl.Options...)
	return q
}

// Fallback returns count questions cycling through the fixed templates.
func Fallback(count int) []models.Question {
	out := make([]models.Question, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, fallbackAt(i))
	}
	return out
}

// Pad fills questions up to count with fallback questions, keeping ids
// unique.
func Pad(questions []models.Question, count int) []models.Question {
	seen := make(map[string]bool, count)
	for _, q := range questions {
		seen[q.ID] = true
	}
	for i := len(questions); i < count; i++ {
		q := fallbackAt(i)
		q.ID = uniqueID(q.ID, seen)
		questions = append(questions, q)
	}
	return questions
}
