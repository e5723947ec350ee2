// Package scoring grades submitted tests.
package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/studydeck/internal/models"
)

// Tally is the outcome of grading an answer vector.
type Tally struct {
	Score      float64 `json:"score"`
	Correct    int     `json:"correctAnswers"`
	Incorrect  int     `json:"incorrectAnswers"`
	Unanswered int     `json:"unanswered"`
}

// Score grades answers against questions. A nil answer is unanswered; an
// answer slot missing from a short vector counts as unanswered, extra
// answers are ignored. Any index that is not the correct one, including out
// of range values, is incorrect. The score is out of 10, rounded to two
// decimals.
func Score(questions []models.Question, answers []*int) Tally {
	var t Tally
	for i, q := range questions {
		var a *int
		if i < len(answers) {
			a = answers[i]
		}
		switch {
		case a == nil:
			t.Unanswered++
		case *a == q.CorrectAnswer:
			t.Correct++
		default:
			t.Incorrect++
		}
	}
	if len(questions) > 0 {
		t.Score = round2(float64(t.Correct) / float64(len(questions)) * 10)
	}
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildResult grades a submission and assembles the immutable test result.
func BuildResult(userID string, cfg models.TestConfig, questions []models.Question, answers []*int, started, completed time.Time) *models.TestResult {
	t := Score(questions, answers)

	frozenQuestions := make([]models.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		frozenQuestions[i] = q
	}
	frozen := make([]*int, len(questions))
	for i := 0; i < len(questions) && i < len(answers); i++ {
		if answers[i] != nil {
			a := *answers[i]
			frozen[i] = &a
		}
	}

	elapsed := int(completed.Sub(started).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	return &models.TestResult{
		ID:               uuid.NewString(),
		UserID:           userID,
		DocumentID:       cfg.DocumentID,
		Config:           cfg,
		Questions:        frozenQuestions,
		Answers:          frozen,
		Score:            t.Score,
		CorrectAnswers:   t.Correct,
		IncorrectAnswers: t.Incorrect,
		Unanswered:       t.Unanswered,
		CompletedAt:      completed.UTC(),
		TimeSpent:        elapsed,
	}
}
