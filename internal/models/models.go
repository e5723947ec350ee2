// Package models holds the domain types that flow between the ingestion,
// generation, scoring and persistence stages.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Source tags whether an artifact was authored by the model or synthesized
// from a fixed template after a failure.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Document is an uploaded study document and its extracted text.
type Document struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id,omitempty"`
	Name       string           `json:"name"`
	MediaType  string           `json:"type"`
	Size       int64            `json:"size"`
	UploadedAt time.Time        `json:"upload_date"`
	Content    string           `json:"content"`
	Summary    *DocumentSummary `json:"summary,omitempty"`
}

// DocumentSummary is the structured summary of a document's content.
type DocumentSummary struct {
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	Highlights        []string `json:"highlights"`
	KeyTopics         []string `json:"keyTopics"`
	EstimatedReadTime int      `json:"estimatedReadTime"`
	Source            Source   `json:"source"`
}

// Question is a four-option multiple choice question.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
}

// OptionsPerQuestion is the fixed number of choices on every question.
const OptionsPerQuestion = 4

// Validate checks the shape every stored question must have.
func (q Question) Validate() error {
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("expected %d options, got %d", OptionsPerQuestion, len(q.Options))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("correct answer %d is not a valid option index", q.CorrectAnswer)
	}
	return nil
}

// Difficulty of a generated test.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every valid difficulty in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts a difficulty name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// Title returns the capitalized difficulty name.
func (d Difficulty) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// TestConfig describes a test to generate for a document.
type TestConfig struct {
	Difficulty    Difficulty `json:"difficulty"`
	DocumentID    string     `json:"documentId"`
	QuestionCount int        `json:"questionCount"`
}

// TestResult is a submitted, scored test. It is immutable once saved.
type TestResult struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id,omitempty"`
	DocumentID       string     `json:"documentId"`
	Config           TestConfig `json:"testConfig"`
	Questions        []Question `json:"questions"`
	Answers          []*int     `json:"userAnswers"`
	Score            float64    `json:"score"`
	CorrectAnswers   int        `json:"correctAnswers"`
	IncorrectAnswers int        `json:"incorrectAnswers"`
	Unanswered       int        `json:"unanswered"`
	CompletedAt      time.Time  `json:"completedAt"`
	TimeSpent        int        `json:"timeSpent"`
}

// ArtifactKind distinguishes diagram-grammar output from ASCII art.
type ArtifactKind string

const (
	KindDiagram ArtifactKind = "diagram"
	KindText    ArtifactKind = "text"
)

// FlowchartArtifact is a generated diagram. It is never persisted.
type FlowchartArtifact struct {
	Kind    ArtifactKind `json:"kind"`
	Program string       `json:"program"`
	Prompt  string       `json:"prompt"`
	Source  Source       `json:"source"`
}

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}
