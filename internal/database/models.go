package database

import "github.com/TobiSchelling/studydeck/internal/models"

// Credentials is a stored user together with the hash of their PIN.
type Credentials struct {
	User    models.User
	PINHash string
}

// Stats holds per-user progress aggregates.
type Stats struct {
	Documents         int     `json:"documents"`
	Tests             int     `json:"tests"`
	AverageScore      float64 `json:"averageScore"`
	BestScore         float64 `json:"bestScore"`
	QuestionsAnswered int     `json:"questionsAnswered"`
}
