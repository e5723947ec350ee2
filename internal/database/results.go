package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/studydeck/internal/models"
)

const resultColumns = `id, user_id, document_id, config, questions, answers, score,
	correct, incorrect, unanswered, time_spent, completed_at`

// SaveTestResult stores a scored test. Results are never updated afterwards.
func (db *DB) SaveTestResult(r *models.TestResult) error {
	if r.UserID == "" {
		return errors.New("test result has no owner")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now().UTC()
	}

	config, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("encoding test config: %w", err)
	}
	questions, err := json.Marshal(r.Questions)
	if err != nil {
		return fmt.Errorf("encoding questions: %w", err)
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO test_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.DocumentID, string(config), string(questions), string(answers),
		r.Score, r.CorrectAnswers, r.IncorrectAnswers, r.Unanswered, r.TimeSpent,
		formatTime(r.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting test result: %w", err)
	}
	return nil
}

// ListTestResults returns the user's results, most recent first.
func (db *DB) ListTestResults(userID string) ([]models.TestResult, error) {
	return db.queryResults(
		"SELECT "+resultColumns+" FROM test_results WHERE user_id = ? ORDER BY completed_at DESC",
		userID,
	)
}

// ListTestResultsForDocument returns the user's results for one document.
func (db *DB) ListTestResultsForDocument(userID, documentID string) ([]models.TestResult, error) {
	return db.queryResults(
		"SELECT "+resultColumns+` FROM test_results
		WHERE user_id = ? AND document_id = ? ORDER BY completed_at DESC`,
		userID, documentID,
	)
}

// GetTestResult returns one of the user's results, or nil if there is none.
func (db *DB) GetTestResult(userID, id string) (*models.TestResult, error) {
	results, err := db.queryResults(
		"SELECT "+resultColumns+" FROM test_results WHERE user_id = ? AND id = ?",
		userID, id,
	)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return &results[0], nil
}

// GetStats returns progress aggregates for a user.
func (db *DB) GetStats(userID string) (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM documents WHERE user_id = ?", userID,
	).Scan(&s.Documents); err != nil {
		return nil, err
	}
	err := db.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0),
		COALESCE(SUM(correct + incorrect), 0)
		FROM test_results WHERE user_id = ?`, userID,
	).Scan(&s.Tests, &s.AverageScore, &s.BestScore, &s.QuestionsAnswered)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) queryResults(query string, args ...any) ([]models.TestResult, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.TestResult{}
	for rows.Next() {
		var r models.TestResult
		var config, questions, answers, completed string
		if err := rows.Scan(&r.ID, &r.UserID, &r.DocumentID, &config, &questions, &answers,
			&r.Score, &r.CorrectAnswers, &r.IncorrectAnswers, &r.Unanswered, &r.TimeSpent,
			&completed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(config), &r.Config); err != nil {
			return nil, fmt.Errorf("decoding config of result %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(questions), &r.Questions); err != nil {
			return nil, fmt.Errorf("decoding questions of result %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("decoding answers of result %s: %w", r.ID, err)
		}
		r.CompletedAt = parseTime(completed)
		results = append(results, r)
	}
	return results, rows.Err()
}
