package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/studydeck/internal/models"
)

// SaveDocument inserts a document for its user. A missing ID or upload time
// is filled in and written back to doc.
func (db *DB) SaveDocument(doc *models.Document) error {
	if doc.UserID == "" {
		return errors.New("document has no owner")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	summary, err := encodeSummary(doc.Summary)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		`INSERT INTO documents (id, user_id, name, media_type, size, content, summary, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Name, doc.MediaType, doc.Size, doc.Content, summary,
		formatTime(doc.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// GetDocument returns one of the user's documents, or nil if it does not
// exist or belongs to someone else.
func (db *DB) GetDocument(userID, id string) (*models.Document, error) {
	row := db.conn.QueryRow(
		`SELECT id, user_id, name, media_type, size, content, summary, uploaded_at
		FROM documents WHERE id = ? AND user_id = ?`, id, userID,
	)
	var d models.Document
	var summary *string
	var uploaded string
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.MediaType, &d.Size, &d.Content, &summary, &uploaded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.UploadedAt = parseTime(uploaded)
	d.Summary = db.decodeSummary(d.ID, summary)
	return &d, nil
}

// ListDocuments returns the user's documents, newest first.
func (db *DB) ListDocuments(userID string) ([]models.Document, error) {
	rows, err := db.conn.Query(
		`SELECT id, user_id, name, media_type, size, content, summary, uploaded_at
		FROM documents WHERE user_id = ? ORDER BY uploaded_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var d models.Document
		var summary *string
		var uploaded string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.MediaType, &d.Size, &d.Content, &summary, &uploaded); err != nil {
			return nil, err
		}
		d.UploadedAt = parseTime(uploaded)
		d.Summary = db.decodeSummary(d.ID, summary)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocumentSummary replaces a document's summary. Content is never
// rewritten. Returns false if the document was not found.
func (db *DB) UpdateDocumentSummary(userID, id string, s *models.DocumentSummary) (bool, error) {
	summary, err := encodeSummary(s)
	if err != nil {
		return false, err
	}
	result, err := db.conn.Exec(
		"UPDATE documents SET summary = ? WHERE id = ? AND user_id = ?", summary, id, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// DeleteDocument removes a document and, by cascade, its test results.
// Returns false if the document was not found.
func (db *DB) DeleteDocument(userID, id string) (bool, error) {
	result, err := db.conn.Exec("DELETE FROM documents WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func encodeSummary(s *models.DocumentSummary) (*string, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	out := string(b)
	return &out, nil
}

func (db *DB) decodeSummary(docID string, raw *string) *models.DocumentSummary {
	if raw == nil {
		return nil
	}
	var s models.DocumentSummary
	if err := json.Unmarshal([]byte(*raw), &s); err != nil {
		db.log.Warn("stored summary is unreadable", "document", docID, "error", err)
		return nil
	}
	return &s
}
