package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/TobiSchelling/studydeck/internal/database"
	"github.com/TobiSchelling/studydeck/internal/extract"
	"github.com/TobiSchelling/studydeck/internal/ingest"
	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/quiz"
	"github.com/TobiSchelling/studydeck/internal/summarize"
)

// One response that satisfies both the summary and the question parser.
const combinedResponse = `{
  "title": "Photosynthesis Basics",
  "summary": "Plants turn light into sugar.",
  "highlights": ["Light is absorbed by chlorophyll"],
  "keyTopics": ["Photosynthesis"],
  "estimatedReadTime": 2,
  "questions": [
    {"id": "q1", "question": "What absorbs light?", "options": ["Chlorophyll", "Water", "Soil", "Air"], "correctAnswer": 0, "explanation": "Chlorophyll absorbs light.", "topic": "Photosynthesis"}
  ]
}`

const studyText = "Photosynthesis is the process by which green plants use sunlight, water and carbon dioxide to produce glucose and oxygen."

type mockProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestPipeline(t *testing.T, p llm.Provider, store Store) *Pipeline {
	t.Helper()
	gateway := llm.NewGateway(p, 100, nil)
	return New(
		ingest.NewPipeline(extract.DefaultRegistry(nil), 0, 0, nil),
		summarize.NewGenerator(gateway, 0, nil),
		quiz.NewGenerator(gateway, 0, nil),
		store,
		nil,
	)
}

func textUpload(name, body string) ingest.Upload {
	return ingest.Upload{Name: name, MediaType: "text/plain", Data: []byte(body)}
}

func TestProcessSavesDocument(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, &mockProvider{response: combinedResponse}, db)

	r, err := p.Process(context.Background(), user.ID, textUpload("biology.txt", studyText), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Document.ID == "" {
		t.Fatal("expected document to be saved with an ID")
	}
	if r.Document.Summary == nil || r.Document.Summary.Title != "Photosynthesis Basics" {
		t.Errorf("unexpected summary: %+v", r.Document.Summary)
	}
	if r.Questions != nil {
		t.Error("expected no questions without a difficulty")
	}

	stored, err := db.GetDocument(user.ID, r.Document.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.Content != studyText {
		t.Errorf("expected stored content to match, got %+v", stored)
	}
	if stored.Summary == nil || stored.Summary.Source != models.SourceAI {
		t.Errorf("expected stored ai summary, got %+v", stored.Summary)
	}

	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	if strings.Join(names, ",") != "Ingest,Summarize,Save" {
		t.Errorf("unexpected steps %v", names)
	}
}

func TestProcessWithDifficulty(t *testing.T) {
	p := newTestPipeline(t, &mockProvider{response: combinedResponse}, nil)

	r, err := p.Process(context.Background(), "", textUpload("biology.txt", studyText), models.Medium)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := quiz.QuestionCount(models.Medium, studyText)
	if len(r.Questions) != want {
		t.Errorf("expected %d questions, got %d", want, len(r.Questions))
	}
	if r.QuestionSource != models.SourceAI {
		t.Errorf("expected ai questions, got %s", r.QuestionSource)
	}
	if r.Questions[0].Question != "What absorbs light?" {
		t.Errorf("expected model question first, got %q", r.Questions[0].Question)
	}
	last := r.Steps[len(r.Steps)-1]
	if last.Name != "Save" || !strings.Contains(last.Summary, "Skipped") {
		t.Errorf("expected skipped save step, got %+v", last)
	}
}

func TestProcessIngestFailure(t *testing.T) {
	provider := &mockProvider{response: combinedResponse}
	p := newTestPipeline(t, provider, nil)

	_, err := p.Process(context.Background(), "", textUpload("short.txt", "too short"), models.Easy)
	var tooShort *ingest.TooShortError
	if !errors.As(err, &tooShort) {
		t.Fatalf("expected TooShortError, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("expected no completions for rejected upload, got %d", provider.calls)
	}
}

func TestProcessCompletionFailureFallsBack(t *testing.T) {
	p := newTestPipeline(t, &mockProvider{err: errors.New("offline")}, nil)

	r, err := p.Process(context.Background(), "", textUpload("biology.txt", studyText), models.Easy)
	if err != nil {
		t.Fatalf("expected no error when generation degrades, got %v", err)
	}
	if r.Document.Summary.Source != models.SourceFallback {
		t.Errorf("expected fallback summary, got %s", r.Document.Summary.Source)
	}
	if r.QuestionSource != models.SourceFallback {
		t.Errorf("expected fallback questions, got %s", r.QuestionSource)
	}
}

func TestProcessFillsMediaType(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	up := ingest.Upload{Name: "notes.txt", Data: []byte(studyText)}

	r, err := p.Process(context.Background(), "", up, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Document.MediaType != "text/plain" {
		t.Errorf("expected text/plain, got %q", r.Document.MediaType)
	}
}

func TestGenerateTest(t *testing.T) {
	p := newTestPipeline(t, &mockProvider{response: combinedResponse}, nil)
	doc := &models.Document{ID: "doc-1", Content: studyText}

	test := p.GenerateTest(context.Background(), doc, models.Hard)
	want := quiz.QuestionCount(models.Hard, studyText)
	if len(test.Questions) != want {
		t.Errorf("expected %d questions, got %d", want, len(test.Questions))
	}
	if test.Config.DocumentID != "doc-1" || test.Config.Difficulty != models.Hard {
		t.Errorf("unexpected config %+v", test.Config)
	}
	if test.Config.QuestionCount != len(test.Questions) {
		t.Errorf("expected config count %d, got %d", len(test.Questions), test.Config.QuestionCount)
	}
}

func TestGenerateTestForUnknownDocument(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, nil, db)

	_, err := p.GenerateTestFor(context.Background(), user.ID, "missing", models.Easy)
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSubmitTest(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, nil, db)

	r, err := p.Process(context.Background(), user.ID, textUpload("biology.txt", studyText), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	test := p.GenerateTest(context.Background(), r.Document, models.Easy)
	answers := make([]*int, len(test.Questions))
	for i := range answers {
		a := test.Questions[i].CorrectAnswer
		answers[i] = &a
	}
	answers[0] = nil

	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	result, err := p.SubmitTest(context.Background(), user.ID, Submission{
		Config:    test.Config,
		Questions: test.Questions,
		Answers:   answers,
		StartedAt: fixed.Add(-90 * time.Second),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Unanswered != 1 || result.CorrectAnswers != len(test.Questions)-1 {
		t.Errorf("unexpected tally: %+v", result)
	}
	if result.TimeSpent != 90 {
		t.Errorf("expected 90 seconds, got %d", result.TimeSpent)
	}

	stored, err := db.ListTestResultsForDocument(user.ID, r.Document.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != result.ID {
		t.Errorf("expected saved result, got %d", len(stored))
	}
}

func TestSubmitTestUnknownDocument(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, nil, db)

	_, err := p.SubmitTest(context.Background(), user.ID, Submission{
		Config: models.TestConfig{DocumentID: "missing", Difficulty: models.Easy},
	})
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func validQuestion() models.Question {
	return models.Question{
		ID:            "q_1",
		Question:      "What do plants make?",
		Options:       []string{"glucose", "salt", "iron", "helium"},
		CorrectAnswer: 0,
	}
}

func TestSubmitTestRejectsMalformed(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, nil, db)
	r, err := p.Process(context.Background(), user.ID, textUpload("biology.txt", studyText), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	twoOptions := validQuestion()
	twoOptions.Options = []string{"a", "b"}
	outOfRange := validQuestion()
	outOfRange.CorrectAnswer = 9
	negative := validQuestion()
	negative.CorrectAnswer = -1

	tests := []struct {
		name       string
		difficulty models.Difficulty
		questions  []models.Question
	}{
		{"unknown difficulty", "impossible", []models.Question{validQuestion()}},
		{"empty difficulty", "", []models.Question{validQuestion()}},
		{"no questions", models.Easy, nil},
		{"two options", models.Easy, []models.Question{twoOptions}},
		{"correct answer out of range", models.Easy, []models.Question{validQuestion(), outOfRange}},
		{"negative correct answer", models.Easy, []models.Question{negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nine := 9
			_, err := p.SubmitTest(context.Background(), user.ID, Submission{
				Config:    models.TestConfig{DocumentID: r.Document.ID, Difficulty: tt.difficulty},
				Questions: tt.questions,
				Answers:   []*int{&nine},
			})
			var invalid *InvalidSubmissionError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidSubmissionError, got %v", err)
			}
		})
	}

	stored, err := db.ListTestResults(user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected nothing stored, got %d results", len(stored))
	}
}

func TestSubmitTestNormalizesInput(t *testing.T) {
	db := openTestDB(t)
	user, _ := db.CreateUser("alice", "hash")
	p := newTestPipeline(t, nil, db)
	r, err := p.Process(context.Background(), user.ID, textUpload("biology.txt", studyText), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	zero := 0
	result, err := p.SubmitTest(context.Background(), user.ID, Submission{
		Config:    models.TestConfig{DocumentID: r.Document.ID, Difficulty: "HARD"},
		Questions: []models.Question{validQuestion()},
		Answers:   []*int{&zero},
		StartedAt: fixed.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Difficulty != models.Hard {
		t.Errorf("expected difficulty %q, got %q", models.Hard, result.Config.Difficulty)
	}
	if result.TimeSpent != 0 {
		t.Errorf("expected future start to count as 0 seconds, got %d", result.TimeSpent)
	}
	if result.Score != 10 {
		t.Errorf("expected score 10, got %v", result.Score)
	}
}
