package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/models"
)

type mockProvider struct {
	response string
	err      error
	prompts  []string
}

func (m *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func newGenerator(p llm.Provider) *Generator {
	return NewGenerator(llm.NewGateway(p, 0, nil), 0, nil)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func questionsJSON(qs ...map[string]any) string {
	b, _ := json.Marshal(map[string]any{"questions": qs})
	return string(b)
}

func assertUniqueIDs(t *testing.T, qs []models.Question) {
	t.Helper()
	seen := make(map[string]bool)
	for _, q := range qs {
		if seen[q.ID] {
			t.Errorf("duplicate id %q", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestGenerateParsesQuestions(t *testing.T) {
	resp := questionsJSON(
		map[string]any{
			"id": "1", "question": "What is ATP?",
			"options":       []string{"Energy carrier", "Protein", "Lipid", "Sugar"},
			"correctAnswer": 0, "explanation": "ATP stores energy.", "topic": "Metabolism",
		},
		map[string]any{
			"id": "2", "question": "Where is DNA stored?",
			"options":       []string{"Ribosome", "Nucleus", "Membrane", "Wall"},
			"correctAnswer": 1, "explanation": "In the nucleus.", "topic": "Cells",
		},
	)
	g := newGenerator(&mockProvider{response: resp})

	qs, source := g.Generate(context.Background(), words(100), models.Easy, 2)
	if source != models.SourceAI {
		t.Errorf("expected ai source, got %s", source)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[1].Question != "Where is DNA stored?" || qs[1].CorrectAnswer != 1 || qs[1].Topic != "Cells" {
		t.Errorf("unexpected question %+v", qs[1])
	}
}

func TestGenerateSanitizesFields(t *testing.T) {
	resp := questionsJSON(
		map[string]any{"options": []string{"a", "b", "c"}, "correctAnswer": 7},
		map[string]any{"id": "x", "question": "Q?", "options": []any{"a", 2, true, "d"}, "correctAnswer": "3"},
		map[string]any{"id": "x", "question": "Q2?", "options": []any{"a", "b", "c", "d"}, "correctAnswer": 1.5},
		map[string]any{"question": "Q3?", "options": []any{"a", []string{"nested"}, "c", "d"}, "correctAnswer": -1},
	)
	g := newGenerator(&mockProvider{response: resp})
	qs, _ := g.Generate(context.Background(), words(100), models.Medium, 4)

	first := qs[0]
	if first.ID != "q_1" || first.Question != "Question 1" {
		t.Errorf("expected default id and text, got %q / %q", first.ID, first.Question)
	}
	if strings.Join(first.Options, ",") != "Option A,Option B,Option C,Option D" {
		t.Errorf("expected placeholder options, got %v", first.Options)
	}
	if first.CorrectAnswer != 0 {
		t.Errorf("expected out-of-range answer coerced to 0, got %d", first.CorrectAnswer)
	}
	if first.Explanation != "Explanation not available." || first.Topic != "General" {
		t.Errorf("expected default explanation/topic, got %q / %q", first.Explanation, first.Topic)
	}

	if strings.Join(qs[1].Options, ",") != "a,2,true,d" {
		t.Errorf("expected scalar options to be stringified, got %v", qs[1].Options)
	}
	if qs[1].CorrectAnswer != 3 {
		t.Errorf("expected numeric string answer 3, got %d", qs[1].CorrectAnswer)
	}

	if qs[2].ID != "x_2" {
		t.Errorf("expected duplicate id to be re-suffixed, got %q", qs[2].ID)
	}
	if qs[2].CorrectAnswer != 0 {
		t.Errorf("expected fractional answer coerced to 0, got %d", qs[2].CorrectAnswer)
	}

	if qs[3].Options[0] != "Option A" || qs[3].CorrectAnswer != 0 {
		t.Errorf("expected placeholders and 0 for malformed question, got %+v", qs[3])
	}
	for _, q := range qs {
		if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 || len(q.Options) != 4 {
			t.Errorf("invalid question after sanitization: %+v", q)
		}
	}
}

func TestGeneratePadsShortResponses(t *testing.T) {
	resp := questionsJSON(
		map[string]any{"id": "fallback_q_3", "question": "Real?", "options": []string{"a", "b", "c", "d"}, "correctAnswer": 2},
	)
	g := newGenerator(&mockProvider{response: resp})

	qs, source := g.Generate(context.Background(), words(100), models.Easy, 12)
	if len(qs) != 12 {
		t.Fatalf("expected 12 questions, got %d", len(qs))
	}
	if source != models.SourceAI {
		t.Errorf("expected ai source for partially generated set, got %s", source)
	}
	assertUniqueIDs(t, qs)
	if qs[0].Question != "Real?" {
		t.Error("expected model question first")
	}
	if !strings.HasSuffix(qs[1].Question, "(Question 2)") {
		t.Errorf("expected padded question suffix, got %q", qs[1].Question)
	}
}

func TestGenerateTruncatesLongResponses(t *testing.T) {
	var items []map[string]any
	for i := 0; i < 8; i++ {
		items = append(items, map[string]any{"question": "Q", "options": []string{"a", "b", "c", "d"}})
	}
	g := newGenerator(&mockProvider{response: questionsJSON(items...)})
	qs, _ := g.Generate(context.Background(), words(100), models.Easy, 5)
	if len(qs) != 5 {
		t.Errorf("expected 5 questions, got %d", len(qs))
	}
	assertUniqueIDs(t, qs)
}

func TestGenerateFallbacks(t *testing.T) {
	tests := []struct {
		name string
		mock *mockProvider
	}{
		{"completion error", &mockProvider{err: errors.New("503")}},
		{"not json", &mockProvider{response: "Here are your questions: 1. ..."}},
		{"no questions key", &mockProvider{response: `{"items": []}`}},
		{"only junk entries", &mockProvider{response: `{"questions": ["a", 3]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, source := newGenerator(tt.mock).Generate(context.Background(), words(100), models.Hard, 12)
			if source != models.SourceFallback {
				t.Errorf("expected fallback source, got %s", source)
			}
			if len(qs) != 12 {
				t.Fatalf("expected 12 questions, got %d", len(qs))
			}
			assertUniqueIDs(t, qs)
			if qs[0].ID != "fallback_q_1" || qs[11].ID != "fallback_q_12" {
				t.Errorf("unexpected fallback ids %q .. %q", qs[0].ID, qs[11].ID)
			}
			if qs[4].Topic != "Methodology" {
				t.Errorf("expected templates to cycle, got topic %q", qs[4].Topic)
			}
		})
	}
}

func TestGenerateZeroCount(t *testing.T) {
	mock := &mockProvider{response: "{}"}
	qs, _ := newGenerator(mock).Generate(context.Background(), words(10), models.Easy, 0)
	if len(qs) != 0 {
		t.Errorf("expected no questions, got %d", len(qs))
	}
	if len(mock.prompts) != 0 {
		t.Error("expected no completion for zero count")
	}
}

func TestGeneratePrompt(t *testing.T) {
	mock := &mockProvider{response: "{}"}
	newGenerator(mock).Generate(context.Background(), words(1500), models.Hard, 40)

	p := mock.prompts[0]
	for _, want := range []string{"Difficulty: Hard", "Document length: 6+ pages", "exactly 40 questions"} {
		if !strings.Contains(p, want) {
			t.Errorf("expected %q in prompt", want)
		}
	}
}

func TestQuestionCount(t *testing.T) {
	tests := []struct {
		words int
		d     models.Difficulty
		want  int
	}{
		{100, models.Easy, 10},
		{100, models.Medium, 25},
		{100, models.Hard, 30},
		{1000, models.Easy, 15},
		{1250, models.Medium, 25},
		{1251, models.Medium, 30},
		{5000, models.Hard, 40},
	}
	for _, tt := range tests {
		if got := QuestionCount(tt.d, words(tt.words)); got != tt.want {
			t.Errorf("QuestionCount(%s, %d words): expected %d, got %d", tt.d, tt.words, tt.want, got)
		}
	}
}

func TestFallbackAnswersAreValid(t *testing.T) {
	for _, q := range Fallback(6) {
		if len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			t.Errorf("invalid fallback question %+v", q)
		}
	}
	if len(Fallback(-1)) != 0 {
		t.Error("expected no questions for negative count")
	}
}
