package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/tier"
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

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newGenerator(p llm.Provider) *Generator {
	return NewGenerator(llm.NewGateway(p, 0, nil), 0, nil)
}

func TestSummarizeParsesModelJSON(t *testing.T) {
	resp, _ := json.Marshal(map[string]any{
		"title":             "Cell Biology Basics",
		"summary":           "Cells are the unit of life.\nThey have membranes.\nSome have nuclei.",
		"highlights":        []string{"Cells are alive", "Membranes matter", "Nuclei hold DNA"},
		"keyTopics":         []string{"Cells", "Membranes", "Nucleus"},
		"estimatedReadTime": 2,
	})
	g := newGenerator(&mockProvider{response: "```json\n" + string(resp) + "\n```"})

	s := g.Summarize(context.Background(), words(100), "bio.txt")
	if s.Source != models.SourceAI {
		t.Errorf("expected ai source, got %s", s.Source)
	}
	if s.Title != "Cell Biology Basics" {
		t.Errorf("expected model title, got %q", s.Title)
	}
	if len(s.Highlights) != 3 || len(s.KeyTopics) != 3 {
		t.Errorf("expected 3 highlights and topics, got %d / %d", len(s.Highlights), len(s.KeyTopics))
	}
	if s.EstimatedReadTime != 2 {
		t.Errorf("expected read time 2, got %d", s.EstimatedReadTime)
	}
}

func TestSummarizeDefendsMissingFields(t *testing.T) {
	g := newGenerator(&mockProvider{response: `{"summary": "Only a summary.", "highlights": "not a list"}`})

	s := g.Summarize(context.Background(), words(450), "cell-biology_notes.pdf")
	if s.Source != models.SourceAI {
		t.Errorf("expected ai source, got %s", s.Source)
	}
	if s.Title != "Cell Biology Notes" {
		t.Errorf("expected title from file name, got %q", s.Title)
	}
	if s.Highlights == nil || len(s.Highlights) != 0 {
		t.Errorf("expected empty non-nil highlights, got %#v", s.Highlights)
	}
	if s.KeyTopics == nil || len(s.KeyTopics) != 0 {
		t.Errorf("expected empty non-nil topics, got %#v", s.KeyTopics)
	}
	if s.EstimatedReadTime != 3 {
		t.Errorf("expected ceil(450/200)=3, got %d", s.EstimatedReadTime)
	}
}

func TestSummarizeMissingSummaryUsesTierProse(t *testing.T) {
	g := newGenerator(&mockProvider{response: `{"title": "T"}`})
	s := g.Summarize(context.Background(), words(100), "a.txt")
	if s.Summary != conciseTemplate.summary {
		t.Errorf("expected concise fallback prose, got %q", s.Summary)
	}
}

func TestSummarizeFallbackByTier(t *testing.T) {
	tests := []struct {
		name       string
		words      int
		highlights int
		topics     int
	}{
		{"one page", 100, 3, 3},
		{"five pages", 1200, 5, 4},
		{"six pages", 1500, 10, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(&mockProvider{response: "I cannot produce JSON today."})
			s := g.Summarize(context.Background(), words(tt.words), "lecture_01.docx")
			if s.Source != models.SourceFallback {
				t.Errorf("expected fallback source, got %s", s.Source)
			}
			if len(s.Highlights) != tt.highlights {
				t.Errorf("expected %d highlights, got %d", tt.highlights, len(s.Highlights))
			}
			if len(s.KeyTopics) != tt.topics {
				t.Errorf("expected %d topics, got %d", tt.topics, len(s.KeyTopics))
			}
			if s.Title != "Lecture 01" {
				t.Errorf("expected 'Lecture 01', got %q", s.Title)
			}
		})
	}
}

func TestSummarizeFallbackCountsWithinTierRanges(t *testing.T) {
	for _, row := range tier.Table {
		tpl := fallbackFor(row)
		if n := len(tpl.highlights); n < row.Highlights.Min || n > row.Highlights.Max {
			t.Errorf("%s: %d highlights outside %s", row.Name, n, row.Highlights)
		}
		if n := len(tpl.topics); n < row.Topics.Min || n > row.Topics.Max {
			t.Errorf("%s: %d topics outside %s", row.Name, n, row.Topics)
		}
	}
}

func TestSummarizeCompletionError(t *testing.T) {
	g := newGenerator(&mockProvider{err: errors.New("timeout")})
	s := g.Summarize(context.Background(), words(1500), "big.pdf")
	if s.Source != models.SourceFallback {
		t.Fatalf("expected fallback source, got %s", s.Source)
	}
	if s.Summary != comprehensiveTemplate.summary {
		t.Error("expected comprehensive prose for a 6 page document")
	}
	if s.EstimatedReadTime != 8 {
		t.Errorf("expected ceil(1500/200)=8, got %d", s.EstimatedReadTime)
	}
}

func TestSummarizeNilCompleter(t *testing.T) {
	s := NewGenerator(nil, 0, nil).Summarize(context.Background(), words(10), "x.txt")
	if s.Source != models.SourceFallback {
		t.Errorf("expected fallback source, got %s", s.Source)
	}
}

func TestSummarizePromptTargets(t *testing.T) {
	mock := &mockProvider{response: "{}"}
	g := newGenerator(mock)

	g.Summarize(context.Background(), words(100), "a.txt")
	g.Summarize(context.Background(), words(1500), "b.txt")

	if !strings.Contains(mock.prompts[0], "exactly 3-5 lines") || !strings.Contains(mock.prompts[0], "concise") {
		t.Error("expected concise 3-5 line target for 100 words")
	}
	if !strings.Contains(mock.prompts[1], "exactly 15-20 lines") || !strings.Contains(mock.prompts[1], "7-10") {
		t.Error("expected comprehensive 15-20 line target for 1500 words")
	}
	if !strings.Contains(mock.prompts[1], "approximately 6 page(s)") {
		t.Error("expected page estimate in prompt")
	}
}

func TestSummarizeTruncatesPromptContent(t *testing.T) {
	mock := &mockProvider{response: "{}"}
	g := NewGenerator(llm.NewGateway(mock, 0, nil), 20, nil)

	content := strings.Repeat("a", 20) + "TAIL-MARKER"
	g.Summarize(context.Background(), content, "a.txt")
	if strings.Contains(mock.prompts[0], "TAIL-MARKER") {
		t.Error("expected content beyond the cap to be dropped from the prompt")
	}
}

func TestTitleFromFileName(t *testing.T) {
	tests := map[string]string{
		"cell-biology_notes.pdf": "Cell Biology Notes",
		"README":                 "README",
		"my__file--v2.docx":      "My File V2",
		"über_notes.txt":         "Über Notes",
		".txt":                   "Untitled Document",
		"":                       "Untitled Document",
		"/tmp/uploads/exam.xlsx": "Exam",
	}
	for in, want := range tests {
		if got := TitleFromFileName(in); got != want {
			t.Errorf("TitleFromFileName(%q): expected %q, got %q", in, want, got)
		}
	}
}
