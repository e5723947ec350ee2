package flowchart

import (
	"context"
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
	return NewGenerator(llm.NewGateway(p, 0, nil), nil)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		prompt string
		want   Intent
	}{
		{"How does photosynthesis work?", Intent{KindProcess, FormatVisual}},
		{"Classify the types of rocks", Intent{KindClassification, FormatVisual}},
		{"Show the taxonomy of animals in ASCII", Intent{KindClassification, FormatText}},
		{"Explain the water cycle in plain text", Intent{KindProcess, FormatText}},
		{"BREAKDOWN OF THE CELL", Intent{KindClassification, FormatVisual}},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			if got := Classify(tt.prompt); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		program string
		valid   bool
	}{
		{"minimal", "flowchart TD\nA-->B", true},
		{"graph header", "graph LR\n  A[Start] --> B{Ok?}\n  B -->|Yes| C((Done))", true},
		{"comment line", "flowchart TD\n%% a [ comment\nA --> B", true},
		{"unbalanced", "flowchart TD\nA[(Start]--> B[End]", false},
		{"no connector", "flowchart TD\nA[Only Node]", false},
		{"single line", "flowchart TD", false},
		{"empty", "   \n\n", false},
		{"bad header", "sequenceDiagram\nA->>B: hi", false},
		{"nested terminal", "flowchart TD\nA[((Start))] --> B", false},
		{"nested decision", "flowchart TD\nA{[Choice]} --> B", false},
		{"unbalanced braces", "flowchart TD\nA{Choice --> B", false},
		{"caret artifact", "flowchart TD\nA --> B\n---------^", false},
		{"trailing caret", "flowchart TD\nA --> B ^", false},
		{"spaced dashes", "flowchart TD\nA[Start] --- B --- C\nA --> C", false},
		{"pipe dashes", "flowchart TD\nA -->|label|--- B", false},
		{"dotted", "flowchart LR\nA -.-> B", true},
		{"thick", "flowchart LR\nA ==> B", true},
		{"inheritance", "flowchart TD\nAnimal <|-- Dog", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.program)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			}
		})
	}
}

func TestValidationErrorLine(t *testing.T) {
	err := Validate("flowchart TD\nA --> B\n\nC[(Broken] --> D")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Line != 3 {
		t.Errorf("expected line 3, got %d", ve.Line)
	}
}

func TestFallbacksAreValid(t *testing.T) {
	for _, d := range []string{classificationDiagram, processDiagram, genericDiagram} {
		if err := Validate(d); err != nil {
			t.Errorf("fallback diagram failed validation: %v\n%s", err, d)
		}
	}
}

func TestFallbackDiagramSelection(t *testing.T) {
	if FallbackDiagram("categorize vertebrates") != classificationDiagram {
		t.Error("expected classification fallback")
	}
	if FallbackDiagram("the software release workflow") != processDiagram {
		t.Error("expected process fallback")
	}
	if FallbackDiagram("photosynthesis") != genericDiagram {
		t.Error("expected generic fallback")
	}
}

func TestExtractProgram(t *testing.T) {
	got, ok := ExtractProgram("Sure! Here is your diagram:\n```mermaid\nflowchart TD\nA --> B\n```\nHope it helps")
	if !ok {
		t.Fatal("expected program to be found")
	}
	if !strings.HasPrefix(got, "flowchart TD\nA --> B") {
		t.Errorf("expected prose before header to be dropped, got %q", got)
	}

	if _, ok := ExtractProgram("no diagram here"); ok {
		t.Error("expected no program")
	}

	got, _ = ExtractProgram("GRAPH LR\nA --> B")
	if !strings.HasPrefix(got, "GRAPH LR") {
		t.Errorf("expected case-insensitive match, got %q", got)
	}
}

func TestGenerateAcceptsValidProgram(t *testing.T) {
	mock := &mockProvider{response: "```mermaid\nflowchart TD\n  A((Start)) --> B[Boil water]\n  B --> C((End))\n```"}
	a := newGenerator(mock).Generate(context.Background(), "How to make tea")

	if a.Source != models.SourceAI || a.Kind != models.KindDiagram {
		t.Errorf("expected ai diagram, got %s %s", a.Source, a.Kind)
	}
	if !strings.HasPrefix(a.Program, "flowchart TD") {
		t.Errorf("unexpected program %q", a.Program)
	}
	if a.Prompt != "How to make tea" {
		t.Errorf("expected prompt to be kept, got %q", a.Prompt)
	}
	if !strings.Contains(mock.prompts[0], "whiteboard-style") {
		t.Error("expected process prompt")
	}
}

func TestGenerateRejectsInvalidProgram(t *testing.T) {
	mock := &mockProvider{response: "flowchart TD\nA[(Start]--> B[End]"}
	a := newGenerator(mock).Generate(context.Background(), "classify clouds")

	if a.Source != models.SourceFallback {
		t.Errorf("expected fallback, got %s", a.Source)
	}
	if a.Program != classificationDiagram {
		t.Errorf("expected classification fallback, got %q", a.Program)
	}
	if !strings.Contains(mock.prompts[0], "classification flowchart") {
		t.Error("expected classification prompt")
	}
}

func TestGenerateFallbackOnErrors(t *testing.T) {
	for _, mock := range []*mockProvider{
		{err: errors.New("unavailable")},
		{response: "I would rather describe it in words."},
	} {
		a := newGenerator(mock).Generate(context.Background(), "photosynthesis")
		if a.Source != models.SourceFallback || a.Program != genericDiagram {
			t.Errorf("expected generic fallback, got %s %q", a.Source, a.Program)
		}
	}
}

func TestGenerateText(t *testing.T) {
	mock := &mockProvider{response: "```\n[Start] --> [End]\n```"}
	a := newGenerator(mock).Generate(context.Background(), "water cycle in text format")

	if a.Kind != models.KindText || a.Source != models.SourceAI {
		t.Errorf("expected ai text artifact, got %s %s", a.Kind, a.Source)
	}
	if a.Program != "[Start] --> [End]" {
		t.Errorf("expected fences stripped, got %q", a.Program)
	}
}

func TestGenerateTextFallback(t *testing.T) {
	a := newGenerator(&mockProvider{err: errors.New("down")}).Generate(context.Background(), "types of clouds as ascii")
	if a.Kind != models.KindText || a.Program != classificationText {
		t.Errorf("expected classification ASCII fallback, got %s %q", a.Kind, a.Program)
	}

	a = NewGenerator(nil, nil).Generate(context.Background(), "making bread, text only")
	if a.Program != processText || a.Source != models.SourceFallback {
		t.Errorf("expected process ASCII fallback, got %q", a.Program)
	}
}

func TestRegenerateReplaysPrompt(t *testing.T) {
	mock := &mockProvider{response: "flowchart TD\nA --> B"}
	g := newGenerator(mock)

	first := g.Generate(context.Background(), "how rain forms")
	mock.response = "flowchart LR\nX --> Y"
	second := g.Regenerate(context.Background(), first)

	if second.Prompt != first.Prompt {
		t.Errorf("expected same prompt, got %q", second.Prompt)
	}
	if second.Program == first.Program {
		t.Error("expected a fresh generation")
	}
	if len(mock.prompts) != 2 || mock.prompts[0] != mock.prompts[1] {
		t.Error("expected the original request to be replayed")
	}
}

func TestExport(t *testing.T) {
	a := models.FlowchartArtifact{Program: "flowchart TD\nA --> B"}
	if got := Export(a); got != "flowchart TD\nA --> B\n" {
		t.Errorf("unexpected export %q", got)
	}
}
