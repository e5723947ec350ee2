// Package flowchart generates flowchart diagrams from a free-text request,
// either as Mermaid flowchart programs or as ASCII art.
package flowchart

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
)

// Kind is the structure of the requested diagram.
type Kind string

const (
	KindProcess        Kind = "process"
	KindClassification Kind = "classification"
)

// Format is the requested output representation.
type Format string

const (
	FormatVisual Format = "visual"
	FormatText   Format = "text"
)

// Intent is what a request asks for.
type Intent struct {
	Kind   Kind
	Format Format
}

var classificationKeywords = []string{
	"classify", "classification", "categories", "categorize", "types of",
	"kinds of", "taxonomy", "hierarchy", "breakdown", "organize",
	"group", "divide", "separate", "sort", "arrange", "structure",
}

var textFormatKeywords = []string{
	"text format", "plain text", "ascii", "text-based", "text style",
	"using text", "in text", "text form", "text only", "ascii style",
	"plain format", "text representation", "textual format",
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Classify decides the intent of a request by keyword match.
func Classify(prompt string) Intent {
	lower := strings.ToLower(prompt)
	in := Intent{Kind: KindProcess, Format: FormatVisual}
	if containsAny(lower, classificationKeywords) {
		in.Kind = KindClassification
	}
	if containsAny(lower, textFormatKeywords) {
		in.Format = FormatText
	}
	return in
}

// Generator turns requests into flowchart artifacts. It never returns an
// error; invalid or failed generations are replaced with fixed diagrams.
type Generator struct {
	completer llm.Completer
	log       *logger.Logger
}

// NewGenerator creates a flowchart generator. A nil completer always yields
// fallback diagrams.
func NewGenerator(c llm.Completer, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{completer: c, log: log}
}

// Generate produces a diagram for the request.
func (g *Generator) Generate(ctx context.Context, prompt string) models.FlowchartArtifact {
	in := Classify(prompt)
	if in.Format == FormatText {
		return g.generateText(ctx, prompt, in)
	}
	return g.generateVisual(ctx, prompt, in)
}

// Regenerate replays the prompt that produced a previous artifact. Results
// are not cached, so the diagram may differ.
func (g *Generator) Regenerate(ctx context.Context, prev models.FlowchartArtifact) models.FlowchartArtifact {
	return g.Generate(ctx, prev.Prompt)
}

func (g *Generator) generateVisual(ctx context.Context, prompt string, in Intent) models.FlowchartArtifact {
	fallback := models.FlowchartArtifact{
		Kind:    models.KindDiagram,
		Program: FallbackDiagram(prompt),
		Prompt:  prompt,
		Source:  models.SourceFallback,
	}
	if g.completer == nil {
		return fallback
	}

	text, err := g.completer.Complete(ctx, visualPrompt(prompt, in.Kind))
	if err != nil {
		g.log.Warn("flowchart completion failed, using fallback", "error", err)
		return fallback
	}

	program, ok := ExtractProgram(text)
	if !ok {
		g.log.Warn("flowchart response has no diagram header, using fallback")
		return fallback
	}
	if err := Validate(program); err != nil {
		g.log.Warn("generated flowchart rejected, using fallback", "error", err)
		return fallback
	}

	return models.FlowchartArtifact{
		Kind:    models.KindDiagram,
		Program: program,
		Prompt:  prompt,
		Source:  models.SourceAI,
	}
}

func (g *Generator) generateText(ctx context.Context, prompt string, in Intent) models.FlowchartArtifact {
	fallback := models.FlowchartArtifact{
		Kind:    models.KindText,
		Program: FallbackText(in.Kind),
		Prompt:  prompt,
		Source:  models.SourceFallback,
	}
	if g.completer == nil {
		return fallback
	}

	text, err := g.completer.Complete(ctx, textPrompt(prompt, in.Kind))
	if err != nil {
		g.log.Warn("text flowchart completion failed, using fallback", "error", err)
		return fallback
	}
	art := llm.StripFences(text)
	if art == "" {
		return fallback
	}

	return models.FlowchartArtifact{
		Kind:    models.KindText,
		Program: art,
		Prompt:  prompt,
		Source:  models.SourceAI,
	}
}

var headerRe = regexp.MustCompile(`(?i)flowchart|graph`)

// ExtractProgram strips code fences and any prose before the first diagram
// keyword. ok is false when no keyword is present.
func ExtractProgram(text string) (string, bool) {
	text = llm.StripFences(text)
	loc := headerRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(text[loc[0]:]), true
}

// Export returns the diagram source for saving or handing to a renderer.
func Export(a models.FlowchartArtifact) string {
	if strings.HasSuffix(a.Program, "\n") {
		return a.Program
	}
	return a.Program + "\n"
}

func visualPrompt(request string, k Kind) string {
	if k == KindClassification {
		return fmt.Sprintf(classificationDiagramPrompt, request)
	}
	return fmt.Sprintf(processDiagramPrompt, request)
}

func textPrompt(request string, k Kind) string {
	if k == KindClassification {
		return fmt.Sprintf(classificationTextPrompt, request)
	}
	return fmt.Sprintf(processTextPrompt, request)
}

const classificationDiagramPrompt = `Task: generate a classification flowchart in Mermaid.js syntax for the concept below.

Visual rules:
- ((Circle)) for start and end nodes
- [Rectangle] for category and class names
- {Diamond} for decisions
- --> arrows for connections; <|-- or --> for hierarchy when splitting categories

Do not include any explanation. Return only clean Mermaid.js code starting with "flowchart TD".

Concept or topic:
"%s"`

const processDiagramPrompt = `Task: generate a clean, whiteboard-style flowchart in Mermaid.js syntax for the process or concept below.

Requirements:
- ((Circle)) for start and end points
- [Rectangle] for process steps
- {Diamond} for decision points
- --> arrows to connect steps
- Include all major steps and decisions with clear, concise labels
- Make sure every path leads to a conclusion

User input:
"%s"

Return ONLY the Mermaid.js code, starting with "flowchart TD" or "flowchart LR", using node ids A, B, C and so on. Example:
flowchart TD
    A((Start)) --> B[Step 1]
    B --> C{Decision?}
    C -->|Yes| D[Action 1]
    C -->|No| E[Action 2]
    D --> F((End))
    E --> F`

const classificationTextPrompt = `Task: draw a classification chart in plain text (ASCII) for the concept below.

Formatting rules:
- Boxes like [Category Name] or |Category Name|
- Arrows like --> or | to show connections
- Indentation and tree branches to show hierarchy
- Start with the main topic at the top, then categories, then subcategories, with examples where helpful

Concept or topic:
"%s"

Output ONLY the text chart, with no explanations.`

const processTextPrompt = `Task: draw a process flowchart in plain text (ASCII) for the input below.

Formatting rules:
- [Step Name] boxes for steps
- Arrows --> or a vertical | with v to show direction
- {Decision?} for decision points with Yes/No branches
- ((Start)) at the top and ((End)) at the bottom

User input:
"%s"

Output ONLY the text flowchart, with no explanations or markdown.`
