// Package pipeline runs the study workflow: ingest an upload, summarize it
// and draft questions, then store the document and, later, graded tests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/studydeck/internal/config"
	"github.com/TobiSchelling/studydeck/internal/extract"
	"github.com/TobiSchelling/studydeck/internal/ingest"
	"github.com/TobiSchelling/studydeck/internal/llm"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/quiz"
	"github.com/TobiSchelling/studydeck/internal/scoring"
	"github.com/TobiSchelling/studydeck/internal/summarize"
)

// ErrDocumentNotFound is returned when a test refers to a document the user
// does not own.
var ErrDocumentNotFound = errors.New("document not found")

// InvalidSubmissionError reports a submitted test that cannot be graded.
type InvalidSubmissionError struct {
	Reason string
}

func (e *InvalidSubmissionError) Error() string {
	return "invalid test submission: " + e.Reason
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of processing one upload.
type Result struct {
	Document       *models.Document
	Questions      []models.Question
	QuestionSource models.Source
	Steps          []StepResult
}

// Store is the persistence the pipeline writes to.
type Store interface {
	SaveDocument(doc *models.Document) error
	GetDocument(userID, id string) (*models.Document, error)
	SaveTestResult(r *models.TestResult) error
}

// Pipeline orchestrates ingestion, generation and grading.
type Pipeline struct {
	ingester  *ingest.Pipeline
	summaries *summarize.Generator
	questions *quiz.Generator
	store     Store
	log       *logger.Logger
	now       func() time.Time
}

// New creates a pipeline from its parts. A nil store skips persistence.
func New(ingester *ingest.Pipeline, summaries *summarize.Generator, questions *quiz.Generator, store Store, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		ingester:  ingester,
		summaries: summaries,
		questions: questions,
		store:     store,
		log:       log,
		now:       time.Now,
	}
}

// FromConfig wires a pipeline against the configured completion provider.
func FromConfig(ctx context.Context, cfg *config.Config, store Store, log *logger.Logger) (*Pipeline, *llm.Gateway) {
	if log == nil {
		log = logger.Nop()
	}
	comp := cfg.Completion
	gateway := llm.NewGateway(llm.CreateProvider(ctx, comp, log), comp.MaxTokens, log)

	ingester := ingest.NewPipeline(extract.DefaultRegistry(log), cfg.MaxUploadBytes(),
		cfg.Ingestion.MinContentChars, log)
	return New(
		ingester,
		summarize.NewGenerator(gateway, comp.MaxInputChars, log),
		quiz.NewGenerator(gateway, comp.MaxInputChars, log),
		store,
		log,
	), gateway
}

// Ingester exposes the ingestion stage on its own.
func (p *Pipeline) Ingester() *ingest.Pipeline {
	return p.ingester
}

// Process ingests an upload, then summarizes it and, when d is set, drafts
// a question set in parallel. The document is saved for userID when the
// pipeline has a store. Only ingestion and storage can fail.
func (p *Pipeline) Process(ctx context.Context, userID string, up ingest.Upload, d models.Difficulty) (*Result, error) {
	r := &Result{}

	p.log.Debug("step 1/3: ingesting", "file", up.Name)
	content, err := p.ingester.Ingest(ctx, up)
	r.Steps = append(r.Steps, StepResult{Name: "Ingest", Err: err})
	if err != nil {
		return r, err
	}
	r.Steps[0].Summary = fmt.Sprintf("Extracted %d characters from %s", len(content), up.Name)

	mediaType := up.MediaType
	if mediaType == "" {
		f, _ := extract.Detect(up.Name, "")
		mediaType = f.MediaType()
	}
	doc := &models.Document{
		UserID:     userID,
		Name:       up.Name,
		MediaType:  mediaType,
		Size:       int64(len(up.Data)),
		UploadedAt: p.now().UTC(),
		Content:    content,
	}
	r.Document = doc

	p.log.Debug("step 2/3: generating", "file", up.Name)
	var summary models.DocumentSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = p.summaries.Summarize(gctx, content, up.Name)
		return nil
	})
	if d != "" {
		g.Go(func() error {
			count := quiz.QuestionCount(d, content)
			r.Questions, r.QuestionSource = p.questions.Generate(gctx, content, d, count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r, err
	}
	doc.Summary = &summary
	r.Steps = append(r.Steps, StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("%q (%s)", summary.Title, summary.Source),
	})
	if d != "" {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Questions",
			Summary: fmt.Sprintf("%d %s questions (%s)", len(r.Questions), d, r.QuestionSource),
		})
	}

	p.log.Debug("step 3/3: saving", "file", up.Name)
	if p.store == nil {
		r.Steps = append(r.Steps, StepResult{Name: "Save", Summary: "Skipped, no store configured"})
		return r, nil
	}
	if err := p.store.SaveDocument(doc); err != nil {
		err = fmt.Errorf("saving document: %w", err)
		r.Steps = append(r.Steps, StepResult{Name: "Save", Err: err})
		return r, err
	}
	r.Steps = append(r.Steps, StepResult{Name: "Save", Summary: fmt.Sprintf("Saved as %s", doc.ID)})
	p.log.Info("processed document", "file", up.Name, "id", doc.ID, "summary_source", summary.Source)
	return r, nil
}

// Test is a freshly generated test, not yet taken.
type Test struct {
	Config    models.TestConfig `json:"testConfig"`
	Questions []models.Question `json:"questions"`
	Source    models.Source     `json:"source"`
}

// GenerateTest drafts a test on doc at difficulty d. The question count
// comes from the document length and the difficulty.
func (p *Pipeline) GenerateTest(ctx context.Context, doc *models.Document, d models.Difficulty) Test {
	count := quiz.QuestionCount(d, doc.Content)
	questions, source := p.questions.Generate(ctx, doc.Content, d, count)
	return Test{
		Config: models.TestConfig{
			Difficulty:    d,
			DocumentID:    doc.ID,
			QuestionCount: len(questions),
		},
		Questions: questions,
		Source:    source,
	}
}

// GenerateTestFor loads one of the user's documents and drafts a test on it.
func (p *Pipeline) GenerateTestFor(ctx context.Context, userID, documentID string, d models.Difficulty) (Test, error) {
	doc, err := p.document(userID, documentID)
	if err != nil {
		return Test{}, err
	}
	return p.GenerateTest(ctx, doc, d), nil
}

// Submission is a completed test as handed in by the user.
type Submission struct {
	Config    models.TestConfig
	Questions []models.Question
	Answers   []*int
	StartedAt time.Time
}

// SubmitTest grades a submission and stores the result for userID. The
// difficulty must be known and every question well formed; a start time in
// the future counts as no time spent.
func (p *Pipeline) SubmitTest(ctx context.Context, userID string, s Submission) (*models.TestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.store != nil {
		if _, err := p.document(userID, s.Config.DocumentID); err != nil {
			return nil, err
		}
	}
	if err := validateSubmission(&s); err != nil {
		return nil, err
	}

	completed := p.now()
	started := s.StartedAt
	if started.IsZero() || started.After(completed) {
		started = completed
	}
	s.Config.QuestionCount = len(s.Questions)
	result := scoring.BuildResult(userID, s.Config, s.Questions, s.Answers, started, completed)

	if p.store != nil {
		if err := p.store.SaveTestResult(result); err != nil {
			return nil, fmt.Errorf("saving test result: %w", err)
		}
	}
	p.log.Info("graded test", "document", result.DocumentID, "score", result.Score,
		"correct", result.CorrectAnswers, "unanswered", result.Unanswered)
	return result, nil
}

func validateSubmission(s *Submission) error {
	d, err := models.ParseDifficulty(string(s.Config.Difficulty))
	if err != nil {
		return &InvalidSubmissionError{Reason: err.Error()}
	}
	s.Config.Difficulty = d

	if len(s.Questions) == 0 {
		return &InvalidSubmissionError{Reason: "no questions"}
	}
	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return &InvalidSubmissionError{Reason: fmt.Sprintf("question %d: %v", i+1, err)}
		}
	}
	return nil
}

func (p *Pipeline) document(userID, id string) (*models.Document, error) {
	if p.store == nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := p.store.GetDocument(userID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}
