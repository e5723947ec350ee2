package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/studydeck/internal/config"
	"github.com/TobiSchelling/studydeck/internal/logger"
)

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// Completer sends a prompt and returns generated text. Every generator
// depends on this and nothing else from the model side.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNoProvider is returned when no provider could be configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// ErrEmptyCompletion is returned when a provider answers with blank text.
var ErrEmptyCompletion = errors.New("empty completion")

// CompletionError wraps any transport or provider failure.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("completion failed: %v", e.Err)
	}
	return fmt.Sprintf("completion failed (%s): %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Gateway adapts a Provider to the Completer contract.
type Gateway struct {
	provider  Provider
	maxTokens int
	log       *logger.Logger
}

// NewGateway creates a gateway. A nil provider is allowed; every call then
// fails with ErrNoProvider so callers fall back.
func NewGateway(p Provider, maxTokens int, log *logger.Logger) *Gateway {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{provider: p, maxTokens: maxTokens, log: log}
}

// Available reports whether a provider is wired in.
func (g *Gateway) Available() bool {
	return g.provider != nil
}

// Complete sends the prompt to the provider.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	if g.provider == nil {
		return "", &CompletionError{Err: ErrNoProvider}
	}
	name := providerName(g.provider)

	text, err := g.provider.Generate(ctx, prompt, g.maxTokens)
	if err != nil {
		g.log.Warn("completion failed", "provider", name, "error", err)
		return "", &CompletionError{Provider: name, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		g.log.Warn("completion returned no text", "provider", name)
		return "", &CompletionError{Provider: name, Err: ErrEmptyCompletion}
	}
	return text, nil
}

func providerName(p Provider) string {
	switch p.(type) {
	case *OllamaProvider:
		return "ollama"
	case *OpenAIProvider:
		return "openai"
	case *GeminiProvider:
		return "gemini"
	case *VertexProvider:
		return "vertex"
	default:
		return fmt.Sprintf("%T", p)
	}
}

// CreateProvider creates an LLM provider based on configuration. The
// configured provider is tried first, then OpenAI as a fallback.
func CreateProvider(ctx context.Context, cfg config.Completion, log *logger.Logger) Provider {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		p := NewOllamaProvider(cfg.Model, cfg.OllamaURL)
		if p.IsConfigured() {
			log.Info("using ollama", "model", cfg.Model)
			return p
		}
		log.Warn("ollama not available, trying OpenAI fallback")
	case "gemini":
		p, err := NewGeminiProvider(ctx, cfg.GeminiModel, cfg.GeminiKeyEnv)
		if err == nil && p.IsConfigured() {
			log.Info("using gemini", "model", cfg.GeminiModel)
			return p
		}
		log.Warn("gemini not available, trying OpenAI fallback", "error", err)
	case "vertex":
		p, err := NewVertexProvider(ctx, cfg.VertexProject, cfg.VertexRegion, cfg.VertexModel)
		if err == nil && p.IsConfigured() {
			log.Info("using vertex ai", "model", cfg.VertexModel, "project", cfg.VertexProject)
			return p
		}
		log.Warn("vertex ai not available, trying OpenAI fallback", "error", err)
	}

	p := NewOpenAIProvider(cfg.OpenAIModel, cfg.APIKeyEnv)
	if p.IsConfigured() {
		log.Info("using openai", "model", cfg.OpenAIModel)
		return p
	}

	log.Warn("no LLM provider available; generators will use fallback output")
	return nil
}

// DefaultMaxInputChars caps the document text embedded in a prompt.
const DefaultMaxInputChars = 30000

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
