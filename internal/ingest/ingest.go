// Package ingest turns an uploaded file into normalized document text.
package ingest

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/studydeck/internal/extract"
	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/normalize"
)

const (
	DefaultMaxBytes = 25 << 20
	DefaultMinChars = 50
)

// Upload is a file as received at the upload boundary.
type Upload struct {
	Name      string
	MediaType string
	Data      []byte
}

// TooLargeError is returned before extraction when the upload exceeds the
// size limit.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file is too large (%.1f MB); the maximum upload size is %d MB",
		float64(e.Size)/(1<<20), e.Max>>20)
}

// UnsupportedFormatError is returned for extensions outside the accepted set.
type UnsupportedFormatError struct {
	Name      string
	MediaType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q; upload a PDF, Word (.doc, .docx), Excel (.xls, .xlsx) or text file",
		filepath.Ext(e.Name))
}

// TooShortError is returned when normalized content is below the minimum
// length needed for summaries and questions.
type TooShortError struct {
	Length int
	Min    int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("document content is too short (%d characters, need at least %d)", e.Length, e.Min)
}

// Pipeline validates, extracts and normalizes uploads. It holds no state
// between calls.
type Pipeline struct {
	registry *extract.Registry
	maxBytes int64
	minChars int
	log      *logger.Logger
}

// NewPipeline creates an ingestion pipeline. Zero limits use the defaults.
func NewPipeline(registry *extract.Registry, maxBytes int64, minChars int, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	if registry == nil {
		registry = extract.DefaultRegistry(log)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Pipeline{registry: registry, maxBytes: maxBytes, minChars: minChars, log: log}
}

// Ingest returns the normalized text content of an upload. Extraction
// failures are returned unchanged so callers can show their message.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	size := int64(len(up.Data))
	if size > p.maxBytes {
		return "", &TooLargeError{Size: size, Max: p.maxBytes}
	}

	ext := filepath.Ext(up.Name)
	if ext != "" && !extract.IsSupportedExtension(ext) {
		return "", &UnsupportedFormatError{Name: up.Name, MediaType: up.MediaType}
	}

	raw, err := p.registry.Extract(up.Data, up.Name, up.MediaType)
	if err != nil {
		p.log.Info("extraction failed", "file", up.Name, "error", err)
		return "", err
	}

	content := normalize.Normalize(raw)
	if n := utf8.RuneCountInString(content); n < p.minChars {
		return "", &TooShortError{Length: n, Min: p.minChars}
	}

	p.log.Debug("ingested document", "file", up.Name, "chars", len(content))
	return content, nil
}

// IngestFile reads a file from disk and ingests it, inferring the media type
// from its extension.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Upload, string, error) {
	up, err := p.ReadFile(path)
	if err != nil {
		return Upload{}, "", err
	}
	content, err := p.Ingest(ctx, up)
	return up, content, err
}

// ReadFile loads a file from disk as an Upload without extracting it.
func (p *Pipeline) ReadFile(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.maxBytes {
		return Upload{}, &TooLargeError{Size: info.Size(), Max: p.maxBytes}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("read %s: %w", path, err)
	}

	return Upload{
		Name:      filepath.Base(path),
		MediaType: mediaTypeFor(path),
		Data:      data,
	}, nil
}

func mediaTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if f, ok := extract.Detect(path, ""); ok {
		return f.MediaType()
	}
	return "application/octet-stream"
}
