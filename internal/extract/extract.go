// Package extract turns uploaded file bytes into raw text, one strategy per
// supported format.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/studydeck/internal/logger"
	"github.com/TobiSchelling/studydeck/internal/normalize"
)

// Extractor produces raw text from a file's bytes.
type Extractor interface {
	Extract(data []byte, name, mediaType string) (string, error)
}

// Format identifies a supported input format.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDoc  Format = "doc"
	FormatDocx Format = "docx"
	FormatXls  Format = "xls"
	FormatXlsx Format = "xlsx"
)

// Extension returns the canonical file extension, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Label is the human name used in error messages.
func (f Format) Label() string {
	switch f {
	case FormatPDF:
		return "PDF"
	case FormatDoc, FormatDocx:
		return "Word"
	case FormatXls, FormatXlsx:
		return "Excel"
	default:
		return "text"
	}
}

// MediaType is the registered MIME type for the format.
func (f Format) MediaType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDoc:
		return "application/msword"
	case FormatDocx:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXls:
		return "application/vnd.ms-excel"
	case FormatXlsx:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain"
	}
}

// SupportedExtensions lists the extensions accepted at the upload boundary.
var SupportedExtensions = []string{".txt", ".pdf", ".doc", ".docx", ".xlsx", ".xls"}

// IsSupportedExtension reports whether ext (with dot, any case) is accepted.
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// Detect picks a format by file extension first, then declared media type.
// Unknown inputs return FormatText and false, meaning plain-text fallback.
func Detect(name, mediaType string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return FormatText, true
	case ".pdf":
		return FormatPDF, true
	case ".doc":
		return FormatDoc, true
	case ".docx":
		return FormatDocx, true
	case ".xls":
		return FormatXls, true
	case ".xlsx":
		return FormatXlsx, true
	}

	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.Contains(mt, "wordprocessingml"):
		return FormatDocx, true
	case mt == "application/pdf":
		return FormatPDF, true
	case strings.Contains(mt, "spreadsheetml"):
		return FormatXlsx, true
	case mt == "application/vnd.ms-excel" || strings.Contains(mt, "spreadsheet"):
		return FormatXls, true
	case mt == "application/msword":
		return FormatDoc, true
	case mt == "text/plain":
		return FormatText, true
	}
	return FormatText, false
}

// Registry dispatches to a format-keyed set of extractors.
type Registry struct {
	extractors map[Format]Extractor
	log        *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{extractors: make(map[Format]Extractor), log: log}
}

// DefaultRegistry wires every built-in extractor.
func DefaultRegistry(log *logger.Logger) *Registry {
	r := NewRegistry(log)
	r.Register(FormatText, PlainText{})
	r.Register(FormatDocx, Docx{})
	r.Register(FormatDoc, LegacyDoc{})
	excel := Excel{}
	r.Register(FormatXlsx, excel)
	r.Register(FormatXls, excel)
	r.Register(FormatPDF, NewPDF(r.log))
	return r
}

// Register sets the extractor for a format, replacing any previous one.
func (r *Registry) Register(f Format, e Extractor) {
	r.extractors[f] = e
}

// Extract detects the format and runs the matching extractor. Inputs with no
// recognizable format are decoded as plain text. Output is normalized, so it
// never carries CR characters; text that normalizes to nothing is empty.
func (r *Registry) Extract(data []byte, name, mediaType string) (string, error) {
	format, known := Detect(name, mediaType)
	if !known {
		r.log.Debug("unknown format, decoding as plain text", "name", name, "media_type", mediaType)
	}
	e, ok := r.extractors[format]
	if !ok {
		return "", fmt.Errorf("no extractor registered for %s", format)
	}
	text, err := e.Extract(data, name, mediaType)
	if err != nil {
		return "", err
	}
	text = normalize.Normalize(text)
	if text == "" {
		return "", fail(format, ReasonEmpty, nil)
	}
	return text, nil
}

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// isOLE reports whether data is an OLE compound file. Encrypted OOXML
// documents are stored in this container.
func isOLE(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}

var zipMagic = []byte("PK\x03\x04")

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}
