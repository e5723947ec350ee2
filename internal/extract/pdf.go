package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/TobiSchelling/studydeck/internal/logger"
)

// PDF extracts text page by page. Each page is read with the ledongthuc
// text layer first and the pdfcpu content stream second; a page that yields
// nothing from either is logged and skipped.
type PDF struct {
	log *logger.Logger
}

func NewPDF(log *logger.Logger) *PDF {
	if log == nil {
		log = logger.Nop()
	}
	return &PDF{log: log}
}

// pdfDoc holds whichever parsers managed to open the file.
type pdfDoc struct {
	text  *pdf.Reader
	cpu   *model.Context
	pages int
}

func (p *PDF) Extract(data []byte, name, _ string) (string, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return "", fail(FormatPDF, ReasonCorrupted, errors.New("missing %PDF header"))
	}

	doc, err := p.open(data)
	if err != nil {
		return "", err
	}

	var pages []string
	for n := 1; n <= doc.pages; n++ {
		text, err := p.pageText(doc, n)
		if err != nil {
			p.log.Warn("skipping unreadable PDF page", "file", name, "page", n, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return "", fail(FormatPDF, ReasonScanned, nil)
	}
	return strings.Join(pages, "\n\n"), nil
}

func (p *PDF) open(data []byte) (*pdfDoc, error) {
	doc := &pdfDoc{}

	r, pages, textErr := openTextReader(data)
	if errors.Is(textErr, pdf.ErrInvalidPassword) {
		return nil, fail(FormatPDF, ReasonPasswordProtected, textErr)
	}
	if textErr == nil {
		doc.text = r
		doc.pages = pages
	}

	ctx, cpuErr := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if cpuErr == nil {
		doc.cpu = ctx
		if ctx.PageCount > doc.pages {
			doc.pages = ctx.PageCount
		}
	}

	if doc.text == nil && doc.cpu == nil {
		if looksEncrypted(cpuErr) {
			return nil, fail(FormatPDF, ReasonPasswordProtected, cpuErr)
		}
		return nil, fail(FormatPDF, ReasonCorrupted, fmt.Errorf("text layer: %v; content streams: %w", textErr, cpuErr))
	}
	if textErr != nil {
		p.log.Debug("text layer unavailable, using content streams only", "error", textErr)
	}
	return doc, nil
}

func openTextReader(data []byte) (r *pdf.Reader, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, pages, err = nil, 0, fmt.Errorf("pdf reader: %v", rec)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}
	return r, r.NumPage(), nil
}

func looksEncrypted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

func (p *PDF) pageText(doc *pdfDoc, n int) (string, error) {
	var firstErr error
	if doc.text != nil {
		text, err := layerText(doc.text, n)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		firstErr = err
	}
	if doc.cpu != nil && n <= doc.cpu.PageCount {
		text, err := streamText(doc.cpu, n)
		if err == nil {
			return text, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

func layerText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", n)
	}
	return page.GetPlainText(nil)
}

func streamText(ctx *model.Context, n int) (string, error) {
	rd, err := pdfcpu.ExtractPageContent(ctx, n)
	if err != nil {
		return "", fmt.Errorf("page %d content: %w", n, err)
	}
	if rd == nil {
		return "", nil
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("page %d content: %w", n, err)
	}
	return textFromStream(data), nil
}

var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromStream pulls string operands of the text-showing operators out of a
// decoded content stream.
func textFromStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String())
}

func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}
