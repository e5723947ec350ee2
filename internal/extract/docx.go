package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// Docx extracts raw paragraph text from Office Open XML documents.
type Docx struct{}

func (Docx) Extract(data []byte, _, _ string) (string, error) {
	if isOLE(data) {
		return "", fail(FormatDocx, ReasonPasswordProtected, errors.New("encrypted OOXML container"))
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fail(FormatDocx, ReasonCorrupted, fmt.Errorf("open zip: %w", err))
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fail(FormatDocx, ReasonCorrupted, fmt.Errorf("%s not found in archive", docxBody))
	}

	rc, err := body.Open()
	if err != nil {
		return "", fail(FormatDocx, ReasonCorrupted, fmt.Errorf("open %s: %w", docxBody, err))
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return "", fail(FormatDocx, ReasonCorrupted, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fail(FormatDocx, ReasonEmpty, nil)
	}
	return text, nil
}

// docxText walks WordprocessingML tokens. Only w:t runs carry visible text;
// tabs and breaks become whitespace, and each paragraph ends a line.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String(), nil
}
