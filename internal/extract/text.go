package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainText decodes UTF-8 text. Invalid sequences are replaced rather than
// rejected so that mislabeled files still yield their readable parts.
type PlainText struct{}

func (PlainText) Extract(data []byte, _, _ string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\x00", "")
	if strings.TrimSpace(text) == "" {
		return "", fail(FormatText, ReasonEmpty, nil)
	}
	return text, nil
}
