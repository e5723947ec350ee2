package extract

import (
	"strings"
	"unicode"
)

const minRunLength = 4

// LegacyDoc makes a best-effort pass over binary Word 97-2003 files by
// collecting readable text runs. Files that are not OLE containers (RTF or
// text saved with a .doc name) are decoded as plain text.
type LegacyDoc struct{}

func (LegacyDoc) Extract(data []byte, name, mediaType string) (string, error) {
	if !isOLE(data) {
		text, err := PlainText{}.Extract(data, name, mediaType)
		if err != nil {
			return "", fail(FormatDoc, ReasonEmpty, err)
		}
		return text, nil
	}

	narrow := textRuns(data, 1)
	wide := textRuns(data, 2)
	best := narrow
	if letterCount(wide) > letterCount(narrow) {
		best = wide
	}
	if letterCount(best) == 0 {
		return "", fail(FormatDoc, ReasonLegacyFormat, nil)
	}
	return strings.Join(best, "\n"), nil
}

// textRuns scans for printable ASCII runs. width 2 reads UTF-16LE, where
// every other byte must be zero.
func textRuns(data []byte, width int) []string {
	var runs []string
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if len(s) >= minRunLength && hasWord(s) {
			runs = append(runs, s)
		}
		cur.Reset()
	}

	for i := 0; i+width-1 < len(data); i += width {
		b := data[i]
		if width == 2 && data[i+1] != 0 {
			flush()
			continue
		}
		switch {
		case b == '\r' || b == '\n':
			flush()
		case b == '\t' || (b >= 0x20 && b < 0x7F):
			cur.WriteByte(b)
		default:
			flush()
		}
	}
	flush()
	return runs
}

// hasWord filters out binary noise that happens to be printable.
func hasWord(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if letters >= 3 {
				return true
			}
		} else {
			letters = 0
		}
	}
	return false
}

func letterCount(runs []string) int {
	n := 0
	for _, r := range runs {
		for _, c := range r {
			if unicode.IsLetter(c) {
				n++
			}
		}
	}
	return n
}
