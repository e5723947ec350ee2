// Package normalize canonicalizes extracted document text.
package normalize

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, collapses horizontal whitespace, trims every
// line and drops empty ones. It never fails and is idempotent.
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
