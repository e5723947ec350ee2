package flowchart

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError describes why a generated program was rejected. Line is
// the 1-based index among non-empty lines, or 0 for whole-program rules.
type ValidationError struct {
	Line int
	Rule string
}

func (e *ValidationError) Error() string {
	if e.Line == 0 {
		return "invalid flowchart: " + e.Rule
	}
	return fmt.Sprintf("invalid flowchart: line %d: %s", e.Line, e.Rule)
}

// Shape tokens that renderers reject when nested inside each other.
var nestingCollisions = []string{
	"[((", "))]",
	"{[", "]}",
	"[{", "}]",
	"(([", "]))",
	"(({", "}))",
}

// Artifacts of truncated or garbled connectors.
var malformedConnectors = []*regexp.Regexp{
	regexp.MustCompile(`---+\^`),
	regexp.MustCompile(`===+\^`),
	regexp.MustCompile(`\^\s*$`),
	regexp.MustCompile(`\s---+\s`),
	regexp.MustCompile(`\s===+\s`),
	regexp.MustCompile(`\|\s*---`),
	regexp.MustCompile(`---\s*\|`),
}

var connectors = []string{"-->", "---", "-.->", "==>", "<--", "<|--"}

var pairs = []struct {
	open, close string
	name        string
}{
	{"[", "]", "square brackets"},
	{"{", "}", "curly braces"},
	{"(", ")", "parentheses"},
}

// Validate performs a lexical check of a Mermaid flowchart program. It is a
// heuristic: balanced programs with at least one connector pass even when
// they are semantically odd.
func Validate(program string) error {
	var lines []string
	for _, l := range strings.Split(program, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return &ValidationError{Rule: "needs a header and at least one statement"}
	}

	header := strings.ToLower(lines[0])
	if !strings.HasPrefix(header, "flowchart") && !strings.HasPrefix(header, "graph") {
		return &ValidationError{Line: 1, Rule: "header must start with flowchart or graph"}
	}

	for i, line := range lines[1:] {
		if strings.HasPrefix(line, "%%") {
			continue
		}
		if rule := checkLine(line); rule != "" {
			return &ValidationError{Line: i + 2, Rule: rule}
		}
	}

	for _, line := range lines {
		for _, c := range connectors {
			if strings.Contains(line, c) {
				return nil
			}
		}
	}
	return &ValidationError{Rule: "no connectors between nodes"}
}

func checkLine(line string) string {
	for _, n := range nestingCollisions {
		if strings.Contains(line, n) {
			return fmt.Sprintf("invalid shape nesting %q", n)
		}
	}
	for _, re := range malformedConnectors {
		if re.MatchString(line) {
			return fmt.Sprintf("malformed connector matching %s", re)
		}
	}
	for _, p := range pairs {
		if strings.Count(line, p.open) != strings.Count(line, p.close) {
			return "unbalanced " + p.name
		}
	}
	switch {
	case strings.Contains(line, "[") && !strings.Contains(line, "]"):
		return "unclosed node label"
	case strings.Contains(line, "{") && !strings.Contains(line, "}"):
		return "unclosed decision label"
	case strings.Contains(line, "((") && !strings.Contains(line, "))"):
		return "unclosed terminal label"
	}
	return ""
}
