package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var fenceRe = regexp.MustCompile("```[A-Za-z0-9_-]*[ \t]*\n?|\n?```")

// StripFences removes markdown code fences, with or without a language tag,
// wherever they appear.
func StripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// ParseJSONObject parses a model response as a JSON object. The second return
// is false when the response is malformed. Leading or trailing prose around a
// single object is tolerated.
func ParseJSONObject(text string) (map[string]any, bool) {
	text = StripFences(text)
	if text == "" {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// GetString returns m[key] when it is a non-blank string.
func GetString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

// GetInt returns m[key] when it holds an integral number, either as a JSON
// number or a numeric string. Fractional values yield the fallback.
func GetInt(m map[string]any, key string, fallback int) int {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n)
		}
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return fallback
}

// GetStringSlice returns the non-blank string elements of m[key]. The result
// is never nil.
func GetStringSlice(m map[string]any, key string) []string {
	out := []string{}
	arr, ok := m[key].([]any)
	if !ok {
		return out
	}
	for _, v := range arr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// GetList returns m[key] as a list.
func GetList(m map[string]any, key string) ([]any, bool) {
	arr, ok := m[key].([]any)
	return arr, ok
}

// Stringify renders a scalar JSON value as text. Objects and arrays are
// rejected.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return fmt.Sprint(t), true
	}
	return "", false
}
