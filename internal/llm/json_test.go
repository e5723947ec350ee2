package llm

import "testing"

func TestParseJSONObjectPlain(t *testing.T) {
	result, ok := ParseJSONObject(`{"key": "value", "num": 42}`)
	if !ok {
		t.Fatal("expected valid object")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONObjectFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"json fence", "```json\n{\"key\": \"value\"}\n```"},
		{"plain fence", "```\n{\"key\": \"value\"}\n```"},
		{"whitespace", "  \n  {\"key\": \"value\"}  \n  "},
		{"prose around", "Sure! Here it is:\n{\"key\": \"value\"}\nHope this helps."},
		{"fence after prose", "Here you go\n```json\n{\"key\": \"value\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := ParseJSONObject(tt.in)
			if !ok {
				t.Fatalf("expected ok for %q", tt.in)
			}
			if obj["key"] != "value" {
				t.Errorf("expected key='value', got %v", obj["key"])
			}
		})
	}
}

func TestParseJSONObjectMalformed(t *testing.T) {
	for _, in := range []string{"", "not json at all", "[1,2,3]", "{\"key\": ", "null"} {
		if _, ok := ParseJSONObject(in); ok {
			t.Errorf("expected malformed for %q", in)
		}
	}
}

func TestStripFences(t *testing.T) {
	in := "```mermaid\nflowchart TD\nA-->B\n```"
	if got := StripFences(in); got != "flowchart TD\nA-->B" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestFieldAccessors(t *testing.T) {
	m := map[string]any{
		"title":   "  A Title ",
		"blank":   "   ",
		"count":   float64(3),
		"frac":    2.5,
		"numstr":  "2",
		"list":    []any{"a", 1.0, "", "b"},
		"notlist": "x",
	}

	if got := GetString(m, "title", "fb"); got != "A Title" {
		t.Errorf("expected trimmed title, got %q", got)
	}
	if got := GetString(m, "blank", "fb"); got != "fb" {
		t.Errorf("expected fallback for blank, got %q", got)
	}
	if got := GetString(m, "count", "fb"); got != "fb" {
		t.Errorf("expected fallback for number, got %q", got)
	}
	if got := GetInt(m, "count", -1); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := GetInt(m, "frac", -1); got != -1 {
		t.Errorf("expected fallback for fractional, got %d", got)
	}
	if got := GetInt(m, "numstr", -1); got != 2 {
		t.Errorf("expected 2 from numeric string, got %d", got)
	}
	if got := GetInt(m, "missing", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}

	list := GetStringSlice(m, "list")
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Errorf("unexpected list %v", list)
	}
	if got := GetStringSlice(m, "notlist"); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestStringify(t *testing.T) {
	if s, ok := Stringify(1.5); !ok || s != "1.5" {
		t.Errorf("expected '1.5', got %q", s)
	}
	if _, ok := Stringify(map[string]any{}); ok {
		t.Error("expected objects to be rejected")
	}
}
