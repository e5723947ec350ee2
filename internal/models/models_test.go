package models

import "testing"

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", Easy, false},
		{"MEDIUM", Medium, false},
		{" Hard ", Hard, false},
		{"extreme", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDifficultyTitle(t *testing.T) {
	if Medium.Title() != "Medium" {
		t.Errorf("expected 'Medium', got %q", Medium.Title())
	}
	if Difficulty("").Title() != "" {
		t.Error("expected empty title for empty difficulty")
	}
}

func TestQuestionValidate(t *testing.T) {
	four := []string{"a", "b", "c", "d"}
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{"valid", Question{Options: four, CorrectAnswer: 3}, false},
		{"too few options", Question{Options: four[:2], CorrectAnswer: 0}, true},
		{"too many options", Question{Options: append(four, "e"), CorrectAnswer: 0}, true},
		{"index too high", Question{Options: four, CorrectAnswer: 4}, true},
		{"negative index", Question{Options: four, CorrectAnswer: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
