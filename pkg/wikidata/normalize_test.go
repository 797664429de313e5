package wikidata

import "testing"

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain label",
			input: "Paris",
			want:  "Paris",
		},
		{
			name:  "ordinal prefix",
			input: "12. Paris",
			want:  "Paris",
		},
		{
			name:  "footnote dagger",
			input: "1. Paris‡",
			want:  "Paris",
		},
		{
			name:  "bracketed reference",
			input: "London[3]",
			want:  "London",
		},
		{
			name:  "surrounding whitespace",
			input: "  New York City \t",
			want:  "New York City",
		},
		{
			name:  "inner whitespace collapsed",
			input: "New   York",
			want:  "New York",
		},
		{
			name:  "multiple footnote markers",
			input: "Berlin*†",
			want:  "Berlin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLabel(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected normalized label: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLabel_Idempotent(t *testing.T) {
	inputs := []string{"1. Paris‡", "London[3]", " 42.  Sofia*", "Tokyo"}
	for _, in := range inputs {
		once := NormalizeLabel(in)
		twice := NormalizeLabel(once)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeLabels_DropsEmpty(t *testing.T) {
	got := NormalizeLabels([]string{"Paris", "  ", "‡", "London"})
	if len(got) != 2 || got[0] != "Paris" || got[1] != "London" {
		t.Fatalf("unexpected labels: %v", got)
	}
}
