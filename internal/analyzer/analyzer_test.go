package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

const sampleText = `# Machine Learning Basics

**Supervised learning** trains a model on labeled data. For example, a spam
filter learns from messages already marked as spam.

## Neural Networks

A neural network is like a web of simple functions. First collect training
data, next pick a loss function, finally run gradient descent.

1. Gather examples
2. Split into train and test sets

` + "```\nmodel.fit(x, y)\n```"

func TestAnalyze_Deterministic(t *testing.T) {
	first := Analyze(sampleText)
	for i := 0; i < 5; i++ {
		again := Analyze(sampleText)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected identical features on repeated calls:\n%v\n%v", first, again)
		}
	}
}

func TestAnalyze_KeyTerms(t *testing.T) {
	features := Analyze(sampleText)

	if len(features.KeyTerms) == 0 {
		t.Fatal("expected key terms from headings and bold spans")
	}
	if len(features.KeyTerms) > 10 {
		t.Errorf("expected at most 10 key terms, got %d", len(features.KeyTerms))
	}

	wantFirst := "Machine Learning Basics"
	if features.KeyTerms[0] != wantFirst {
		t.Errorf("expected first term %q (heading order), got %q", wantFirst, features.KeyTerms[0])
	}

	found := false
	for _, term := range features.KeyTerms {
		if term == "Supervised learning" {
			found = true
		}
		if strings.ContainsAny(term, "#*_") {
			t.Errorf("term %q still contains markup", term)
		}
	}
	if !found {
		t.Errorf("expected bold span as key term, got %v", features.KeyTerms)
	}
}

func TestAnalyze_KeyTermsFiltered(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"stop word heading", "# The\n\nplain text"},
		{"too short", "# AB\n\nplain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Analyze(tt.text)
			for _, term := range features.KeyTerms {
				if strings.EqualFold(term, "the") || len(term) <= 2 {
					t.Errorf("expected %q filtered out", term)
				}
			}
		})
	}
}

func TestAnalyze_Examples(t *testing.T) {
	features := Analyze(sampleText)

	if len(features.Examples) == 0 {
		t.Fatal("expected examples from code, cue phrases, and lists")
	}
	if len(features.Examples) > 8 {
		t.Errorf("expected at most 8 examples, got %d", len(features.Examples))
	}

	joined := strings.Join(features.Examples, "\n")
	if !strings.Contains(joined, "model.fit(x, y)") {
		t.Errorf("expected fenced code as example, got %v", features.Examples)
	}
	if !strings.Contains(joined, "spam") {
		t.Errorf("expected 'for example' sentence as example, got %v", features.Examples)
	}
}

func TestAnalyze_NoDuplicates(t *testing.T) {
	text := "# Topic\n# Topic\n\n**Topic** again, e.g. a repeat.\ne.g. a repeat."
	features := Analyze(text)

	seen := map[string]bool{}
	for _, term := range features.KeyTerms {
		key := strings.ToLower(term)
		if seen[key] {
			t.Errorf("duplicate key term %q", term)
		}
		seen[key] = true
	}
	seen = map[string]bool{}
	for _, ex := range features.Examples {
		if seen[ex] {
			t.Errorf("duplicate example %q", ex)
		}
		seen[ex] = true
	}
}

func TestAnalyze_FeaturelessInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\n\t  "},
		{"plain lowercase prose", "nothing here matches any pattern at all because it stays lowercase and flat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := Analyze(tt.text)
			if len(features.KeyTerms) != 0 {
				t.Errorf("expected no key terms, got %v", features.KeyTerms)
			}
			if len(features.Examples) != 0 {
				t.Errorf("expected no examples, got %v", features.Examples)
			}
		})
	}
}

func TestAnalyze_TruncatesToBounds(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("# Heading Number ")
		sb.WriteString(strings.Repeat("Z", i+1))
		sb.WriteString("\n\n")
		sb.WriteString("1. item ")
		sb.WriteString(strings.Repeat("y", i+1))
		sb.WriteString("\n")
	}
	features := Analyze(sb.String())

	if len(features.KeyTerms) != 10 {
		t.Errorf("expected exactly 10 key terms, got %d", len(features.KeyTerms))
	}
	if len(features.Examples) != 8 {
		t.Errorf("expected exactly 8 examples, got %d", len(features.Examples))
	}
}
