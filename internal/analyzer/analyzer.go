package analyzer

import (
	"regexp"
	"strings"
)

// ExtractedFeatures holds the structural features pulled out of one
// document's raw text. Derived deterministically; recomputed per pass.
type ExtractedFeatures struct {
	KeyTerms []string `json:"key_terms"`
	Examples []string `json:"examples"`
}

const (
	maxKeyTerms = 10
	maxExamples = 8
	minTermLen  = 3
)

var (
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	boldRe       = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	underlineRe  = regexp.MustCompile(`__([^_\n]+)__`)
	italicRe     = regexp.MustCompile(`(?:^|[^*_])[*_]([^*_\n]{2,60})[*_](?:[^*_]|$)`)
	capRunRe     = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3}\b`)
	markupRe     = regexp.MustCompile("[#*_`~\\[\\]]")
	fencedCodeRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
	numberedRe   = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*•]\s+(.+)$`)
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true,
	"have": true, "this": true, "that": true, "with": true, "they": true,
	"from": true, "will": true, "what": true, "when": true, "where": true,
	"which": true, "their": true, "would": true, "there": true, "could": true,
	"about": true, "these": true, "those": true, "been": true, "were": true,
	"into": true, "more": true, "some": true, "such": true, "than": true,
	"then": true, "them": true, "also": true, "each": true, "other": true,
}

var exampleCues = []string{
	"case study", "like ", "similar to", "for example", "e.g.",
}

var stepMarkers = []string{"first", "next", "finally"}

// Analyze extracts key terms and examples from raw document text by pattern
// matching. Pure and total: unparsable input yields empty lists, never an
// error.
func Analyze(rawText string) ExtractedFeatures {
	return ExtractedFeatures{
		KeyTerms: extractKeyTerms(rawText),
		Examples: extractExamples(rawText),
	}
}

func extractKeyTerms(text string) []string {
	var candidates []string

	for _, m := range headingRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range boldRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range underlineRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range italicRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, capRunRe.FindAllString(text, -1)...)

	terms := make([]string, 0, maxKeyTerms)
	seen := make(map[string]bool)
	for _, c := range candidates {
		term := strings.TrimSpace(markupRe.ReplaceAllString(c, ""))
		if len(term) < minTermLen {
			continue
		}
		if stopWords[strings.ToLower(term)] {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, term)
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms
}

func extractExamples(text string) []string {
	var candidates []string

	for _, m := range fencedCodeRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range inlineCodeRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if containsCue(lower) || startsWithStepMarker(lower) {
			candidates = append(candidates, line)
		}
	}

	for _, m := range numberedRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	for _, m := range bulletRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}

	examples := make([]string, 0, maxExamples)
	seen := make(map[string]bool)
	for _, c := range candidates {
		ex := strings.TrimSpace(c)
		if ex == "" {
			continue
		}
		if seen[ex] {
			continue
		}
		seen[ex] = true
		examples = append(examples, ex)
		if len(examples) == maxExamples {
			break
		}
	}
	return examples
}

func containsCue(lower string) bool {
	for _, cue := range exampleCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

func startsWithStepMarker(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	for _, marker := range stepMarkers {
		if strings.HasPrefix(trimmed, marker+" ") || strings.HasPrefix(trimmed, marker+",") {
			return true
		}
	}
	return false
}
