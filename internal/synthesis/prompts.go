package synthesis

import (
	"fmt"
	"strings"

	"github.com/des-work/Arcano-Desk-sub000/internal/analyzer"
	"github.com/des-work/Arcano-Desk-sub000/internal/document"
	"github.com/des-work/Arcano-Desk-sub000/internal/gateway"
)

// promptTextBudget caps how much of each document's raw text goes into the
// combined prompt body.
const promptTextBudget = 1500

// buildCombinedBody concatenates every document's text with separators and
// per-document key-term/example listings into one prompt body shared by all
// category generations.
func buildCombinedBody(docs []document.Document, features []analyzer.ExtractedFeatures) string {
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(fmt.Sprintf("Document: %s\n", doc.Name))
		if len(features[i].KeyTerms) > 0 {
			sb.WriteString("Key terms: " + strings.Join(features[i].KeyTerms, ", ") + "\n")
		}
		if len(features[i].Examples) > 0 {
			sb.WriteString("Examples found: " + strings.Join(head(features[i].Examples, 4), "; ") + "\n")
		}
		sb.WriteString("\n")
		sb.WriteString(truncateText(doc.RawText, promptTextBudget))
	}
	return sb.String()
}

var categoryInstructions = map[gateway.Category]string{
	gateway.CategoryQuestions: "Write study questions that test understanding of the material below. " +
		"One question per line, no numbering.",
	gateway.CategoryNotes: "Write concise study notes for the material below. " +
		"One note per line, each a complete standalone statement.",
	gateway.CategorySummary: "List the key takeaways of the material below as a long-form summary. " +
		"One takeaway per line.",
	gateway.CategoryAnnotations: "Annotate the material below: point out which passages matter most " +
		"for studying and why. One annotation per line.",
	gateway.CategoryExamples: "List concrete examples, analogies, or exercises drawn from the " +
		"material below. One per line.",
	gateway.CategoryFlashcards: "Write flashcards for the material below in the form " +
		"'Front: ... | Back: ...'. One card per line.",
}

// buildCategoryPrompt wraps the combined body with the instruction for one
// content category.
func buildCategoryPrompt(cat gateway.Category, body string) string {
	return categoryInstructions[cat] + "\n\n" + body
}

// templatedFallback produces document-name-aware deterministic lines for a
// category whose processed response came back empty.
func templatedFallback(cat gateway.Category, docs []document.Document) []string {
	names := joinNames(docs)
	switch cat {
	case gateway.CategoryQuestions:
		return []string{
			fmt.Sprintf("What are the main topics covered in %s?", names),
			fmt.Sprintf("Which key terms in %s would you explain to someone else?", names),
			fmt.Sprintf("How do the ideas in %s connect to what you already know?", names),
		}
	case gateway.CategoryNotes:
		return []string{
			fmt.Sprintf("Review %s section by section and restate each part in your own words.", names),
			fmt.Sprintf("Collect the emphasized terms from %s into a single vocabulary list.", names),
		}
	case gateway.CategorySummary:
		return []string{
			fmt.Sprintf("%s covers the topics listed in its headings and key terms.", names),
			"Focus on concepts that appear in more than one place.",
		}
	case gateway.CategoryAnnotations:
		return []string{
			fmt.Sprintf("Headings and emphasized terms in %s mark the primary study anchors.", names),
			"Definitions and contrasts deserve a second read.",
		}
	case gateway.CategoryExamples:
		return []string{
			fmt.Sprintf("Work through any step-by-step passages in %s as practice exercises.", names),
			fmt.Sprintf("Turn the lists in %s into self-test prompts.", names),
		}
	default:
		return []string{fmt.Sprintf("Review %s carefully before your next study session.", names)}
	}
}

func joinNames(docs []document.Document) string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	switch len(names) {
	case 0:
		return "your documents"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
