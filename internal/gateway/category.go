package gateway

// Category identifies the kind of study content a generation request is
// asking for. Fallback text is selected by category, not by scanning the
// prompt.
type Category string

const (
	CategorySummary     Category = "summary"
	CategoryQuestions   Category = "questions"
	CategoryExamples    Category = "examples"
	CategoryFlashcards  Category = "flashcards"
	CategoryNotes       Category = "notes"
	CategoryAnnotations Category = "annotations"
)

var fallbackText = map[Category]string{
	CategorySummary: "Key Takeaways:\n" +
		"Review the main headings and emphasized terms in your documents.\n" +
		"Focus on definitions and concepts that appear more than once.\n" +
		"Summarize each section in your own words to check understanding.",
	CategoryQuestions: "What are the main topics covered in these documents?\n" +
		"How do the key concepts relate to each other?\n" +
		"What examples illustrate the most important ideas?\n" +
		"Which terms would you need to define for someone else?",
	CategoryExamples: "Look for worked examples and case studies in the source material.\n" +
		"Step-by-step procedures make good practice exercises.\n" +
		"Code snippets and numbered lists often demonstrate core concepts.",
	CategoryFlashcards: "Front: Key term from the document | Back: Its definition in context\n" +
		"Front: Main concept | Back: One example that illustrates it\n" +
		"Front: Section heading | Back: Two-sentence summary of that section",
	CategoryAnnotations: "Mark headings and emphasized terms as primary study anchors.\n" +
		"Highlight sentences that define or contrast concepts.\n" +
		"Note any lists or sequences worth memorizing in order.",
	CategoryNotes: "Study Notes:\n" +
		"Break the material into sections and review them in order.\n" +
		"Write down the key terms and connect them with short explanations.\n" +
		"Revisit anything that was unclear after a first full pass.",
}

// FallbackText returns deterministic study content for a category when the
// inference service is unavailable or returned unusable output. Unknown
// categories get the generic notes fallback.
func FallbackText(cat Category) string {
	if text, ok := fallbackText[cat]; ok {
		return text
	}
	return fallbackText[CategoryNotes]
}
