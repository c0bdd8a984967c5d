package synthesis

// PerDocumentAnalysis is the study content attributed to one document:
// the analyzer's extracted features combined with generated (or fallback)
// text, sliced to a bounded count per category.
type PerDocumentAnalysis struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	KeyTerms     []string `json:"key_terms"`
	Examples     []string `json:"examples"`
	Questions    []string `json:"questions"`
	StudyNotes   []string `json:"study_notes"`
	KeyTakeaways []string `json:"key_takeaways"`
	Annotations  []string `json:"annotations"`
}

// CombinedAnalysis is the order-preserving, duplicate-free union of every
// per-document analysis, plus the concatenated raw texts used by the
// annotation pass. Rebuilt on every synthesis run.
type CombinedAnalysis struct {
	KeyTerms       []string `json:"key_terms"`
	Examples       []string `json:"examples"`
	Questions      []string `json:"questions"`
	StudyNotes     []string `json:"study_notes"`
	KeyTakeaways   []string `json:"key_takeaways"`
	Annotations    []string `json:"annotations"`
	MarkedDocument string   `json:"-"`
}

// StudyGuideSection is one ordered section of the assembled study guide.
// One per document, preceded by a synthesized overview when more than one
// document is present.
type StudyGuideSection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Keywords    []string `json:"keywords"`
	Examples    []string `json:"examples"`
	Questions   []string `json:"questions"`
	Annotations []string `json:"annotations"`
	Summaries   []string `json:"summaries"`
}

// OverviewSectionID is the fixed ID of the synthesized overview section.
const OverviewSectionID = "overview"

// union appends items from each list in order, skipping duplicates.
func union(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// head returns at most n leading items of list.
func head(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
