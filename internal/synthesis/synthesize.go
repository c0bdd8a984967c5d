package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/des-work/Arcano-Desk-sub000/internal/analyzer"
	"github.com/des-work/Arcano-Desk-sub000/internal/document"
	"github.com/des-work/Arcano-Desk-sub000/internal/gateway"
	"github.com/des-work/Arcano-Desk-sub000/internal/metrics"
)

const (
	// linesPerDocument is the index window size when slicing category
	// lines across documents.
	linesPerDocument = 2

	// contentPreviewChars caps a section's raw content preview.
	contentPreviewChars = 800

	// generation budgets per category, in tokens.
	categoryMaxTokens  = 400
	flashcardMaxTokens = 300

	// overview section slice bounds.
	overviewNotes       = 20
	overviewKeywords    = 10
	overviewExamples    = 8
	overviewQuestions   = 8
	overviewTakeaways   = 8
	overviewAnnotations = 8
)

// fanoutCategories are the five content categories generated per run,
// in result-assembly order.
var fanoutCategories = []gateway.Category{
	gateway.CategoryQuestions,
	gateway.CategoryNotes,
	gateway.CategorySummary,
	gateway.CategoryAnnotations,
	gateway.CategoryExamples,
}

// Generator dispatches one generation request. *gateway.Client implements
// it; tests substitute their own.
type Generator interface {
	IsConnected() bool
	Generate(ctx context.Context, req gateway.GenerateRequest) (string, error)
}

// ErrNoDocuments is returned when a synthesis run is requested with an
// empty document set.
var ErrNoDocuments = errors.New("synthesis: no documents to synthesize")

// Synthesizer turns a document set into a combined analysis and an ordered
// study guide, caching results by document-set fingerprint.
type Synthesizer struct {
	gen   Generator
	cache *resultCache
	log   *slog.Logger
}

func NewSynthesizer(gen Generator, resultCacheSize int, log *slog.Logger) *Synthesizer {
	return &Synthesizer{
		gen:   gen,
		cache: newResultCache(resultCacheSize),
		log:   log,
	}
}

// Synthesize runs the full pipeline for a document set. Every lower-level
// failure degrades to deterministic fallback content; only an unusable
// input or a cancelled context surfaces as an error, and nothing partial is
// cached in that case.
func (s *Synthesizer) Synthesize(ctx context.Context, docs []document.Document) (CombinedAnalysis, []StudyGuideSection, error) {
	return s.synthesize(ctx, docs, nil)
}

// progressFunc receives phase transitions of one synthesis run.
type progressFunc func(status JobStatus)

func (s *Synthesizer) synthesize(ctx context.Context, docs []document.Document, progress progressFunc) (CombinedAnalysis, []StudyGuideSection, error) {
	if len(docs) == 0 {
		return CombinedAnalysis{}, nil, ErrNoDocuments
	}
	report := func(status JobStatus) {
		if progress != nil {
			progress(status)
		}
	}

	fingerprint := document.Fingerprint(docs)
	if combined, sections, ok := s.cache.Get(fingerprint); ok {
		s.log.Info("synthesis cache hit", "fingerprint_docs", len(docs))
		metrics.SynthesisRunsTotal.WithLabelValues("cached").Inc()
		report(StatusComplete)
		return combined, sections, nil
	}

	report(StatusAnalyzing)
	features := make([]analyzer.ExtractedFeatures, len(docs))
	for i, doc := range docs {
		features[i] = analyzer.Analyze(doc.RawText)
	}

	body := buildCombinedBody(docs, features)

	categoryLines, aiUsed := s.generateCategories(ctx, body, report)
	if err := ctx.Err(); err != nil {
		metrics.SynthesisRunsTotal.WithLabelValues("error").Inc()
		return CombinedAnalysis{}, nil, fmt.Errorf("synthesis cancelled: %w", err)
	}

	// Empty categories get document-name-aware templated content.
	for _, cat := range fanoutCategories {
		if len(categoryLines[cat]) == 0 {
			categoryLines[cat] = templatedFallback(cat, docs)
		}
	}

	report(StatusMerging)
	perDoc := slicePerDocument(docs, features, categoryLines)
	combined := combine(docs, perDoc)
	sections := buildSections(docs, perDoc, combined)

	s.cache.Put(fingerprint, combined, sections)
	if aiUsed {
		metrics.SynthesisRunsTotal.WithLabelValues("ai").Inc()
	} else {
		metrics.SynthesisRunsTotal.WithLabelValues("fallback").Inc()
	}
	report(StatusComplete)
	return combined, sections, nil
}

// generateCategories fans out one generation per category over the combined
// body and post-processes each response. Any failure in the group reverts
// every category to its fallback text for this run; there is no partial
// retry. Reports whether AI output was used.
func (s *Synthesizer) generateCategories(ctx context.Context, body string, report progressFunc) (map[gateway.Category][]string, bool) {
	lines := make(map[gateway.Category][]string, len(fanoutCategories))

	if s.gen.IsConnected() {
		report(StatusAIFanout)
		g, gctx := errgroup.WithContext(ctx)
		results := make([]string, len(fanoutCategories))
		for i, cat := range fanoutCategories {
			i, cat := i, cat
			g.Go(func() error {
				text, err := s.gen.Generate(gctx, gateway.GenerateRequest{
					Category:  cat,
					Prompt:    buildCategoryPrompt(cat, body),
					MaxTokens: categoryMaxTokens,
					Stream:    true,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", cat, err)
				}
				results[i] = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Warn("category fan-out failed, reverting all categories to fallback", "error", err)
		} else {
			for i, cat := range fanoutCategories {
				lines[cat] = processResponse(results[i])
			}
			return lines, true
		}
	}

	report(StatusFallback)
	for _, cat := range fanoutCategories {
		lines[cat] = processResponse(gateway.FallbackText(cat))
	}
	return lines, false
}

// slicePerDocument distributes category lines across documents by index
// windows, backfilling from the head of the global list when a document's
// window is empty.
func slicePerDocument(docs []document.Document, features []analyzer.ExtractedFeatures, categoryLines map[gateway.Category][]string) []PerDocumentAnalysis {
	window := func(list []string, i int) []string {
		start := i * linesPerDocument
		end := start + linesPerDocument
		if start >= len(list) {
			return head(list, linesPerDocument)
		}
		if end > len(list) {
			end = len(list)
		}
		return list[start:end]
	}

	perDoc := make([]PerDocumentAnalysis, len(docs))
	for i, doc := range docs {
		perDoc[i] = PerDocumentAnalysis{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			KeyTerms:     union(features[i].KeyTerms),
			Examples:     head(union(features[i].Examples, window(categoryLines[gateway.CategoryExamples], i)), 8),
			Questions:    union(window(categoryLines[gateway.CategoryQuestions], i)),
			StudyNotes:   union(window(categoryLines[gateway.CategoryNotes], i)),
			KeyTakeaways: union(window(categoryLines[gateway.CategorySummary], i)),
			Annotations:  union(window(categoryLines[gateway.CategoryAnnotations], i)),
		}
	}
	return perDoc
}

// combine unions every per-document field and concatenates raw texts for
// the annotation pass.
func combine(docs []document.Document, perDoc []PerDocumentAnalysis) CombinedAnalysis {
	var combined CombinedAnalysis
	var keyTerms, examples, questions, notes, takeaways, annotations [][]string
	for _, pda := range perDoc {
		keyTerms = append(keyTerms, pda.KeyTerms)
		examples = append(examples, pda.Examples)
		questions = append(questions, pda.Questions)
		notes = append(notes, pda.StudyNotes)
		takeaways = append(takeaways, pda.KeyTakeaways)
		annotations = append(annotations, pda.Annotations)
	}
	combined.KeyTerms = union(keyTerms...)
	combined.Examples = union(examples...)
	combined.Questions = union(questions...)
	combined.StudyNotes = union(notes...)
	combined.KeyTakeaways = union(takeaways...)
	combined.Annotations = union(annotations...)

	var marked []string
	for _, doc := range docs {
		marked = append(marked, fmt.Sprintf("=== %s ===\n\n%s", doc.Name, doc.RawText))
	}
	combined.MarkedDocument = strings.Join(marked, "\n\n")
	return combined
}

// buildSections assembles the ordered study guide: one section per document,
// prefixed by an overview section when the set has more than one document.
func buildSections(docs []document.Document, perDoc []PerDocumentAnalysis, combined CombinedAnalysis) []StudyGuideSection {
	sections := make([]StudyGuideSection, 0, len(docs)+1)

	if len(docs) > 1 {
		sections = append(sections, StudyGuideSection{
			ID:          OverviewSectionID,
			Title:       "Overview",
			Content:     strings.Join(head(combined.StudyNotes, overviewNotes), "\n"),
			Keywords:    head(combined.KeyTerms, overviewKeywords),
			Examples:    head(combined.Examples, overviewExamples),
			Questions:   head(combined.Questions, overviewQuestions),
			Annotations: head(combined.Annotations, overviewAnnotations),
			Summaries:   head(combined.KeyTakeaways, overviewTakeaways),
		})
	}

	for i, doc := range docs {
		sections = append(sections, StudyGuideSection{
			ID:          doc.ID,
			Title:       doc.Name,
			Content:     truncateText(doc.RawText, contentPreviewChars),
			Keywords:    perDoc[i].KeyTerms,
			Examples:    perDoc[i].Examples,
			Questions:   perDoc[i].Questions,
			Annotations: perDoc[i].Annotations,
			Summaries:   perDoc[i].KeyTakeaways,
		})
	}
	return sections
}

// GenerateFlashcards produces flashcard lines for a document set via a
// single generation call, degrading to fallback content on any failure.
func (s *Synthesizer) GenerateFlashcards(ctx context.Context, docs []document.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	features := make([]analyzer.ExtractedFeatures, len(docs))
	for i, doc := range docs {
		features[i] = analyzer.Analyze(doc.RawText)
	}
	body := buildCombinedBody(docs, features)

	text, err := s.gen.Generate(ctx, gateway.GenerateRequest{
		Category:  gateway.CategoryFlashcards,
		Prompt:    buildCategoryPrompt(gateway.CategoryFlashcards, body),
		MaxTokens: flashcardMaxTokens,
		Stream:    true,
	})
	if err != nil {
		text = gateway.FallbackText(gateway.CategoryFlashcards)
	}
	cards := processResponse(text)
	if len(cards) == 0 {
		cards = processResponse(gateway.FallbackText(gateway.CategoryFlashcards))
	}
	return cards, nil
}
