package document

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Document is an uploaded source document with its text already extracted.
// Immutable once created; the synthesis core only reads RawText.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RawText   string    `json:"-"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds a Document from a filename and its extracted text.
func New(name, rawText string) Document {
	now := time.Now()
	return Document{
		ID:        HashHex([]byte(fmt.Sprintf("%s-%d", name, now.UnixNano())))[:16],
		Name:      name,
		RawText:   rawText,
		WordCount: CountWords(rawText),
		CreatedAt: now,
	}
}

// CountWords returns the whitespace-separated word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Fingerprint identifies a document set by (name, content length) pairs.
// Two sets with the same fingerprint are treated as the same synthesis input.
func Fingerprint(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("%s-%d", d.Name, len(d.RawText)))
	}
	return strings.Join(parts, "|")
}

// HashHex computes SHA-256 of data and returns the hex string.
func HashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
