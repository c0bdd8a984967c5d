package intake

import (
	"fmt"
	"io"
)

// StubExtractor stands in for binary formats whose text extraction is not
// implemented. It drains the upload and returns placeholder text; the
// synthesis pipeline degrades to deterministic fallback content for such
// documents.
type StubExtractor struct {
	Kind string
}

func (e *StubExtractor) Extract(r io.Reader, filename string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"[%s text extraction is not available for %q. Upload a plain-text or markdown version for full analysis.]",
		e.Kind, filename,
	), nil
}
