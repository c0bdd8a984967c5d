// Package intake turns uploaded files into Documents with extracted raw
// text. Plain text, markdown, HTML, and CSV get real extraction; binary
// formats are stubbed with placeholder text and left to a future upstream
// extractor.
package intake

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extractor converts raw file bytes into normalized document text.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this service accepts.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".csv":      true,
	".pdf":      true,
	".docx":     true,
	".png":      true,
	".jpg":      true,
	".jpeg":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".pdf":
		return &StubExtractor{Kind: "PDF"}, nil
	case ".docx":
		return &StubExtractor{Kind: "Word document"}, nil
	case ".png", ".jpg", ".jpeg":
		return &StubExtractor{Kind: "image"}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}
