package intake

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files, normalizing paragraph breaks.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
