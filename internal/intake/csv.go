package intake

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor handles CSV files, rendering rows as labeled lines so the
// header vocabulary surfaces as key-term candidates.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]

	var sb strings.Builder
	sb.WriteString("# " + strings.Join(headers, ", ") + "\n")
	for _, row := range records[1:] {
		for j, cell := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			if j < len(headers) {
				sb.WriteString(headers[j] + ": " + cell)
			} else {
				sb.WriteString(cell)
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
