package synthesis

import (
	"regexp"
	"strings"
)

// maxLinesPerCategory bounds each category's processed line list.
const maxLinesPerCategory = 10

// boilerplatePrefixes are refusal/preamble phrases a model prepends to
// otherwise useful output; lines starting with them carry no study content.
var boilerplatePrefixes = []string{
	"I apologize",
	"I cannot",
	"Here are",
	"Based on",
}

var listMarkerRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// processResponse splits a raw model response into clean content lines:
// empties and boilerplate dropped, leading list markers stripped, at most
// maxLinesPerCategory lines kept.
func processResponse(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(listMarkerRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxLinesPerCategory {
			break
		}
	}
	return lines
}

func isBoilerplate(line string) bool {
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
