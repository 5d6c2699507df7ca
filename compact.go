package main

import (
	"strings"
	"unicode"
)

// compactText is the transform for files without a dedicated one.
// It trims trailing whitespace, keeps at most two consecutive blank lines
// and ends the text with exactly one newline.
func compactText(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	blanks := 0

	for _, line := range lines {
		trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
		if trimmed == "" {
			blanks++
			if blanks <= maxConsecutiveBlanks {
				result = append(result, "")
			}
			continue
		}
		blanks = 0
		result = append(result, trimmed)
	}

	return joinTrimmed(result)
}
