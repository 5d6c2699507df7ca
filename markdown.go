package main

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// ![alt](https://img.shields.io/...) on a line of its own
	badgeImagePattern = regexp.MustCompile(`^\s*!\[.*?\]\(https?://.*?(badge|shield|img\.shields).*?\)\s*$`)
	// [![alt](https://.../badge.svg)](https://ci.example.com/...) on a line of its own
	linkedBadgePattern = regexp.MustCompile(`^\s*\[!\[.*?\]\(https?://.*?(badge|shield|img\.shields).*?\)\]\(.*?\)\s*$`)
	// "## Heading ##" -> "## Heading"
	headingTrailingHashes = regexp.MustCompile(`^(#{1,6}\s+.*?)\s+#+\s*$`)
)

// maxConsecutiveBlanks is the longest run of blank lines kept by the minifier and the compactor.
const maxConsecutiveBlanks = 2

// minifierState is the scan state of one minifyMarkdown call.
type minifierState struct {
	inFrontmatter       bool
	frontmatterResolved bool // frontmatter can only open on the first line
	inCodeFence         bool
	consecutiveBlanks   int
}

// minifyMarkdown strips frontmatter, single-line HTML comments, badge images,
// redundant blank lines, closing heading hashes and trailing whitespace.
// Fenced code blocks are copied through untouched.
func minifyMarkdown(input string) string {
	lines := strings.Split(input, "\n")
	result := make([]string, 0, len(lines))
	var st minifierState

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !st.frontmatterResolved {
			st.frontmatterResolved = true
			if trimmed == "---" {
				st.inFrontmatter = true
				continue
			}
		}
		if st.inFrontmatter {
			if trimmed == "---" {
				st.inFrontmatter = false
			}
			continue
		}

		if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "```") {
			st.inCodeFence = !st.inCodeFence
			st.consecutiveBlanks = 0
			result = append(result, line)
			continue
		}
		if st.inCodeFence {
			result = append(result, line)
			continue
		}

		if strings.HasPrefix(trimmed, "<!--") && strings.HasSuffix(trimmed, "-->") {
			continue
		}

		if badgeImagePattern.MatchString(line) || linkedBadgePattern.MatchString(line) {
			continue
		}

		if trimmed == "" {
			st.consecutiveBlanks++
			if st.consecutiveBlanks <= maxConsecutiveBlanks {
				result = append(result, "")
			}
			continue
		}
		st.consecutiveBlanks = 0

		processed := headingTrailingHashes.ReplaceAllString(line, "$1")
		result = append(result, strings.TrimRightFunc(processed, unicode.IsSpace))
	}

	return joinTrimmed(result)
}

// joinTrimmed drops trailing empty lines and joins the rest with exactly one final newline.
func joinTrimmed(lines []string) string {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}
