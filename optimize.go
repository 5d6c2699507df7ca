package main

import (
	"fmt"
	"os"
)

// optimizeContent runs the transform for the given category over content.
// Code files pick their comment syntax from filePath.
func optimizeContent(filePath, content string, category FileCategory) (string, error) {
	switch category {
	case CategoryJSON:
		return jsonToToon(content, ToonOptions{})
	case CategoryJSONL:
		return jsonlToToon(content, ToonOptions{})
	case CategoryMarkdown:
		return minifyMarkdown(content), nil
	case CategoryCode:
		return stripComments(content, commentStyleFor(filePath)), nil
	default:
		return compactText(content), nil
	}
}

// optimizeOrFallback is optimizeContent for readers: a failing transform
// (error or panic) yields the original content and ok == false, so a read never fails here.
func optimizeOrFallback(filePath, content string, category FileCategory) (optimized string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s transform panicked for %s: %v\n", category, filePath, r)
			optimized, ok = content, false
		}
	}()

	out, err := optimizeContent(filePath, content, category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s transform failed for %s, returning original content: %v\n", category, filePath, err)
		return content, false
	}
	return out, true
}
