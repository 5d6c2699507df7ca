package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

// previewLines is how many lines of a candidate are shown in the preview pane.
const previewLines = 40

// errSelectionAborted is returned when the user leaves the finder without choosing.
var errSelectionAborted = errors.New("interactive selection aborted")

// pickFileInteractively lists the files under root and lets the user pick one
// with a fuzzy finder. The preview pane shows the category, token count and head of the file.
func pickFileInteractively(root string, hidden bool) (string, error) {
	var candidates []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (!hidden && isHidden(d.Name())) {
				return fs.SkipDir
			}
			return nil
		}
		if !hidden && isHidden(d.Name()) {
			return nil
		}
		if binaryExts[fileExt(d.Name())] {
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error scanning for files: %w", err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no files found under %s", root)
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string { return candidates[i] },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return "Select a file to read. Press Enter to confirm."
			}
			return previewFile(candidates[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", errSelectionAborted
		}
		return "", fmt.Errorf("fuzzy finder error: %w", err)
	}
	return candidates[idx], nil
}

func previewFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Path: %s\nError reading file: %v", path, err)
	}
	content := string(data)
	header := fmt.Sprintf("Path: %s\nCategory: %s\nTokens: ~%d\n\n", path, classifyFile(path), countTokens(content))
	return header + headLines(content, previewLines)
}

// headLines returns at most n leading lines of s.
func headLines(s string, n int) string {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return s[:i]
			}
		}
	}
	return s
}
