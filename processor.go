package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// skipDirs are never descended into by the batch walker.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"__pycache__":  true,
	".venv":        true,
}

// binaryExts are skipped by the batch walker; their content is not text.
var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".gif": true, ".ico": true, ".woff": true, ".ttf": true,
	".zip": true, ".tar": true, ".gz": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
}

// walkOptions controls which files processLocalPath collects.
type walkOptions struct {
	recursive bool
	hidden    bool  // Include hidden files and directories
	noIgnore  bool  // Don't respect the root .gitignore
	maxSize   int64 // 0 for no limit
	excludes  []string
}

// processLocalPath handles a single local file or directory path.
func processLocalPath(path string, opts walkOptions) ([]FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		logf("Processing directory: %s\n", path)
		return walkDirectory(path, opts)
	}

	logf("Processing file: %s\n", path)
	return []FileInfo{{
		Path:     path,
		Size:     info.Size(),
		Mode:     info.Mode(),
		Category: classifyFile(path),
	}}, nil
}

// parsePatterns splits a comma-separated string of patterns into a slice.
func parsePatterns(patterns string) []string {
	if patterns == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchesAnyPattern checks if the given name matches any of the provided glob patterns.
// Matching is case-insensitive.
func matchesAnyPattern(name string, patterns []string) (bool, error) {
	lowerName := strings.ToLower(name)
	for _, pattern := range patterns {
		matched, err := filepath.Match(strings.ToLower(pattern), lowerName)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// walkDirectory walks a directory and collects text files, respecting filters and .gitignore.
func walkDirectory(root string, opts walkOptions) ([]FileInfo, error) {
	var files []FileInfo
	var ignoreMatcher gitignore.IgnoreMatcher

	if !opts.noIgnore {
		gitIgnorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitIgnorePath); err == nil {
			matcher, err := gitignore.NewGitIgnore(gitIgnorePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not parse .gitignore file %s: %v\n", gitIgnorePath, err)
			} else {
				ignoreMatcher = matcher
			}
		}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error accessing path %s: %v\n", path, err)
			return nil // Report and continue
		}

		if path == root {
			return nil
		}

		baseName := d.Name()
		isDir := d.IsDir()

		if isDir {
			if !opts.recursive || skipDirs[baseName] || (!opts.hidden && isHidden(baseName)) {
				return fs.SkipDir
			}
		} else if !opts.hidden && isHidden(baseName) && baseName != ".env" {
			return nil
		}

		// The matcher resolves paths against the directory holding the .gitignore
		if ignoreMatcher != nil {
			if ignoreMatcher.Match(path, isDir) {
				if isDir {
					return fs.SkipDir
				}
				return nil
			}
		}

		excluded, err := matchesAnyPattern(baseName, opts.excludes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error in exclude pattern matching for %s: %v\n", path, err)
		}
		if excluded {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if isDir {
			return nil
		}

		if binaryExts[fileExt(baseName)] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not get info for %s: %v\n", path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if opts.maxSize > 0 && info.Size() > opts.maxSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:     path,
			Size:     info.Size(),
			Mode:     info.Mode(),
			Category: classifyFile(path),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}

	return files, nil
}

// isHidden checks if a file path is hidden (starts with '.').
func isHidden(path string) bool {
	if path == "." || path == ".." {
		return false
	}
	baseName := filepath.Base(path)
	return len(baseName) > 0 && baseName[0] == '.'
}
