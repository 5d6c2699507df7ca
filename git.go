package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// isGitURL checks if a batch input names a remote Git repository.
// Plain http(s) URLs are not treated as repositories unless they end in .git.
func isGitURL(input string) bool {
	return strings.HasSuffix(input, ".git") ||
		strings.HasPrefix(input, "git@") ||
		strings.HasPrefix(input, "ssh://")
}

// cloneGitRepo shallow-clones a repository into a temporary directory.
// The caller removes the returned directory.
func cloneGitRepo(url string) (string, error) {
	tempDir, err := os.MkdirTemp("", "skinny-jeans-git-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	logf("Cloning Git repository '%s' into '%s'...\n", url, tempDir)

	var progress io.Writer
	if verbose {
		progress = os.Stderr
	}

	_, err = git.PlainClone(tempDir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		Depth:         1,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to clone repository '%s': %w", url, err)
	}

	logf("Finished cloning '%s'.\n", url)
	return tempDir, nil
}
