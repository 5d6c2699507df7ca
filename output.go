package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ListArgs are the inputs of a directory listing.
type ListArgs struct {
	Path      string
	Recursive bool
	Pattern   string // Case-insensitive glob on the entry name
}

// Node represents an entry in the directory tree structure.
type Node struct {
	Name     string
	Path     string
	IsDir    bool
	Size     int64 // Relevant for files
	Matched  bool  // False for directories kept only because they hold matching entries
	Children []*Node
}

// listFilesTool returns a compact indented listing of a directory.
func listFilesTool(args ListArgs) (string, error) {
	root, err := buildTree(args.Path, args.Recursive, args.Pattern)
	if err != nil {
		return "", err
	}
	if len(root.Children) == 0 {
		return fmt.Sprintf("(empty directory: %s)", args.Path), nil
	}

	var builder strings.Builder
	printNode(&builder, root.Children, 0)
	return strings.TrimSuffix(builder.String(), "\n"), nil
}

// buildTree reads dirPath into a tree. Hidden entries and node_modules are skipped.
// With a pattern, non-matching directories are still descended when recursive,
// and kept unmatched if anything below them matches.
func buildTree(dirPath string, recursive bool, pattern string) (*Node, error) {
	root := &Node{Name: filepath.Base(dirPath), Path: dirPath, IsDir: true, Matched: true}
	if err := fillNode(root, recursive, pattern); err != nil {
		return nil, err
	}
	return root, nil
}

func fillNode(node *Node, recursive bool, pattern string) error {
	entries, err := os.ReadDir(node.Path)
	if err != nil {
		return fmt.Errorf("error reading directory %s: %w", node.Path, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if isHidden(name) || name == "node_modules" {
			continue
		}

		child := &Node{Name: name, Path: filepath.Join(node.Path, name), IsDir: entry.IsDir(), Matched: true}
		if pattern != "" {
			matched, err := matchesAnyPattern(name, []string{pattern})
			if err != nil {
				return err
			}
			child.Matched = matched
		}

		if !child.Matched && !(child.IsDir && recursive) {
			continue
		}

		if child.IsDir {
			if recursive {
				if err := fillNode(child, true, pattern); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				}
			}
			if !child.Matched && len(child.Children) == 0 {
				continue
			}
		} else {
			info, err := entry.Info()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not get info for %s: %v\n", child.Path, err)
				continue
			}
			child.Size = info.Size()
		}

		node.Children = append(node.Children, child)
	}

	sortChildren(node)
	return nil
}

// sortChildren sorts directories before files, then alphabetically ignoring case.
func sortChildren(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		if la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name); la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
}

// printNode writes one line per entry, indented two spaces per level.
// Unmatched directories are not printed, but their children keep their depth.
func printNode(builder *strings.Builder, children []*Node, depth int) {
	for _, node := range children {
		if node.Matched {
			builder.WriteString(strings.Repeat("  ", depth))
			builder.WriteString(node.Name)
			if node.IsDir {
				builder.WriteString("/")
			} else {
				builder.WriteString(fmt.Sprintf(" (%s)", formatSize(node.Size)))
			}
			builder.WriteString("\n")
		}
		if node.IsDir && len(node.Children) > 0 {
			printNode(builder, node.Children, depth+1)
		}
	}
}

// formatSize renders a byte count as 123B, 1.5K or 2.0M.
func formatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%dB", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1fK", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1fM", float64(bytes)/(1024*1024))
	}
}

// formatReport renders a batch report as text, json or yaml.
func formatReport(report BatchReport, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return formatReportText(report), nil
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode report as json: %w", err)
		}
		return string(data), nil
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return "", fmt.Errorf("failed to encode report as yaml: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	default:
		return "", fmt.Errorf("unsupported format: %s. Use 'text', 'json' or 'yaml'", format)
	}
}

func formatReportText(report BatchReport) string {
	if report.TotalFiles == 0 {
		return "No text files found."
	}

	lines := []string{fmt.Sprintf("Token Savings Report (%d files)", report.TotalFiles), ""}
	for _, stats := range report.Categories {
		lines = append(lines, fmt.Sprintf("%s: %d files, ~%d tokens → save ~%d tokens (%d%%)",
			stats.Category, stats.Files, stats.Tokens, stats.EstimatedSaved, roundHalfUp(stats.SavingsRate*100)))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Total: ~%d tokens", report.TotalTokens),
		fmt.Sprintf("Estimated savings: ~%d tokens (%d%%)", report.EstimatedSaved, report.SavingsPercent),
	)
	if report.FailedPaths > 0 {
		lines = append(lines, fmt.Sprintf("Paths failed to process: %d", report.FailedPaths))
	}
	return strings.Join(lines, "\n")
}
