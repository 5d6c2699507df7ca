package main

import (
	"path/filepath"
	"sort"
	"strings"
)

// extensionCategories maps a lowercase extension (with the dot) to its category.
// Anything missing from the table is treated as text.
var extensionCategories = map[string]FileCategory{
	".json":   CategoryJSON,
	".jsonl":  CategoryJSONL,
	".ndjson": CategoryJSONL,
	".md":     CategoryMarkdown,
	".mdx":    CategoryMarkdown,

	".ts":    CategoryCode,
	".tsx":   CategoryCode,
	".js":    CategoryCode,
	".jsx":   CategoryCode,
	".mjs":   CategoryCode,
	".cjs":   CategoryCode,
	".py":    CategoryCode,
	".rb":    CategoryCode,
	".go":    CategoryCode,
	".rs":    CategoryCode,
	".java":  CategoryCode,
	".kt":    CategoryCode,
	".swift": CategoryCode,
	".c":     CategoryCode,
	".cpp":   CategoryCode,
	".h":     CategoryCode,
	".hpp":   CategoryCode,
	".cs":    CategoryCode,
	".php":   CategoryCode,
	".sh":    CategoryCode,
	".bash":  CategoryCode,
	".zsh":   CategoryCode,
	".sql":   CategoryCode, // Not a general-purpose language, but its comments strip cleanly

	".yaml":         CategoryText,
	".yml":          CategoryText,
	".toml":         CategoryText,
	".ini":          CategoryText,
	".cfg":          CategoryText,
	".conf":         CategoryText,
	".txt":          CategoryText,
	".csv":          CategoryText,
	".tsv":          CategoryText,
	".xml":          CategoryText,
	".html":         CategoryText,
	".css":          CategoryText,
	".scss":         CategoryText,
	".less":         CategoryText,
	".graphql":      CategoryText,
	".env":          CategoryText,
	".gitignore":    CategoryText,
	".dockerignore": CategoryText,
}

var hashCommentExts = map[string]bool{
	".py": true, ".rb": true, ".sh": true, ".bash": true, ".zsh": true,
	".yaml": true, ".yml": true,
}

var cStyleCommentExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".go": true, ".rs": true, ".java": true, ".kt": true, ".swift": true,
	".c": true, ".cpp": true, ".h": true, ".hpp": true, ".cs": true, ".php": true,
	".sql": true,
}

// fileExt returns the lowercase extension of a path, including the dot.
func fileExt(filePath string) string {
	return strings.ToLower(filepath.Ext(filepath.Base(filePath)))
}

// classifyFile determines the category of a file from its extension.
// It never fails: unknown extensions are text.
func classifyFile(filePath string) FileCategory {
	if category, ok := extensionCategories[fileExt(filePath)]; ok {
		return category
	}
	return CategoryText
}

// commentStyleFor determines which comment syntax a file uses.
func commentStyleFor(filePath string) CommentStyle {
	ext := fileExt(filePath)
	switch {
	case hashCommentExts[ext]:
		return CommentHash
	case cStyleCommentExts[ext]:
		return CommentCStyle
	default:
		return CommentNone
	}
}

// knownExtensions lists every extension in the category table for a category, sorted.
func knownExtensions(category FileCategory) []string {
	var exts []string
	for ext, c := range extensionCategories {
		if c == category {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// LanguageRow is one line of the languages table.
type LanguageRow struct {
	Category   FileCategory
	Comments   CommentStyle
	Extensions []string
}

// languageRows groups the extension table by category, splitting code by comment style.
func languageRows() []LanguageRow {
	var rows []LanguageRow
	for _, category := range categoryOrder {
		exts := knownExtensions(category)
		if category != CategoryCode {
			rows = append(rows, LanguageRow{Category: category, Comments: CommentNone, Extensions: exts})
			continue
		}
		byStyle := make(map[CommentStyle][]string)
		for _, ext := range exts {
			style := commentStyleFor("file" + ext)
			byStyle[style] = append(byStyle[style], ext)
		}
		for _, style := range []CommentStyle{CommentCStyle, CommentHash, CommentNone} {
			if len(byStyle[style]) > 0 {
				rows = append(rows, LanguageRow{Category: category, Comments: style, Extensions: byStyle[style]})
			}
		}
	}
	return rows
}
