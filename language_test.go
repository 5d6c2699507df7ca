package main

import "testing"

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		path     string
		category FileCategory
		style    CommentStyle
	}{
		{"data.json", CategoryJSON, CommentNone},
		{"DATA.JSON", CategoryJSON, CommentNone},
		{"events.jsonl", CategoryJSONL, CommentNone},
		{"events.ndjson", CategoryJSONL, CommentNone},
		{"README.md", CategoryMarkdown, CommentNone},
		{"docs/page.mdx", CategoryMarkdown, CommentNone},
		{"src/main.go", CategoryCode, CommentCStyle},
		{"app.TSX", CategoryCode, CommentCStyle},
		{"query.sql", CategoryCode, CommentCStyle},
		{"tool.py", CategoryCode, CommentHash},
		{"deploy.sh", CategoryCode, CommentHash},
		{"config.yaml", CategoryText, CommentHash},
		{"notes.txt", CategoryText, CommentNone},
		{".env", CategoryText, CommentNone},
		{"Makefile", CategoryText, CommentNone},
		{"archive.tar.unknown", CategoryText, CommentNone},
		{"dir.json/file", CategoryText, CommentNone},
	}

	for _, tt := range tests {
		if got := classifyFile(tt.path); got != tt.category {
			t.Errorf("classifyFile(%q) = %s, want %s", tt.path, got, tt.category)
		}
		if got := commentStyleFor(tt.path); got != tt.style {
			t.Errorf("commentStyleFor(%q) = %s, want %s", tt.path, got, tt.style)
		}
	}
}

func TestLanguageRowsCoverEveryExtension(t *testing.T) {
	seen := make(map[string]int)
	for _, row := range languageRows() {
		for _, ext := range row.Extensions {
			seen[ext]++
			if classifyFile("f"+ext) != row.Category {
				t.Errorf("%s listed under %s but classified as %s", ext, row.Category, classifyFile("f"+ext))
			}
		}
	}

	for ext := range extensionCategories {
		if seen[ext] != 1 {
			t.Errorf("extension %s listed %d times, want 1", ext, seen[ext])
		}
	}
}
