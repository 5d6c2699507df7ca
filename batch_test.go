package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// batchTree lays out a small project exercising every walker filter.
func batchTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"a.json":              `{"a": 1}`,
		"b.md":                "# B\n",
		"c.go":                "package c\n",
		"d.txt":               "plain text\n",
		".env":                "KEY=value\n",
		".hidden.md":          "# hidden\n",
		".gitignore":          "ignored.md\n",
		"ignored.md":          "# ignored\n",
		"logo.png":            "not really a png",
		"node_modules/x.js":   "module.exports = 1;\n",
		"build/out.js":        "console.log(1);\n",
		".git/config":         "[core]\n",
		"sub/e.py":            "print(1)\n",
		"sub/deeper/notes.md": "notes\n",
	}
	for name, content := range files {
		writeFile(t, filepath.Join(root, name), content)
	}
	return root
}

func relPaths(t *testing.T, root string, files []FileInfo) []string {
	t.Helper()
	var out []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkDirectoryFilters(t *testing.T) {
	root := batchTree(t)

	files, err := processLocalPath(root, walkOptions{recursive: true})
	if err != nil {
		t.Fatalf("processLocalPath: %v", err)
	}
	got := strings.Join(relPaths(t, root, files), ",")
	want := ".env,a.json,b.md,c.go,d.txt,sub/deeper/notes.md,sub/e.py"
	if got != want {
		t.Fatalf("walked files = %s, want %s", got, want)
	}

	files, err = processLocalPath(root, walkOptions{recursive: false})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(relPaths(t, root, files), ","); got != ".env,a.json,b.md,c.go,d.txt" {
		t.Fatalf("non-recursive walk = %s", got)
	}

	files, err = processLocalPath(root, walkOptions{recursive: false, noIgnore: true, excludes: []string{"*.TXT"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(relPaths(t, root, files), ","); got != ".env,a.json,b.md,c.go,ignored.md" {
		t.Fatalf("walk with --no-ignore and excludes = %s", got)
	}

	files, err = processLocalPath(filepath.Join(root, "c.go"), walkOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Category != CategoryCode {
		t.Fatalf("single file = %+v", files)
	}
}

func TestBatchEstimateTool(t *testing.T) {
	root := batchTree(t)

	report, err := batchEstimateTool(BatchArgs{Paths: []string{root}, Recursive: true, Threads: 3})
	if err != nil {
		t.Fatalf("batchEstimateTool: %v", err)
	}
	if report.TotalFiles != 7 {
		t.Fatalf("TotalFiles = %d, want 7", report.TotalFiles)
	}

	files := map[FileCategory]int{}
	tokens := 0
	for _, stats := range report.Categories {
		files[stats.Category] = stats.Files
		tokens += stats.Tokens
	}
	want := map[FileCategory]int{CategoryJSON: 1, CategoryMarkdown: 2, CategoryCode: 2, CategoryText: 2}
	for category, n := range want {
		if files[category] != n {
			t.Errorf("%s files = %d, want %d", category, files[category], n)
		}
	}
	if tokens != report.TotalTokens {
		t.Fatalf("category tokens sum to %d, TotalTokens = %d", tokens, report.TotalTokens)
	}
}

func TestBatchEstimateToolFailedPaths(t *testing.T) {
	root := batchTree(t)
	missing := filepath.Join(root, "missing")

	report, err := batchEstimateTool(BatchArgs{Paths: []string{root, missing}, Recursive: false})
	if err != nil {
		t.Fatalf("batchEstimateTool: %v", err)
	}
	if report.FailedPaths != 1 || report.TotalFiles != 5 {
		t.Fatalf("FailedPaths = %d, TotalFiles = %d", report.FailedPaths, report.TotalFiles)
	}

	if _, err := batchEstimateTool(BatchArgs{Paths: []string{missing}}); err == nil {
		t.Fatal("expected an error when no path can be processed")
	}
}

func TestBuildReport(t *testing.T) {
	report := buildReport([]FileInfo{
		{Path: "c.go", Category: CategoryCode, TokenCount: 10},
		{Path: "a.json", Category: CategoryJSON, TokenCount: 60},
		{Path: "b.md", Category: CategoryMarkdown, TokenCount: 50},
		{Path: "z.json", Category: CategoryJSON, TokenCount: 40},
		{Path: "gone.txt", Category: CategoryText, Error: errors.New("permission denied")},
	})

	if report.TotalFiles != 4 || report.TotalTokens != 160 {
		t.Fatalf("totals = %d files / %d tokens", report.TotalFiles, report.TotalTokens)
	}
	// 45 + 10 + 1.5 rounded up
	if report.EstimatedSaved != 57 {
		t.Fatalf("EstimatedSaved = %d, want 57", report.EstimatedSaved)
	}
	if report.SavingsPercent != 36 {
		t.Fatalf("SavingsPercent = %d, want 36", report.SavingsPercent)
	}

	var order []string
	for _, stats := range report.Categories {
		order = append(order, string(stats.Category))
	}
	if got := strings.Join(order, ","); got != "json,markdown,code" {
		t.Fatalf("category order = %s", got)
	}
}

func TestBatchDefaultsReadExcludeFlag(t *testing.T) {
	flag := batchCmd.Flags().Lookup("exclude")
	if err := flag.Value.Set("*.md, vendor/*"); err != nil {
		t.Fatalf("set --exclude: %v", err)
	}
	flag.Changed = true
	defer func() {
		_ = flag.Value.Set("")
		flag.Changed = false
	}()

	got := strings.Join(batchDefaults().Excludes, "|")
	if want := "*.md|vendor/*"; got != want {
		t.Fatalf("Excludes = %q, want %q", got, want)
	}
}
