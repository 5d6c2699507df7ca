package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

// BatchArgs are the inputs of a batch estimate.
type BatchArgs struct {
	Paths     []string // Files, directories or Git repository URLs
	Recursive bool
	Threads   int // 0 for one worker per CPU
	Hidden    bool
	NoIgnore  bool
	MaxSize   int64
	Excludes  []string
}

// savingsRates is the expected reduction per category used by batch reports.
var savingsRates = map[FileCategory]float64{
	CategoryJSON:     0.45,
	CategoryJSONL:    0.45,
	CategoryMarkdown: 0.20,
	CategoryCode:     0.15,
	CategoryText:     0.07,
}

// categoryOrder fixes the order of categories in a report.
var categoryOrder = []FileCategory{CategoryJSON, CategoryJSONL, CategoryMarkdown, CategoryCode, CategoryText}

// batchEstimateTool collects the files behind every input path, counts their
// tokens in parallel and estimates the savings per category.
// Paths that cannot be processed are reported and counted in FailedPaths.
func batchEstimateTool(args BatchArgs) (BatchReport, error) {
	opts := walkOptions{
		recursive: args.Recursive,
		hidden:    args.Hidden,
		noIgnore:  args.NoIgnore,
		maxSize:   args.MaxSize,
		excludes:  args.Excludes,
	}

	var allFiles []FileInfo
	var failedPaths int
	var tempDirsToClean []string
	defer func() {
		for _, dir := range tempDirsToClean {
			logf("Cleaning up temporary directory: %s\n", dir)
			_ = os.RemoveAll(dir)
		}
	}()

	for _, input := range args.Paths {
		target := input
		if isGitURL(input) {
			tempDir, err := cloneGitRepo(input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				failedPaths++
				continue
			}
			tempDirsToClean = append(tempDirsToClean, tempDir)
			target = tempDir
		}

		files, err := processLocalPath(target, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error processing %s: %v\n", input, err)
			failedPaths++
			continue
		}
		allFiles = append(allFiles, files...)
	}

	if failedPaths > 0 && failedPaths == len(args.Paths) {
		return BatchReport{FailedPaths: failedPaths}, fmt.Errorf("none of the %d path(s) could be processed", failedPaths)
	}

	counted := countFileTokens(allFiles, args.Threads)
	report := buildReport(counted)
	report.FailedPaths = failedPaths
	return report, nil
}

// countFileTokens fans the files out to a pool of token workers.
func countFileTokens(files []FileInfo, threads int) []FileInfo {
	numWorkers := threads
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	logf("Using %d worker(s) for token counting.\n", numWorkers)

	jobs := make(chan FileInfo, len(files))
	results := make(chan FileInfo, len(files))
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go tokenWorker(jobs, results, &wg)
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	wg.Wait()
	close(results)

	processed := make([]FileInfo, 0, len(files))
	for res := range results {
		processed = append(processed, res)
	}
	return processed
}

func tokenWorker(jobs <-chan FileInfo, results chan<- FileInfo, wg *sync.WaitGroup) {
	defer wg.Done()
	for file := range jobs {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: worker could not read file %s: %v\n", file.Path, err)
			file.Error = err
		} else {
			file.TokenCount = countTokens(string(content))
		}
		results <- file
	}
}

// buildReport groups counted files by category. Unreadable files are left out.
func buildReport(files []FileInfo) BatchReport {
	byCategory := make(map[FileCategory]*CategoryStats)
	var report BatchReport

	for _, file := range files {
		if file.Error != nil {
			continue
		}
		stats, ok := byCategory[file.Category]
		if !ok {
			stats = &CategoryStats{Category: file.Category, SavingsRate: savingsRates[file.Category]}
			byCategory[file.Category] = stats
		}
		stats.Files++
		stats.Tokens += file.TokenCount
		report.TotalFiles++
		report.TotalTokens += file.TokenCount
	}

	for _, category := range categoryOrder {
		stats, ok := byCategory[category]
		if !ok {
			continue
		}
		stats.EstimatedSaved = roundHalfUp(float64(stats.Tokens) * stats.SavingsRate)
		report.EstimatedSaved += stats.EstimatedSaved
		report.Categories = append(report.Categories, *stats)
	}

	if report.TotalTokens > 0 {
		report.SavingsPercent = roundHalfUp(float64(report.EstimatedSaved) / float64(report.TotalTokens) * 100)
	}
	return report
}
