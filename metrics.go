package main

import (
	"fmt"
	"math"
)

// calculateMetrics compares the token counts of the original and optimized content.
func calculateMetrics(original, optimized string) TransformMetrics {
	originalTokens := countTokens(original)
	optimizedTokens := countTokens(optimized)

	return TransformMetrics{
		OriginalTokens:  originalTokens,
		OptimizedTokens: optimizedTokens,
		SavingsPercent:  savingsPercent(originalTokens, optimizedTokens),
		Header:          formatHeader(originalTokens, optimizedTokens),
	}
}

// savingsPercent is the rounded percentage reduction from original to optimized.
// Halves round up; a larger output gives a negative value.
func savingsPercent(originalTokens, optimizedTokens int) int {
	if originalTokens <= 0 {
		return 0
	}
	ratio := float64(originalTokens-optimizedTokens) / float64(originalTokens) * 100
	return roundHalfUp(ratio)
}

// roundHalfUp rounds to the nearest integer, halves towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func formatHeader(originalTokens, optimizedTokens int) string {
	return fmt.Sprintf("[skinny-jeans: %d%% smaller, ~%d tokens (was ~%d)]",
		savingsPercent(originalTokens, optimizedTokens), optimizedTokens, originalTokens)
}
