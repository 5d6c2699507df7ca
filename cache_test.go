package main

import (
	"strings"
	"testing"
)

// countingTokenizer counts one token per byte and records how often it ran.
type countingTokenizer struct {
	calls int
}

func (c *countingTokenizer) CountTokens(text string) int {
	c.calls++
	return len(text)
}

func (c *countingTokenizer) Close() {}

func useTokenizer(t *testing.T, tk Tokenizer) {
	t.Helper()
	setTokenizer(tk)
	t.Cleanup(func() { setTokenizer(newEstimateTokenizer()) })
}

func TestTokenCacheKey(t *testing.T) {
	a := strings.Repeat("a", 150) + "MIDDLE" + strings.Repeat("z", 150)
	b := strings.Repeat("a", 150) + "middle" + strings.Repeat("z", 150)
	c := a + "z"

	if tokenCacheKey(a) != tokenCacheKey(a) {
		t.Fatal("key is not deterministic")
	}
	// Only the length and both ends take part in the key
	if tokenCacheKey(a) != tokenCacheKey(b) {
		t.Fatal("texts differing only in the middle should share a key")
	}
	if tokenCacheKey(a) == tokenCacheKey(c) {
		t.Fatal("texts of different length should not share a key")
	}
}

func TestTokenCountCacheEvictsOldestInserted(t *testing.T) {
	cache := newTokenCountCache(2)
	computed := map[string]int{}
	get := func(key string) int {
		return cache.get(key, func() int {
			computed[key]++
			return len(key)
		})
	}

	get("a")
	get("bb")
	get("a") // hit; must not make "a" recent
	if computed["a"] != 1 {
		t.Fatalf("a computed %d times, want 1", computed["a"])
	}

	get("ccc") // evicts "a", the oldest insertion
	if cache.len() != 2 {
		t.Fatalf("len = %d, want 2", cache.len())
	}

	get("bb")
	if computed["bb"] != 1 {
		t.Fatalf("bb computed %d times, want 1", computed["bb"])
	}
	get("a")
	if computed["a"] != 2 {
		t.Fatalf("a computed %d times, want 2 after eviction", computed["a"])
	}
}

func TestCountTokensMemoizesLongTexts(t *testing.T) {
	tk := &countingTokenizer{}
	useTokenizer(t, tk)

	long := strings.Repeat("x", minCachedLength)
	if got := countTokens(long); got != minCachedLength {
		t.Fatalf("countTokens = %d, want %d", got, minCachedLength)
	}
	countTokens(long)
	if tk.calls != 1 {
		t.Fatalf("tokenizer ran %d times for a cached text, want 1", tk.calls)
	}

	short := strings.Repeat("x", minCachedLength-1)
	countTokens(short)
	countTokens(short)
	if tk.calls != 3 {
		t.Fatalf("tokenizer ran %d times, short texts should bypass the cache", tk.calls)
	}
	if tokenCache.len() != 1 {
		t.Fatalf("cache holds %d entries, want 1", tokenCache.len())
	}
}

func TestSetTokenizerPurgesCache(t *testing.T) {
	useTokenizer(t, &countingTokenizer{})
	countTokens(strings.Repeat("y", 300))
	if tokenCache.len() == 0 {
		t.Fatal("expected a cached entry")
	}

	useTokenizer(t, &countingTokenizer{})
	if tokenCache.len() != 0 {
		t.Fatalf("cache holds %d entries after swapping tokenizers", tokenCache.len())
	}
}
