package main

import (
	"encoding/hex"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"
)

const (
	// tokenCacheSize bounds the number of memoized token counts.
	tokenCacheSize = 500
	// minCachedLength is the shortest text worth memoizing; shorter texts are counted directly.
	minCachedLength = 200
	// cacheKeyEdge is how much of each end of the text goes into the cache key.
	cacheKeyEdge = 100
)

// tokenCountCache memoizes token counts for large texts.
// Lookups use Peek so recency is never refreshed: the oldest inserted entry
// is the one evicted once the cache is full.
type tokenCountCache struct {
	mu    sync.Mutex
	items *lru.Cache[string, int]
}

func newTokenCountCache(size int) *tokenCountCache {
	items, err := lru.New[string, int](size)
	if err != nil {
		// Only returned for a non-positive size
		panic(err)
	}
	return &tokenCountCache{items: items}
}

// get returns the cached count for key, computing and storing it on a miss.
// compute runs outside the lock so slow tokenizers do not serialize callers.
func (c *tokenCountCache) get(key string, compute func() int) int {
	c.mu.Lock()
	if count, ok := c.items.Peek(key); ok {
		c.mu.Unlock()
		return count
	}
	c.mu.Unlock()

	count := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.items.Peek(key); ok {
		return cached
	}
	c.items.Add(key, count)
	return count
}

func (c *tokenCountCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func (c *tokenCountCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}

// tokenCacheKey digests the length and both ends of text instead of the whole string.
func tokenCacheKey(text string) string {
	head := text
	if len(head) > cacheKeyEdge {
		head = head[:cacheKeyEdge]
	}
	tail := text
	if len(tail) > cacheKeyEdge {
		tail = tail[len(tail)-cacheKeyEdge:]
	}

	sum := blake2b.Sum256([]byte(strconv.Itoa(len(text)) + ":" + head + tail))
	return hex.EncodeToString(sum[:])
}

var (
	tokenizerMu     sync.RWMutex
	activeTokenizer Tokenizer = newEstimateTokenizer()
	tokenCache                = newTokenCountCache(tokenCacheSize)
)

// countTokens returns the token count of text using the active tokenizer.
func countTokens(text string) int {
	tokenizerMu.RLock()
	tk := activeTokenizer
	tokenizerMu.RUnlock()

	if len(text) < minCachedLength {
		return tk.CountTokens(text)
	}
	return tokenCache.get(tokenCacheKey(text), func() int {
		return tk.CountTokens(text)
	})
}

// setTokenizer swaps the process-wide tokenizer. Cached counts belong to the
// previous tokenizer and are dropped.
func setTokenizer(tk Tokenizer) {
	tokenizerMu.Lock()
	prev := activeTokenizer
	activeTokenizer = tk
	tokenizerMu.Unlock()

	tokenCache.purge()
	if prev != nil && prev != tk {
		prev.Close()
	}
}
