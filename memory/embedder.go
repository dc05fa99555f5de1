package memory

import (
	"context"
	"strings"
	"sync"
)

type (
	// Embedder produces embeddings for texts, preserving input order.
	Embedder interface {
		Embed(ctx context.Context, texts ...string) ([][]float32, error)
	}

	// CachingEmbedder memoizes text->vector lookups for the lifetime of the
	// process. The cache key is the trimmed text; each distinct trimmed
	// string hits the backend at most once. There is no eviction: the memory
	// pipeline embeds short statements, unbounded growth is accepted here.
	CachingEmbedder struct {
		backend Embedder

		mu    sync.Mutex
		cache map[string][]float32
	}
)

var _ Embedder = (*CachingEmbedder)(nil)

func NewCachingEmbedder(backend Embedder) *CachingEmbedder {
	return &CachingEmbedder{
		backend: backend,
		cache:   make(map[string][]float32),
	}
}

// Embed deduplicates the trimmed inputs, embeds only the cache misses in one
// backend call, then expands the results back to the original order including
// duplicates.
func (c *CachingEmbedder) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// The lock is held across the backend call so concurrent callers cannot
	// embed the same string twice. Serializing backend calls is acceptable at
	// this scale.
	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		key := strings.TrimSpace(text)
		if _, ok := c.cache[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}

	if len(missing) > 0 {
		embeddings, err := c.backend.Embed(ctx, missing...)
		if err != nil {
			return nil, err
		}
		for i, key := range missing {
			c.cache[key] = embeddings[i]
		}
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = c.cache[strings.TrimSpace(text)]
	}
	return results, nil
}

// EmbedText embeds a single string.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
