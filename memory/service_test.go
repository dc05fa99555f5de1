package memory_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/memory"
	"github.com/mokiat/gog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vectorEmbedder maps known texts to fixed unit vectors so distances, and
// therefore scores, are exact.
type vectorEmbedder struct {
	vectors map[string][]float32
}

func (e *vectorEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			embeddings[i] = v
		} else {
			embeddings[i] = []float32{1, 0}
		}
	}
	return embeddings, nil
}

func newTestService(t *testing.T, embedder memory.Embedder) (memory.Service, *memory.InMemoryStore) {
	t.Helper()
	store := memory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := memory.NewService(logger, store, embedder, config.NewMemoryConfig())
	return svc, store
}

func TestScoreFromDistance(t *testing.T) {
	assert.InDelta(t, 1.0, memory.ScoreFromDistance(0), 1e-9)
	assert.InDelta(t, 0.5, memory.ScoreFromDistance(1), 1e-9)
	assert.InDelta(t, 0.0, memory.ScoreFromDistance(2), 1e-9)
	assert.Equal(t, 0.0, memory.ScoreFromDistance(3), "scores clamp at zero")
	assert.Equal(t, 1.0, memory.ScoreFromDistance(-0.5), "scores clamp at one")
}

func TestService_RememberValidation(t *testing.T) {
	svc, _ := newTestService(t, &vectorEmbedder{})
	ctx := t.Context()

	_, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact})
	assert.Error(t, err, "empty content should be rejected")

	_, err = svc.Remember(ctx, memory.RememberInput{Kind: "opinion", Content: "x"})
	assert.Error(t, err, "unknown kind should be rejected")

	id, err := svc.Remember(ctx, memory.RememberInput{
		Kind:    entity.MemoryKindFact,
		Content: "the user's name is Kim",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestService_RetrieveScoresAndFilters(t *testing.T) {
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		"query":     {1, 0},
		"exact":     {1, 0},          // distance 0.0, score 1.0
		"close":     {0.8, 0.6},      // distance 0.4, score 0.8
		"marginal":  {0.28, 0.96},    // distance 1.44, score 0.28
		"unrelated": {0, 1},          // distance 2.0, score 0.0
	}}
	svc, _ := newTestService(t, embedder)
	ctx := t.Context()

	for content, kind := range map[string]entity.MemoryKind{
		"exact":     entity.MemoryKindFact,
		"close":     entity.MemoryKindPreference,
		"marginal":  entity.MemoryKindFact,
		"unrelated": entity.MemoryKindFact,
	} {
		_, err := svc.Remember(ctx, memory.RememberInput{Kind: kind, Content: content})
		require.NoError(t, err)
	}

	results, err := svc.Retrieve(ctx, "query", nil)
	require.NoError(t, err)
	require.Len(t, results, 2, "default min score drops marginal and unrelated")

	assert.Equal(t, "exact", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "close", results[1].Content)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)

	// Kind filter keeps only matching records.
	results, err = svc.Retrieve(ctx, "query", &memory.RetrieveOptions{
		Kinds: []entity.MemoryKind{entity.MemoryKindPreference},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close", results[0].Content)

	// A permissive min score lets everything through, limit still applies.
	results, err = svc.Retrieve(ctx, "query", &memory.RetrieveOptions{
		Limit:    2,
		MinScore: 0.01,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestService_RetrieveBumpsAccessCounts(t *testing.T) {
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		"query": {1, 0},
		"hit":   {1, 0},
	}}
	svc, store := newTestService(t, embedder)
	ctx := t.Context()

	_, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: "hit"})
	require.NoError(t, err)

	_, err = svc.Retrieve(ctx, "query", nil)
	require.NoError(t, err)

	// The bump runs on a detached goroutine.
	assert.Eventually(t, func() bool {
		records, err := store.List(context.Background())
		if err != nil || len(records) != 1 {
			return false
		}
		return records[0].AccessCount == 1
	}, time.Second, 10*time.Millisecond)
}

func TestService_ListAndForget(t *testing.T) {
	svc, _ := newTestService(t, &vectorEmbedder{})
	ctx := t.Context()

	factID, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: "a fact"})
	require.NoError(t, err)
	_, err = svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindHabit, Content: "a habit"})
	require.NoError(t, err)

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.List(ctx, gog.PtrOf(entity.MemoryKindHabit))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a habit", records[0].Content)

	require.NoError(t, svc.Forget(ctx, factID))
	records, err = svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestService_Clear(t *testing.T) {
	svc, _ := newTestService(t, &vectorEmbedder{})
	ctx := t.Context()

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: content})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Clear(ctx))

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
