package memory_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator routes every model call to a handler that fills out.
type fakeGenerator struct {
	calls   int
	handler func(req *engine.GenerateRequest, out any) error
}

func (f *fakeGenerator) Generate(_ context.Context, req *engine.GenerateRequest, out any, _ ...ai.GenerateOption) (*ai.ModelResponse, error) {
	f.calls++
	if f.handler != nil {
		if err := f.handler(req, out); err != nil {
			return nil, err
		}
	}
	return &ai.ModelResponse{}, nil
}

func TestIsMemoryCommand(t *testing.T) {
	for _, query := range []string{
		"What do you know about me?",
		"what do you remember about me",
		"What's in your memory?",
		"forget that I like tea",
		"Forget about my old job",
		"remember that I prefer dark mode",
		"What have I told you?",
		"clear my memory",
		"Clear all memories please",
		"show me your memories",
		"show my memories",
	} {
		assert.True(t, memory.IsMemoryCommand(query), "should match: %s", query)
	}

	for _, query := range []string{
		"what's the weather tomorrow",
		"find my notes about memory allocation in Go",
		"I forgot my umbrella today",
		"do you remember the movie Memento",
	} {
		assert.False(t, memory.IsMemoryCommand(query), "should not match: %s", query)
	}
}

func newTestCommandHandler(t *testing.T, gen *fakeGenerator) (*memory.CommandHandler, memory.Service) {
	t.Helper()
	svc, _ := newTestService(t, &vectorEmbedder{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return memory.NewCommandHandler(logger, svc, gen, config.NewModelConfig()), svc
}

func TestCommandHandler_Remember(t *testing.T) {
	handler, svc := newTestCommandHandler(t, &fakeGenerator{})
	ctx := t.Context()

	answer, err := handler.Handle(ctx, "remember that I prefer dark mode")
	require.NoError(t, err)
	assert.Contains(t, answer, "I prefer dark mode")

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, entity.MemoryKindPreference, rec.Kind)
	assert.Equal(t, "I prefer dark mode", rec.Content)
	assert.Equal(t, entity.ImportanceHigh, rec.Importance)
	assert.True(t, rec.ExplicitRecall)
}

func TestCommandHandler_List(t *testing.T) {
	handler, svc := newTestCommandHandler(t, &fakeGenerator{})
	ctx := t.Context()

	answer, err := handler.Handle(ctx, "what do you know about me")
	require.NoError(t, err)
	assert.Contains(t, answer, "don't have anything stored")

	_, err = svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: "lives in Seoul"})
	require.NoError(t, err)

	answer, err = handler.Handle(ctx, "what do you know about me")
	require.NoError(t, err)
	assert.Contains(t, answer, "lives in Seoul")
	assert.Contains(t, answer, "Fact")

	answer, err = handler.Handle(ctx, "show my memories")
	require.NoError(t, err)
	assert.Contains(t, answer, "lives in Seoul")
}

func TestCommandHandler_ForgetPicksMemory(t *testing.T) {
	var storedID string
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			*(out.(*string)) = storedID
			return nil
		},
	}
	handler, svc := newTestCommandHandler(t, gen)
	ctx := t.Context()

	var err error
	storedID, err = svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: "likes tea"})
	require.NoError(t, err)

	answer, err := handler.Handle(ctx, "forget that I like tea")
	require.NoError(t, err)
	assert.Contains(t, answer, "forgotten")

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommandHandler_ForgetGuardsModelOutput(t *testing.T) {
	for _, picked := range []string{"", "none", "NONE", "short-id"} {
		gen := &fakeGenerator{
			handler: func(_ *engine.GenerateRequest, out any) error {
				*(out.(*string)) = picked
				return nil
			},
		}
		handler, svc := newTestCommandHandler(t, gen)
		ctx := t.Context()

		_, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: "likes tea"})
		require.NoError(t, err)

		answer, err := handler.Handle(ctx, "forget that I like tea")
		require.NoError(t, err)
		assert.Contains(t, answer, "couldn't tell", "picked=%q", picked)

		records, err := svc.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, records, 1, "nothing should be deleted for picked=%q", picked)
	}
}

func TestCommandHandler_Clear(t *testing.T) {
	handler, svc := newTestCommandHandler(t, &fakeGenerator{})
	ctx := t.Context()

	for _, content := range []string{"one", "two"} {
		_, err := svc.Remember(ctx, memory.RememberInput{Kind: entity.MemoryKindFact, Content: content})
		require.NoError(t, err)
	}

	answer, err := handler.Handle(ctx, "clear my memory")
	require.NoError(t, err)
	assert.Contains(t, answer, "forgotten everything")

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
