package memory_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"github.com/habiliai/secondbrain/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, gen *fakeGenerator) (*memory.Extractor, memory.Service) {
	t.Helper()
	svc, _ := newTestService(t, &vectorEmbedder{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return memory.NewExtractor(logger, gen, svc, config.NewModelConfig()), svc
}

func extractionResult(t *testing.T, out any, payload string) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(payload), out))
}

func TestExtractor_StoresAcceptedCandidates(t *testing.T) {
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			extractionResult(t, out, `{"memories":[
				{"shouldStore":true,"kind":"preference","content":"prefers dark mode","importance":"high","explicitRecall":true,"tags":["editor","ui"]},
				{"shouldStore":false,"kind":"fact","content":"asked about the weather","importance":"low","explicitRecall":false},
				{"shouldStore":true,"kind":"opinion","content":"invalid kind","importance":"low","explicitRecall":false},
				{"shouldStore":true,"kind":"fact","content":"  ","importance":"low","explicitRecall":false}
			]}`)
			return nil
		},
	}
	extractor, svc := newTestExtractor(t, gen)
	ctx := t.Context()

	err := extractor.Extract(ctx, "set up my editor", "Done, switched you to dark mode.")
	require.NoError(t, err)

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1, "rejected, invalid and blank candidates are dropped")

	rec := records[0]
	assert.Equal(t, entity.MemoryKindPreference, rec.Kind)
	assert.Equal(t, "prefers dark mode", rec.Content)
	assert.Equal(t, entity.ImportanceHigh, rec.Importance)
	assert.True(t, rec.ExplicitRecall)
	assert.EqualValues(t, []string{"editor", "ui"}, rec.Tags)
	assert.Equal(t, "set up my editor", rec.Query)
}

func TestExtractor_TruncatesAnswerProvenance(t *testing.T) {
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			extractionResult(t, out, `{"memories":[
				{"shouldStore":true,"kind":"fact","content":"works on a thesis","importance":"medium","explicitRecall":false}
			]}`)
			return nil
		},
	}
	extractor, svc := newTestExtractor(t, gen)
	ctx := t.Context()

	longAnswer := strings.Repeat("a", 2000)
	require.NoError(t, extractor.Extract(ctx, "query", longAnswer))

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Answer, 500)
}

func TestExtractor_TruncatesOnRuneBoundary(t *testing.T) {
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			extractionResult(t, out, `{"memories":[
				{"shouldStore":true,"kind":"fact","content":"writes in Korean","importance":"medium","explicitRecall":false}
			]}`)
			return nil
		},
	}
	extractor, svc := newTestExtractor(t, gen)
	ctx := t.Context()

	longAnswer := strings.Repeat("안", 2000)
	require.NoError(t, extractor.Extract(ctx, "query", longAnswer))

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, utf8.ValidString(records[0].Answer), "truncation must not split a rune")
	assert.Equal(t, 500, utf8.RuneCountInString(records[0].Answer))
}

func TestExtractor_ModelFailure(t *testing.T) {
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			return errors.New("model down")
		},
	}
	extractor, svc := newTestExtractor(t, gen)
	ctx := t.Context()

	err := extractor.Extract(ctx, "query", "answer")
	assert.Error(t, err)

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractor_NothingToStore(t *testing.T) {
	gen := &fakeGenerator{
		handler: func(_ *engine.GenerateRequest, out any) error {
			extractionResult(t, out, `{"memories":[]}`)
			return nil
		},
	}
	extractor, svc := newTestExtractor(t, gen)
	ctx := t.Context()

	require.NoError(t, extractor.Extract(ctx, "query", "answer"))

	records, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
