package graph_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"github.com/habiliai/secondbrain/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// fakeGenerator answers routing calls with a fixed decision and synthesis
	// calls with a fixed answer, tracking how often each was hit.
	fakeGenerator struct {
		conf *config.ModelConfig

		routing    graph.RoutingDecision
		routingErr error
		answer     string
		synthErr   error

		routerCalls int
		synthCalls  int
	}

	fakeSearchers struct {
		notes    []entity.NoteMatch
		notesErr error
		search   []entity.SearchResult
		media    []entity.MediaResult

		order []string
	}

	fakeMemory struct {
		ctx entity.MemoryContext
	}

	fakeCommands struct {
		isCommand bool
		answer    string
		err       error
		handled   int
	}

	fakeExtractor struct {
		dispatched []string
	}
)

func (f *fakeGenerator) Generate(_ context.Context, req *engine.GenerateRequest, out any, _ ...ai.GenerateOption) (*ai.ModelResponse, error) {
	switch req.Model {
	case f.conf.RouterModel:
		f.routerCalls++
		if f.routingErr != nil {
			return nil, f.routingErr
		}
		*(out.(*graph.RoutingDecision)) = f.routing
	case f.conf.SynthesisModel:
		f.synthCalls++
		if f.synthErr != nil {
			return nil, f.synthErr
		}
		*(out.(*string)) = f.answer
	default:
		return nil, errors.Errorf("unexpected model %q", req.Model)
	}
	return &ai.ModelResponse{}, nil
}

func (f *fakeSearchers) SearchNotes(context.Context, string) ([]entity.NoteMatch, error) {
	f.order = append(f.order, "notes")
	if f.notesErr != nil {
		return nil, f.notesErr
	}
	return f.notes, nil
}

func (f *fakeSearchers) SearchWeb(context.Context, string) ([]entity.SearchResult, error) {
	f.order = append(f.order, "search")
	return f.search, nil
}

func (f *fakeSearchers) SearchMedia(context.Context, string) ([]entity.MediaResult, error) {
	f.order = append(f.order, "media")
	return f.media, nil
}

func (f *fakeMemory) BuildMemoryContext(context.Context, string) entity.MemoryContext {
	return f.ctx
}

func (f *fakeCommands) IsCommand(string) bool { return f.isCommand }

func (f *fakeCommands) Handle(context.Context, string) (string, error) {
	f.handled++
	return f.answer, f.err
}

func (f *fakeExtractor) Dispatch(_ context.Context, query, _ string) {
	f.dispatched = append(f.dispatched, query)
}

type pipelineFixture struct {
	gen       *fakeGenerator
	searchers *fakeSearchers
	memory    *fakeMemory
	commands  *fakeCommands
	extractor *fakeExtractor
	pipeline  *graph.Pipeline
}

func newPipelineFixture() *pipelineFixture {
	conf := config.NewModelConfig()
	f := &pipelineFixture{
		gen:       &fakeGenerator{conf: conf, answer: "synthesized answer"},
		searchers: &fakeSearchers{},
		memory:    &fakeMemory{},
		commands:  &fakeCommands{},
		extractor: &fakeExtractor{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.pipeline = graph.NewPipeline(
		logger, f.gen, conf,
		f.memory, f.commands, f.extractor,
		f.searchers, f.searchers, f.searchers,
	)
	return f
}

func TestRun_NotesRoute(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{
		Intent:    "notes",
		Agents:    []string{"notes-agent"},
		Reasoning: "personal question",
	}
	f.searchers.notes = []entity.NoteMatch{{Name: "thesis", Excerpt: "draft outline"}}

	var steps []string
	state, err := f.pipeline.Run(t.Context(), "what did I write about my thesis?", func(s string) {
		steps = append(steps, s)
	})
	require.NoError(t, err)

	assert.Equal(t, graph.IntentNotes, state.Intent)
	assert.Equal(t, []graph.AgentID{graph.AgentNotes}, state.AgentQueue)
	assert.Equal(t, "synthesized answer", state.FinalAnswer)
	assert.Len(t, state.Results.Notes, 1)

	assert.Equal(t, []string{"notes"}, f.searchers.order)
	assert.Equal(t, state.TraceSteps, steps, "onStep sees every trace line in order")
	assert.Equal(t, []string{"what did I write about my thesis?"}, f.extractor.dispatched)
}

func TestRun_HybridRunsNotesBeforeSearch(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{
		Intent: "hybrid",
		Agents: []string{"notes-agent", "search-agent"},
	}
	f.searchers.notes = []entity.NoteMatch{{Name: "note"}}
	f.searchers.search = []entity.SearchResult{{Title: "result"}}

	state, err := f.pipeline.Run(t.Context(), "compare my notes with current research", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "search"}, f.searchers.order)
	assert.Len(t, state.Results.Notes, 1)
	assert.Len(t, state.Results.Search, 1)
	assert.Equal(t, 2, state.Cursor)
}

func TestRun_DedupesRepeatedAgents(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{
		Intent: "hybrid",
		Agents: []string{"notes-agent", "search-agent", "notes-agent", "browser-agent"},
	}

	state, err := f.pipeline.Run(t.Context(), "anything", nil)
	require.NoError(t, err)

	assert.Equal(t, []graph.AgentID{graph.AgentNotes, graph.AgentSearch}, state.AgentQueue)
	assert.Equal(t, []string{"notes", "search"}, f.searchers.order, "each agent runs once")
	assert.Contains(t, state.TraceSteps, "orchestrator: dropped 2 invalid or repeated agent ids")
}

func TestRun_RoutingFailureAnswersFromMemory(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routingErr = errors.New("router down")
	f.memory.ctx = entity.MemoryContext{
		HasMemory: true,
		ExplicitMemories: []entity.RetrievedMemory{
			{Kind: entity.MemoryKindFact, Content: "you live in Seoul"},
		},
	}

	state, err := f.pipeline.Run(t.Context(), "where do I live?", nil)
	require.NoError(t, err)

	assert.Empty(t, state.AgentQueue)
	assert.Empty(t, f.searchers.order)
	assert.Equal(t, "synthesized answer", state.FinalAnswer, "synthesizer still runs on memory alone")
	assert.Equal(t, 1, f.gen.synthCalls)
}

func TestRun_NoResultsSkipsSynthesisModel(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{Intent: "notes", Agents: []string{"notes-agent"}}
	f.gen.synthErr = errors.New("must not be called")
	// notes agent runs but finds nothing, no memory context either

	state, err := f.pipeline.Run(t.Context(), "anything", nil)
	require.NoError(t, err)

	assert.Equal(t, "I wasn't able to find anything relevant for that.", state.FinalAnswer)
	assert.Contains(t, state.TraceSteps, "synthesizer: no results")
	assert.Equal(t, 0, f.gen.synthCalls)
	assert.Empty(t, f.extractor.dispatched, "canned answers are not extracted")
}

func TestRun_AgentFailureDegrades(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{
		Intent: "hybrid",
		Agents: []string{"notes-agent", "search-agent"},
	}
	f.searchers.notesErr = errors.New("vault unreadable")
	f.searchers.search = []entity.SearchResult{{Title: "result"}}

	state, err := f.pipeline.Run(t.Context(), "anything", nil)
	require.NoError(t, err)

	assert.Empty(t, state.Results.Notes)
	assert.Len(t, state.Results.Search, 1)
	assert.Equal(t, "synthesized answer", state.FinalAnswer)

	var failedTrace bool
	for _, step := range state.TraceSteps {
		if step == "notes-agent: failed (vault unreadable)" {
			failedTrace = true
		}
	}
	assert.True(t, failedTrace, "agent failure is recorded in the trace")
}

func TestRun_SynthesisFailureIsHard(t *testing.T) {
	f := newPipelineFixture()
	f.gen.routing = graph.RoutingDecision{Intent: "notes", Agents: []string{"notes-agent"}}
	f.searchers.notes = []entity.NoteMatch{{Name: "note"}}
	f.gen.synthErr = errors.New("model down")

	state, err := f.pipeline.Run(t.Context(), "anything", nil)
	require.Error(t, err)
	assert.Empty(t, state.FinalAnswer)
}

func TestRun_MemoryCommandShortCircuits(t *testing.T) {
	f := newPipelineFixture()
	f.commands.isCommand = true
	f.commands.answer = "Got it, I'll remember that."

	state, err := f.pipeline.Run(t.Context(), "remember that I prefer dark mode", nil)
	require.NoError(t, err)

	assert.Equal(t, "Got it, I'll remember that.", state.FinalAnswer)
	assert.Equal(t, 1, f.commands.handled)
	assert.Equal(t, 0, f.gen.routerCalls, "the graph never runs")
	assert.Empty(t, f.searchers.order)
	assert.Empty(t, f.extractor.dispatched)
}

func TestRun_MemoryCommandFailure(t *testing.T) {
	f := newPipelineFixture()
	f.commands.isCommand = true
	f.commands.err = errors.New("store down")

	_, err := f.pipeline.Run(t.Context(), "clear my memory", nil)
	require.Error(t, err)
}
