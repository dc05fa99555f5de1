package graph_test

import (
	"testing"

	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/graph"
	"github.com/stretchr/testify/assert"
)

func TestState_SetOnceFields(t *testing.T) {
	s := graph.State{Query: "q"}

	s = s.Apply(graph.Update{Intent: graph.IntentNotes})
	s = s.Apply(graph.Update{Intent: graph.IntentSearch})
	assert.Equal(t, graph.IntentNotes, s.Intent, "intent is set once")

	s = s.Apply(graph.Update{AgentQueue: []graph.AgentID{graph.AgentNotes}})
	s = s.Apply(graph.Update{AgentQueue: []graph.AgentID{graph.AgentSearch, graph.AgentMedia}})
	assert.Equal(t, []graph.AgentID{graph.AgentNotes}, s.AgentQueue, "queue is set once")

	s = s.Apply(graph.Update{FinalAnswer: "first"})
	s = s.Apply(graph.Update{FinalAnswer: "second"})
	assert.Equal(t, "first", s.FinalAnswer, "final answer is set once")
}

func TestState_TraceAppendsInOrder(t *testing.T) {
	s := graph.State{}
	s = s.Apply(graph.Update{TraceSteps: []string{"one"}})
	s = s.Apply(graph.Update{TraceSteps: []string{"two", "three"}})
	assert.Equal(t, []string{"one", "two", "three"}, s.TraceSteps)
}

func TestState_ResultsMergePerKey(t *testing.T) {
	s := graph.State{}

	s = s.Apply(graph.Update{Results: &graph.Results{
		Notes: []entity.NoteMatch{{Name: "note-a"}},
	}})
	s = s.Apply(graph.Update{Results: &graph.Results{
		Search: []entity.SearchResult{{Title: "result-a"}},
	}})

	assert.Len(t, s.Results.Notes, 1, "sibling keys survive a merge")
	assert.Len(t, s.Results.Search, 1)
	assert.False(t, s.Results.Empty())

	// An agent that ran and found nothing still claims its key.
	s2 := graph.State{}
	s2 = s2.Apply(graph.Update{Results: &graph.Results{Notes: []entity.NoteMatch{}}})
	assert.NotNil(t, s2.Results.Notes)
	assert.True(t, s2.Results.Empty())
}

func TestState_CursorAndActiveAgent(t *testing.T) {
	s := graph.State{}
	assert.Equal(t, 0, s.Cursor)

	s = s.Apply(graph.Update{ActiveAgent: graph.AgentNotes, AdvanceCursor: true})
	assert.Equal(t, 1, s.Cursor)
	assert.Equal(t, graph.AgentNotes, s.ActiveAgent)

	s = s.Apply(graph.Update{ClearActive: true})
	assert.Empty(t, s.ActiveAgent)
}

func TestState_MemoryContextReplaces(t *testing.T) {
	s := graph.State{}
	s = s.Apply(graph.Update{MemoryContext: &entity.MemoryContext{HasMemory: true, SilentContext: "ctx"}})
	assert.True(t, s.MemoryContext.HasMemory)

	s = s.Apply(graph.Update{})
	assert.True(t, s.MemoryContext.HasMemory, "empty update leaves memory context alone")
}

func TestValidAgentID(t *testing.T) {
	assert.True(t, graph.ValidAgentID(graph.AgentNotes))
	assert.True(t, graph.ValidAgentID(graph.AgentSearch))
	assert.True(t, graph.ValidAgentID(graph.AgentMedia))
	assert.False(t, graph.ValidAgentID("browser-agent"))
}
