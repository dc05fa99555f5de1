package graph

import (
	"github.com/habiliai/secondbrain/entity"
)

type (
	// AgentID names a retrieval agent in the routing queue.
	AgentID string

	// Intent is the orchestrator's classification of the query.
	Intent string

	// Results holds the structured output of the retrieval agents, one key
	// per agent. Keys merge shallowly: an agent writes its own key and never
	// clobbers a sibling's.
	Results struct {
		Notes  []entity.NoteMatch    `json:"notes,omitempty"`
		Search []entity.SearchResult `json:"search,omitempty"`
		Media  []entity.MediaResult  `json:"media,omitempty"`
		// Browser is reserved for a future browsing agent.
		Browser *entity.BrowserResult `json:"browser,omitempty"`
	}

	// State is the shared pipeline state. Nodes never mutate it directly;
	// they emit Updates and the runner folds them in through Apply.
	State struct {
		Query         string               `json:"query"`
		Intent        Intent               `json:"intent,omitempty"`
		AgentQueue    []AgentID            `json:"agentQueue,omitempty"`
		Cursor        int                  `json:"cursor"`
		ActiveAgent   AgentID              `json:"activeAgent,omitempty"`
		Results       Results              `json:"results"`
		TraceSteps    []string             `json:"traceSteps,omitempty"`
		FinalAnswer   string               `json:"finalAnswer,omitempty"`
		MemoryContext entity.MemoryContext `json:"memoryContext"`
	}

	// Update is one node's contribution to the state. Zero values mean "no
	// change" for replace fields; TraceSteps appends; Results merges per key.
	Update struct {
		Intent        Intent
		AgentQueue    []AgentID
		AdvanceCursor bool
		ActiveAgent   AgentID
		ClearActive   bool
		Results       *Results
		TraceSteps    []string
		FinalAnswer   string
		MemoryContext *entity.MemoryContext
	}
)

const (
	AgentNotes  AgentID = "notes-agent"
	AgentSearch AgentID = "search-agent"
	AgentMedia  AgentID = "media-agent"

	IntentNotes  Intent = "notes"
	IntentSearch Intent = "search"
	IntentMedia  Intent = "media"
	IntentHybrid Intent = "hybrid"
)

func ValidAgentID(id AgentID) bool {
	switch id {
	case AgentNotes, AgentSearch, AgentMedia:
		return true
	}
	return false
}

// Apply folds an update into the state and returns the new state. Intent,
// AgentQueue and FinalAnswer are set-once; TraceSteps is append-only; Results
// merges key by key.
func (s State) Apply(u Update) State {
	if u.Intent != "" && s.Intent == "" {
		s.Intent = u.Intent
	}
	if len(u.AgentQueue) > 0 && len(s.AgentQueue) == 0 {
		s.AgentQueue = append([]AgentID(nil), u.AgentQueue...)
	}
	if u.AdvanceCursor {
		s.Cursor++
	}
	if u.ActiveAgent != "" {
		s.ActiveAgent = u.ActiveAgent
	}
	if u.ClearActive {
		s.ActiveAgent = ""
	}
	if u.Results != nil {
		s.Results = s.Results.merge(*u.Results)
	}
	if len(u.TraceSteps) > 0 {
		s.TraceSteps = append(append([]string(nil), s.TraceSteps...), u.TraceSteps...)
	}
	if u.FinalAnswer != "" && s.FinalAnswer == "" {
		s.FinalAnswer = u.FinalAnswer
	}
	if u.MemoryContext != nil {
		s.MemoryContext = *u.MemoryContext
	}
	return s
}

func (r Results) merge(in Results) Results {
	if in.Notes != nil {
		r.Notes = in.Notes
	}
	if in.Search != nil {
		r.Search = in.Search
	}
	if in.Media != nil {
		r.Media = in.Media
	}
	if in.Browser != nil {
		r.Browser = in.Browser
	}
	return r
}

// Empty reports whether no agent produced anything.
func (r Results) Empty() bool {
	return len(r.Notes) == 0 && len(r.Search) == 0 && len(r.Media) == 0 && r.Browser == nil
}
