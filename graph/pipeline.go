package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/memory"
	"github.com/samber/lo"
)

type (
	// NotesSearcher runs the notes agent.
	NotesSearcher interface {
		SearchNotes(ctx context.Context, query string) ([]entity.NoteMatch, error)
	}
	// WebSearcher runs the web search agent.
	WebSearcher interface {
		SearchWeb(ctx context.Context, query string) ([]entity.SearchResult, error)
	}
	// MediaSearcher runs the media agent.
	MediaSearcher interface {
		SearchMedia(ctx context.Context, query string) ([]entity.MediaResult, error)
	}

	// MemoryProvider supplies memory context for a query.
	MemoryProvider interface {
		BuildMemoryContext(ctx context.Context, query string) entity.MemoryContext
	}

	// CommandGate recognizes and executes direct memory commands.
	CommandGate interface {
		IsCommand(query string) bool
		Handle(ctx context.Context, query string) (string, error)
	}

	// ExtractionDispatcher kicks off post-answer memory extraction.
	ExtractionDispatcher interface {
		Dispatch(ctx context.Context, query, answer string)
	}

	// Pipeline wires the pipeline nodes together. All model traffic goes
	// through the generator; agents, memory and commands sit behind small
	// interfaces so every node is testable against fakes.
	Pipeline struct {
		logger    *slog.Logger
		generator engine.Generator
		config    *config.ModelConfig

		memoryProvider MemoryProvider
		commands       CommandGate
		extractor      ExtractionDispatcher

		notes NotesSearcher
		web   WebSearcher
		media MediaSearcher
	}

	// RoutingDecision is the orchestrator's structured output.
	RoutingDecision struct {
		Intent    string   `json:"intent" jsonschema:"enum=notes,enum=search,enum=media,enum=hybrid,description=The kind of retrieval this query needs"`
		Agents    []string `json:"agents" jsonschema:"description=Ordered agent queue to run,minItems=1"`
		Reasoning string   `json:"reasoning" jsonschema:"description=One sentence explaining the routing"`
	}
)

const noResultsAnswer = "I wasn't able to find anything relevant for that."

func NewPipeline(
	logger *slog.Logger,
	generator engine.Generator,
	conf *config.ModelConfig,
	memoryProvider MemoryProvider,
	commands CommandGate,
	extractor ExtractionDispatcher,
	notes NotesSearcher,
	web WebSearcher,
	media MediaSearcher,
) *Pipeline {
	return &Pipeline{
		logger:         logger,
		generator:      generator,
		config:         conf,
		memoryProvider: memoryProvider,
		commands:       commands,
		extractor:      extractor,
		notes:          notes,
		web:            web,
		media:          media,
	}
}

func (p *Pipeline) memoryRetrieve(ctx context.Context, s State) Update {
	if p.memoryProvider == nil {
		return Update{TraceSteps: []string{"memory: disabled"}}
	}
	memCtx := p.memoryProvider.BuildMemoryContext(ctx, s.Query)
	trace := "memory: no relevant memories"
	if memCtx.HasMemory {
		trace = fmt.Sprintf("memory: recalled %d explicit, silent context %v",
			len(memCtx.ExplicitMemories), memCtx.SilentContext != "")
	}
	return Update{
		MemoryContext: &memCtx,
		TraceSteps:    []string{trace},
	}
}

const orchestratorSystem = `You route user queries to retrieval agents. Decide which agents should run and in what order.

Routing policy:
- Questions about the user's own notes, projects, or personal documents: notes-agent
- Questions needing current facts, news, or general web knowledge: search-agent
- Explicit requests for videos or other media: media-agent
- Hybrid questions touching both personal notes and external facts: notes-agent first, then search-agent

Pick the smallest queue that can answer the question. The agents list must name at least one agent.`

// orchestrate classifies the query into an ordered agent queue. A routing
// failure degrades to an empty queue so the synthesizer can still answer from
// memory context alone.
func (p *Pipeline) orchestrate(ctx context.Context, s State) Update {
	var decision RoutingDecision
	if _, err := p.generator.Generate(ctx, &engine.GenerateRequest{
		Model: p.config.RouterModel,
	}, &decision,
		ai.WithSystem(orchestratorSystem),
		ai.WithPrompt(s.Query),
	); err != nil {
		p.logger.Warn("routing failed, answering without agents", "error", err)
		return Update{TraceSteps: []string{"orchestrator: routing failed, answering directly"}}
	}

	queue, dropped := validateQueue(decision.Agents)

	traces := []string{fmt.Sprintf("orchestrator: intent=%s queue=%v (%s)",
		decision.Intent, queue, decision.Reasoning)}
	if dropped > 0 {
		traces = append(traces, fmt.Sprintf("orchestrator: dropped %d invalid or repeated agent ids", dropped))
	}

	return Update{
		Intent:     Intent(decision.Intent),
		AgentQueue: queue,
		TraceSteps: traces,
	}
}

// validateQueue keeps known agent ids only and collapses repeats to their
// first occurrence, preserving order.
func validateQueue(raw []string) (queue []AgentID, dropped int) {
	seen := make(map[AgentID]struct{})
	for _, name := range raw {
		id := AgentID(name)
		if !ValidAgentID(id) {
			dropped++
			continue
		}
		if _, ok := seen[id]; ok {
			dropped++
			continue
		}
		seen[id] = struct{}{}
		queue = append(queue, id)
	}
	return queue, dropped
}

// runAgent executes one queued agent. Agent failures never abort the
// pipeline: the agent contributes nothing and the trace records why.
func (p *Pipeline) runAgent(ctx context.Context, s State, id AgentID) Update {
	update := Update{
		ActiveAgent:   id,
		AdvanceCursor: true,
	}

	switch id {
	case AgentNotes:
		matches, err := p.notes.SearchNotes(ctx, s.Query)
		if err != nil {
			update.TraceSteps = []string{fmt.Sprintf("notes-agent: failed (%v)", err)}
			return update
		}
		update.Results = &Results{Notes: emptyToNonNil(matches)}
		update.TraceSteps = []string{fmt.Sprintf("notes-agent: found %d notes", len(matches))}
	case AgentSearch:
		results, err := p.web.SearchWeb(ctx, s.Query)
		if err != nil {
			update.TraceSteps = []string{fmt.Sprintf("search-agent: failed (%v)", err)}
			return update
		}
		update.Results = &Results{Search: emptyToNonNil(results)}
		update.TraceSteps = []string{fmt.Sprintf("search-agent: found %d results", len(results))}
	case AgentMedia:
		results, err := p.media.SearchMedia(ctx, s.Query)
		if err != nil {
			update.TraceSteps = []string{fmt.Sprintf("media-agent: failed (%v)", err)}
			return update
		}
		update.Results = &Results{Media: emptyToNonNil(results)}
		update.TraceSteps = []string{fmt.Sprintf("media-agent: found %d videos", len(results))}
	default:
		update.TraceSteps = []string{fmt.Sprintf("agent %s: unknown, skipped", id)}
	}
	return update
}

// emptyToNonNil keeps a ran-but-found-nothing agent distinguishable from one
// that never ran: the Results key merges only when non-nil.
func emptyToNonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

const synthesizerSystem = `You are a personal assistant with access to the user's notes, web search results, and memory of past conversations.

Answer the user's question using the retrieved context below. Be direct and conversational. Cite note names and result URLs inline where they support the answer. If the context only partially covers the question, say what you found and what you could not.`

// synthesize writes the final answer from the accumulated results. With
// nothing retrieved and nothing recalled it answers canned, without a model
// call. A model failure here is a hard error: there is no answer to salvage.
func (p *Pipeline) synthesize(ctx context.Context, s State) (Update, error) {
	sections := buildContextSections(s)
	explicitRecalls := memory.FormatExplicitRecalls(s.MemoryContext.ExplicitMemories)

	if len(sections) == 0 && explicitRecalls == "" {
		return Update{
			FinalAnswer: noResultsAnswer,
			TraceSteps:  []string{"synthesizer: no results"},
		}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Question: " + s.Query + "\n")
	if explicitRecalls != "" {
		prompt.WriteString("\nThings to recall out loud for the user:\n" + explicitRecalls + "\n")
	}
	if s.MemoryContext.SilentContext != "" {
		prompt.WriteString("\n" + s.MemoryContext.SilentContext + "\n")
	}
	for _, section := range sections {
		prompt.WriteString("\n" + section + "\n")
	}

	var answer string
	if _, err := p.generator.Generate(ctx, &engine.GenerateRequest{
		Model: p.config.SynthesisModel,
	}, &answer,
		ai.WithSystem(synthesizerSystem),
		ai.WithPrompt(prompt.String()),
	); err != nil {
		return Update{}, err
	}

	return Update{
		FinalAnswer: answer,
		TraceSteps:  []string{"synthesizer: answer composed"},
	}, nil
}

// buildContextSections renders each non-empty results key as a titled block,
// in a fixed order the synthesis prompt relies on.
func buildContextSections(s State) []string {
	var sections []string

	if len(s.Results.Notes) > 0 {
		lines := lo.Map(s.Results.Notes, func(n entity.NoteMatch, _ int) string {
			return fmt.Sprintf("- %s: %s", n.Name, n.Excerpt)
		})
		sections = append(sections, "Notes from the user's vault:\n"+strings.Join(lines, "\n"))
	}
	if len(s.Results.Search) > 0 {
		lines := lo.Map(s.Results.Search, func(r entity.SearchResult, _ int) string {
			return fmt.Sprintf("- %s (%s): %s", r.Title, r.URL, r.Snippet)
		})
		sections = append(sections, "Web search results:\n"+strings.Join(lines, "\n"))
	}
	if len(s.Results.Media) > 0 {
		lines := lo.Map(s.Results.Media, func(m entity.MediaResult, _ int) string {
			return fmt.Sprintf("- %s by %s (%s)", m.Title, m.Channel, m.URL)
		})
		sections = append(sections, "Videos:\n"+strings.Join(lines, "\n"))
	}
	if s.Results.Browser != nil && s.Results.Browser.Summary != "" {
		sections = append(sections, "Browsing summary:\n"+s.Results.Browser.Summary)
	}
	return sections
}

func (p *Pipeline) memoryStore(ctx context.Context, s State) Update {
	if p.extractor == nil || s.FinalAnswer == "" || s.FinalAnswer == noResultsAnswer {
		return Update{}
	}
	p.extractor.Dispatch(ctx, s.Query, s.FinalAnswer)
	return Update{TraceSteps: []string{"memory: extraction dispatched"}}
}
