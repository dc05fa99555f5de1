package tool

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
)

const agentMaxTurns = 4

type (
	// Runner drives the retrieval sub-agents. Each agent is a model call with
	// exactly one tool bound; the tool's structured output is read back from
	// the call data store rather than from the model's text.
	Runner struct {
		logger    *slog.Logger
		generator engine.Generator
		manager   *Manager
		config    *config.ModelConfig
	}
)

func NewRunner(logger *slog.Logger, generator engine.Generator, manager *Manager, conf *config.ModelConfig) *Runner {
	return &Runner{
		logger:    logger,
		generator: generator,
		manager:   manager,
		config:    conf,
	}
}

func (r *Runner) SearchNotes(ctx context.Context, query string) ([]entity.NoteMatch, error) {
	calls, err := r.runAgent(ctx, "search_notes", query,
		"You search the user's personal notes. Call the search_notes tool with focused keyword queries derived from the user's question. Try a second query with different keywords if the first finds nothing.")
	if err != nil {
		return nil, err
	}

	var matches []entity.NoteMatch
	for _, call := range calls {
		if res, ok := call.Result.(NotesSearchResponse); ok {
			matches = append(matches, res.Matches...)
		}
	}
	return matches, nil
}

func (r *Runner) SearchWeb(ctx context.Context, query string) ([]entity.SearchResult, error) {
	calls, err := r.runAgent(ctx, "web_search", query,
		"You search the web. Call the web_search tool with a concise query capturing what the user wants to know.")
	if err != nil {
		return nil, err
	}

	var results []entity.SearchResult
	for _, call := range calls {
		if res, ok := call.Result.(WebSearchResponse); ok {
			results = append(results, res.Results...)
		}
	}
	return results, nil
}

func (r *Runner) SearchMedia(ctx context.Context, query string) ([]entity.MediaResult, error) {
	calls, err := r.runAgent(ctx, "search_media", query,
		"You find videos. Call the search_media tool with a short query describing the content the user wants to watch.")
	if err != nil {
		return nil, err
	}

	var results []entity.MediaResult
	for _, call := range calls {
		if res, ok := call.Result.(MediaSearchResponse); ok {
			results = append(results, res.Results...)
		}
	}
	return results, nil
}

// runAgent runs one sub-agent generation with the named tool bound and
// returns the recorded tool invocations.
func (r *Runner) runAgent(ctx context.Context, toolName, query, system string) ([]CallData, error) {
	t := r.manager.GetTool(toolName)
	if t == nil {
		return nil, errors.Errorf("tool %q is not registered", toolName)
	}

	ctx = WithEmptyCallDataStore(ctx)

	var text string
	if _, err := r.generator.Generate(ctx, &engine.GenerateRequest{
		Model: r.config.AgentModel,
	}, &text,
		ai.WithSystem(system),
		ai.WithPrompt(query),
		ai.WithTools(t),
		ai.WithMaxTurns(agentMaxTurns),
	); err != nil {
		return nil, errors.Wrapf(err, "%s agent failed", toolName)
	}

	return GetCallData(ctx), nil
}
