package graph

import (
	"context"

	"github.com/habiliai/secondbrain/errors"
)

type node string

const (
	nodeMemoryRetrieve node = "memory-retrieve"
	nodeOrchestrator   node = "orchestrator"
	nodeAgent          node = "agent"
	nodeSynthesizer    node = "synthesizer"
	nodeMemoryStore    node = "memory-store"
	nodeTerminal       node = "terminal"
)

// maxSteps bounds the run loop. The longest legal path is retrieve, route,
// every agent once, synthesize, store; anything past this is a transition bug.
const maxSteps = 16

// OnStep is invoked once per newly appended trace line, in order.
type OnStep func(step string)

// Run executes the pipeline for one query. Direct memory commands short-
// circuit the graph entirely. The returned state always carries the full
// trace; the error is non-nil only for failures with no degraded answer.
func (p *Pipeline) Run(ctx context.Context, query string, onStep OnStep) (*State, error) {
	state := State{Query: query}
	emitted := 0
	apply := func(u Update) {
		state = state.Apply(u)
		for ; emitted < len(state.TraceSteps); emitted++ {
			if onStep != nil {
				onStep(state.TraceSteps[emitted])
			}
		}
	}

	if p.commands != nil && p.commands.IsCommand(query) {
		answer, err := p.commands.Handle(ctx, query)
		if err != nil {
			return &state, errors.Wrapf(err, "memory command failed")
		}
		apply(Update{
			FinalAnswer: answer,
			TraceSteps:  []string{"memory: command handled"},
		})
		return &state, nil
	}

	current := nodeMemoryRetrieve
	for steps := 0; steps < maxSteps; steps++ {
		switch current {
		case nodeMemoryRetrieve:
			apply(p.memoryRetrieve(ctx, state))
			current = nodeOrchestrator

		case nodeOrchestrator:
			apply(p.orchestrate(ctx, state))
			if state.Cursor < len(state.AgentQueue) {
				current = nodeAgent
			} else {
				current = nodeSynthesizer
			}

		case nodeAgent:
			apply(p.runAgent(ctx, state, state.AgentQueue[state.Cursor]))
			if state.Cursor < len(state.AgentQueue) {
				current = nodeAgent
			} else {
				apply(Update{ClearActive: true})
				current = nodeSynthesizer
			}

		case nodeSynthesizer:
			update, err := p.synthesize(ctx, state)
			if err != nil {
				return &state, errors.Wrapf(err, "synthesis failed")
			}
			apply(update)
			current = nodeMemoryStore

		case nodeMemoryStore:
			apply(p.memoryStore(ctx, state))
			current = nodeTerminal

		case nodeTerminal:
			return &state, nil
		}
	}

	return &state, errors.WithStack(errors.ErrNoTerminal)
}
