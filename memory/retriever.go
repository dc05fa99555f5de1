package memory

import (
	"context"
	"strings"

	"github.com/habiliai/secondbrain/entity"
)

const silentContextHeader = "[Background context about the user - use naturally, don't mention you remembered this]"

// retrieverLimit is deliberately wider than the default retrieval limit so the
// silent block can carry more low-stakes context.
const retrieverLimit = 10

// BuildMemoryContext retrieves memories relevant to the query and splits them
// into an explicit tier, surfaced to the user with recall phrasing, and a
// silent tier injected into prompts as background. Retrieval failures degrade
// to an empty context; answering without memory beats failing the turn.
func (s *service) BuildMemoryContext(ctx context.Context, query string) entity.MemoryContext {
	memories, err := s.Retrieve(ctx, query, &RetrieveOptions{
		Limit:    retrieverLimit,
		MinScore: s.config.MinScore,
	})
	if err != nil {
		s.logger.Warn("memory retrieval failed, continuing without context", "error", err)
		return entity.MemoryContext{}
	}
	if len(memories) == 0 {
		return entity.MemoryContext{}
	}

	var (
		explicit []entity.RetrievedMemory
		silent   []string
	)
	for _, m := range memories {
		if m.ExplicitRecall && m.Importance != entity.ImportanceLow {
			explicit = append(explicit, m)
		} else {
			silent = append(silent, "- "+m.Content)
		}
	}

	memCtx := entity.MemoryContext{
		ExplicitMemories: explicit,
		HasMemory:        true,
	}
	if len(silent) > 0 {
		memCtx.SilentContext = silentContextHeader + "\n" + strings.Join(silent, "\n")
	}
	return memCtx
}

// FormatExplicitRecalls renders explicit memories as recall lines, phrased by
// kind so the assistant sounds like it remembers rather than reciting records.
func FormatExplicitRecalls(memories []entity.RetrievedMemory) string {
	var lines []string
	for _, m := range memories {
		var prefix string
		switch m.Kind {
		case entity.MemoryKindFact:
			prefix = "Based on what you told me: "
		case entity.MemoryKindPreference:
			prefix = "Remembering your preference: "
		case entity.MemoryKindHabit:
			prefix = "I've noticed: "
		default:
			prefix = "From our previous conversations: "
		}
		lines = append(lines, prefix+m.Content)
	}
	return strings.Join(lines, "\n")
}
