package memory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
)

// Memory commands are handled directly, without routing through the agent
// pipeline. The gate is intentionally literal: only phrasings that clearly
// address the assistant's memory qualify.
var memoryCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what do you (know|remember) about me`),
	regexp.MustCompile(`(?i)what('?s| is) in your memory`),
	regexp.MustCompile(`(?i)forget (that|about|my)`),
	regexp.MustCompile(`(?i)remember that`),
	regexp.MustCompile(`(?i)what have (i|you) told you`),
	regexp.MustCompile(`(?i)clear (my|your|all) memor`),
	regexp.MustCompile(`(?i)show (me )?(my|your) memor`),
}

var (
	listPattern     = regexp.MustCompile(`(?i)(what do you (know|remember) about me|what('?s| is) in your memory|what have (i|you) told you|show (me )?(my|your) memor)`)
	forgetPattern   = regexp.MustCompile(`(?i)forget (that|about|my)\s*(.*)`)
	rememberPattern = regexp.MustCompile(`(?i)remember that\s+(.+)`)
	clearPattern    = regexp.MustCompile(`(?i)clear (my|your|all) memor`)
)

// IsMemoryCommand reports whether the query addresses the memory subsystem
// directly.
func IsMemoryCommand(query string) bool {
	for _, p := range memoryCommandPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

type (
	// CommandHandler executes memory commands: listing, forgetting, explicit
	// remembering and clearing.
	CommandHandler struct {
		logger    *slog.Logger
		service   Service
		generator engine.Generator
		config    *config.ModelConfig
	}
)

func NewCommandHandler(logger *slog.Logger, service Service, generator engine.Generator, conf *config.ModelConfig) *CommandHandler {
	return &CommandHandler{
		logger:    logger,
		service:   service,
		generator: generator,
		config:    conf,
	}
}

// IsCommand reports whether the handler should take the query.
func (h *CommandHandler) IsCommand(query string) bool {
	return IsMemoryCommand(query)
}

// Handle dispatches a memory command. The query must already have passed
// IsMemoryCommand; unmatched queries get a gentle fallback rather than an
// error.
func (h *CommandHandler) Handle(ctx context.Context, query string) (string, error) {
	switch {
	case listPattern.MatchString(query):
		return h.handleList(ctx)
	case forgetPattern.MatchString(query):
		return h.handleForget(ctx, query)
	case rememberPattern.MatchString(query):
		return h.handleRemember(ctx, query)
	case clearPattern.MatchString(query):
		return h.handleClear(ctx)
	}
	return "I can list what I remember, store something new, or forget things. What would you like?", nil
}

func (h *CommandHandler) handleList(ctx context.Context) (string, error) {
	records, err := h.service.List(ctx, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list memories")
	}
	if len(records) == 0 {
		return "I don't have anything stored about you yet.", nil
	}

	byKind := map[entity.MemoryKind][]string{}
	for _, rec := range records {
		byKind[rec.Kind] = append(byKind[rec.Kind], rec.Content)
	}

	var sb strings.Builder
	sb.WriteString("Here's what I remember about you:\n")
	for _, kind := range []entity.MemoryKind{
		entity.MemoryKindFact,
		entity.MemoryKindPreference,
		entity.MemoryKindHabit,
		entity.MemoryKindConversation,
	} {
		contents := byKind[kind]
		if len(contents) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%ss:\n", capitalize(string(kind))))
		for _, content := range contents {
			sb.WriteString("- " + content + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// handleForget asks the model to pick which stored memory the user means.
// The picked id is trusted only if it passes a sanity guard; anything else
// means no confident match.
func (h *CommandHandler) handleForget(ctx context.Context, query string) (string, error) {
	records, err := h.service.List(ctx, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list memories")
	}
	if len(records) == 0 {
		return "I don't have anything stored to forget.", nil
	}

	var sb strings.Builder
	sb.WriteString("The user wants to forget a stored memory. Pick the single memory they mean and answer with its id only. If none of them match, answer exactly: none\n\nStored memories:\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("- id=%s kind=%s content=%s\n", rec.ID, rec.Kind, rec.Content))
	}
	sb.WriteString("\nThe user wants to forget: " + forgetTarget(query))

	var picked string
	if _, err := h.generator.Generate(ctx, &engine.GenerateRequest{
		Model: h.config.ExtractionModel,
	}, &picked, ai.WithPrompt(sb.String())); err != nil {
		return "", errors.Wrapf(err, "failed to resolve memory to forget")
	}

	picked = strings.TrimSpace(picked)
	if picked == "" || strings.EqualFold(picked, "none") || len(picked) <= 10 {
		return "I couldn't tell which memory you mean. Can you be more specific?", nil
	}

	if err := h.service.Forget(ctx, picked); err != nil {
		return "", errors.Wrapf(err, "failed to forget memory %s", picked)
	}
	return "Done, I've forgotten that.", nil
}

// forgetTarget strips the command phrase so the model sees a plain description
// of what should be forgotten. The full query is kept when nothing follows the
// phrase.
func forgetTarget(query string) string {
	m := forgetPattern.FindStringSubmatch(query)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return query
	}
	return strings.TrimSpace(m[2])
}

func (h *CommandHandler) handleRemember(ctx context.Context, query string) (string, error) {
	m := rememberPattern.FindStringSubmatch(query)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "What would you like me to remember?", nil
	}
	content := strings.TrimSpace(m[1])

	if _, err := h.service.Remember(ctx, RememberInput{
		Kind:           entity.MemoryKindPreference,
		Content:        content,
		Importance:     entity.ImportanceHigh,
		ExplicitRecall: true,
		Query:          query,
	}); err != nil {
		return "", errors.Wrapf(err, "failed to store memory")
	}
	return fmt.Sprintf("Got it, I'll remember that: %s", content), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *CommandHandler) handleClear(ctx context.Context) (string, error) {
	if err := h.service.Clear(ctx); err != nil {
		return "", errors.Wrapf(err, "failed to clear memories")
	}
	return "All clear. I've forgotten everything I had stored about you.", nil
}
