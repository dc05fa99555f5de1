package memory

import (
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

//go:embed data/extract_memories.tmpl
var extractMemoriesTmpl string

const (
	// maxAnswerPromptLen bounds how much of the assistant answer the
	// extraction model sees.
	maxAnswerPromptLen = 800
	// maxAnswerProvenanceLen bounds the answer snippet stored alongside each
	// extracted memory.
	maxAnswerProvenanceLen = 500
)

type (
	// Extractor mines finished turns for durable facts about the user and
	// stores them. Extraction is always best-effort: it runs after the answer
	// has been delivered and must never surface an error to the user.
	Extractor struct {
		logger    *slog.Logger
		generator engine.Generator
		service   Service
		config    *config.ModelConfig

		promptTmpl *template.Template
	}

	extractedMemory struct {
		ShouldStore    bool     `json:"shouldStore"`
		Kind           string   `json:"kind" jsonschema:"enum=fact,enum=preference,enum=habit,enum=conversation"`
		Content        string   `json:"content"`
		Importance     string   `json:"importance" jsonschema:"enum=low,enum=medium,enum=high"`
		ExplicitRecall bool     `json:"explicitRecall"`
		Tags           []string `json:"tags,omitempty" jsonschema:"description=Short topical tags for the memory"`
	}

	extractionOutput struct {
		Memories []extractedMemory `json:"memories"`
	}
)

func NewExtractor(logger *slog.Logger, generator engine.Generator, service Service, conf *config.ModelConfig) *Extractor {
	return &Extractor{
		logger:     logger,
		generator:  generator,
		service:    service,
		config:     conf,
		promptTmpl: template.Must(template.New("extract_memories").Funcs(sprig.FuncMap()).Parse(extractMemoriesTmpl)),
	}
}

// Dispatch starts extraction on a detached goroutine so the caller's context
// cancellation, typically the end of the request, does not abort it.
func (e *Extractor) Dispatch(ctx context.Context, query, answer string) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := e.Extract(detached, query, answer); err != nil {
			e.logger.Warn("memory extraction failed", "error", err)
		}
	}()
}

// Extract asks the extraction model which parts of the turn are worth keeping
// and stores the accepted candidates concurrently.
func (e *Extractor) Extract(ctx context.Context, query, answer string) error {
	var promptBuf strings.Builder
	if err := e.promptTmpl.Execute(&promptBuf, map[string]any{
		"Query":  query,
		"Answer": truncate(answer, maxAnswerPromptLen),
	}); err != nil {
		return errors.Wrapf(err, "failed to render extraction prompt")
	}

	var output extractionOutput
	if _, err := e.generator.Generate(ctx, &engine.GenerateRequest{
		Model: e.config.ExtractionModel,
	}, &output, ai.WithPrompt(promptBuf.String())); err != nil {
		return errors.Wrapf(err, "extraction model call failed")
	}

	provenance := truncate(answer, maxAnswerProvenanceLen)

	eg, ctx := errgroup.WithContext(ctx)
	for _, m := range output.Memories {
		if !m.ShouldStore {
			continue
		}
		kind := entity.MemoryKind(m.Kind)
		if !kind.Valid() || strings.TrimSpace(m.Content) == "" {
			e.logger.Debug("skipping malformed extraction candidate", "kind", m.Kind)
			continue
		}
		input := RememberInput{
			Kind:           kind,
			Content:        strings.TrimSpace(m.Content),
			Importance:     entity.Importance(m.Importance),
			ExplicitRecall: m.ExplicitRecall,
			Tags:           m.Tags,
			Query:          query,
			Answer:         provenance,
		}
		eg.Go(func() error {
			_, err := e.service.Remember(ctx, input)
			return err
		})
	}
	return eg.Wait()
}

// truncate counts runes, not bytes, so a multi-byte character is never split
// at the boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return lo.Substring(s, 0, uint(max))
}
