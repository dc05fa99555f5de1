package genkit

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/errors"
	"github.com/habiliai/secondbrain/internal/genkit/plugins/openai"
)

// NewGenkit initializes genkit with the OpenAI-compatible plugin. The
// embedding model registered here must match the memory database dimension.
func NewGenkit(ctx context.Context, conf *config.ModelConfig, logger *slog.Logger) (*genkit.Genkit, error) {
	if conf.OpenAIAPIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "openai api key is required")
	}

	g, err := genkit.Init(
		ctx,
		genkit.WithPlugins(&openai.Plugin{APIKey: conf.OpenAIAPIKey}),
		genkit.WithDefaultModel(conf.SynthesisModel),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init genkit")
	}

	genkit.RegisterSpanProcessor(g, &loggingSpanProcessor{
		verbose: conf.TraceVerbose,
		logger:  logger,
	})

	return g, nil
}
