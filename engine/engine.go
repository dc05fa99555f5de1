package engine

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/secondbrain/config"
)

type (
	// Generator is the part of the engine consumers depend on for model
	// calls. It exists so pipeline nodes can be tested against fakes.
	Generator interface {
		Generate(ctx context.Context, req *GenerateRequest, out any, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
	}

	// Embedder produces embeddings for texts, preserving input order.
	Embedder interface {
		Embed(ctx context.Context, texts ...string) ([][]float32, error)
	}

	Engine struct {
		logger *slog.Logger
		genkit *genkit.Genkit
		config *config.ModelConfig
	}
)

var (
	_ Generator = (*Engine)(nil)
	_ Embedder  = (*Engine)(nil)
)

func NewEngine(logger *slog.Logger, g *genkit.Genkit, conf *config.ModelConfig) *Engine {
	return &Engine{
		logger: logger,
		genkit: g,
		config: conf,
	}
}
