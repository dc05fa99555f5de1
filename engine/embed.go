package engine

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/errors"
	"github.com/habiliai/secondbrain/internal/genkit/plugins/openai"
)

func (e *Engine) Embed(
	ctx context.Context,
	texts ...string,
) ([][]float32, error) {
	embedder := openai.Embedder(e.genkit, e.config.EmbeddingModel)
	if embedder == nil {
		return nil, errors.Errorf("embedding model %q is not registered", e.config.EmbeddingModel)
	}

	resp, err := ai.Embed(ctx, embedder, ai.WithTextDocs(texts...))
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		embeddings[i] = embedding.Embedding
	}

	return embeddings, nil
}
