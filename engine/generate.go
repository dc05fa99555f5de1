package engine

import (
	"context"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/secondbrain/errors"
)

type (
	GenerateRequest struct {
		Model string
	}
)

// Generate runs one model call. When out is a *string the raw completion text
// is returned; any other pointer requests structured output conforming to the
// value's JSON schema.
func (e *Engine) Generate(
	ctx context.Context,
	req *GenerateRequest,
	out any,
	opts ...ai.GenerateOption,
) (*ai.ModelResponse, error) {
	if out == nil {
		return nil, errors.New("output is nil")
	}
	switch v := out.(type) {
	case *string:
		opts = append(opts, ai.WithOutputFormat(ai.OutputFormatText))
	default:
		opts = append(opts, ai.WithOutputType(v))
	}

	modelName := req.Model
	if !strings.Contains(modelName, "/") {
		modelName = "openai/" + modelName
	}
	opts = append(opts, ai.WithModelName(modelName))

	resp, err := genkit.Generate(ctx, e.genkit, opts...)
	if err != nil {
		return nil, err
	}

	switch v := out.(type) {
	case *string:
		*v = resp.Text()
	default:
		if err := resp.Output(v); err != nil {
			return nil, err
		}
	}

	return resp, nil
}
