package config

type ModelConfig struct {
	// OpenAIAPIKey is required; it backs both the chat models and the
	// embedding model.
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`

	// RouterModel classifies the query into an agent queue.
	RouterModel string `json:"routerModel,omitempty"`

	// SynthesisModel writes the final answer.
	SynthesisModel string `json:"synthesisModel,omitempty"`

	// ExtractionModel distills finished exchanges into memories.
	ExtractionModel string `json:"extractionModel,omitempty"`

	// AgentModel drives the retrieval sub-agents and their tool calls.
	AgentModel string `json:"agentModel,omitempty"`

	// EmbeddingModel must stay fixed for the lifetime of a memory database:
	// the vector table dimension is derived from it.
	EmbeddingModel string `json:"embeddingModel,omitempty"`

	TraceVerbose bool `json:"traceVerbose,omitempty"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		RouterModel:     "openai/gpt-4o-mini",
		SynthesisModel:  "openai/gpt-4o",
		ExtractionModel: "openai/gpt-4o",
		AgentModel:      "openai/gpt-4o-mini",
		EmbeddingModel:  "text-embedding-3-small",
	}
}
