package config

type MemoryConfig struct {
	// SqlitePath is the memory database location. Empty means the in-memory
	// store: nothing survives the process.
	SqlitePath string `json:"sqlitePath,omitempty"`

	// EmbeddingDim is the native dimension of the embedding model. It fixes
	// the vector table schema at bootstrap.
	EmbeddingDim int `json:"embeddingDim,omitempty"`

	// RetrieveLimit and MinScore are the defaults applied when a caller does
	// not override them.
	RetrieveLimit int     `json:"retrieveLimit,omitempty"`
	MinScore      float64 `json:"minScore,omitempty"`

	// OverfetchFactor controls how many nearest neighbours are pulled before
	// score and kind filters are applied.
	OverfetchFactor int `json:"overfetchFactor,omitempty"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		EmbeddingDim:    1536, // text-embedding-3-small
		RetrieveLimit:   8,
		MinScore:        0.55,
		OverfetchFactor: 2,
	}
}
