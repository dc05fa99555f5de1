package secondbrain

import (
	"context"
	"log/slog"

	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/engine"
	"github.com/habiliai/secondbrain/errors"
	"github.com/habiliai/secondbrain/graph"
	"github.com/habiliai/secondbrain/internal/genkit"
	"github.com/habiliai/secondbrain/internal/mylog"
	"github.com/habiliai/secondbrain/memory"
	"github.com/habiliai/secondbrain/tool"
)

type (
	// Runtime is the assembled assistant: the routing pipeline, the retrieval
	// agents and the memory subsystem behind one entry point.
	Runtime struct {
		logger        *slog.Logger
		engine        *engine.Engine
		toolManager   *tool.Manager
		memoryService memory.Service
		pipeline      *graph.Pipeline

		memoryStore memory.Store

		modelConfig  *config.ModelConfig
		memoryConfig *config.MemoryConfig
		toolConfig   *config.ToolConfig
		logConfig    *config.LogConfig
	}
	Option func(*Runtime)
)

func New(ctx context.Context, optionFuncs ...Option) (*Runtime, error) {
	r := &Runtime{
		modelConfig:  config.NewModelConfig(),
		memoryConfig: config.NewMemoryConfig(),
		toolConfig:   config.NewToolConfig(),
		logConfig:    config.NewLogConfig(),
	}
	for _, f := range optionFuncs {
		f(r)
	}

	if r.logger == nil {
		r.logger = mylog.NewLogger(r.logConfig.LogLevel, r.logConfig.LogHandler)
	}

	g, err := genkit.NewGenkit(ctx, r.modelConfig, r.logger)
	if err != nil {
		return nil, err
	}

	r.engine = engine.NewEngine(r.logger, g, r.modelConfig)

	if r.memoryStore == nil {
		if r.memoryConfig.SqlitePath != "" {
			r.memoryStore, err = memory.NewSqliteStore(r.memoryConfig.SqlitePath, r.memoryConfig.EmbeddingDim)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to open memory store")
			}
		} else {
			r.memoryStore = memory.NewInMemoryStore()
		}
	}
	r.memoryService = memory.NewService(r.logger, r.memoryStore, r.engine, r.memoryConfig)

	r.toolManager, err = tool.NewManager(ctx, r.logger, g, r.toolConfig)
	if err != nil {
		return nil, err
	}

	runner := tool.NewRunner(r.logger, r.engine, r.toolManager, r.modelConfig)
	extractor := memory.NewExtractor(r.logger, r.engine, r.memoryService, r.modelConfig)
	commands := memory.NewCommandHandler(r.logger, r.memoryService, r.engine, r.modelConfig)

	r.pipeline = graph.NewPipeline(
		r.logger,
		r.engine,
		r.modelConfig,
		r.memoryService,
		commands,
		extractor,
		runner,
		runner,
		runner,
	)

	return r, nil
}

// Ask runs one query through the pipeline. onStep, when non-nil, receives
// each trace line as it is appended.
func (r *Runtime) Ask(ctx context.Context, query string, onStep graph.OnStep) (*graph.State, error) {
	return r.pipeline.Run(ctx, query, onStep)
}

func (r *Runtime) MemoryService() memory.Service {
	return r.memoryService
}

func (r *Runtime) Close() error {
	r.toolManager.Close()
	return r.memoryService.Close()
}

func WithOpenAIAPIKey(apiKey string) Option {
	return func(r *Runtime) {
		r.modelConfig.OpenAIAPIKey = apiKey
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func WithModelConfig(conf *config.ModelConfig) Option {
	return func(r *Runtime) {
		r.modelConfig = conf
	}
}

// WithMemoryStore swaps in a prebuilt store, bypassing the sqlite path.
func WithMemoryStore(store memory.Store) Option {
	return func(r *Runtime) {
		r.memoryStore = store
	}
}

func WithMemoryPath(dbPath string) Option {
	return func(r *Runtime) {
		r.memoryConfig.SqlitePath = dbPath
	}
}

func WithVaultPath(vaultPath string) Option {
	return func(r *Runtime) {
		r.toolConfig.VaultPath = vaultPath
	}
}

func WithNotesMCP(command string, args []string, env map[string]string) Option {
	return func(r *Runtime) {
		r.toolConfig.NotesMCPCommand = command
		r.toolConfig.NotesMCPArgs = args
		r.toolConfig.NotesMCPEnv = env
	}
}

func WithTavilyAPIKey(apiKey string) Option {
	return func(r *Runtime) {
		r.toolConfig.TavilyAPIKey = apiKey
	}
}

func WithYouTubeAPIKey(apiKey string) Option {
	return func(r *Runtime) {
		r.toolConfig.YouTubeAPIKey = apiKey
	}
}

func WithLogConfig(logConfig *config.LogConfig) Option {
	return func(r *Runtime) {
		r.logConfig = logConfig
	}
}

func WithTraceVerbose(traceVerbose bool) Option {
	return func(r *Runtime) {
		r.modelConfig.TraceVerbose = traceVerbose
	}
}
