package tool

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/secondbrain/config"
	"github.com/habiliai/secondbrain/errors"
	mcpclient "github.com/mark3labs/mcp-go/client"
)

type (
	// Manager owns the retrieval tools. Each tool records its typed result
	// through the call data store so agent runners can read structured output
	// after a generation instead of scraping model text.
	Manager struct {
		logger *slog.Logger
		genkit *genkit.Genkit
		config *config.ToolConfig

		httpClient *http.Client

		mtx       sync.Mutex
		mcpClient *mcpclient.Client
	}
)

func NewManager(ctx context.Context, logger *slog.Logger, g *genkit.Genkit, conf *config.ToolConfig) (*Manager, error) {
	m := &Manager{
		logger: logger,
		genkit: g,
		config: conf,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if conf.NotesMCPCommand != "" {
		if err := m.connectNotesMCP(ctx); err != nil {
			return nil, errors.Wrapf(err, "failed to connect notes MCP server")
		}
	}

	m.registerNotesSearchTool()
	m.registerWebSearchTool()
	m.registerMediaSearchTool()

	return m, nil
}

func (m *Manager) GetTool(toolName string) ai.Tool {
	return genkit.LookupTool(m.genkit, toolName)
}

func (m *Manager) Close() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.mcpClient != nil {
		if err := m.mcpClient.Close(); err != nil {
			m.logger.Warn("failed to close notes MCP client", "error", err)
		}
		m.mcpClient = nil
	}
}
