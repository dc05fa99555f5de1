package tool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// connectNotesMCP starts the configured notes MCP server over stdio and picks
// its search tool. When connected, notes queries go to the server instead of
// the built-in vault scanner.
func (m *Manager) connectNotesMCP(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	var envs []string
	for key, val := range m.config.NotesMCPEnv {
		envs = append(envs, fmt.Sprintf("%s=%s", key, val))
	}

	c, err := mcpclient.NewStdioMCPClient(m.config.NotesMCPCommand, envs, m.config.NotesMCPArgs...)
	if err != nil {
		return errors.Wrapf(err, "failed to start notes MCP server")
	}

	if stderr, ok := mcpclient.GetStderr(c); ok {
		go func(stderr io.Reader) {
			rd := bufio.NewReader(stderr)
			for {
				line, err := rd.ReadString('\n')
				if err != nil {
					if err == io.EOF || strings.Contains(err.Error(), "already closed") {
						return
					}
					m.logger.Error("failed to read notes MCP stderr", "error", err)
					return
				}
				m.logger.Warn("[notes MCP] " + strings.TrimSpace(line))
			}
		}(stderr)
	}

	initRequest := mcpgo.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		_ = c.Close()
		return errors.Wrapf(err, "failed to initialize notes MCP client")
	}

	m.mcpClient = c
	return nil
}

func (m *Manager) notesMCPSearchToolName(ctx context.Context) (string, error) {
	listToolsResult, err := m.mcpClient.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return "", errors.Wrapf(err, "failed to list notes MCP tools")
	}
	for _, t := range listToolsResult.Tools {
		if strings.Contains(strings.ToLower(t.Name), "search") {
			return t.Name, nil
		}
	}
	return "", errors.Errorf("notes MCP server exposes no search tool")
}

func (m *Manager) searchNotesMCP(ctx context.Context, query string) ([]entity.NoteMatch, error) {
	toolName, err := m.notesMCPSearchToolName(ctx)
	if err != nil {
		return nil, err
	}

	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = map[string]any{"query": query}

	result, err := m.mcpClient.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "notes MCP search failed")
	}
	if result.IsError {
		return nil, errors.Errorf("notes MCP search returned an error")
	}

	var matches []entity.NoteMatch
	for _, content := range result.Content {
		text, ok := content.(mcpgo.TextContent)
		if !ok || strings.TrimSpace(text.Text) == "" {
			continue
		}
		matches = append(matches, entity.NoteMatch{
			Name:    toolName,
			Excerpt: text.Text,
		})
		if len(matches) >= maxNoteMatches {
			break
		}
	}
	return matches, nil
}
