package config

type ToolConfig struct {
	// VaultPath points at a directory of markdown notes. Empty disables the
	// notes tool (it degrades to zero matches, it does not fail).
	VaultPath string `json:"vaultPath,omitempty"`

	// NotesMCPCommand optionally runs an MCP server for notes search instead
	// of the built-in vault scanner, e.g. an Obsidian MCP server.
	NotesMCPCommand string            `json:"notesMcpCommand,omitempty"`
	NotesMCPArgs    []string          `json:"notesMcpArgs,omitempty"`
	NotesMCPEnv     map[string]string `json:"notesMcpEnv,omitempty"`

	TavilyAPIKey  string `json:"tavilyApiKey,omitempty"`
	YouTubeAPIKey string `json:"youtubeApiKey,omitempty"`
}

func NewToolConfig() *ToolConfig {
	return &ToolConfig{}
}
