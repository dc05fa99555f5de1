package entity

type (
	// NoteMatch is one hit from the personal notes vault.
	NoteMatch struct {
		Name    string `json:"name" jsonschema_description:"Note title"`
		Excerpt string `json:"excerpt" jsonschema_description:"Short excerpt around the match"`
		Path    string `json:"path" jsonschema_description:"Path of the note inside the vault"`
	}

	// SearchResult is one hit from the live web search.
	SearchResult struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	}

	MediaType string

	// MediaResult is one video or image hit.
	MediaResult struct {
		Type      MediaType `json:"type"`
		Title     string    `json:"title"`
		URL       string    `json:"url"`
		Thumbnail string    `json:"thumbnail,omitempty"`
		Channel   string    `json:"channel,omitempty"`
	}

	// BrowserResult is reserved for a future browsing agent.
	BrowserResult struct {
		Summary      string `json:"summary"`
		ActionsCount int    `json:"actionsCount"`
	}
)

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)
