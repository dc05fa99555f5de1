package tool

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
)

type (
	NotesSearchRequest struct {
		Query string `json:"query" jsonschema:"description=Keywords to look for in the user's notes"`
	}
	NotesSearchResponse struct {
		Matches []entity.NoteMatch `json:"matches,omitempty" jsonschema:"description=Notes matching the query"`
		Error   string             `json:"error,omitempty" jsonschema:"description=Error message if the search failed"`
	}
)

const (
	maxNoteMatches = 5
	excerptRadius  = 150
)

func (m *Manager) registerNotesSearchTool() {
	registerLocalTool(
		m,
		"search_notes",
		`Search the user's personal markdown notes (their vault) for relevant content.

Use this tool when the question is about the user's own notes, documents, projects or anything they may have written down. Provide a short keyword query; the tool returns matching notes with an excerpt around the first match.`,
		func(ctx *ai.ToolContext, req NotesSearchRequest) (res NotesSearchResponse, err error) {
			matches, err := m.searchNotes(ctx, req.Query)
			if err != nil {
				// Tool errors come back as data so the model can degrade
				// instead of aborting the run.
				res.Error = err.Error()
				return res, nil
			}
			res.Matches = matches
			return res, nil
		},
	)
}

func (m *Manager) searchNotes(ctx *ai.ToolContext, query string) ([]entity.NoteMatch, error) {
	if m.mcpClient != nil {
		return m.searchNotesMCP(ctx, query)
	}
	return m.scanVault(query)
}

// scanVault walks the vault directory and matches notes whose content or
// filename contains every query term, case-insensitively. An unset vault is
// not an error: there is just nothing to find.
func (m *Manager) scanVault(query string) ([]entity.NoteMatch, error) {
	if m.config.VaultPath == "" {
		return nil, nil
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var matches []entity.NoteMatch
	err := filepath.WalkDir(m.config.VaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != m.config.VaultPath {
				return filepath.SkipDir
			}
			return nil
		}
		if len(matches) >= maxNoteMatches || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			m.logger.Debug("skipping unreadable note", "path", path, "error", err)
			return nil
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		haystack := strings.ToLower(name + "\n" + string(raw))
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				return nil
			}
		}

		matches = append(matches, entity.NoteMatch{
			Name:    name,
			Excerpt: excerptAround(string(raw), strings.ToLower(string(raw)), terms[0]),
			Path:    path,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan vault at %s", m.config.VaultPath)
	}
	return matches, nil
}

func excerptAround(content, lowered, term string) string {
	idx := strings.Index(lowered, term)
	if idx < 0 {
		idx = 0
	}
	start := idx - excerptRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + excerptRadius
	if end > len(content) {
		end = len(content)
	}
	excerpt := strings.TrimSpace(content[start:end])
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(content) {
		excerpt += "..."
	}
	return excerpt
}
