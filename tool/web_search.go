package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
)

const tavilySearchURL = "https://api.tavily.com/search"

type (
	WebSearchRequest struct {
		Query string `json:"query" jsonschema:"description=The web search query"`
	}
	WebSearchResponse struct {
		Results []entity.SearchResult `json:"results,omitempty" jsonschema:"description=Web search results"`
		Error   string                `json:"error,omitempty" jsonschema:"description=Error message if the search failed"`
	}

	tavilyRequest struct {
		APIKey     string `json:"api_key"`
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	tavilyResponse struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
)

func (m *Manager) registerWebSearchTool() {
	registerLocalTool(
		m,
		"web_search",
		`Search the web for current information.

Use this tool for questions about recent events, external facts or anything not covered by the user's own notes. Returns result titles, URLs and snippets.`,
		func(ctx *ai.ToolContext, req WebSearchRequest) (res WebSearchResponse, err error) {
			results, err := m.searchWeb(ctx, req.Query)
			if err != nil {
				res.Error = err.Error()
				return res, nil
			}
			res.Results = results
			return res, nil
		},
	)
}

func (m *Manager) searchWeb(ctx context.Context, query string) ([]entity.SearchResult, error) {
	if m.config.TavilyAPIKey == "" {
		return nil, errors.Errorf("web search is not configured")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:     m.config.TavilyAPIKey,
		Query:      query,
		MaxResults: 5,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal search request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilySearchURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build search request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpRes, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "web search request failed")
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		return nil, errors.Errorf("web search returned status %d", httpRes.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to decode search response")
	}

	results := make([]entity.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, entity.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return results, nil
}
