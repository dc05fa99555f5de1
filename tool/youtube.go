package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/secondbrain/entity"
	"github.com/habiliai/secondbrain/errors"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

type (
	MediaSearchRequest struct {
		Query string `json:"query" jsonschema:"description=What to look for on YouTube"`
	}
	MediaSearchResponse struct {
		Results []entity.MediaResult `json:"results,omitempty" jsonschema:"description=Matching videos"`
		Error   string               `json:"error,omitempty" jsonschema:"description=Error message if the search failed"`
	}

	youtubeSearchResponse struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
				Thumbnails   struct {
					Medium struct {
						URL string `json:"url"`
					} `json:"medium"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
)

func (m *Manager) registerMediaSearchTool() {
	registerLocalTool(
		m,
		"search_media",
		`Search YouTube for videos.

Use this tool when the user asks for videos, tutorials, talks or other media content. Returns video titles, links, channels and thumbnails.`,
		func(ctx *ai.ToolContext, req MediaSearchRequest) (res MediaSearchResponse, err error) {
			results, err := m.searchMedia(ctx, req.Query)
			if err != nil {
				res.Error = err.Error()
				return res, nil
			}
			res.Results = results
			return res, nil
		},
	)
}

func (m *Manager) searchMedia(ctx context.Context, query string) ([]entity.MediaResult, error) {
	if m.config.YouTubeAPIKey == "" {
		return nil, errors.Errorf("media search is not configured")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", "5")
	params.Set("q", query)
	params.Set("key", m.config.YouTubeAPIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build media search request")
	}

	httpRes, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "media search request failed")
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		return nil, errors.Errorf("media search returned status %d", httpRes.StatusCode)
	}

	var parsed youtubeSearchResponse
	if err := json.NewDecoder(httpRes.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to decode media search response")
	}

	results := make([]entity.MediaResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, entity.MediaResult{
			Type:      entity.MediaTypeVideo,
			Title:     item.Snippet.Title,
			URL:       "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Thumbnail: item.Snippet.Thumbnails.Medium.URL,
			Channel:   item.Snippet.ChannelTitle,
		})
	}
	return results, nil
}
