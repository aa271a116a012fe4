package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/retry"
)

// Defaults for the YouTube Data API v3 client.
const (
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"
	DefaultMaxResults     = 10
	DefaultRegion         = "IN"
)

// YouTubeClient searches videos through the YouTube Data API v3.
type YouTubeClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	region     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewYouTubeClient creates a client. Zero maxResults and empty region and
// baseURL take the package defaults.
func NewYouTubeClient(baseURL, apiKey string, maxResults int, region string, httpClient *http.Client, logger *slog.Logger) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if region == "" {
		region = DefaultRegion
	}
	return &YouTubeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		region:     region,
		httpClient: httpClient,
		logger:     logger,
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string           `json:"title"`
			ChannelTitle string           `json:"channelTitle"`
			PublishedAt  string           `json:"publishedAt"`
			Thumbnails   map[string]thumb `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type thumb struct {
	URL string `json:"url"`
}

type videoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type videosResponse struct {
	Items []struct {
		ID         string          `json:"id"`
		Statistics videoStatistics `json:"statistics"`
	} `json:"items"`
}

// SearchVideos returns the most relevant safe-search videos for query,
// merged with their view, like and comment counts. A 403 from the API is
// reported as model.ErrQuotaExceeded. Statistics failures leave counts at zero.
func (c *YouTubeClient) SearchVideos(ctx context.Context, query string) ([]model.Video, error) {
	params := url.Values{
		"part":              {"snippet"},
		"q":                 {query},
		"type":              {"video"},
		"maxResults":        {strconv.Itoa(c.maxResults)},
		"order":             {"relevance"},
		"regionCode":        {c.region},
		"relevanceLanguage": {"en"},
		"safeSearch":        {"strict"},
		"key":               {c.apiKey},
	}

	var sr searchResponse
	if err := c.get(ctx, "/search", params, &sr); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	ids := make([]string, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	stats, err := c.statistics(ctx, ids)
	if err != nil {
		c.logger.Warn("youtube statistics failed, counts left at zero", "error", err)
		stats = map[string]videoStatistics{}
	}

	videos := make([]model.Video, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.ID.VideoID == "" {
			continue
		}
		st := stats[item.ID.VideoID]
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, model.Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelName:  item.Snippet.ChannelTitle,
			Thumbnail:    thumbnail(item.Snippet.Thumbnails),
			PublishedAt:  published,
			ViewCount:    parseCount(st.ViewCount),
			LikeCount:    parseCount(st.LikeCount),
			CommentCount: parseCount(st.CommentCount),
		})
	}
	return videos, nil
}

func (c *YouTubeClient) statistics(ctx context.Context, ids []string) (map[string]videoStatistics, error) {
	out := make(map[string]videoStatistics, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	params := url.Values{
		"part": {"statistics"},
		"id":   {strings.Join(ids, ",")},
		"key":  {c.apiKey},
	}
	var vr videosResponse
	if err := c.get(ctx, "/videos", params, &vr); err != nil {
		return nil, err
	}
	for _, item := range vr.Items {
		out[item.ID] = item.Statistics
	}
	return out, nil
}

func (c *YouTubeClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %w", model.ErrQuotaExceeded, &model.HTTPError{StatusCode: resp.StatusCode})
	}
	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("youtube %s: %s", path, strings.TrimSpace(string(body))),
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func thumbnail(thumbs map[string]thumb) string {
	for _, size := range []string{"high", "medium", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
