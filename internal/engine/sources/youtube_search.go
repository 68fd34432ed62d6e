package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/mmcdole/gofeed"
)

// YouTube discovery: Data API v3 /search with a channel Atom feed fallback.

const (
	ytDataAPIBase = "https://www.googleapis.com/youtube/v3"
	ytFeedBase    = "https://www.youtube.com/feeds/videos.xml"

	// TimeLayout is the publishedAfter / checkpoint format.
	TimeLayout = "2006-01-02T15:04:05Z"
)

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// extractVideoID pulls the 11-char video ID from any YouTube URL format.
func extractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// Video is one discovered upload.
type Video struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

// --- YouTube Data API v3 types ---

type ytDataSearchResp struct {
	Items []ytDataItem `json:"items"`
}

type ytDataItem struct {
	ID      ytDataItemID      `json:"id"`
	Snippet ytDataItemSnippet `json:"snippet"`
}

type ytDataItemID struct {
	VideoID string `json:"videoId"`
}

type ytDataItemSnippet struct {
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
}

// YouTubeDiscovery lists a channel's recent uploads.
type YouTubeDiscovery struct {
	keys     []string
	client   *http.Client
	apiBase  string
	feedBase string
	parser   *gofeed.Parser
}

// NewYouTubeDiscovery builds a discovery client from cfg.
func NewYouTubeDiscovery(cfg *engine.Config) *YouTubeDiscovery {
	keys := []string{cfg.YouTubeAPIKey}
	if cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, cfg.YouTubeAPIKeyFallback)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &YouTubeDiscovery{
		keys:     keys,
		client:   client,
		apiBase:  ytDataAPIBase,
		feedBase: ytFeedBase,
		parser:   gofeed.NewParser(),
	}
}

// Search returns up to limit videos uploaded to channelID at or after
// publishedAfter (TimeLayout), newest first. The Data API is tried with each
// key in turn; when all fail the channel feed is used instead.
func (d *YouTubeDiscovery) Search(ctx context.Context, channelID, publishedAfter string, limit int) ([]Video, error) {
	engine.IncrDiscovery()

	videos, apiErr := d.searchDataAPI(ctx, channelID, publishedAfter, limit)
	if apiErr == nil {
		return videos, nil
	}
	slog.Warn("youtube: data API search failed, trying channel feed",
		slog.String("channel", channelID), slog.Any("error", apiErr))
	engine.IncrFeedFallback()

	videos, feedErr := d.searchFeed(ctx, channelID, publishedAfter, limit)
	if feedErr != nil {
		engine.IncrDiscoveryError()
		return nil, fmt.Errorf("youtube discovery %s: %w (feed: %v)", channelID, apiErr, feedErr)
	}
	return videos, nil
}

// searchDataAPI falls back to the secondary key on any error (quota 403 in practice).
func (d *YouTubeDiscovery) searchDataAPI(ctx context.Context, channelID, publishedAfter string, limit int) ([]Video, error) {
	var lastErr error
	for _, key := range d.keys {
		if key == "" {
			continue
		}
		videos, err := d.doDataSearch(ctx, channelID, publishedAfter, limit, key)
		if err == nil {
			return videos, nil
		}
		lastErr = err
		slog.Debug("youtube data API key failed, trying fallback", slog.Any("error", err))
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no youtube API key configured")
	}
	return nil, lastErr
}

func (d *YouTubeDiscovery) doDataSearch(ctx context.Context, channelID, publishedAfter string, limit int, apiKey string) ([]Video, error) {
	params := url.Values{}
	params.Set("part", "id,snippet")
	params.Set("channelId", channelID)
	params.Set("publishedAfter", publishedAfter)
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", apiKey)

	apiURL := d.apiBase + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return d.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}

	var result ytDataSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode youtube data API: %w", err)
	}

	videos := make([]Video, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, Video{
			ID:          item.ID.VideoID,
			Title:       engine.CleanText(item.Snippet.Title),
			PublishedAt: published,
		})
	}
	return videos, nil
}

// searchFeed reads the channel's public Atom feed. The feed carries only the
// latest uploads, which is enough for a daily sweep.
func (d *YouTubeDiscovery) searchFeed(ctx context.Context, channelID, publishedAfter string, limit int) ([]Video, error) {
	bound, err := time.Parse(TimeLayout, publishedAfter)
	if err != nil {
		return nil, fmt.Errorf("parse publishedAfter %q: %w", publishedAfter, err)
	}

	feedURL := d.feedBase + "?channel_id=" + url.QueryEscape(channelID)
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		return d.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("channel feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel feed HTTP %d", resp.StatusCode)
	}

	feed, err := d.parser.Parse(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("parse channel feed: %w", err)
	}

	var videos []Video
	for _, item := range feed.Items {
		if item.PublishedParsed == nil || item.PublishedParsed.Before(bound) {
			continue
		}
		id := extractVideoID(item.Link)
		if id == "" {
			continue
		}
		videos = append(videos, Video{ID: id, Title: item.Title, PublishedAt: item.PublishedParsed.UTC()})
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}
