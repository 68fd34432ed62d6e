package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_tips/internal/engine"
)

// YouTube transcript fetching.
// Primary:  watch page ytInitialPlayerResponse → captionTracks → timedtext XML
// Fallback: ANDROID Innertube /player → captionTracks

// ErrTranscriptUnavailable is wrapped by every transcript failure: no
// captions, captions disabled, video unavailable or network error.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

const ytWatchBase = "https://www.youtube.com/watch"

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// YouTubeTranscripts fetches caption text for a video.
type YouTubeTranscripts struct {
	client    *http.Client
	browser   *engine.BrowserClient // nil = plain net/http scrape
	watchBase string
	playerURL string
}

// NewYouTubeTranscripts builds a transcript client from cfg. When
// cfg.BrowserTLS is set the watch page is fetched with a Chrome TLS
// fingerprint; init failures fall back to the plain client.
func NewYouTubeTranscripts(cfg *engine.Config) *YouTubeTranscripts {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	y := &YouTubeTranscripts{client: client, watchBase: ytWatchBase, playerURL: ytInnertubeURL}
	if cfg.BrowserTLS {
		bc, err := engine.NewBrowserClient()
		if err != nil {
			slog.Warn("youtube: browser client unavailable", slog.Any("error", err))
		} else {
			y.browser = bc
		}
	}
	return y
}

// Transcript returns the plain transcript text of videoID in the first
// available preferred language.
func (y *YouTubeTranscripts) Transcript(ctx context.Context, videoID string, langs []string) (string, error) {
	engine.IncrTranscript()

	text, scrapeErr := y.viaPageScrape(ctx, videoID, langs)
	if scrapeErr == nil {
		return text, nil
	}
	slog.Debug("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("error", scrapeErr))

	text, playerErr := y.viaPlayer(ctx, videoID, langs)
	if playerErr == nil {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s: %v; %v", ErrTranscriptUnavailable, videoID, scrapeErr, playerErr)
}

// viaPageScrape scrapes the watch page HTML and reads the caption tracks from
// ytInitialPlayerResponse.
func (y *YouTubeTranscripts) viaPageScrape(ctx context.Context, videoID string, langs []string) (string, error) {
	body, err := y.watchPage(ctx, y.watchBase+"?v="+videoID)
	if err != nil {
		return "", err
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return "", errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return "", errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var pr playerResp
	if err := json.Unmarshal(jsonData, &pr); err != nil {
		return "", fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return y.fromPlayer(ctx, &pr, langs)
}

// watchPage returns the watch page HTML.
func (y *YouTubeTranscripts) watchPage(ctx context.Context, watchURL string) ([]byte, error) {
	if y.browser != nil {
		body, status, err := y.browser.Get(ctx, watchURL)
		if err != nil {
			return nil, fmt.Errorf("watch page: %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("watch page HTTP %d", status)
		}
		return body, nil
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return y.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}
	return body, nil
}

// viaPlayer uses the ANDROID Innertube /player endpoint.
func (y *YouTubeTranscripts) viaPlayer(ctx context.Context, videoID string, langs []string) (string, error) {
	pr, err := y.postPlayer(ctx, videoID)
	if err != nil {
		return "", err
	}
	return y.fromPlayer(ctx, pr, langs)
}

func (y *YouTubeTranscripts) fromPlayer(ctx context.Context, pr *playerResp, langs []string) (string, error) {
	tracks, err := pr.tracks()
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return "", fmt.Errorf("no usable caption track in %v", langs)
	}
	return y.fetchTimedText(ctx, track.BaseURL)
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language
// preferences, manual before auto-generated. Tracks in other languages never
// match.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

// fetchTimedText fetches and parses a timedtext XML caption URL.
func (y *YouTubeTranscripts) fetchTimedText(ctx context.Context, baseURL string) (string, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return y.client.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", err
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := engine.CleanText(line.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty timedtext")
	}
	return sb.String(), nil
}
