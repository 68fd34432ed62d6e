package sources

import (
	"context"
	"strings"

	"github.com/anatolykoptev/go_tips/internal/engine"
)

// TranscriptSource is anything that can fetch a transcript.
type TranscriptSource interface {
	Transcript(ctx context.Context, videoID string, langs []string) (string, error)
}

// CachedTranscripts serves transcripts from an engine.Cache before asking the
// wrapped source. Only successful fetches are stored.
type CachedTranscripts struct {
	next  TranscriptSource
	cache *engine.Cache
}

// NewCachedTranscripts wraps next with cache. A nil cache disables caching.
func NewCachedTranscripts(next TranscriptSource, cache *engine.Cache) *CachedTranscripts {
	return &CachedTranscripts{next: next, cache: cache}
}

// Transcript implements TranscriptSource.
func (c *CachedTranscripts) Transcript(ctx context.Context, videoID string, langs []string) (string, error) {
	key := engine.CacheKey("transcript", videoID, strings.Join(langs, ","))
	if text, ok := c.cache.Get(ctx, key); ok {
		return text, nil
	}
	text, err := c.next.Transcript(ctx, videoID, langs)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, key, text)
	return text, nil
}
