package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/engine/sources"
	"github.com/anatolykoptev/go_tips/internal/storage"
	"github.com/anatolykoptev/go_tips/internal/tips"
)

// fakeTranscripts serves fixed transcripts; unknown ids are unavailable.
type fakeTranscripts struct {
	texts map[string]string
	calls []string
}

func (f *fakeTranscripts) Transcript(_ context.Context, videoID string, _ []string) (string, error) {
	f.calls = append(f.calls, videoID)
	if text, ok := f.texts[videoID]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", sources.ErrTranscriptUnavailable, videoID)
}

// fakeLLM answers by video title; unknown titles get "[]".
type fakeLLM struct {
	byTitle map[string]string
	err     error
	calls   int
	system  string
	user    string
}

func (f *fakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	if f.err != nil {
		return "", f.err
	}
	for title, out := range f.byTitle {
		if strings.Contains(user, "VIDEO TITLE: "+title+"\n") {
			return out, nil
		}
	}
	return "[]", nil
}

type searchCall struct {
	channelID      string
	publishedAfter string
	limit          int
}

// fakeDiscovery returns fixed videos per channel, or an error.
type fakeDiscovery struct {
	videos map[string][]sources.Video
	errs   map[string]error
	calls  []searchCall
}

func (f *fakeDiscovery) Search(_ context.Context, channelID, publishedAfter string, limit int) ([]sources.Video, error) {
	f.calls = append(f.calls, searchCall{channelID, publishedAfter, limit})
	if err := f.errs[channelID]; err != nil {
		return nil, err
	}
	return f.videos[channelID], nil
}

type fakeLedger struct {
	entries []storage.Entry
	err     error
}

func (f *fakeLedger) Record(_ context.Context, entries []storage.Entry) error {
	f.entries = append(f.entries, entries...)
	return f.err
}

type fakeMirror struct {
	synced [][]tips.Tip
}

func (f *fakeMirror) Sync(_ context.Context, all []tips.Tip) (int64, error) {
	f.synced = append(f.synced, all)
	return int64(len(all)), nil
}

var errDiscovery = errors.New("quota exceeded")

// fixedNow is the test clock.
var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *engine.Config {
	t.Helper()
	dir := t.TempDir()
	return &engine.Config{
		Channels: []engine.Channel{
			{ID: "UC_A", Name: "Channel A"},
			{ID: "UC_B", Name: "Channel B"},
		},
		Lookback:           24 * time.Hour,
		DiscoveryPageSize:  5,
		MaxTranscriptChars: 80_000,
		TipsPerVideo:       3,
		TranscriptLangs:    []string{"en", "en-US", "en-GB"},
		TipsPath:           filepath.Join(dir, "data", "tips.json"),
		DataTSPath:         filepath.Join(dir, "lib", "data.ts"),
		StatePath:          filepath.Join(dir, ".last_checked.json"),
	}
}

func newTestProcessor(tr TranscriptFetcher, llm engine.Completer, maxChars int) *Processor {
	return NewProcessor(tr, NewExtractor(llm, 3), maxChars, []string{"en"})
}

const coldShower = `[{"category": "Sleep", "source": "Dr. X", "title": "Cold shower", "content": "Take a 2-minute cold shower each morning."}]`
