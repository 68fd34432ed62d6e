package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/engine/sources"
	"github.com/anatolykoptev/go_tips/internal/tips"
)

// previewRunes is how much of a tip's content a dry run prints.
const previewRunes = 80

// TranscriptFetcher is the transcript collaborator. Any error means "no
// transcript for this video".
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string, langs []string) (string, error)
}

// VideoResult records what happened to one video.
type VideoResult struct {
	Video       sources.Video
	ChannelID   string // empty in forced mode
	Channel     string
	Added       []tips.Tip
	Outcome     Outcome
	Duplicates  int
	Rejected    int
	ProcessedAt time.Time
}

// Processor runs fetch, truncate, extract and dedupe for one video.
type Processor struct {
	transcripts TranscriptFetcher
	extractor   *Extractor
	maxChars    int
	langs       []string
}

// NewProcessor wires a processor. maxChars is the transcript budget in runes.
func NewProcessor(transcripts TranscriptFetcher, extractor *Extractor, maxChars int, langs []string) *Processor {
	return &Processor{transcripts: transcripts, extractor: extractor, maxChars: maxChars, langs: langs}
}

// Process extracts tips from one video and appends the new ones to coll.
// It never persists anything; in a dry run it only logs a preview.
func (p *Processor) Process(ctx context.Context, video sources.Video, channelName string, coll *tips.Collection, dryRun bool) VideoResult {
	engine.IncrVideosProcessed()
	res := VideoResult{Video: video, Channel: channelName}
	log := slog.With(slog.String("video", video.ID), slog.String("channel", channelName))

	transcript, err := p.transcripts.Transcript(ctx, video.ID, p.langs)
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = sources.ErrTranscriptUnavailable
	}
	if err != nil {
		engine.IncrTranscriptMissing()
		log.Info("no transcript, skipping", slog.Any("error", err))
		res.Outcome = OutcomeNoTranscript
		return res
	}

	if head, cut := engine.HeadRunes(transcript, p.maxChars); cut {
		log.Debug("transcript truncated", slog.Int("max_chars", p.maxChars))
		transcript = head
	}

	ext := p.extractor.Extract(ctx, transcript, video.Title, channelName)
	res.Rejected = ext.Rejected
	if ext.Outcome != OutcomeOK {
		res.Outcome = ext.Outcome
		return res
	}
	if len(ext.Tips) == 0 {
		log.Info("no tips extracted")
		res.Outcome = OutcomeNoTips
		return res
	}

	nextID := coll.NextID()
	for _, t := range ext.Tips {
		if coll.IsDuplicate(t) {
			log.Info("duplicate tip skipped", slog.String("title", t.Title))
			res.Duplicates++
			continue
		}
		t.ID = nextID
		nextID++
		coll.Append(t)
		res.Added = append(res.Added, t)
	}
	res.Outcome = OutcomeOK
	engine.IncrTipsDuplicate(res.Duplicates)
	engine.IncrTipsAdded(len(res.Added))

	if dryRun {
		for _, t := range res.Added {
			log.Info("[DRY RUN] would add",
				slog.String("category", string(t.Category)),
				slog.String("title", t.Title),
				slog.String("content", engine.TruncateRunes(t.Content, previewRunes, "...")))
		}
		return res
	}
	log.Info("tips added", slog.Int("added", len(res.Added)), slog.Int("duplicates", res.Duplicates))
	return res
}
