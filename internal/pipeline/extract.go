// Package pipeline turns discovered videos into validated, de-duplicated tips
// and drives a whole run: discovery, per-video processing, checkpoints and
// final persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/tips"
	"golang.org/x/time/rate"
)

// Outcome says how a unit of work ended. Everything except OutcomeOK means
// "no tips from this video", never a batch failure.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeNoTranscript Outcome = "no_transcript"
	OutcomeNoTips       Outcome = "no_tips"
	OutcomeCallFailed   Outcome = "call_failed"
	OutcomeInvalidJSON  Outcome = "invalid_json"
	OutcomeNotArray     Outcome = "not_array"
)

// rawPreviewRunes caps how much unparsable model output is logged.
const rawPreviewRunes = 500

// Extraction is the result of one model call.
type Extraction struct {
	Tips     []tips.Tip // validated, id unset
	Outcome  Outcome
	Rejected int // elements skipped as non-objects or failing validation
}

// Extractor asks the text-generation collaborator for tips and validates
// whatever comes back.
type Extractor struct {
	llm     engine.Completer
	system  string
	limiter *rate.Limiter
}

// NewExtractor builds an extractor asking for up to tipsPerVideo tips per
// transcript. The cap is an instruction to the model only.
func NewExtractor(llm engine.Completer, tipsPerVideo int) *Extractor {
	return &Extractor{
		llm:    llm,
		system: engine.SystemPrompt(tipsPerVideo, tips.CategoryList(" | ")),
	}
}

// WithRateLimit paces model calls to rpm requests per minute. rpm <= 0
// removes the limit.
func (e *Extractor) WithRateLimit(rpm int) *Extractor {
	if rpm <= 0 {
		e.limiter = nil
		return e
	}
	e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	return e
}

// Extract runs one transcript through the model. transcript must already be
// truncated by the caller.
func (e *Extractor) Extract(ctx context.Context, transcript, videoTitle, channelName string) Extraction {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			slog.Warn("extract: rate limiter", slog.Any("error", err))
			return Extraction{Outcome: OutcomeCallFailed}
		}
	}

	raw, err := e.llm.Complete(ctx, e.system, engine.UserPrompt(transcript, videoTitle, channelName))
	if err != nil {
		slog.Warn("extract: model call failed", slog.String("video_title", videoTitle), slog.Any("error", err))
		return Extraction{Outcome: OutcomeCallFailed}
	}

	var parsed any
	if err := json.Unmarshal([]byte(engine.StripFences(raw)), &parsed); err != nil {
		preview, _ := engine.HeadRunes(raw, rawPreviewRunes)
		slog.Warn("extract: model output is not valid JSON",
			slog.String("video_title", videoTitle), slog.String("raw", preview), slog.Any("error", err))
		engine.IncrMalformedOutput()
		return Extraction{Outcome: OutcomeInvalidJSON}
	}
	items, ok := parsed.([]any)
	if !ok {
		slog.Warn("extract: model output is not a JSON array", slog.String("video_title", videoTitle))
		engine.IncrMalformedOutput()
		return Extraction{Outcome: OutcomeNotArray}
	}

	out := Extraction{Outcome: OutcomeOK, Tips: make([]tips.Tip, 0, len(items))}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			slog.Debug("extract: skipping non-object element", slog.Int("index", i))
			out.Rejected++
			continue
		}
		t, err := tips.Validate(tips.CandidateFromMap(obj))
		if err != nil {
			slog.Warn("extract: candidate rejected", slog.Int("index", i), slog.Any("error", err))
			out.Rejected++
			continue
		}
		out.Tips = append(out.Tips, t)
	}
	engine.IncrTipsRejected(out.Rejected)
	return out
}
