package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/engine/sources"
	"github.com/anatolykoptev/go_tips/internal/storage"
	"github.com/anatolykoptev/go_tips/internal/tips"
)

// UnknownChannel is the channel name used for forced single-video runs.
const UnknownChannel = "Unknown Channel"

// Mode is the kind of run.
type Mode string

const (
	ModeSweep  Mode = "sweep"
	ModeForced Mode = "forced"
)

// Discoverer is the discovery collaborator.
type Discoverer interface {
	Search(ctx context.Context, channelID, publishedAfter string, limit int) ([]sources.Video, error)
}

// Ledger receives one entry per processed video after a non-dry run.
type Ledger interface {
	Record(ctx context.Context, entries []storage.Entry) error
}

// Mirror receives the full collection after a successful save.
type Mirror interface {
	Sync(ctx context.Context, all []tips.Tip) (int64, error)
}

// RunOptions selects the run mode. A non-empty VideoID forces single-video mode.
type RunOptions struct {
	DryRun  bool
	VideoID string
}

// ChannelResult records one channel of a sweep.
type ChannelResult struct {
	ID         string
	Name       string
	LowerBound string
	Videos     int
	Err        error  // discovery error, if any
	Checkpoint string // value after the sweep
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Mode     Mode
	DryRun   bool
	Added    int // tips added, or that would be added in a dry run
	Total    int // collection size after the run
	Videos   []VideoResult
	Channels []ChannelResult
}

// Runner drives one batch run.
type Runner struct {
	cfg       *engine.Config
	discovery Discoverer
	processor *Processor
	ledger    Ledger
	mirror    Mirror
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLedger records processed videos after each non-dry run.
func WithLedger(l Ledger) Option { return func(r *Runner) { r.ledger = l } }

// WithMirror syncs the collection to a secondary store after each save.
func WithMirror(m Mirror) Option { return func(r *Runner) { r.mirror = m } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// NewRunner builds a runner over cfg's paths and channel list.
func NewRunner(cfg *engine.Config, discovery Discoverer, processor *Processor, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, discovery: discovery, processor: processor, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one batch. Collaborator failures never abort the run; the
// returned error is only set when persisting the collection or checkpoints fails.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Report, error) {
	rep := Report{
		RunID:  storage.NewRunID(r.now()),
		Mode:   ModeSweep,
		DryRun: opts.DryRun,
	}
	coll := tips.NewCollection(tips.Load(r.cfg.TipsPath))
	checkpoints := LoadCheckpoints(r.cfg.StatePath)
	slog.Info("run started",
		slog.String("run", rep.RunID), slog.Int("existing_tips", coll.Len()), slog.Bool("dry_run", opts.DryRun))

	if opts.VideoID != "" {
		rep.Mode = ModeForced
		slog.Info("force-processing video", slog.String("video", opts.VideoID))
		video := sources.Video{ID: opts.VideoID, Title: fmt.Sprintf("Manual (%s)", opts.VideoID)}
		vr := r.processor.Process(ctx, video, UnknownChannel, coll, opts.DryRun)
		rep.Videos = append(rep.Videos, r.stamp(vr, ""))
	} else {
		for _, ch := range r.cfg.Channels {
			rep.Channels = append(rep.Channels, r.sweepChannel(ctx, ch, coll, checkpoints, opts.DryRun, &rep))
		}
	}

	for _, vr := range rep.Videos {
		rep.Added += len(vr.Added)
	}
	rep.Total = coll.Len()
	return rep, r.finalize(ctx, rep, coll, checkpoints)
}

func (r *Runner) sweepChannel(ctx context.Context, ch engine.Channel, coll *tips.Collection, checkpoints *Checkpoints, dryRun bool, rep *Report) ChannelResult {
	log := slog.With(slog.String("channel", ch.Name), slog.String("channel_id", ch.ID))
	res := ChannelResult{
		ID:         ch.ID,
		Name:       ch.Name,
		LowerBound: checkpoints.LowerBound(ch.ID, r.now(), r.cfg.Lookback),
	}
	log.Info("checking channel", slog.String("published_after", res.LowerBound))

	videos, err := r.discovery.Search(ctx, ch.ID, res.LowerBound, r.cfg.DiscoveryPageSize)
	switch {
	case err != nil:
		log.Warn("discovery failed, treating as no new videos", slog.Any("error", err))
		res.Err = err
		videos = nil
	case len(videos) == 0:
		log.Info("no new videos", slog.String("since", res.LowerBound))
	default:
		log.Info("found new videos", slog.Int("count", len(videos)))
	}
	if len(videos) > r.cfg.DiscoveryPageSize {
		videos = videos[:r.cfg.DiscoveryPageSize]
	}
	res.Videos = len(videos)

	for _, v := range videos {
		vr := r.processor.Process(ctx, v, ch.Name, coll, dryRun)
		rep.Videos = append(rep.Videos, r.stamp(vr, ch.ID))
	}

	if err != nil && r.cfg.HoldCheckpointOnError {
		log.Warn("checkpoint held after discovery error", slog.String("checkpoint", res.LowerBound))
	} else {
		checkpoints.Advance(ch.ID, r.now())
	}
	res.Checkpoint, _ = checkpoints.Get(ch.ID)
	return res
}

func (r *Runner) stamp(vr VideoResult, channelID string) VideoResult {
	vr.ChannelID = channelID
	vr.ProcessedAt = r.now().UTC()
	return vr
}

// finalize persists the run. Checkpoints are always saved, even on a dry run
// that found nothing to add. The collection plus its typed module are saved
// only when something was added, and a dry run with additions persists
// nothing at all.
func (r *Runner) finalize(ctx context.Context, rep Report, coll *tips.Collection, checkpoints *Checkpoints) error {
	if rep.Added > 0 {
		if rep.DryRun {
			slog.Info("dry run complete", slog.Int("would_add", rep.Added))
			return nil
		}
		all := coll.Tips()
		if err := tips.Save(r.cfg.TipsPath, all); err != nil {
			return err
		}
		if err := tips.WriteDataTS(r.cfg.DataTSPath, all); err != nil {
			return err
		}
		if err := checkpoints.Save(r.cfg.StatePath); err != nil {
			return err
		}
		r.syncMirror(ctx, all)
		slog.Info("done, new tips saved", slog.Int("added", rep.Added), slog.Int("total", len(all)))
	} else {
		if err := checkpoints.Save(r.cfg.StatePath); err != nil {
			return err
		}
		slog.Info("done, no new tips to add", slog.Bool("dry_run", rep.DryRun))
	}

	if !rep.DryRun {
		r.recordLedger(ctx, rep)
	}
	return nil
}

func (r *Runner) syncMirror(ctx context.Context, all []tips.Tip) {
	if r.mirror == nil {
		return
	}
	n, err := r.mirror.Sync(ctx, all)
	if err != nil {
		slog.Warn("mirror sync failed", slog.Any("error", err))
		return
	}
	slog.Info("mirror synced", slog.Int64("written", n))
}

func (r *Runner) recordLedger(ctx context.Context, rep Report) {
	if r.ledger == nil || len(rep.Videos) == 0 {
		return
	}
	if err := r.ledger.Record(ctx, LedgerEntries(rep)); err != nil {
		slog.Warn("ledger write failed", slog.Any("error", err))
	}
}

// LedgerEntries flattens a report into one ledger entry per video.
func LedgerEntries(rep Report) []storage.Entry {
	entries := make([]storage.Entry, 0, len(rep.Videos))
	for _, vr := range rep.Videos {
		entries = append(entries, storage.Entry{
			RunID:       rep.RunID,
			Mode:        string(rep.Mode),
			ChannelID:   vr.ChannelID,
			Channel:     vr.Channel,
			VideoID:     vr.Video.ID,
			Title:       vr.Video.Title,
			Outcome:     string(vr.Outcome),
			Added:       len(vr.Added),
			Duplicates:  vr.Duplicates,
			Rejected:    vr.Rejected,
			ProcessedAt: vr.ProcessedAt,
		})
	}
	return entries
}
