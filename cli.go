package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/engine/sources"
	"github.com/anatolykoptev/go_tips/internal/pipeline"
	"github.com/anatolykoptev/go_tips/internal/storage"
)

// l1CacheEntries bounds the in-process transcript cache.
const l1CacheEntries = 256

// newCLIApp creates the CLI application. The default action is a sweep.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "go_tips",
		Usage:   "Extract micro-tips from new podcast uploads",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Process everything without saving tips"},
			&cli.StringFlag{Name: "video-id", Usage: "Process a single video, bypassing discovery and checkpoints"},
		},
		Action: runAction,
		Commands: []*cli.Command{
			historyCmd(),
		},
	}
}

func runAction(c *cli.Context) error {
	cfg, err := engine.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := pipeline.RunOptions{
		DryRun:  c.Bool("dry-run"),
		VideoID: c.String("video-id"),
	}
	runner, cleanup := buildRunner(c.Context, cfg, opts.DryRun)
	defer cleanup()

	rep, err := runner.Run(c.Context, opts)
	slog.Info("metrics", slog.String("counters", engine.FormatMetrics()))
	if err != nil {
		return err
	}
	slog.Info("run complete",
		slog.String("run", rep.RunID),
		slog.String("mode", string(rep.Mode)),
		slog.Bool("dry_run", rep.DryRun),
		slog.Int("added", rep.Added),
		slog.Int("total", rep.Total),
		slog.Int("videos", len(rep.Videos)))
	return nil
}

// buildRunner wires the collaborators and optional stores. Optional stores
// that fail to open are logged and skipped. Dry runs open no stores.
func buildRunner(ctx context.Context, cfg *engine.Config, dryRun bool) (*pipeline.Runner, func()) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	cache := engine.NewCache(ctx, cfg.RedisURL, cfg.TranscriptCacheTTL, l1CacheEntries)
	closers = append(closers, func() { _ = cache.Close() })

	transcripts := sources.NewCachedTranscripts(sources.NewYouTubeTranscripts(cfg), cache)
	extractor := pipeline.NewExtractor(engine.NewLLMCompleter(cfg), cfg.TipsPerVideo).
		WithRateLimit(cfg.LLMRequestsPerMinute)
	processor := pipeline.NewProcessor(transcripts, extractor, cfg.MaxTranscriptChars, cfg.TranscriptLangs)

	var opts []pipeline.Option
	if !dryRun && cfg.LedgerPath != "" {
		ledger, err := storage.OpenLedger(cfg.LedgerPath)
		if err != nil {
			slog.Warn("ledger unavailable", slog.Any("error", err))
		} else {
			opts = append(opts, pipeline.WithLedger(ledger))
			closers = append(closers, func() { _ = ledger.Close() })
		}
	}
	if !dryRun && cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		mirror, err := storage.ConnectMirror(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			slog.Warn("postgres mirror unavailable", slog.Any("error", err))
		} else {
			opts = append(opts, pipeline.WithMirror(mirror))
			closers = append(closers, mirror.Close)
		}
	}

	runner := pipeline.NewRunner(cfg, sources.NewYouTubeDiscovery(cfg), processor, opts...)
	return runner, cleanup
}

// historyCmd prints recent ledger entries as JSON.
func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently processed videos from the run ledger",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of entries"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := engine.Load()
			if err != nil {
				return err
			}
			ledger, err := storage.OpenLedger(cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Recent(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []storage.Entry{}
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
}
