// go_tips: daily tip updater.
//
// Polls a fixed list of YouTube channels for new uploads, pulls each video's
// transcript, asks an LLM for actionable micro-tips and merges the new ones
// into data/tips.json plus a generated lib/data.ts module. Meant to run from
// cron or a CI schedule, once a day.
package main

import (
	"log/slog"
	"os"

	"github.com/anatolykoptev/go-kit/env"
)

var version = "dev"

func main() {
	setupLogging(env.Str("LOG_LEVEL", "info"))

	if err := newCLIApp().Run(os.Args); err != nil {
		slog.Error("go_tips failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// setupLogging installs a text handler on stderr at the given level
// (debug|info|warn|error). Unknown levels fall back to info.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
