package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_tips/internal/engine"
	"github.com/anatolykoptev/go_tips/internal/storage"
)

func TestRunActionMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.json")
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CHANNELS_FILE", "")
	t.Setenv("STATE_PATH", state)
	t.Setenv("TIPS_PATH", filepath.Join(dir, "tips.json"))
	t.Setenv("LEDGER_PATH", filepath.Join(dir, "ledger.db"))

	err := newCLIApp().Run([]string{"go_tips", "--dry-run"})
	require.ErrorIs(t, err, engine.ErrMissingCredentials)

	for _, p := range []string{state, filepath.Join(dir, "tips.json"), filepath.Join(dir, "ledger.db")} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), "%s must not be touched", p)
	}
}

func TestHistoryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("LEDGER_PATH", path)
	t.Setenv("CHANNELS_FILE", "")

	l, err := storage.OpenLedger(path)
	require.NoError(t, err)
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, l.Record(context.Background(), []storage.Entry{
		{RunID: "r1", Mode: "sweep", ChannelID: "UC1", Channel: "Huberman Lab", VideoID: "v1", Title: "Old", Outcome: "ok", Added: 1, ProcessedAt: base},
		{RunID: "r1", Mode: "sweep", ChannelID: "UC1", Channel: "Huberman Lab", VideoID: "v2", Title: "New", Outcome: "no_transcript", ProcessedAt: base.Add(time.Minute)},
	}))
	require.NoError(t, l.Close())

	var out bytes.Buffer
	app := newCLIApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"go_tips", "history", "-n", "1"}))

	var entries []storage.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "v2", entries[0].VideoID)
	assert.Equal(t, "no_transcript", entries[0].Outcome)
}

func TestHistoryCommandEmpty(t *testing.T) {
	t.Setenv("LEDGER_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("CHANNELS_FILE", "")

	var out bytes.Buffer
	app := newCLIApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"go_tips", "history"}))
	assert.Equal(t, "[]\n", out.String())
}

func TestSetupLogging(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	setupLogging("debug")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	setupLogging("WARN")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))

	setupLogging("nonsense")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
