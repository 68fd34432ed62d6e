package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go_tips/internal/engine/sources"
)

// Checkpoints maps channel id to the UTC time its uploads were last checked.
// Values only move forward.
type Checkpoints struct {
	m map[string]string
}

// NewCheckpoints returns an empty checkpoint map.
func NewCheckpoints() *Checkpoints {
	return &Checkpoints{m: make(map[string]string)}
}

// LoadCheckpoints reads the checkpoint file. A missing or corrupt file yields
// an empty map.
func LoadCheckpoints(path string) *Checkpoints {
	c := NewCheckpoints()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("checkpoints: read failed, starting empty", slog.String("path", path), slog.Any("error", err))
		}
		return c
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn("checkpoints: corrupt file, starting empty", slog.String("path", path), slog.Any("error", err))
		return c
	}
	for k, v := range m {
		c.m[k] = v
	}
	return c
}

// Get returns the stored value for channelID.
func (c *Checkpoints) Get(channelID string) (string, bool) {
	v, ok := c.m[channelID]
	return v, ok
}

// LowerBound is the publishedAfter value for a channel's next discovery: the
// stored checkpoint, or now-lookback when there is none.
func (c *Checkpoints) LowerBound(channelID string, now time.Time, lookback time.Duration) string {
	if v, ok := c.m[channelID]; ok {
		if _, err := time.Parse(sources.TimeLayout, v); err == nil {
			return v
		}
		slog.Warn("checkpoints: unparsable value, using lookback",
			slog.String("channel", channelID), slog.String("value", v))
	}
	return now.UTC().Add(-lookback).Format(sources.TimeLayout)
}

// Advance sets channelID's checkpoint to now unless the stored value is
// already later.
func (c *Checkpoints) Advance(channelID string, now time.Time) {
	next := now.UTC().Truncate(time.Second)
	if v, ok := c.m[channelID]; ok {
		if prev, err := time.Parse(sources.TimeLayout, v); err == nil && prev.After(next) {
			return
		}
	}
	c.m[channelID] = next.Format(sources.TimeLayout)
}

// Len returns the number of channels with a checkpoint.
func (c *Checkpoints) Len() int { return len(c.m) }

// Save writes the map as an indented JSON object with sorted keys.
func (c *Checkpoints) Save(path string) error {
	data, err := json.MarshalIndent(c.m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoints: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoints: %w", err)
	}
	return nil
}
