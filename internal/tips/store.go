package tips

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Load reads the persisted tip array. A missing or unparsable file yields an
// empty collection; it is never fatal.
func Load(path string) []Tip {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("tips: read failed, starting fresh", slog.String("path", path), slog.Any("error", err))
		}
		return []Tip{}
	}
	var out []Tip
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Warn("tips: could not parse store, starting fresh", slog.String("path", path), slog.Any("error", err))
		return []Tip{}
	}
	if out == nil {
		out = []Tip{}
	}
	return out
}

// Marshal encodes tips with two-space indentation, no HTML escaping and a
// trailing newline. Output is stable for equal input.
func Marshal(all []Tip) ([]byte, error) {
	if all == nil {
		all = []Tip{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		return nil, fmt.Errorf("encode tips: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the full tip array to path, creating parent directories.
func Save(path string, all []Tip) error {
	data, err := Marshal(all)
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("save tips: %w", err)
	}
	slog.Info("tips: wrote store", slog.Int("tips", len(all)), slog.String("path", path))
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
