// Package storage holds the run ledger (SQLite) and the optional Postgres
// mirror of the tip collection.
package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Entry is one processed video in one run.
type Entry struct {
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	ChannelID   string    `json:"channel_id,omitempty"`
	Channel     string    `json:"channel"`
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Outcome     string    `json:"outcome"`
	Added       int       `json:"added"`
	Duplicates  int       `json:"duplicates"`
	Rejected    int       `json:"rejected"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewRunID returns a time-ordered run identifier.
func NewRunID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Ledger is an append-only SQLite log of processed videos.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (or creates) the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("ledger: mkdir %s: %w", dir, err)
		}
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initLedgerSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func initLedgerSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS processed_videos (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		mode         TEXT NOT NULL,
		channel_id   TEXT,
		channel      TEXT NOT NULL,
		video_id     TEXT NOT NULL,
		title        TEXT NOT NULL,
		outcome      TEXT NOT NULL,
		added        INTEGER NOT NULL DEFAULT 0,
		duplicates   INTEGER NOT NULL DEFAULT 0,
		rejected     INTEGER NOT NULL DEFAULT 0,
		processed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_processed_videos_run ON processed_videos(run_id);
	CREATE INDEX IF NOT EXISTS idx_processed_videos_video ON processed_videos(video_id);`)
	return err
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends entries in a single transaction.
func (l *Ledger) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO processed_videos
		(run_id, mode, channel_id, channel, video_id, title, outcome, added, duplicates, rejected, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("ledger: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.RunID, e.Mode, e.ChannelID, e.Channel, e.VideoID, e.Title, e.Outcome,
			e.Added, e.Duplicates, e.Rejected, e.ProcessedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("ledger: insert %s: %w", e.VideoID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}
	return nil
}

// Recent returns the newest limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `SELECT run_id, mode, COALESCE(channel_id, ''), channel,
		video_id, title, outcome, added, duplicates, rejected, processed_at
		FROM processed_videos ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.RunID, &e.Mode, &e.ChannelID, &e.Channel,
			&e.VideoID, &e.Title, &e.Outcome, &e.Added, &e.Duplicates, &e.Rejected, &ms); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		e.ProcessedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
