package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_tips/internal/tips"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const upsertTipSQL = `INSERT INTO tips (id, category, source, title, content)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    category = EXCLUDED.category,
    source   = EXCLUDED.source,
    title    = EXCLUDED.title,
    content  = EXCLUDED.content
WHERE (tips.category, tips.source, tips.title, tips.content)
    IS DISTINCT FROM (EXCLUDED.category, EXCLUDED.source, EXCLUDED.title, EXCLUDED.content)`

// Mirror copies the tip collection into Postgres for downstream querying.
// The JSON file stays the source of truth.
type Mirror struct {
	pool *pgxpool.Pool
}

// ConnectMirror creates a pgx pool and runs schema migrations.
func ConnectMirror(ctx context.Context, databaseURL string) (*Mirror, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	m := &Mirror{pool: pool}
	if err := m.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("tips postgres connected", slog.String("addr", config.ConnConfig.Host))
	return m, nil
}

// Close closes the pool.
func (m *Mirror) Close() {
	m.pool.Close()
}

func (m *Mirror) runMigrations(ctx context.Context) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	for _, name := range files {
		data, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := m.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", name, err)
		}
		slog.Debug("migration applied", slog.String("file", name))
	}
	return nil
}

// migrationFiles lists the embedded .sql files in apply order.
func migrationFiles() ([]string, error) {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Sync upserts every tip and returns how many rows were inserted or changed.
// A row whose id now carries a different tip (the store was rebuilt from
// empty) is overwritten; identical rows are not touched.
func (m *Mirror) Sync(ctx context.Context, all []tips.Tip) (int64, error) {
	if len(all) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, t := range all {
		batch.Queue(upsertTipSQL, t.ID, string(t.Category), t.Source, t.Title, t.Content)
	}
	br := m.pool.SendBatch(ctx, batch)
	defer br.Close()

	var written int64
	for i := range all {
		tag, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("mirror tip %d: %w", all[i].ID, err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}
