//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/anatolykoptev/go_tips/internal/tips"
)

func TestIntegration_MirrorSync(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := ConnectMirror(ctx, dsn)
	if err != nil {
		t.Fatalf("ConnectMirror error: %v", err)
	}
	defer m.Close()
	if _, err := m.pool.Exec(ctx, "TRUNCATE tips"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	all := []tips.Tip{
		{ID: 1, Category: tips.CategorySleep, Source: "Dr. X", Title: "Cold shower", Content: "Take a 2-minute cold shower each morning."},
		{ID: 2, Category: tips.CategoryFocus, Source: "Dr. Y", Title: "Single task", Content: "Close every tab but one for 25 minutes."},
	}
	n, err := m.Sync(ctx, all)
	if err != nil {
		t.Fatalf("Sync error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}

	n, err = m.Sync(ctx, all)
	if err != nil {
		t.Fatalf("second Sync error: %v", err)
	}
	if n != 0 {
		t.Errorf("second sync should write nothing, got %d", n)
	}

	// A rebuilt store reuses id 1 for a different tip.
	rebuilt := []tips.Tip{
		{ID: 1, Category: tips.CategoryFocus, Source: "Dr. Z", Title: "Morning walk", Content: "Walk ten minutes outside after waking."},
	}
	n, err = m.Sync(ctx, rebuilt)
	if err != nil {
		t.Fatalf("rebuilt Sync error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row overwritten, got %d", n)
	}
	var title, category string
	if err := m.pool.QueryRow(ctx, "SELECT title, category FROM tips WHERE id = 1").Scan(&title, &category); err != nil {
		t.Fatalf("query: %v", err)
	}
	if title != "Morning walk" || category != string(tips.CategoryFocus) {
		t.Errorf("stale row kept: %q %q", title, category)
	}
}
