package testsupport

import (
	"context"
	"testing"
	"time"

	"clipdigest/internal/config"
	"clipdigest/internal/items"
	"clipdigest/internal/jobs"
)

// MustOpenItemStore opens an items.Store for tests and registers cleanup.
func MustOpenItemStore(t testing.TB, cfg *config.Config) *items.Store {
	t.Helper()

	store, err := items.Open(cfg)
	if err != nil {
		t.Fatalf("items.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenJobStore opens a jobs.Store for tests and registers cleanup.
func MustOpenJobStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem inserts a ready-to-score content item with sensible defaults.
func NewItem(t testing.TB, store *items.Store, id, title string, createdAt time.Time) *items.Item {
	t.Helper()

	item := &items.Item{
		ID:              id,
		Title:           title,
		SourceURL:       "https://clips.example/" + id,
		DurationSeconds: 45,
		ViewCount:       100,
		CreatedAt:       createdAt.UTC(),
		Status:          items.StatusPending,
	}
	if err := store.Upsert(context.Background(), item); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return item
}
