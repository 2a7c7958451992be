package blob_test

import (
	"context"
	"errors"
	"testing"

	"clipdigest/internal/blob"
)

func newStore(t *testing.T) *blob.FSStore {
	t.Helper()
	store, err := blob.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := []byte(`{"text":"hello"}`)
	if err := store.Put(ctx, "transcripts/clip-1.json", payload, blob.Metadata{"content-type": "application/json"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "transcripts/clip-1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Get = %q, want %q", got, payload)
	}

	meta, err := store.GetMetadata(ctx, "transcripts/clip-1.json")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if meta["content-type"] != "application/json" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "transcripts/absent.json")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersByPrefixAndSkipsSidecars(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "transcripts/a.json", []byte("a"), blob.Metadata{"k": "v"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "transcripts/b.json", []byte("b"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "github-context/a.json", []byte("c"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := store.List(ctx, "transcripts/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"transcripts/a.json", "transcripts/b.json"}
	if len(keys) != len(want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("List[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "../evil", "/abs/path"} {
		if err := store.Put(ctx, key, []byte("x"), nil); err == nil {
			t.Fatalf("Put(%q) should fail", key)
		}
	}
}
