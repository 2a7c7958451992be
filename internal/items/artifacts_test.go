package items_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"clipdigest/internal/blob"
	"clipdigest/internal/githubmatch"
	"clipdigest/internal/items"
)

func newArtifacts(t *testing.T) *items.Artifacts {
	t.Helper()
	store, err := blob.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("blob.NewFSStore: %v", err)
	}
	return items.NewArtifacts(store)
}

func TestArtifactsTranscriptRoundTrip(t *testing.T) {
	artifacts := newArtifacts(t)
	item := &items.Item{ID: "clip-1"}
	transcript := items.Transcript{
		Text:     "walked through the flaky websocket reconnect fix",
		Summary:  "websocket reconnect fix",
		Language: "en",
	}

	if err := artifacts.SaveTranscript(context.Background(), item, transcript); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if item.Transcript.URL != items.TranscriptKey("clip-1") {
		t.Fatalf("transcript URL = %q", item.Transcript.URL)
	}
	if item.Transcript.SizeBytes <= 0 {
		t.Fatal("expected transcript size to be recorded")
	}
	if item.Transcript.Summary != "websocket reconnect fix" {
		t.Fatalf("summary = %q", item.Transcript.Summary)
	}
	if !item.Transcript.Valid() {
		t.Fatal("expected valid transcript reference")
	}

	got, err := artifacts.LoadTranscript(context.Background(), "clip-1")
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if got != transcript {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestArtifactsTranscriptSummaryFallback(t *testing.T) {
	artifacts := newArtifacts(t)
	item := &items.Item{ID: "clip-2"}
	transcript := items.Transcript{Text: strings.Repeat("profiling allocations in the hot path ", 12)}

	if err := artifacts.SaveTranscript(context.Background(), item, transcript); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if item.Transcript.Summary == "" {
		t.Fatal("expected summary fallback from transcript text")
	}
	if len(item.Transcript.Summary) > 170 {
		t.Fatalf("summary too long: %d bytes", len(item.Transcript.Summary))
	}
}

func TestArtifactsContextRoundTrip(t *testing.T) {
	artifacts := newArtifacts(t)
	item := &items.Item{ID: "clip-3"}
	devContext := githubmatch.Context{
		PullRequests: []string{"https://github.com/acme/widgets/pull/42"},
		Commits:      []string{"abc123"},
		Confidence:   0.75,
		MatchReason:  githubmatch.ReasonTemporalProximity,
		MatchedAt:    time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC),
	}

	if err := artifacts.SaveContext(context.Background(), item, devContext); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}
	if item.Context.URL != items.ContextKey("clip-3") {
		t.Fatalf("context URL = %q", item.Context.URL)
	}
	if item.Context.SizeBytes <= 0 {
		t.Fatal("expected context size to be recorded")
	}

	got, err := artifacts.LoadContext(context.Background(), "clip-3")
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if len(got.PullRequests) != 1 || got.Confidence != 0.75 || !got.MatchedAt.Equal(devContext.MatchedAt) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestArtifactsLoadMissing(t *testing.T) {
	artifacts := newArtifacts(t)
	if _, err := artifacts.LoadTranscript(context.Background(), "absent"); err == nil {
		t.Fatal("expected missing transcript to error")
	}
	if _, err := artifacts.LoadContext(context.Background(), "absent"); err == nil {
		t.Fatal("expected missing context to error")
	}
}
