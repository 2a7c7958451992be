package items

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clipdigest/internal/blob"
	"clipdigest/internal/githubmatch"
)

// TranscriptKey returns the blob key for an item's transcript artifact.
func TranscriptKey(itemID string) string {
	return "transcripts/" + itemID + ".json"
}

// ContextKey returns the blob key for an item's development-context artifact.
func ContextKey(itemID string) string {
	return "github-context/" + itemID + ".json"
}

// Artifacts reads and writes the externally stored transcript and context
// payloads for items, keeping the item's references (URL + byte size)
// consistent with what is actually stored.
type Artifacts struct {
	store blob.Store
}

// NewArtifacts wraps a blob store.
func NewArtifacts(store blob.Store) *Artifacts {
	return &Artifacts{store: store}
}

// SaveTranscript persists the transcript payload and updates the item's
// transcript reference. The summary falls back to a prefix of the text
// when the transcript carries none.
func (a *Artifacts) SaveTranscript(ctx context.Context, item *Item, transcript Transcript) error {
	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript for %s: %w", item.ID, err)
	}
	key := TranscriptKey(item.ID)
	if err := a.store.Put(ctx, key, data, blob.Metadata{"content-type": "application/json"}); err != nil {
		return fmt.Errorf("store transcript for %s: %w", item.ID, err)
	}
	summary := strings.TrimSpace(transcript.Summary)
	if summary == "" {
		summary = excerpt(transcript.Text, 160)
	}
	item.Transcript = ArtifactRef{URL: key, SizeBytes: int64(len(data)), Summary: summary}
	return nil
}

// LoadTranscript fetches and decodes the item's transcript payload.
func (a *Artifacts) LoadTranscript(ctx context.Context, itemID string) (Transcript, error) {
	var transcript Transcript
	data, err := a.store.Get(ctx, TranscriptKey(itemID))
	if err != nil {
		return transcript, fmt.Errorf("fetch transcript for %s: %w", itemID, err)
	}
	if err := json.Unmarshal(data, &transcript); err != nil {
		return transcript, fmt.Errorf("decode transcript for %s: %w", itemID, err)
	}
	return transcript, nil
}

// SaveContext persists the development-context payload and updates the
// item's context reference.
func (a *Artifacts) SaveContext(ctx context.Context, item *Item, devContext githubmatch.Context) error {
	data, err := json.Marshal(devContext)
	if err != nil {
		return fmt.Errorf("encode context for %s: %w", item.ID, err)
	}
	key := ContextKey(item.ID)
	if err := a.store.Put(ctx, key, data, blob.Metadata{"content-type": "application/json"}); err != nil {
		return fmt.Errorf("store context for %s: %w", item.ID, err)
	}
	item.Context = ArtifactRef{URL: key, SizeBytes: int64(len(data))}
	return nil
}

// LoadContext fetches and decodes the item's development-context payload.
func (a *Artifacts) LoadContext(ctx context.Context, itemID string) (githubmatch.Context, error) {
	var devContext githubmatch.Context
	data, err := a.store.Get(ctx, ContextKey(itemID))
	if err != nil {
		return devContext, fmt.Errorf("fetch context for %s: %w", itemID, err)
	}
	if err := json.Unmarshal(data, &devContext); err != nil {
		return devContext, fmt.Errorf("decode context for %s: %w", itemID, err)
	}
	return devContext, nil
}

func excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
