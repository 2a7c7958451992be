package items

import (
	"strings"
	"time"
)

// ProcessingStatus tracks how far a clip has moved through enrichment.
type ProcessingStatus string

const (
	StatusPending         ProcessingStatus = "pending"
	StatusAudioReady      ProcessingStatus = "audio_ready"
	StatusTranscribed     ProcessingStatus = "transcribed"
	StatusEnhanced        ProcessingStatus = "enhanced"
	StatusReadyForContent ProcessingStatus = "ready_for_content"
)

var statusOrder = map[ProcessingStatus]int{
	StatusPending:         0,
	StatusAudioReady:      1,
	StatusTranscribed:     2,
	StatusEnhanced:        3,
	StatusReadyForContent: 4,
}

// AllStatuses returns the ordered list of known processing statuses.
func AllStatuses() []ProcessingStatus {
	return []ProcessingStatus{
		StatusPending,
		StatusAudioReady,
		StatusTranscribed,
		StatusEnhanced,
		StatusReadyForContent,
	}
}

// ParseStatus converts a string into a known ProcessingStatus.
func ParseStatus(value string) (ProcessingStatus, bool) {
	normalized := ProcessingStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusOrder[normalized]
	return normalized, ok
}

// CanAdvance reports whether moving from one status to another respects the
// forward-only lifecycle. Same-status writes are allowed; moving backward
// is not.
func CanAdvance(from, to ProcessingStatus) bool {
	fromRank, okFrom := statusOrder[from]
	toRank, okTo := statusOrder[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank >= fromRank
}

// ArtifactRef points at an externally stored artifact. SizeBytes mirrors
// the stored object's size; Summary is a short human excerpt kept inline.
type ArtifactRef struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
	Summary   string `json:"summary,omitempty"`
}

// Valid reports whether the reference points at a non-empty stored object.
func (r ArtifactRef) Valid() bool {
	return strings.TrimSpace(r.URL) != "" && r.SizeBytes > 0
}

// Item is one clip's state record.
type Item struct {
	ID              string
	Title           string
	SourceURL       string
	DurationSeconds float64
	ViewCount       int
	QualityScore    float64 // externally supplied, in [0,1]
	CreatedAt       time.Time
	Status          ProcessingStatus
	Transcript      ArtifactRef
	Context         ArtifactRef
	ContentScore    int
	Category        string
	Tags            []string
	StoredAt        time.Time
	EnhancedAt      *time.Time
	ContentReadyAt  *time.Time
	UpdatedAt       time.Time
}

// Advance moves the item to a later status, stamping the lifecycle
// timestamps as it passes enhanced and ready_for_content. Moving to
// ready_for_content requires a valid transcript reference.
func (i *Item) Advance(to ProcessingStatus, now time.Time) error {
	if !CanAdvance(i.Status, to) {
		return &TransitionError{From: i.Status, To: to}
	}
	if to == StatusReadyForContent && !i.Transcript.Valid() {
		return &TransitionError{From: i.Status, To: to, Reason: "transcript reference required"}
	}
	if i.Status == to {
		return nil
	}
	i.Status = to
	switch to {
	case StatusEnhanced:
		t := now.UTC()
		i.EnhancedAt = &t
	case StatusReadyForContent:
		t := now.UTC()
		i.ContentReadyAt = &t
	}
	return nil
}

// Transcript is the artifact payload persisted under transcripts/{id}.json.
type Transcript struct {
	Text     string `json:"text"`
	Summary  string `json:"summary,omitempty"`
	Language string `json:"language,omitempty"`
}

// WordCount counts whitespace-separated words in the transcript text.
func (t Transcript) WordCount() int {
	return len(strings.Fields(t.Text))
}

// TransitionError reports a rejected processing-status change.
type TransitionError struct {
	From   ProcessingStatus
	To     ProcessingStatus
	Reason string
}

func (e *TransitionError) Error() string {
	msg := "invalid status transition " + string(e.From) + " -> " + string(e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
