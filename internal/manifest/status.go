package manifest

import "strings"

// Status tracks a manifest through publication. Transitions are strictly
// forward; every transition past draft is driven by an external
// collaborator (PR creation, approval, merge webhook, publish step).
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPROpen    Status = "pr_open"
	StatusApproved  Status = "approved"
	StatusMerged    Status = "merged"
	StatusPublished Status = "published"
)

var statusRank = map[Status]int{
	StatusDraft:     0,
	StatusPROpen:    1,
	StatusApproved:  2,
	StatusMerged:    3,
	StatusPublished: 4,
}

// AllStatuses returns the ordered publication lifecycle.
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusPROpen, StatusApproved, StatusMerged, StatusPublished}
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusRank[normalized]
	return normalized, ok
}

// CanTransition reports whether a manifest may move from one status to
// another. Only strictly forward moves are allowed.
func CanTransition(from, to Status) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

// StatusError reports a rejected publication-status change.
type StatusError struct {
	From Status
	To   Status
}

func (e *StatusError) Error() string {
	return "invalid manifest status transition " + string(e.From) + " -> " + string(e.To)
}

// Transition moves the manifest forward through the publication lifecycle.
func (m *Manifest) Transition(to Status) error {
	if !CanTransition(m.Status, to) {
		return &StatusError{From: m.Status, To: to}
	}
	m.Status = to
	return nil
}
