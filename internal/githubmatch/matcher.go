package githubmatch

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// EventType classifies a development event.
type EventType string

const (
	EventPullRequest EventType = "pull_request"
	EventPush        EventType = "push"
	EventIssue       EventType = "issue"
)

// Event is one development activity record from the event feed.
type Event struct {
	Type      EventType
	Timestamp time.Time
	URL       string
	CommitIDs []string
}

// Context is the development-context object computed for one clip/window
// pair. It is immutable once computed; rerunning with a wider window may
// produce a different context.
type Context struct {
	PullRequests []string  `json:"pull_requests"`
	Commits      []string  `json:"commits"`
	Issues       []string  `json:"issues"`
	Confidence   float64   `json:"confidence"`
	MatchReason  string    `json:"match_reason"`
	MatchedAt    time.Time `json:"matched_at"`
}

const (
	// ReasonTemporalProximity tags contexts matched by timestamp distance.
	// The schema leaves room for other strategies (e.g. textual) later.
	ReasonTemporalProximity = "temporal_proximity"
	// ReasonNoEvents tags contexts computed against an empty window.
	ReasonNoEvents = "no_events"
)

// Feed supplies development events within a time range.
type Feed interface {
	EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Matcher correlates clips against a development-event feed.
type Matcher struct {
	feed   Feed
	window time.Duration
}

// DefaultWindow is the symmetric correlation window applied around a clip
// timestamp when none is configured.
const DefaultWindow = 2 * time.Hour

// NewMatcher constructs a matcher. A non-positive window falls back to
// DefaultWindow.
func NewMatcher(feed Feed, window time.Duration) *Matcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Matcher{feed: feed, window: window}
}

// Window returns the configured symmetric window.
func (m *Matcher) Window() time.Duration {
	return m.window
}

// Match queries events within the symmetric window around clipTime and
// builds the context object. Confidence is derived from the earliest
// matched event: max(0, 1 - |dt|/window), so it is 1 at zero distance and
// 0 at or beyond the window edge.
func (m *Matcher) Match(ctx context.Context, clipTime time.Time) (Context, error) {
	from := clipTime.Add(-m.window)
	to := clipTime.Add(m.window)

	events, err := m.feed.EventsBetween(ctx, from, to)
	if err != nil {
		return Context{}, fmt.Errorf("query development events: %w", err)
	}

	matched := make([]Event, 0, len(events))
	for _, event := range events {
		if event.Timestamp.Before(from) || event.Timestamp.After(to) {
			continue
		}
		matched = append(matched, event)
	}
	if len(matched) == 0 {
		return Context{MatchReason: ReasonNoEvents, MatchedAt: clipTime.UTC()}, nil
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	result := Context{
		MatchReason: ReasonTemporalProximity,
		MatchedAt:   clipTime.UTC(),
		Confidence:  Confidence(clipTime, matched[0].Timestamp, m.window),
	}
	for _, event := range matched {
		switch event.Type {
		case EventPullRequest:
			result.PullRequests = append(result.PullRequests, event.URL)
		case EventPush:
			result.Commits = append(result.Commits, event.CommitIDs...)
		case EventIssue:
			result.Issues = append(result.Issues, event.URL)
		}
	}
	return result, nil
}

// Confidence computes the temporal-proximity confidence for a clip and
// event timestamp pair against a symmetric window. The result is clamped
// to [0,1] and is exactly 0 for any distance at or beyond the window.
func Confidence(clipTime, eventTime time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	distance := clipTime.Sub(eventTime)
	if distance < 0 {
		distance = -distance
	}
	if distance >= window {
		return 0
	}
	return 1 - float64(distance)/float64(window)
}
