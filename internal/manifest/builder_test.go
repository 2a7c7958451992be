package manifest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"clipdigest/internal/githubmatch"
	"clipdigest/internal/items"
	"clipdigest/internal/scoring"
)

type stubArtifacts struct {
	transcripts     map[string]items.Transcript
	contexts        map[string]githubmatch.Context
	transcriptReads map[string]int
	contextReads    map[string]int
}

func newStubArtifacts() *stubArtifacts {
	return &stubArtifacts{
		transcripts:     make(map[string]items.Transcript),
		contexts:        make(map[string]githubmatch.Context),
		transcriptReads: make(map[string]int),
		contextReads:    make(map[string]int),
	}
}

func (s *stubArtifacts) LoadTranscript(_ context.Context, itemID string) (items.Transcript, error) {
	s.transcriptReads[itemID]++
	transcript, ok := s.transcripts[itemID]
	if !ok {
		return items.Transcript{}, fmt.Errorf("no transcript for %s", itemID)
	}
	return transcript, nil
}

func (s *stubArtifacts) LoadContext(_ context.Context, itemID string) (githubmatch.Context, error) {
	s.contextReads[itemID]++
	devContext, ok := s.contexts[itemID]
	if !ok {
		return githubmatch.Context{}, fmt.Errorf("no context for %s", itemID)
	}
	return devContext, nil
}

func qualityOnlyEngine() *scoring.Engine {
	return scoring.NewEngine(scoring.Weights{Quality: 1}, scoring.Limits{})
}

func testOptions() Options {
	return Options{
		MaxSections:        5,
		MinDurationSeconds: 10,
		TitleMaxLength:     80,
		BulletMaxLength:    120,
		ExactThreshold:     0.8,
		EstimatedThreshold: 0.4,
		TargetBranch:       "main",
	}
}

func qualifyingItem(id string, quality float64, createdAt time.Time) *items.Item {
	return &items.Item{
		ID:              id,
		Title:           "clip " + id,
		SourceURL:       "https://clips.example/" + id,
		DurationSeconds: 60,
		QualityScore:    quality,
		CreatedAt:       createdAt,
		Status:          items.StatusReadyForContent,
		Transcript:      items.ArtifactRef{URL: "transcripts/" + id + ".json", SizeBytes: 64, Summary: "a summary long enough to qualify"},
	}
}

func TestBuildSelectsTopScoresInOrder(t *testing.T) {
	opts := testOptions()
	opts.MaxSections = 2
	builder := NewBuilder(newStubArtifacts(), qualityOnlyEngine(), opts, nil)

	now := time.Now().UTC()
	candidates := []*items.Item{
		qualifyingItem("a", 0.80, now),
		qualifyingItem("b", 0.55, now),
		qualifyingItem("c", 0.90, now),
	}

	m, err := builder.Build(context.Background(), now, candidates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", m.Status)
	}
	if m.TargetBranch != "main" {
		t.Fatalf("target branch = %q", m.TargetBranch)
	}
	if len(m.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(m.Sections))
	}
	if m.Sections[0].ItemID != "c" || m.Sections[0].Score != 90 {
		t.Fatalf("top section = %s (%d), want c (90)", m.Sections[0].ItemID, m.Sections[0].Score)
	}
	if m.Sections[1].ItemID != "a" || m.Sections[1].Score != 80 {
		t.Fatalf("second section = %s (%d), want a (80)", m.Sections[1].ItemID, m.Sections[1].Score)
	}
	if m.SourceVideoURL != "https://clips.example/c" {
		t.Fatalf("source video URL = %q", m.SourceVideoURL)
	}
	if m.ID == "" || !m.CreatedAt.After(now.Add(-time.Minute)) {
		t.Fatalf("manifest identity not stamped: %+v", m)
	}
}

func TestBuildTieBreaksByNewerCreation(t *testing.T) {
	builder := NewBuilder(newStubArtifacts(), qualityOnlyEngine(), testOptions(), nil)

	base := time.Date(2026, time.March, 4, 8, 0, 0, 0, time.UTC)
	older := qualifyingItem("older", 0.7, base)
	newer := qualifyingItem("newer", 0.7, base.Add(time.Hour))

	m, err := builder.Build(context.Background(), base, []*items.Item{older, newer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(m.Sections))
	}
	if m.Sections[0].ItemID != "newer" {
		t.Fatalf("tie should favor newer item, got %s first", m.Sections[0].ItemID)
	}
}

func TestBuildDisqualifiesBeforeScoring(t *testing.T) {
	builder := NewBuilder(newStubArtifacts(), qualityOnlyEngine(), testOptions(), nil)
	now := time.Now().UTC()

	tooShort := qualifyingItem("short", 0.9, now)
	tooShort.DurationSeconds = 5

	noSignal := qualifyingItem("blank", 0.9, now)
	noSignal.Transcript = items.ArtifactRef{Summary: "tiny"}

	refOnly := qualifyingItem("ref-only", 0.5, now)
	refOnly.Transcript = items.ArtifactRef{URL: "transcripts/ref-only.json", SizeBytes: 32}

	m, err := builder.Build(context.Background(), now, []*items.Item{tooShort, noSignal, refOnly})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Sections) != 1 || m.Sections[0].ItemID != "ref-only" {
		t.Fatalf("qualification selected wrong items: %+v", m.Sections)
	}
}

func TestBuildPrefetchesOncePerItem(t *testing.T) {
	artifacts := newStubArtifacts()
	artifacts.transcripts["a"] = items.Transcript{Text: "First point. Second point. Third point. Fourth point."}
	artifacts.contexts["a"] = githubmatch.Context{
		PullRequests: []string{"https://github.com/acme/widgets/pull/42"},
		Confidence:   0.9,
	}
	builder := NewBuilder(artifacts, qualityOnlyEngine(), testOptions(), nil)

	now := time.Now().UTC()
	item := qualifyingItem("a", 0.8, now)
	item.Context = items.ArtifactRef{URL: "github-context/a.json", SizeBytes: 32}

	if _, err := builder.Build(context.Background(), now, []*items.Item{item}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if artifacts.transcriptReads["a"] != 1 {
		t.Fatalf("transcript fetched %d times, want 1", artifacts.transcriptReads["a"])
	}
	if artifacts.contextReads["a"] != 1 {
		t.Fatalf("context fetched %d times, want 1", artifacts.contextReads["a"])
	}
}

func TestBuildComposesSectionFromContext(t *testing.T) {
	artifacts := newStubArtifacts()
	artifacts.transcripts["a"] = items.Transcript{
		Text:    "We fixed the reconnect loop. Backoff now caps at a minute. The flake is gone.",
		Summary: "reconnect loop fix",
	}
	artifacts.contexts["a"] = githubmatch.Context{
		PullRequests: []string{"https://github.com/acme/widgets/pull/42", "https://github.com/acme/widgets/pull/43"},
		Commits:      []string{"abc123"},
		Confidence:   0.95,
		MatchReason:  githubmatch.ReasonTemporalProximity,
	}
	builder := NewBuilder(artifacts, qualityOnlyEngine(), testOptions(), nil)

	now := time.Now().UTC()
	item := qualifyingItem("a", 0.8, now)
	item.Title = "fixing the reconnect loop"
	item.Context = items.ArtifactRef{URL: "github-context/a.json", SizeBytes: 32}

	m, err := builder.Build(context.Background(), now, []*items.Item{item})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	section := m.Sections[0]

	if section.Repository != "acme/widgets" {
		t.Fatalf("repository = %q, want acme/widgets", section.Repository)
	}
	if len(section.PullRequests) != 2 {
		t.Fatalf("pull requests = %v", section.PullRequests)
	}
	if section.Alignment != AlignmentExact {
		t.Fatalf("alignment = %s, want exact", section.Alignment)
	}
	if len(section.Bullets) < 2 || len(section.Bullets) > 4 {
		t.Fatalf("bullet count out of bounds: %v", section.Bullets)
	}
	for _, bullet := range section.Bullets {
		if len(bullet) > 120 {
			t.Fatalf("bullet exceeds bound: %q", bullet)
		}
	}
	if section.Paragraph == "" || !strings.Contains(section.Paragraph, "acme/widgets") {
		t.Fatalf("paragraph = %q", section.Paragraph)
	}
	if !strings.HasPrefix(section.Title, "Fixing") {
		t.Fatalf("title casing not applied: %q", section.Title)
	}
	if section.EndSeconds != item.DurationSeconds {
		t.Fatalf("end offset = %v", section.EndSeconds)
	}
}

func TestBuildAlignmentThresholds(t *testing.T) {
	cases := []struct {
		name       string
		confidence float64
		want       AlignmentStatus
	}{
		{"high confidence", 0.85, AlignmentExact},
		{"medium confidence", 0.5, AlignmentEstimated},
		{"low confidence", 0.2, AlignmentMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			artifacts := newStubArtifacts()
			artifacts.contexts["a"] = githubmatch.Context{Confidence: tc.confidence}
			builder := NewBuilder(artifacts, qualityOnlyEngine(), testOptions(), nil)

			now := time.Now().UTC()
			item := qualifyingItem("a", 0.5, now)
			item.Context = items.ArtifactRef{URL: "github-context/a.json", SizeBytes: 32}

			m, err := builder.Build(context.Background(), now, []*items.Item{item})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := m.Sections[0].Alignment; got != tc.want {
				t.Fatalf("alignment = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBuildToleratesMissingPayloads(t *testing.T) {
	// Valid refs whose payloads cannot be fetched degrade to zero
	// contribution instead of failing the build.
	builder := NewBuilder(newStubArtifacts(), qualityOnlyEngine(), testOptions(), nil)

	now := time.Now().UTC()
	item := qualifyingItem("a", 0.6, now)
	item.Context = items.ArtifactRef{URL: "github-context/a.json", SizeBytes: 32}

	m, err := builder.Build(context.Background(), now, []*items.Item{item})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(m.Sections))
	}
	if m.Sections[0].Alignment != AlignmentMissing {
		t.Fatalf("alignment = %s, want missing", m.Sections[0].Alignment)
	}
}

func TestRepositoryFromPullRequests(t *testing.T) {
	cases := []struct {
		name string
		urls []string
		want string
	}{
		{"html url", []string{"https://github.com/acme/widgets/pull/42"}, "acme/widgets"},
		{"first parseable wins", []string{"", "https://github.com/acme/widgets/pull/7"}, "acme/widgets"},
		{"no urls", nil, ""},
		{"bare host", []string{"https://github.com"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := repositoryFromPullRequests(tc.urls); got != tc.want {
				t.Fatalf("repositoryFromPullRequests(%v) = %q, want %q", tc.urls, got, tc.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three? Four. Five.", 3)
	if len(sentences) != 3 || sentences[0] != "One." || sentences[2] != "Three?" {
		t.Fatalf("splitSentences = %v", sentences)
	}
	if got := splitSentences("no terminator here", 3); len(got) != 1 {
		t.Fatalf("expected trailing fragment to count, got %v", got)
	}
	if got := splitSentences("", 3); len(got) != 0 {
		t.Fatalf("expected no sentences, got %v", got)
	}
}
