package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipdigest/internal/config"
	"clipdigest/internal/githubmatch"
	"clipdigest/internal/items"
	"clipdigest/internal/logging"
	"clipdigest/internal/scoring"
)

const minSummaryLength = 10

// ArtifactSource fetches the externally stored payloads behind an item's
// artifact references. items.Artifacts satisfies it.
type ArtifactSource interface {
	LoadTranscript(ctx context.Context, itemID string) (items.Transcript, error)
	LoadContext(ctx context.Context, itemID string) (githubmatch.Context, error)
}

// Options bound digest selection and composition.
type Options struct {
	MaxSections        int
	MinDurationSeconds float64
	TitleMaxLength     int
	BulletMaxLength    int
	ExactThreshold     float64
	EstimatedThreshold float64
	TargetBranch       string
}

// OptionsFromConfig extracts the configured composition bounds.
func OptionsFromConfig(cfg config.Manifest) Options {
	return Options{
		MaxSections:        cfg.MaxSections,
		MinDurationSeconds: cfg.MinDurationSeconds,
		TitleMaxLength:     cfg.TitleMaxLength,
		BulletMaxLength:    cfg.BulletMaxLength,
		ExactThreshold:     cfg.ExactThreshold,
		EstimatedThreshold: cfg.EstimatedThreshold,
		TargetBranch:       cfg.TargetBranch,
	}
}

// Builder assembles draft manifests from candidate items.
type Builder struct {
	artifacts ArtifactSource
	engine    *scoring.Engine
	opts      Options
	logger    *slog.Logger
}

// NewBuilder constructs a manifest builder.
func NewBuilder(artifacts ArtifactSource, engine *scoring.Engine, opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MaxSections <= 0 {
		opts.MaxSections = 5
	}
	return &Builder{
		artifacts: artifacts,
		engine:    engine,
		opts:      opts,
		logger:    logger.With(logging.String(logging.FieldComponent, "manifest-builder")),
	}
}

// itemData holds one candidate's prefetched payloads for the duration of a
// single build. The cache is discarded when Build returns.
type itemData struct {
	transcript   items.Transcript
	transcriptOK bool
	context      githubmatch.Context
	contextOK    bool
}

type rankedItem struct {
	item  *items.Item
	score int
}

// Build filters, scores, and ranks the candidates, then composes a draft
// manifest from the top selections. Candidate payloads are fetched once per
// item into a per-build cache so composition never re-reads the blob store.
func (b *Builder) Build(ctx context.Context, date time.Time, candidates []*items.Item) (*Manifest, error) {
	qualified := make([]*items.Item, 0, len(candidates))
	for _, item := range candidates {
		if b.qualifies(item) {
			qualified = append(qualified, item)
		}
	}
	b.logger.Info("qualified candidates",
		logging.Int("total", len(candidates)),
		logging.Int("qualified", len(qualified)))

	cache := make(map[string]*itemData, len(qualified))
	for _, item := range qualified {
		data, err := b.prefetch(ctx, item)
		if err != nil {
			return nil, err
		}
		cache[item.ID] = data
	}

	ranked := make([]rankedItem, 0, len(qualified))
	for _, item := range qualified {
		score := b.engine.Score(b.scoreInputs(item, cache[item.ID]))
		item.ContentScore = score
		ranked = append(ranked, rankedItem{item: item, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.CreatedAt.After(ranked[j].item.CreatedAt)
	})
	if len(ranked) > b.opts.MaxSections {
		ranked = ranked[:b.opts.MaxSections]
	}

	m := &Manifest{
		ID:           uuid.NewString(),
		Date:         date.UTC().Truncate(24 * time.Hour),
		Sections:     make([]Section, 0, len(ranked)),
		TargetBranch: b.opts.TargetBranch,
		Status:       StatusDraft,
		CreatedAt:    time.Now().UTC(),
	}
	for _, entry := range ranked {
		section := b.composeSection(entry.item, entry.score, cache[entry.item.ID])
		m.Sections = append(m.Sections, section)
	}
	if len(m.Sections) > 0 {
		m.SourceVideoURL = m.Sections[0].SourceClipURL
	}
	b.logger.Info("composed manifest",
		logging.String("manifest_id", m.ID),
		logging.Int("sections", len(m.Sections)))
	return m, nil
}

// qualifies applies the candidate filter: a usable transcript signal and a
// minimum duration. Disqualified items are never scored.
func (b *Builder) qualifies(item *items.Item) bool {
	if item == nil {
		return false
	}
	if item.DurationSeconds < b.opts.MinDurationSeconds {
		return false
	}
	if len(strings.TrimSpace(item.Transcript.Summary)) >= minSummaryLength {
		return true
	}
	return item.Transcript.Valid()
}

// prefetch loads the item's transcript and context payloads. Missing
// payloads are tolerated (they contribute nothing to the score); only
// context cancellation aborts the build.
func (b *Builder) prefetch(ctx context.Context, item *items.Item) (*itemData, error) {
	data := &itemData{}
	if item.Transcript.Valid() {
		transcript, err := b.artifacts.LoadTranscript(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("prefetch transcript: %w", ctx.Err())
			}
			b.logger.Warn("transcript fetch failed",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			data.transcript = transcript
			data.transcriptOK = true
		}
	}
	if item.Context.Valid() {
		devContext, err := b.artifacts.LoadContext(ctx, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("prefetch context: %w", ctx.Err())
			}
			b.logger.Warn("context fetch failed",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			data.context = devContext
			data.contextOK = true
		}
	}
	return data, nil
}

func (b *Builder) scoreInputs(item *items.Item, data *itemData) scoring.Inputs {
	words := 0
	if data.transcriptOK {
		words = data.transcript.WordCount()
	} else {
		words = len(strings.Fields(item.Transcript.Summary))
	}
	confidence := 0.0
	if data.contextOK {
		confidence = data.context.Confidence
	}
	return scoring.Inputs{
		QualityScore:      item.QualityScore,
		ContextConfidence: confidence,
		ViewCount:         item.ViewCount,
		TranscriptWords:   words,
		DurationSeconds:   item.DurationSeconds,
	}
}

func (b *Builder) composeSection(item *items.Item, score int, data *itemData) Section {
	section := Section{
		ItemID:        item.ID,
		Title:         b.sectionTitle(item),
		Score:         score,
		Alignment:     AlignmentMissing,
		StartSeconds:  0,
		EndSeconds:    item.DurationSeconds,
		SourceClipURL: item.SourceURL,
	}

	if data.contextOK {
		section.Confidence = data.context.Confidence
		section.PullRequests = append(section.PullRequests, data.context.PullRequests...)
		section.Repository = repositoryFromPullRequests(data.context.PullRequests)
		switch {
		case data.context.Confidence > b.opts.ExactThreshold:
			section.Alignment = AlignmentExact
		case data.context.Confidence > b.opts.EstimatedThreshold:
			section.Alignment = AlignmentEstimated
		}
	}

	section.Bullets = b.sectionBullets(item, data, section.Repository)
	section.Paragraph = b.sectionParagraph(item, data, section.Repository)
	return section
}

func (b *Builder) sectionTitle(item *items.Item) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "clip " + item.ID
	}
	title = cases.Title(language.Und, cases.NoLower).String(title)
	return truncate(title, b.opts.TitleMaxLength)
}

// sectionBullets derives between two and four bullet points from the
// transcript text plus the development context.
func (b *Builder) sectionBullets(item *items.Item, data *itemData, repo string) []string {
	var bullets []string
	if data.transcriptOK {
		for _, sentence := range splitSentences(data.transcript.Text, 3) {
			bullets = append(bullets, truncate(sentence, b.opts.BulletMaxLength))
		}
	}
	if data.contextOK {
		if bullet := contextBullet(data.context, repo); bullet != "" {
			bullets = append(bullets, truncate(bullet, b.opts.BulletMaxLength))
		}
	}
	if len(bullets) < 2 {
		if summary := strings.TrimSpace(item.Transcript.Summary); summary != "" {
			bullets = append(bullets, truncate(summary, b.opts.BulletMaxLength))
		}
	}
	if len(bullets) < 2 {
		bullets = append(bullets, truncate(fmt.Sprintf("%s covers %.0f seconds of footage", b.sectionTitle(item), item.DurationSeconds), b.opts.BulletMaxLength))
	}
	if len(bullets) > 4 {
		bullets = bullets[:4]
	}
	return bullets
}

func (b *Builder) sectionParagraph(item *items.Item, data *itemData, repo string) string {
	base := strings.TrimSpace(item.Transcript.Summary)
	if base == "" && data.transcriptOK {
		sentences := splitSentences(data.transcript.Text, 2)
		base = strings.Join(sentences, " ")
	}
	if base == "" {
		base = strings.TrimSpace(item.Title)
	}
	if repo != "" {
		base += fmt.Sprintf(" Development activity in %s was recorded around the same window.", repo)
	}
	return base
}

func contextBullet(devContext githubmatch.Context, repo string) string {
	where := ""
	if repo != "" {
		where = " in " + repo
	}
	switch {
	case len(devContext.PullRequests) > 0:
		return fmt.Sprintf("Linked to %d pull request(s)%s", len(devContext.PullRequests), where)
	case len(devContext.Commits) > 0:
		return fmt.Sprintf("Recorded near %d commit(s)%s", len(devContext.Commits), where)
	case len(devContext.Issues) > 0:
		return fmt.Sprintf("Discussed alongside %d issue(s)%s", len(devContext.Issues), where)
	}
	return ""
}

// repositoryFromPullRequests extracts the "owner/repo" segment from the
// first parseable PR HTML URL.
func repositoryFromPullRequests(urls []string) string {
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		if idx := strings.Index(trimmed, "://"); idx >= 0 {
			trimmed = trimmed[idx+3:]
		}
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		// host/owner/repo/pull/<n>
		if len(parts) >= 3 && parts[1] != "" && parts[2] != "" {
			return parts[1] + "/" + parts[2]
		}
	}
	return ""
}

// splitSentences returns up to limit sentences from free text, trimmed.
func splitSentences(text string, limit int) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(current.String())
		current.Reset()
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
			if len(sentences) >= limit {
				return sentences
			}
		}
	}
	flush()
	if len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return sentences
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
