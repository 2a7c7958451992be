package scoring

import (
	"math"

	"clipdigest/internal/config"
)

// Limits carries the linear-normalization ceilings for the raw axes.
type Limits struct {
	MaxViews           int
	MaxTranscriptWords int
	MaxDurationSeconds float64
}

// LimitsFromConfig extracts the configured limits.
func LimitsFromConfig(cfg config.Scoring) Limits {
	return Limits{
		MaxViews:           cfg.MaxViews,
		MaxTranscriptWords: cfg.MaxTranscriptWords,
		MaxDurationSeconds: cfg.MaxDurationSeconds,
	}
}

// Inputs are the raw attributes of one candidate item. Missing optional
// inputs (zero views, no transcript) contribute 0 to the score; they are
// never an error.
type Inputs struct {
	QualityScore      float64 // externally supplied, already in [0,1]
	ContextConfidence float64 // temporal-match confidence in [0,1]
	ViewCount         int
	TranscriptWords   int
	DurationSeconds   float64
}

// Engine scores candidate items with a fixed weight/limit configuration.
type Engine struct {
	weights Weights
	limits  Limits
}

// NewEngine constructs a scoring engine. The weights must already be
// validated (config load rejects invalid sets).
func NewEngine(weights Weights, limits Limits) *Engine {
	return &Engine{weights: weights, limits: limits}
}

// Score computes the weighted score for the inputs, rounded to an integer
// in [0,100]. The computation is deterministic and has no side effects.
func (e *Engine) Score(in Inputs) int {
	components := e.Components(in)
	weighted := components.Quality*e.weights.Quality +
		components.Context*e.weights.Context +
		components.Views*e.weights.Views +
		components.Transcript*e.weights.Transcript +
		components.Duration*e.weights.Duration
	return int(math.Round(weighted * 100))
}

// Components holds the per-axis normalized values, each clamped to [0,1].
type Components struct {
	Quality    float64
	Context    float64
	Views      float64
	Transcript float64
	Duration   float64
}

// Components exposes the normalized axes for one input set, useful for
// explaining a score.
func (e *Engine) Components(in Inputs) Components {
	return Components{
		Quality:    clamp01(in.QualityScore),
		Context:    clamp01(in.ContextConfidence),
		Views:      ratio(float64(in.ViewCount), float64(e.limits.MaxViews)),
		Transcript: ratio(float64(in.TranscriptWords), float64(e.limits.MaxTranscriptWords)),
		Duration:   ratio(in.DurationSeconds, e.limits.MaxDurationSeconds),
	}
}

func ratio(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp01(value / max)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
