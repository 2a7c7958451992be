package scoring

import (
	"errors"
	"fmt"
	"math"

	"clipdigest/internal/config"
)

// weightTolerance is the slack allowed when checking that weights sum to 1.0.
const weightTolerance = 1e-3

// Weights holds the relative importance of each scoring axis. A valid set
// sums to 1.0.
type Weights struct {
	Quality    float64
	Context    float64
	Views      float64
	Transcript float64
	Duration   float64
}

// WeightsFromConfig extracts the configured weights.
func WeightsFromConfig(cfg config.Scoring) Weights {
	return Weights{
		Quality:    cfg.QualityWeight,
		Context:    cfg.ContextWeight,
		Views:      cfg.ViewsWeight,
		Transcript: cfg.TranscriptWeight,
		Duration:   cfg.DurationWeight,
	}
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Quality + w.Context + w.Views + w.Transcript + w.Duration
}

// Validate ensures every weight is non-negative and the set sums to 1.0
// within tolerance.
func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"quality":    w.Quality,
		"context":    w.Context,
		"views":      w.Views,
		"transcript": w.Transcript,
		"duration":   w.Duration,
	} {
		if value < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %v", name, value)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", w.Sum())
	}
	return nil
}

// Normalize rescales an arbitrary set of non-negative weights so they sum
// to 1.0. An all-zero set cannot be normalized.
func Normalize(w Weights) (Weights, error) {
	sum := w.Sum()
	if sum <= 0 {
		return Weights{}, errors.New("cannot normalize weights summing to zero")
	}
	return Weights{
		Quality:    w.Quality / sum,
		Context:    w.Context / sum,
		Views:      w.Views / sum,
		Transcript: w.Transcript / sum,
		Duration:   w.Duration / sum,
	}, nil
}
