package jobs

import (
	"strings"
	"time"

	"clipdigest/internal/items"
	"clipdigest/internal/services"
)

// ContentType selects the digest flavor a job produces.
type ContentType string

const (
	ContentDailyRecap    ContentType = "daily_recap"
	ContentWeeklySummary ContentType = "weekly_summary"
	ContentTopicFocus    ContentType = "topic_focus"
)

var knownContentTypes = map[ContentType]struct{}{
	ContentDailyRecap:    {},
	ContentWeeklySummary: {},
	ContentTopicFocus:    {},
}

// DateRange bounds the candidate query.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RequestFilters narrows candidate selection. Zero values mean "no
// constraint".
type RequestFilters struct {
	MinViews      int      `json:"min_views,omitempty"`
	MinDuration   float64  `json:"min_duration,omitempty"`
	MaxDuration   float64  `json:"max_duration,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
}

// ContentGenerationRequest is the payload a job is created from.
type ContentGenerationRequest struct {
	DateRange   DateRange       `json:"date_range"`
	Filters     *RequestFilters `json:"filters,omitempty"`
	ContentType ContentType     `json:"content_type"`
	Repository  string          `json:"repository,omitempty"`
}

// Validate checks the request synchronously. Invalid requests are rejected
// before a job is ever created, tagged with services.ErrValidation.
func (r ContentGenerationRequest) Validate() error {
	if r.DateRange.Start.IsZero() || r.DateRange.End.IsZero() {
		return services.Wrap(services.ErrValidation, "jobs", "validate request", "date range start and end required", nil)
	}
	if r.DateRange.End.Before(r.DateRange.Start) {
		return services.Wrap(services.ErrValidation, "jobs", "validate request", "date range end precedes start", nil)
	}
	if _, ok := knownContentTypes[r.ContentType]; !ok {
		return services.Wrap(services.ErrValidation, "jobs", "validate request", "unsupported content type "+string(r.ContentType), nil)
	}
	if repo := strings.TrimSpace(r.Repository); repo != "" && strings.Count(repo, "/") != 1 {
		return services.Wrap(services.ErrValidation, "jobs", "validate request", "repository must be owner/repo", nil)
	}
	if f := r.Filters; f != nil {
		if f.MinViews < 0 || f.MinDuration < 0 || f.MaxDuration < 0 {
			return services.Wrap(services.ErrValidation, "jobs", "validate request", "filters must be non-negative", nil)
		}
		if f.MaxDuration > 0 && f.MinDuration > f.MaxDuration {
			return services.Wrap(services.ErrValidation, "jobs", "validate request", "min duration exceeds max duration", nil)
		}
		if f.MinConfidence < 0 || f.MinConfidence > 1 {
			return services.Wrap(services.ErrValidation, "jobs", "validate request", "min confidence must be in [0,1]", nil)
		}
	}
	return nil
}

// ItemFilters converts the request filters into a store query.
func (r ContentGenerationRequest) ItemFilters() items.Filters {
	if r.Filters == nil {
		return items.Filters{}
	}
	return items.Filters{
		MinViews:    r.Filters.MinViews,
		MinDuration: r.Filters.MinDuration,
		MaxDuration: r.Filters.MaxDuration,
		Categories:  r.Filters.Categories,
	}
}

// MinConfidence returns the requested confidence floor, 0 when unset.
func (r ContentGenerationRequest) MinConfidence() float64 {
	if r.Filters == nil {
		return 0
	}
	return r.Filters.MinConfidence
}
