package jobs

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusView is the read model served to pollers. Because progress is
// persisted before each step body, a view always reflects a fully
// completed step.
type StatusView struct {
	JobID       string          `json:"job_id"`
	Status      Status          `json:"status"`
	StatusURL   string          `json:"status_url,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Progress    *Progress       `json:"progress,omitempty"`
	Results     json.RawMessage `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewStatusView projects a job into its polling shape. The status URL is
// composed from the configured public base URL; an empty base leaves the
// field unset.
func NewStatusView(job *Job, publicBaseURL string) StatusView {
	view := StatusView{
		JobID:       job.ID,
		Status:      job.Status,
		ExpiresAt:   job.ExpiresAt,
		Progress:    job.Progress,
		Results:     job.Result,
		Error:       job.ErrorMessage,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		view.StatusURL = base + "/api/jobs/" + job.ID
	}
	return view
}
