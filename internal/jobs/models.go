package jobs

import (
	"encoding/json"
	"time"
)

// Status tracks a job through its lifecycle. Completed and failed are
// terminal; a terminal job is never reprocessed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseJobStatus converts a string into a known Status.
func ParseJobStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(value), true
	}
	return "", false
}

// Progress records which pipeline step a processing job has reached. It is
// advisory: failures do not roll it back.
type Progress struct {
	Step    string `json:"step"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Job is one content-generation job record.
type Job struct {
	ID           string
	Status       Status
	Progress     *Progress
	Request      ContentGenerationRequest
	Result       json.RawMessage
	ErrorMessage string
	WorkerID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ExpiresAt    time.Time
}

// Touch bumps UpdatedAt strictly forward. When the clock has not advanced
// past the previous value (coarse clocks, fast successive writes), the
// timestamp is nudged so every mutation remains observably ordered.
func (j *Job) Touch(now time.Time) {
	now = now.UTC()
	if !now.After(j.UpdatedAt) {
		now = j.UpdatedAt.Add(time.Microsecond)
	}
	j.UpdatedAt = now
}

// QueueMessage is the unit handed to the processor.
type QueueMessage struct {
	JobID    string                   `json:"job_id"`
	Request  ContentGenerationRequest `json:"request_data"`
	WorkerID string                   `json:"worker_id,omitempty"`
}

// Message builds the queue message for this job.
func (j *Job) Message(workerID string) QueueMessage {
	return QueueMessage{JobID: j.ID, Request: j.Request, WorkerID: workerID}
}
