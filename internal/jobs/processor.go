package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"clipdigest/internal/items"
	"clipdigest/internal/logging"
	"clipdigest/internal/manifest"
	"clipdigest/internal/notifications"
	"clipdigest/internal/services"
)

// ErrTerminal marks an attempt to reprocess a completed or failed job. The
// attempt is a logged no-op; the stored record is never touched.
var ErrTerminal = errors.New("job already terminal")

// ItemSource supplies candidate items for a date range.
type ItemSource interface {
	ListByDateRange(ctx context.Context, from, to time.Time, filters items.Filters) ([]*items.Item, error)
}

// DraftBuilder composes a draft digest from candidates.
type DraftBuilder interface {
	Build(ctx context.Context, date time.Time, candidates []*items.Item) (*manifest.Manifest, error)
}

// DigestJudge scores a composed digest. A nil judge skips the step body.
type DigestJudge interface {
	Evaluate(ctx context.Context, digest *manifest.Manifest) (manifest.JudgeResult, error)
}

// ErrorTracker receives exactly one report per failed job. Injected so the
// orchestration logic stays testable without network I/O.
type ErrorTracker interface {
	Report(ctx context.Context, jobID string, err error)
}

// Result is the payload stored on a completed job.
type Result struct {
	Manifest    *manifest.Manifest    `json:"manifest"`
	Judge       *manifest.JudgeResult `json:"judge,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// The five pipeline steps, in execution order.
const (
	StepFetchItems      = "fetch_items"
	StepGenerateDraft   = "generate_draft"
	StepJudge           = "judge"
	StepPrepareResponse = "prepare_response"
	StepFinalize        = "finalize"
)

var pipelineSteps = []string{
	StepFetchItems,
	StepGenerateDraft,
	StepJudge,
	StepPrepareResponse,
	StepFinalize,
}

// Processor runs one job through the five-step pipeline.
type Processor struct {
	store    *Store
	items    ItemSource
	builder  DraftBuilder
	judge    DigestJudge
	notifier notifications.Service
	tracker  ErrorTracker
	logger   *slog.Logger
}

// NewProcessor wires the processor's collaborators. judge and tracker may
// be nil; notifier may be nil (no notifications).
func NewProcessor(store *Store, source ItemSource, builder DraftBuilder, judge DigestJudge, notifier notifications.Service, tracker ErrorTracker, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		store:    store,
		items:    source,
		builder:  builder,
		judge:    judge,
		notifier: notifier,
		tracker:  tracker,
		logger:   logger.With(logging.String(logging.FieldComponent, "job-processor")),
	}
}

// run carries the in-flight state one job accumulates across steps.
type run struct {
	candidates []*items.Item
	digest     *manifest.Manifest
	verdict    *manifest.JudgeResult
	payload    json.RawMessage
}

// Process drives one job to a terminal state. On success the completed
// status and result land in a single atomic update; on any step error the
// job fails with exactly one transition and one error-tracking report.
// Already-terminal jobs are a logged no-op returning ErrTerminal.
func (p *Processor) Process(ctx context.Context, msg QueueMessage) error {
	ctx = services.WithJobID(ctx, msg.JobID)
	logger := logging.WithContext(ctx, p.logger)

	job, err := p.store.GetByID(ctx, msg.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "jobs", "process", "job "+msg.JobID+" not found", nil)
	}
	if job.Status.Terminal() {
		logger.Warn("refusing to reprocess terminal job",
			logging.String("status", string(job.Status)))
		return fmt.Errorf("%w: job %s is %s", ErrTerminal, job.ID, job.Status)
	}

	now := time.Now().UTC()
	job.Status = StatusProcessing
	job.StartedAt = &now
	if msg.WorkerID != "" {
		job.WorkerID = msg.WorkerID
	}
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}
	p.publish(ctx, notifications.EventJobStarted, notifications.Payload{"jobID": job.ID})

	state := &run{}
	for i, step := range pipelineSteps {
		// The progress write lands before the step body runs, so a
		// concurrent status read never observes a half-finished step.
		job.Progress = &Progress{Step: step, Current: i + 1, Total: len(pipelineSteps)}
		if err := p.store.Update(ctx, job); err != nil {
			return p.fail(ctx, job, step, err)
		}
		if err := p.runStep(ctx, job, step, state); err != nil {
			return p.fail(ctx, job, step, err)
		}
		logger.Info("step complete", logging.String(logging.FieldStep, step))
	}

	completedAt := time.Now().UTC()
	job.Status = StatusCompleted
	job.Result = state.payload
	job.ErrorMessage = ""
	job.CompletedAt = &completedAt
	if err := p.store.Update(ctx, job); err != nil {
		return err
	}

	sections := 0
	if state.digest != nil {
		sections = len(state.digest.Sections)
	}
	logger.Info("job completed", logging.Int("sections", sections))
	p.publish(ctx, notifications.EventJobCompleted, notifications.Payload{
		"jobID":    job.ID,
		"sections": strconv.Itoa(sections),
	})
	if state.digest != nil {
		p.publish(ctx, notifications.EventDigestComposed, notifications.Payload{
			"date":     state.digest.Date.Format("2006-01-02"),
			"sections": strconv.Itoa(sections),
		})
	}
	return nil
}

func (p *Processor) runStep(ctx context.Context, job *Job, step string, state *run) error {
	switch step {
	case StepFetchItems:
		candidates, err := p.items.ListByDateRange(ctx, job.Request.DateRange.Start, job.Request.DateRange.End, job.Request.ItemFilters())
		if err != nil {
			return fmt.Errorf("fetch content items: %w", err)
		}
		state.candidates = candidates
		return nil

	case StepGenerateDraft:
		digest, err := p.builder.Build(ctx, job.Request.DateRange.Start, state.candidates)
		if err != nil {
			return fmt.Errorf("generate draft content: %w", err)
		}
		state.digest = digest
		return nil

	case StepJudge:
		if p.judge == nil || state.digest == nil || len(state.digest.Sections) == 0 {
			return nil
		}
		verdict, err := p.judge.Evaluate(ctx, state.digest)
		if err != nil {
			return fmt.Errorf("run automated judgment: %w", err)
		}
		state.verdict = &verdict
		state.digest.Judge = &verdict
		return nil

	case StepPrepareResponse:
		if floor := job.Request.MinConfidence(); floor > 0 && state.digest != nil {
			kept := state.digest.Sections[:0]
			for _, section := range state.digest.Sections {
				if section.Confidence >= floor {
					kept = append(kept, section)
				}
			}
			state.digest.Sections = kept
		}
		payload, err := json.Marshal(Result{
			Manifest:    state.digest,
			Judge:       state.verdict,
			GeneratedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("prepare response payload: %w", err)
		}
		state.payload = payload
		return nil

	case StepFinalize:
		// The terminal write happens after the loop so completion is a
		// single atomic update; nothing extra to do here.
		return nil
	}
	return fmt.Errorf("unknown pipeline step %q", step)
}

// fail performs the single transition to failed plus the single
// error-tracking report. Advisory progress is left where it was.
func (p *Processor) fail(ctx context.Context, job *Job, step string, cause error) error {
	logger := logging.WithContext(ctx, p.logger)
	now := time.Now().UTC()
	job.Status = StatusFailed
	job.Result = nil
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	if err := p.store.Update(ctx, job); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
	if p.tracker != nil {
		p.tracker.Report(ctx, job.ID, cause)
	}
	logger.Error("job failed",
		logging.String(logging.FieldStep, step),
		logging.Error(cause))
	p.publish(ctx, notifications.EventJobFailed, notifications.Payload{
		"jobID": job.ID,
		"error": cause.Error(),
	})
	return fmt.Errorf("job %s failed at %s: %w", job.ID, step, cause)
}

// publish delivers a notification fire-and-forget: a notifier error is
// logged and never fails the job.
func (p *Processor) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		p.logger.Warn("notification delivery failed",
			logging.String(logging.FieldEventType, string(event)),
			logging.Error(err))
	}
}
