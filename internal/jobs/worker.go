package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clipdigest/internal/config"
	"clipdigest/internal/logging"
)

// Worker drains the queue: it claims queued jobs on an interval, processes
// them in bounded batches, and periodically sweeps expired records.
type Worker struct {
	store         *Store
	processor     *Processor
	workerID      string
	pollInterval  time.Duration
	retryInterval time.Duration
	sweepInterval time.Duration
	batchSize     int
	logger        *slog.Logger
}

// NewWorker builds a worker from configuration.
func NewWorker(cfg *config.Config, store *Store, processor *Processor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	poll := time.Duration(cfg.Workflow.PollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	retry := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = 30 * time.Second
	}
	sweep := time.Duration(cfg.Workflow.SweepInterval) * time.Second
	if sweep <= 0 {
		sweep = time.Hour
	}
	batch := cfg.Workflow.BatchSize
	if batch <= 0 || batch > MaxBatchConcurrency {
		batch = MaxBatchConcurrency
	}
	return &Worker{
		store:         store,
		processor:     processor,
		workerID:      "worker-" + uuid.NewString(),
		pollInterval:  poll,
		retryInterval: retry,
		sweepInterval: sweep,
		batchSize:     batch,
		logger:        logger.With(logging.String(logging.FieldComponent, "worker")),
	}
}

// WorkerID returns the claim identifier stamped on jobs this worker takes.
func (w *Worker) WorkerID() string {
	return w.workerID
}

// Run loops until the context is canceled. Claim or processing errors back
// off on the retry interval instead of tearing the worker down.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		logging.String("worker_id", w.workerID),
		logging.Duration("poll_interval", w.pollInterval))

	sweepTimer := time.NewTicker(w.sweepInterval)
	defer sweepTimer.Stop()

	wait := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return ctx.Err()
		case <-sweepTimer.C:
			w.sweep(ctx)
		case <-time.After(wait):
		}

		processed, err := w.drainOnce(ctx)
		switch {
		case err != nil:
			w.logger.Error("queue drain failed", logging.Error(err))
			wait = w.retryInterval
		case processed > 0:
			// More work may be waiting; poll again immediately.
			wait = 0
		default:
			wait = w.pollInterval
		}
	}
}

// drainOnce claims and processes one batch, returning how many jobs ran.
func (w *Worker) drainOnce(ctx context.Context) (int, error) {
	claimed, err := w.store.NextQueued(ctx, w.workerID, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	msgs := make([]QueueMessage, 0, len(claimed))
	for _, job := range claimed {
		msgs = append(msgs, job.Message(w.workerID))
	}
	outcomes := w.processor.ProcessBatch(ctx, msgs)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			w.logger.Warn("job finished with error",
				logging.String(logging.FieldJobID, outcome.JobID),
				logging.Error(outcome.Err))
		}
	}
	return len(outcomes), nil
}

func (w *Worker) sweep(ctx context.Context) {
	reaped, err := w.store.ReapExpired(ctx, time.Now())
	if err != nil {
		w.logger.Error("expiry sweep failed", logging.Error(err))
		return
	}
	if reaped > 0 {
		w.logger.Info("reaped expired jobs", logging.Int64("reaped", reaped))
	}
}
