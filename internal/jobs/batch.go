package jobs

import (
	"context"
	"sync"

	"clipdigest/internal/logging"
)

// MaxBatchConcurrency bounds the fan-out when processing a batch.
const MaxBatchConcurrency = 5

// Outcome captures one job's result within a batch.
type Outcome struct {
	JobID string
	Err   error
}

// ProcessBatch fans the messages out with bounded concurrency. Duplicate
// job ids are collapsed before fan-out so two tasks never share a job, and
// each job's outcome is captured independently: one failure never aborts
// its siblings.
func (p *Processor) ProcessBatch(ctx context.Context, msgs []QueueMessage) []Outcome {
	seen := make(map[string]struct{}, len(msgs))
	unique := make([]QueueMessage, 0, len(msgs))
	for _, msg := range msgs {
		if _, dup := seen[msg.JobID]; dup {
			p.logger.Warn("dropping duplicate job in batch",
				logging.String(logging.FieldJobID, msg.JobID))
			continue
		}
		seen[msg.JobID] = struct{}{}
		unique = append(unique, msg)
	}

	outcomes := make([]Outcome, len(unique))
	semaphore := make(chan struct{}, MaxBatchConcurrency)
	var wg sync.WaitGroup
	for i, msg := range unique {
		wg.Add(1)
		go func(idx int, m QueueMessage) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			outcomes[idx] = Outcome{JobID: m.JobID, Err: p.Process(ctx, m)}
		}(i, msg)
	}
	wg.Wait()
	return outcomes
}
