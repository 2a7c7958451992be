package jobs

import (
	"context"
	"log/slog"

	"clipdigest/internal/logging"
)

// logTracker is the default ErrorTracker: it records failure reports to the
// structured log. Deployments with an external error service can inject
// their own implementation.
type logTracker struct {
	logger *slog.Logger
}

// NewLogErrorTracker builds an ErrorTracker backed by the structured log.
func NewLogErrorTracker(logger *slog.Logger) ErrorTracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &logTracker{logger: logger.With(logging.String(logging.FieldComponent, "error-tracker"))}
}

func (t *logTracker) Report(ctx context.Context, jobID string, err error) {
	t.logger.Error("job failure reported",
		logging.String(logging.FieldJobID, jobID),
		logging.Error(err))
}
