package alerts

import (
	"context"
	"log/slog"

	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

// Notifier delivers job run summaries to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a run summary. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, result model.RunResult) error
}

// Notify sends the result to every notifier. Delivery failures are logged,
// not propagated; a broken webhook must not fail a finished run.
func Notify(ctx context.Context, notifiers []Notifier, result model.RunResult, logger *slog.Logger) {
	for _, n := range notifiers {
		if err := n.Send(ctx, result); err != nil {
			logger.Error("send run summary",
				"notifier", n.Name(),
				"job", result.Job,
				"error", err,
			)
		}
	}
}
