package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yapay-ai/aws-budget-guardian/pkg/alerts"
	"github.com/yapay-ai/aws-budget-guardian/pkg/metadata"
	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
	"github.com/yapay-ai/aws-budget-guardian/pkg/workload"
)

// Harvester pulls the CMDB extract and publishes both ownership datasets.
type Harvester struct {
	fetcher   Fetcher
	flat      FlatWriter
	store     metadata.Store
	rules     *workload.Rules
	notifiers []alerts.Notifier
	logger    *slog.Logger
}

// NewHarvester creates a harvester.
func NewHarvester(fetcher Fetcher, flat FlatWriter, store metadata.Store, rules *workload.Rules, notifiers []alerts.Notifier, logger *slog.Logger) *Harvester {
	return &Harvester{
		fetcher:   fetcher,
		flat:      flat,
		store:     store,
		rules:     rules,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Run executes one harvest: fetch, classify, publish. Unlike budget syncs, a
// failure anywhere fails the whole run.
func (h *Harvester) Run(ctx context.Context) model.RunResult {
	started := time.Now()
	result := model.RunResult{
		RunID:  uuid.New().String(),
		Job:    model.JobHarvest,
		Status: model.StatusSuccess,
	}

	h.logger.Info("harvest started", "run_id", result.RunID)

	rows, err := h.fetcher.FetchAccounts(ctx)
	if err != nil {
		return h.fail(ctx, result, started, fmt.Errorf("fetch accounts: %w", err))
	}
	result.Accounts = len(rows)

	records := BuildRecords(h.rules, rows)
	result.Records = len(records)
	result.Workloads = countWorkloads(records)

	if err := h.flat.WriteFlat(ctx, records); err != nil {
		return h.fail(ctx, result, started, err)
	}
	if err := h.store.Save(ctx, BuildMapping(h.rules, rows)); err != nil {
		return h.fail(ctx, result, started, err)
	}

	result.DurationMS = time.Since(started).Milliseconds()
	h.logger.Info("harvest finished",
		"run_id", result.RunID,
		"records", result.Records,
		"workloads", result.Workloads,
		"duration_ms", result.DurationMS,
	)

	alerts.Notify(ctx, h.notifiers, result, h.logger)
	return result
}

func (h *Harvester) fail(ctx context.Context, result model.RunResult, started time.Time, err error) model.RunResult {
	result.Status = model.StatusError
	result.Message = err.Error()
	result.DurationMS = time.Since(started).Milliseconds()

	h.logger.Error("harvest failed", "run_id", result.RunID, "error", err)
	alerts.Notify(ctx, h.notifiers, result, h.logger)
	return result
}

func countWorkloads(records []FlatRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Workload] = struct{}{}
	}
	return len(seen)
}
