package budget

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

// CostSource answers the Cost Explorer questions the syncer asks.
type CostSource interface {
	LinkedAccounts(ctx context.Context, start, end string) ([]model.Account, error)
	MonthlyCost(ctx context.Context, accountIDs []string, start, end string) float64
}

// IdentitySource resolves the account that owns the managed budgets.
type IdentitySource interface {
	CallerAccount(ctx context.Context) (string, error)
}

// Syncer runs the monthly budget sync: list linked accounts, group them
// into workloads, price each group over the previous month, and reconcile
// one budget per workload.
type Syncer struct {
	identity   IdentitySource
	costs      CostSource
	reconciler *Reconciler
	store      metadata.Store
	rules      *workload.Rules
	notifiers  []alerts.Notifier
	logger     *slog.Logger
}

// NewSyncer creates a fully wired syncer.
func NewSyncer(identity IdentitySource, costs CostSource, reconciler *Reconciler, store metadata.Store, rules *workload.Rules, notifiers []alerts.Notifier, logger *slog.Logger) *Syncer {
	return &Syncer{
		identity:   identity,
		costs:      costs,
		reconciler: reconciler,
		store:      store,
		rules:      rules,
		notifiers:  notifiers,
		logger:     logger,
	}
}

// Run executes one sync over the previous calendar month and reports how it
// went. Reconcile failures are counted but do not stop the run; failures
// before any budget work starts do.
func (s *Syncer) Run(ctx context.Context) model.RunResult {
	started := time.Now()
	result := model.RunResult{
		RunID:  uuid.New().String(),
		Job:    model.JobSync,
		Status: model.StatusSuccess,
	}

	start, end := model.PreviousMonth(started)
	s.logger.Info("budget sync started", "run_id", result.RunID, "period_start", start, "period_end", end)

	account, err := s.identity.CallerAccount(ctx)
	if err != nil {
		return s.fail(ctx, result, started, fmt.Errorf("resolve managing account: %w", err))
	}

	accounts, err := s.costs.LinkedAccounts(ctx, start, end)
	if err != nil {
		return s.fail(ctx, result, started, fmt.Errorf("could not list accounts: %w", err))
	}
	result.Accounts = len(accounts)

	groups := workload.Group(accounts, s.logger)
	result.Workloads = groups.Len()
	if groups.Len() == 0 {
		result.Message = "no matching accounts"
		s.logger.Warn("no accounts grouped into workloads", "run_id", result.RunID)
		return s.finish(ctx, result, started)
	}

	mapping := s.store.Load(ctx)

	for _, name := range groups.Names() {
		ids := groups.AccountIDs(name)
		cost := s.costs.MonthlyCost(ctx, ids, start, end)
		result.TotalCostUSD += cost

		err := s.reconciler.Reconcile(ctx, Request{
			ManagingAccount: account,
			Workload:        name,
			CostUSD:         cost,
			AccountIDs:      ids,
			WorkloadEmail:   metadata.EmailForWorkload(s.rules, name, ids, mapping),
		})
		if err != nil {
			result.Failures++
			continue
		}
		result.Budgets++
	}

	s.logger.Info("budget sync finished",
		"run_id", result.RunID,
		"accounts", result.Accounts,
		"workloads", result.Workloads,
		"budgets", result.Budgets,
		"failures", result.Failures,
		"total_cost_usd", result.TotalCostUSD,
	)
	return s.finish(ctx, result, started)
}

func (s *Syncer) fail(ctx context.Context, result model.RunResult, started time.Time, err error) model.RunResult {
	result.Status = model.StatusError
	result.Message = err.Error()
	s.logger.Error("budget sync failed", "run_id", result.RunID, "error", err)
	return s.finish(ctx, result, started)
}

func (s *Syncer) finish(ctx context.Context, result model.RunResult, started time.Time) model.RunResult {
	result.DurationMS = time.Since(started).Milliseconds()
	alerts.Notify(ctx, s.notifiers, result, s.logger)
	return result
}
