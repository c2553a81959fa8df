package budget

import (
	"context"
	"log/slog"

	"github.com/yapay-ai/aws-budget-guardian/pkg/billing"
)

// Request describes one workload to reconcile.
type Request struct {
	ManagingAccount string
	Workload        string
	CostUSD         float64
	AccountIDs      []string
	WorkloadEmail   string
}

// Reconciler brings one AWS budget per workload in line with measured spend.
type Reconciler struct {
	api    billing.BudgetAPI
	policy Policy
	logger *slog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(api billing.BudgetAPI, policy Policy, logger *slog.Logger) *Reconciler {
	return &Reconciler{api: api, policy: policy, logger: logger}
}

// Reconcile converges the workload's budget onto the desired state. Every
// AWS call is guarded on its own: a failure is logged and the remaining
// calls still run, so one bad budget cannot wedge the rest of the plan.
// The first error is returned for accounting.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) error {
	def := billing.BudgetDefinition{
		Name:       BudgetName(req.Workload),
		LimitUSD:   r.policy.Limit(req.CostUSD),
		AccountIDs: req.AccountIDs,
	}
	rules := r.policy.Rules(req.WorkloadEmail)

	r.logger.Info("reconciling budget",
		"workload", req.Workload,
		"budget", def.Name,
		"limit_usd", def.LimitUSD,
		"accounts", len(req.AccountIDs),
		"strategy", string(r.policy.Strategy),
	)

	// A failed existence check is treated as absent so a create is still
	// attempted.
	exists, err := r.api.Exists(ctx, req.ManagingAccount, def.Name)
	if err != nil {
		r.logger.Error("check budget", "budget", def.Name, "error", err)
	}

	if r.policy.Strategy == StrategyUpdate {
		return r.update(ctx, req.ManagingAccount, def, rules, exists)
	}
	return r.recreate(ctx, req.ManagingAccount, def, rules, exists)
}

// update writes the budget in place, then rebuilds its notifications from
// scratch so stale thresholds and recipients do not linger.
func (r *Reconciler) update(ctx context.Context, account string, def billing.BudgetDefinition, rules []billing.AlertRule, exists bool) error {
	var firstErr error

	if exists {
		if err := r.api.Update(ctx, account, def); err != nil {
			r.logger.Error("update budget", "budget", def.Name, "error", err)
			firstErr = err
		}
	} else {
		if err := r.api.Create(ctx, account, def, nil); err != nil {
			r.logger.Error("create budget", "budget", def.Name, "error", err)
			firstErr = err
		}
	}

	for _, rule := range rules {
		if err := r.api.DeleteAlert(ctx, account, def.Name, rule); err != nil {
			r.logger.Error("delete notification", "budget", def.Name, "threshold_pct", rule.ThresholdPct, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if err := r.api.CreateAlert(ctx, account, def.Name, rule); err != nil {
			r.logger.Error("create notification", "budget", def.Name, "threshold_pct", rule.ThresholdPct, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// recreate drops any existing budget and creates it fresh with the
// notification rules attached.
func (r *Reconciler) recreate(ctx context.Context, account string, def billing.BudgetDefinition, rules []billing.AlertRule, exists bool) error {
	var firstErr error

	if exists {
		if err := r.api.Delete(ctx, account, def.Name); err != nil {
			r.logger.Error("delete budget", "budget", def.Name, "error", err)
			firstErr = err
		}
	}

	if err := r.api.Create(ctx, account, def, rules); err != nil {
		r.logger.Error("create budget", "budget", def.Name, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
