// Package budget converges AWS Budgets onto last month's measured spend, one
// budget per workload.
package budget

import (
	"fmt"

	"github.com/aws/aws-sdk-go/service/budgets"

	"github.com/yapay-ai/aws-budget-guardian/pkg/billing"
)

// Strategy selects how an existing budget is brought to the desired state.
type Strategy string

const (
	// StrategyUpdate updates the budget in place and rebuilds its
	// notifications one by one.
	StrategyUpdate Strategy = "update"

	// StrategyRecreate deletes the budget and creates it fresh with
	// notifications attached.
	StrategyRecreate Strategy = "recreate"
)

// namePrefix marks the budgets this tool manages; only budgets carrying it
// are ever touched.
const namePrefix = "AUTO-workload-"

// Per-strategy alert thresholds, in percent of the budget limit.
var (
	updateThresholds   = [2]float64{80, 100}
	recreateThresholds = [2]float64{105, 120}
)

// Valid reports whether the strategy is one of the known values.
func (s Strategy) Valid() bool {
	return s == StrategyUpdate || s == StrategyRecreate
}

// BudgetName returns the managed budget name for a workload.
func BudgetName(workload string) string {
	return namePrefix + workload
}

// Policy bundles a strategy with its sizing knobs.
type Policy struct {
	Strategy    Strategy
	FinOpsEmail string  // always subscribed
	MarkupPct   float64 // update strategy: headroom multiplier, e.g. 1.15
	FloorUSD    float64 // recreate strategy: minimum budget limit
}

// Limit converts a measured monthly cost into the budget limit amount.
func (p Policy) Limit(cost float64) string {
	switch p.Strategy {
	case StrategyUpdate:
		return FormatUSD(cost * p.MarkupPct)
	default:
		if cost < p.FloorUSD {
			cost = p.FloorUSD
		}
		return FormatUSD(cost)
	}
}

// Thresholds returns the alert thresholds for the strategy.
func (p Policy) Thresholds() [2]float64 {
	if p.Strategy == StrategyUpdate {
		return updateThresholds
	}
	return recreateThresholds
}

// Rules expands the policy into the alert rules for one workload address.
func (p Policy) Rules(workloadEmail string) []billing.AlertRule {
	emails := Subscribers(p.FinOpsEmail, workloadEmail)

	state := ""
	if p.Strategy == StrategyRecreate {
		state = budgets.NotificationStateAlarm
	}

	thresholds := p.Thresholds()
	rules := make([]billing.AlertRule, 0, len(thresholds))
	for _, threshold := range thresholds {
		rules = append(rules, billing.AlertRule{
			ThresholdPct: threshold,
			Emails:       emails,
			State:        state,
		})
	}
	return rules
}

// Subscribers returns the alert recipients: the FinOps address always, the
// workload address only when it is set and different.
func Subscribers(finops, workload string) []string {
	emails := []string{finops}
	if workload != "" && workload != finops {
		emails = append(emails, workload)
	}
	return emails
}

// FormatUSD renders an amount the way Budgets expects it.
func FormatUSD(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
