package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/budgets"
	"github.com/aws/aws-sdk-go/service/budgets/budgetsiface"
)

// BudgetDefinition describes the desired state of one workload budget.
type BudgetDefinition struct {
	Name       string
	LimitUSD   string // formatted amount, e.g. "230.00"
	AccountIDs []string
}

// AlertRule is one percentage-of-limit notification and its recipients.
type AlertRule struct {
	ThresholdPct float64
	Emails       []string
	State        string // optional notification state, e.g. ALARM
}

// BudgetAPI is the surface of the Budgets client the reconciler uses.
type BudgetAPI interface {
	Exists(ctx context.Context, accountID, name string) (bool, error)
	Create(ctx context.Context, accountID string, def BudgetDefinition, rules []AlertRule) error
	Update(ctx context.Context, accountID string, def BudgetDefinition) error
	Delete(ctx context.Context, accountID, name string) error
	CreateAlert(ctx context.Context, accountID, budgetName string, rule AlertRule) error
	DeleteAlert(ctx context.Context, accountID, budgetName string, rule AlertRule) error
}

// Budgets wraps the AWS Budgets operations used by the reconciler. It is
// scoped to the managing account passed per call so assumed-role setups can
// address member accounts.
type Budgets struct {
	api    budgetsiface.BudgetsAPI
	logger *slog.Logger
}

// NewBudgets creates a Budgets wrapper.
func NewBudgets(api budgetsiface.BudgetsAPI, logger *slog.Logger) *Budgets {
	return &Budgets{api: api, logger: logger}
}

// Exists reports whether a budget with the given name exists in the account.
// NotFound is a regular answer, not an error.
func (b *Budgets) Exists(ctx context.Context, accountID, name string) (bool, error) {
	_, err := b.api.DescribeBudgetWithContext(ctx, &budgets.DescribeBudgetInput{
		AccountId:  aws.String(accountID),
		BudgetName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			b.logger.Debug("budget not found", "budget", name)
			return false, nil
		}
		return false, fmt.Errorf("describe budget %q: %w", name, err)
	}
	return true, nil
}

// Create creates the budget, attaching any given alert rules in the same
// call.
func (b *Budgets) Create(ctx context.Context, accountID string, def BudgetDefinition, rules []AlertRule) error {
	in := &budgets.CreateBudgetInput{
		AccountId: aws.String(accountID),
		Budget:    newBudget(def),
	}
	for _, rule := range rules {
		in.NotificationsWithSubscribers = append(in.NotificationsWithSubscribers, &budgets.NotificationWithSubscribers{
			Notification: newNotification(rule),
			Subscribers:  newSubscribers(rule.Emails),
		})
	}

	if _, err := b.api.CreateBudgetWithContext(ctx, in); err != nil {
		return fmt.Errorf("create budget %q: %w", def.Name, err)
	}
	return nil
}

// Update replaces the budget definition, leaving its notifications alone.
func (b *Budgets) Update(ctx context.Context, accountID string, def BudgetDefinition) error {
	_, err := b.api.UpdateBudgetWithContext(ctx, &budgets.UpdateBudgetInput{
		AccountId: aws.String(accountID),
		NewBudget: newBudget(def),
	})
	if err != nil {
		return fmt.Errorf("update budget %q: %w", def.Name, err)
	}
	return nil
}

// Delete removes the budget and everything attached to it.
func (b *Budgets) Delete(ctx context.Context, accountID, name string) error {
	_, err := b.api.DeleteBudgetWithContext(ctx, &budgets.DeleteBudgetInput{
		AccountId:  aws.String(accountID),
		BudgetName: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("delete budget %q: %w", name, err)
	}
	return nil
}

// CreateAlert attaches one notification rule to an existing budget.
func (b *Budgets) CreateAlert(ctx context.Context, accountID, budgetName string, rule AlertRule) error {
	_, err := b.api.CreateNotificationWithContext(ctx, &budgets.CreateNotificationInput{
		AccountId:    aws.String(accountID),
		BudgetName:   aws.String(budgetName),
		Notification: newNotification(rule),
		Subscribers:  newSubscribers(rule.Emails),
	})
	if err != nil {
		return fmt.Errorf("create notification at %.0f%% for budget %q: %w", rule.ThresholdPct, budgetName, err)
	}
	return nil
}

// DeleteAlert removes the notification matching the rule. A notification
// that is not there is fine; converging from a clean slate hits that on
// every first run.
func (b *Budgets) DeleteAlert(ctx context.Context, accountID, budgetName string, rule AlertRule) error {
	_, err := b.api.DeleteNotificationWithContext(ctx, &budgets.DeleteNotificationInput{
		AccountId:    aws.String(accountID),
		BudgetName:   aws.String(budgetName),
		Notification: newNotification(rule),
	})
	if err != nil {
		if isNotFound(err) {
			b.logger.Debug("notification already absent", "budget", budgetName, "threshold_pct", rule.ThresholdPct)
			return nil
		}
		return fmt.Errorf("delete notification at %.0f%% for budget %q: %w", rule.ThresholdPct, budgetName, err)
	}
	return nil
}

func newBudget(def BudgetDefinition) *budgets.Budget {
	return &budgets.Budget{
		BudgetName: aws.String(def.Name),
		BudgetLimit: &budgets.Spend{
			Amount: aws.String(def.LimitUSD),
			Unit:   aws.String("USD"),
		},
		CostFilters: map[string][]*string{
			"LinkedAccount": aws.StringSlice(def.AccountIDs),
		},
		CostTypes:  budgetCostTypes(),
		TimeUnit:   aws.String(budgets.TimeUnitMonthly),
		BudgetType: aws.String(budgets.BudgetTypeCost),
	}
}

// budgetCostTypes mirrors how the monthly spend is measured: amortized net
// cost over all charge categories, excluding refunds and credits.
func budgetCostTypes() *budgets.CostTypes {
	return &budgets.CostTypes{
		IncludeTax:               aws.Bool(true),
		IncludeSubscription:      aws.Bool(true),
		UseBlended:               aws.Bool(false),
		IncludeRefund:            aws.Bool(false),
		IncludeCredit:            aws.Bool(false),
		IncludeUpfront:           aws.Bool(true),
		IncludeRecurring:         aws.Bool(true),
		IncludeOtherSubscription: aws.Bool(true),
		IncludeSupport:           aws.Bool(true),
		IncludeDiscount:          aws.Bool(true),
		UseAmortized:             aws.Bool(true),
	}
}

func newNotification(rule AlertRule) *budgets.Notification {
	n := &budgets.Notification{
		NotificationType:   aws.String(budgets.NotificationTypeActual),
		ComparisonOperator: aws.String(budgets.ComparisonOperatorGreaterThan),
		Threshold:          aws.Float64(rule.ThresholdPct),
		ThresholdType:      aws.String(budgets.ThresholdTypePercentage),
	}
	if rule.State != "" {
		n.NotificationState = aws.String(rule.State)
	}
	return n
}

func newSubscribers(emails []string) []*budgets.Subscriber {
	subs := make([]*budgets.Subscriber, 0, len(emails))
	for _, email := range emails {
		subs = append(subs, &budgets.Subscriber{
			SubscriptionType: aws.String(budgets.SubscriptionTypeEmail),
			Address:          aws.String(email),
		})
	}
	return subs
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == budgets.ErrCodeNotFoundException
	}
	return false
}
