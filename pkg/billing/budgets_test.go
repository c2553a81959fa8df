package billing_test

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/budgets"
	"github.com/aws/aws-sdk-go/service/budgets/budgetsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/aws-budget-guardian/pkg/billing"
)

// fakeBudgetsAPI records the last input per call and returns canned errors.
type fakeBudgetsAPI struct {
	budgetsiface.BudgetsAPI

	describeErr error

	createIn  *budgets.CreateBudgetInput
	createErr error

	updateIn *budgets.UpdateBudgetInput
	deleteIn *budgets.DeleteBudgetInput

	notifIn  *budgets.CreateNotificationInput
	notifErr error

	delNotifIn  *budgets.DeleteNotificationInput
	delNotifErr error
}

func (f *fakeBudgetsAPI) DescribeBudgetWithContext(_ aws.Context, _ *budgets.DescribeBudgetInput, _ ...request.Option) (*budgets.DescribeBudgetOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &budgets.DescribeBudgetOutput{Budget: &budgets.Budget{}}, nil
}

func (f *fakeBudgetsAPI) CreateBudgetWithContext(_ aws.Context, in *budgets.CreateBudgetInput, _ ...request.Option) (*budgets.CreateBudgetOutput, error) {
	f.createIn = in
	return &budgets.CreateBudgetOutput{}, f.createErr
}

func (f *fakeBudgetsAPI) UpdateBudgetWithContext(_ aws.Context, in *budgets.UpdateBudgetInput, _ ...request.Option) (*budgets.UpdateBudgetOutput, error) {
	f.updateIn = in
	return &budgets.UpdateBudgetOutput{}, nil
}

func (f *fakeBudgetsAPI) DeleteBudgetWithContext(_ aws.Context, in *budgets.DeleteBudgetInput, _ ...request.Option) (*budgets.DeleteBudgetOutput, error) {
	f.deleteIn = in
	return &budgets.DeleteBudgetOutput{}, nil
}

func (f *fakeBudgetsAPI) CreateNotificationWithContext(_ aws.Context, in *budgets.CreateNotificationInput, _ ...request.Option) (*budgets.CreateNotificationOutput, error) {
	f.notifIn = in
	return &budgets.CreateNotificationOutput{}, f.notifErr
}

func (f *fakeBudgetsAPI) DeleteNotificationWithContext(_ aws.Context, in *budgets.DeleteNotificationInput, _ ...request.Option) (*budgets.DeleteNotificationOutput, error) {
	f.delNotifIn = in
	return &budgets.DeleteNotificationOutput{}, f.delNotifErr
}

func notFoundErr() error {
	return awserr.New(budgets.ErrCodeNotFoundException, "budget not found", nil)
}

func testDefinition() billing.BudgetDefinition {
	return billing.BudgetDefinition{
		Name:       "AUTO-workload-payments",
		LimitUSD:   "230.00",
		AccountIDs: []string{"111111111111", "222222222222"},
	}
}

func TestExists(t *testing.T) {
	api := &fakeBudgetsAPI{}
	client := billing.NewBudgets(api, testLogger())

	found, err := client.Exists(t.Context(), "999999999999", "AUTO-workload-payments")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestExists_NotFound(t *testing.T) {
	api := &fakeBudgetsAPI{describeErr: notFoundErr()}
	client := billing.NewBudgets(api, testLogger())

	found, err := client.Exists(t.Context(), "999999999999", "AUTO-workload-payments")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExists_Error(t *testing.T) {
	api := &fakeBudgetsAPI{describeErr: awserr.New("AccessDeniedException", "denied", nil)}
	client := billing.NewBudgets(api, testLogger())

	_, err := client.Exists(t.Context(), "999999999999", "AUTO-workload-payments")
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	api := &fakeBudgetsAPI{}
	client := billing.NewBudgets(api, testLogger())

	rules := []billing.AlertRule{
		{ThresholdPct: 105, Emails: []string{"finops@example.com"}, State: budgets.NotificationStateAlarm},
		{ThresholdPct: 120, Emails: []string{"finops@example.com", "team@example.com"}, State: budgets.NotificationStateAlarm},
	}
	err := client.Create(t.Context(), "999999999999", testDefinition(), rules)
	require.NoError(t, err)

	in := api.createIn
	require.NotNil(t, in)
	assert.Equal(t, "999999999999", aws.StringValue(in.AccountId))
	assert.Equal(t, "AUTO-workload-payments", aws.StringValue(in.Budget.BudgetName))
	assert.Equal(t, "230.00", aws.StringValue(in.Budget.BudgetLimit.Amount))
	assert.Equal(t, "USD", aws.StringValue(in.Budget.BudgetLimit.Unit))
	assert.Equal(t, "MONTHLY", aws.StringValue(in.Budget.TimeUnit))
	assert.Equal(t, "COST", aws.StringValue(in.Budget.BudgetType))
	assert.Equal(t, []string{"111111111111", "222222222222"}, aws.StringValueSlice(in.Budget.CostFilters["LinkedAccount"]))

	costTypes := in.Budget.CostTypes
	require.NotNil(t, costTypes)
	assert.True(t, aws.BoolValue(costTypes.UseAmortized))
	assert.True(t, aws.BoolValue(costTypes.IncludeTax))
	assert.False(t, aws.BoolValue(costTypes.UseBlended))
	assert.False(t, aws.BoolValue(costTypes.IncludeRefund))
	assert.False(t, aws.BoolValue(costTypes.IncludeCredit))

	require.Len(t, in.NotificationsWithSubscribers, 2)
	first := in.NotificationsWithSubscribers[0]
	assert.Equal(t, 105.0, aws.Float64Value(first.Notification.Threshold))
	assert.Equal(t, "PERCENTAGE", aws.StringValue(first.Notification.ThresholdType))
	assert.Equal(t, "ACTUAL", aws.StringValue(first.Notification.NotificationType))
	assert.Equal(t, "GREATER_THAN", aws.StringValue(first.Notification.ComparisonOperator))
	assert.Equal(t, "ALARM", aws.StringValue(first.Notification.NotificationState))

	second := in.NotificationsWithSubscribers[1]
	require.Len(t, second.Subscribers, 2)
	assert.Equal(t, "EMAIL", aws.StringValue(second.Subscribers[0].SubscriptionType))
	assert.Equal(t, "team@example.com", aws.StringValue(second.Subscribers[1].Address))
}

func TestCreate_Error(t *testing.T) {
	api := &fakeBudgetsAPI{createErr: errors.New("limit exceeded")}
	client := billing.NewBudgets(api, testLogger())

	err := client.Create(t.Context(), "999999999999", testDefinition(), nil)
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	api := &fakeBudgetsAPI{}
	client := billing.NewBudgets(api, testLogger())

	err := client.Update(t.Context(), "999999999999", testDefinition())
	require.NoError(t, err)

	require.NotNil(t, api.updateIn)
	assert.Equal(t, "999999999999", aws.StringValue(api.updateIn.AccountId))
	assert.Equal(t, "AUTO-workload-payments", aws.StringValue(api.updateIn.NewBudget.BudgetName))
	assert.Equal(t, "230.00", aws.StringValue(api.updateIn.NewBudget.BudgetLimit.Amount))
}

func TestDelete(t *testing.T) {
	api := &fakeBudgetsAPI{}
	client := billing.NewBudgets(api, testLogger())

	err := client.Delete(t.Context(), "999999999999", "AUTO-workload-payments")
	require.NoError(t, err)

	require.NotNil(t, api.deleteIn)
	assert.Equal(t, "AUTO-workload-payments", aws.StringValue(api.deleteIn.BudgetName))
}

func TestCreateAlert(t *testing.T) {
	api := &fakeBudgetsAPI{}
	client := billing.NewBudgets(api, testLogger())

	rule := billing.AlertRule{ThresholdPct: 80, Emails: []string{"finops@example.com"}}
	err := client.CreateAlert(t.Context(), "999999999999", "AUTO-workload-payments", rule)
	require.NoError(t, err)

	in := api.notifIn
	require.NotNil(t, in)
	assert.Equal(t, 80.0, aws.Float64Value(in.Notification.Threshold))
	assert.Nil(t, in.Notification.NotificationState)
	require.Len(t, in.Subscribers, 1)
	assert.Equal(t, "finops@example.com", aws.StringValue(in.Subscribers[0].Address))
}

func TestDeleteAlert_NotFoundTolerated(t *testing.T) {
	api := &fakeBudgetsAPI{delNotifErr: notFoundErr()}
	client := billing.NewBudgets(api, testLogger())

	rule := billing.AlertRule{ThresholdPct: 80}
	assert.NoError(t, client.DeleteAlert(t.Context(), "999999999999", "AUTO-workload-payments", rule))
}

func TestDeleteAlert_Error(t *testing.T) {
	api := &fakeBudgetsAPI{delNotifErr: awserr.New("InternalErrorException", "boom", nil)}
	client := billing.NewBudgets(api, testLogger())

	rule := billing.AlertRule{ThresholdPct: 80}
	assert.Error(t, client.DeleteAlert(t.Context(), "999999999999", "AUTO-workload-payments", rule))
}
