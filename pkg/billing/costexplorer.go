// Package billing wraps the AWS APIs the budget jobs call: Cost Explorer for
// account discovery and spend, Budgets for reconciliation, STS for the
// managing account identity.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/costexplorer"
	"github.com/aws/aws-sdk-go/service/costexplorer/costexploreriface"

	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

const (
	// costMetric is the Cost Explorer metric budgets are sized from.
	costMetric = "NetAmortizedCost"

	// maxDimensionValues caps one GetDimensionValues page; the linked
	// account dimension of one organization fits well under it.
	maxDimensionValues = 2000
)

// CostExplorer wraps the Cost Explorer queries the sync job needs.
type CostExplorer struct {
	api    costexploreriface.CostExplorerAPI
	logger *slog.Logger
}

// NewCostExplorer creates a Cost Explorer wrapper.
func NewCostExplorer(api costexploreriface.CostExplorerAPI, logger *slog.Logger) *CostExplorer {
	return &CostExplorer{api: api, logger: logger}
}

// LinkedAccounts returns every linked account that had cost activity in the
// given period. Account names come from the dimension value descriptions.
func (c *CostExplorer) LinkedAccounts(ctx context.Context, start, end string) ([]model.Account, error) {
	out, err := c.api.GetDimensionValuesWithContext(ctx, &costexplorer.GetDimensionValuesInput{
		Dimension: aws.String(costexplorer.DimensionLinkedAccount),
		TimePeriod: &costexplorer.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		MaxResults: aws.Int64(maxDimensionValues),
	})
	if err != nil {
		return nil, fmt.Errorf("get linked accounts: %w", err)
	}

	accounts := make([]model.Account, 0, len(out.DimensionValues))
	for _, dv := range out.DimensionValues {
		accounts = append(accounts, model.Account{
			ID:   aws.StringValue(dv.Value),
			Name: aws.StringValue(dv.Attributes["description"]),
		})
	}

	return accounts, nil
}

// MonthlyCost returns the net amortized cost of the accounts over the
// period. A failed or unparseable query is logged and reported as zero so
// one workload cannot stop a whole run.
func (c *CostExplorer) MonthlyCost(ctx context.Context, accountIDs []string, start, end string) float64 {
	out, err := c.api.GetCostAndUsageWithContext(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &costexplorer.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: aws.String(costexplorer.GranularityMonthly),
		Metrics:     []*string{aws.String(costMetric)},
		Filter: &costexplorer.Expression{
			Dimensions: &costexplorer.DimensionValues{
				Key:    aws.String(costexplorer.DimensionLinkedAccount),
				Values: aws.StringSlice(accountIDs),
			},
		},
	})
	if err != nil {
		c.logger.Error("get cost and usage", "accounts", accountIDs, "error", err)
		return 0
	}

	if len(out.ResultsByTime) == 0 {
		c.logger.Warn("cost query returned no results", "accounts", accountIDs)
		return 0
	}

	metric, ok := out.ResultsByTime[0].Total[costMetric]
	if !ok || metric.Amount == nil {
		c.logger.Warn("cost query missing metric", "accounts", accountIDs, "metric", costMetric)
		return 0
	}

	amount, err := strconv.ParseFloat(aws.StringValue(metric.Amount), 64)
	if err != nil {
		c.logger.Error("parse cost amount", "amount", aws.StringValue(metric.Amount), "error", err)
		return 0
	}

	return amount
}
