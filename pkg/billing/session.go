package billing

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/budgets"
	"github.com/aws/aws-sdk-go/service/budgets/budgetsiface"
	"github.com/aws/aws-sdk-go/service/costexplorer"
	"github.com/aws/aws-sdk-go/service/costexplorer/costexploreriface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// roleSessionName identifies assumed-role sessions in CloudTrail.
const roleSessionName = "FinOpsBudgetSetterSession"

// Clients bundles the concrete AWS service clients the jobs use.
type Clients struct {
	CostExplorer costexploreriface.CostExplorerAPI
	Budgets      budgetsiface.BudgetsAPI
	S3           s3iface.S3API
	STS          stsiface.STSAPI
}

// NewClients builds service clients on one shared session. When roleARN is
// set, Cost Explorer and Budgets calls run under the assumed role; S3 and
// STS stay on the ambient credentials.
func NewClients(region, roleARN string) (*Clients, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	billingCfg := aws.NewConfig()
	if roleARN != "" {
		creds := stscreds.NewCredentials(sess, roleARN, func(p *stscreds.AssumeRoleProvider) {
			p.RoleSessionName = roleSessionName
		})
		billingCfg = billingCfg.WithCredentials(creds)
	}

	return &Clients{
		CostExplorer: costexplorer.New(sess, billingCfg),
		Budgets:      budgets.New(sess, billingCfg),
		S3:           s3.New(sess),
		STS:          sts.New(sess),
	}, nil
}
