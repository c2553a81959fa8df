package billing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// Identity resolves which account the process runs as.
type Identity struct {
	api stsiface.STSAPI
}

// NewIdentity creates an identity resolver.
func NewIdentity(api stsiface.STSAPI) *Identity {
	return &Identity{api: api}
}

// CallerAccount returns the account ID of the current credentials. Workload
// budgets are managed from this account.
func (i *Identity) CallerAccount(ctx context.Context) (string, error) {
	out, err := i.api.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.StringValue(out.Account), nil
}
