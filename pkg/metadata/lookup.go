package metadata

import "github.com/yapay-ai/aws-budget-guardian/pkg/workload"

// EmailForWorkload returns the alert address for a workload: the first
// non-empty email attached to any of its accounts. Workloads on the ignore
// list and the unregistered sentinel get none.
func EmailForWorkload(rules *workload.Rules, name string, accountIDs []string, m Mapping) string {
	if name == workload.NotFound || rules.IgnoresAlerts(name) {
		return ""
	}

	for _, id := range accountIDs {
		if rec, ok := m[id]; ok && rec.Email != "" {
			return rec.Email
		}
	}

	return ""
}
