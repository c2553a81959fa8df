package workload

import (
	"log/slog"
	"strings"

	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

// Groups holds accounts bucketed by workload, in discovery order.
type Groups struct {
	order []string
	ids   map[string][]string
}

// Group buckets accounts by the name segment before the last hyphen.
// Accounts whose name has no hyphen cannot be attributed to a workload and
// are skipped with a warning.
func Group(accounts []model.Account, logger *slog.Logger) *Groups {
	g := &Groups{ids: make(map[string][]string)}

	for _, acct := range accounts {
		i := strings.LastIndex(acct.Name, "-")
		if i < 0 {
			logger.Warn("account name has no workload part, skipping",
				"account", acct.ID,
				"name", acct.Name,
			)
			continue
		}

		name := acct.Name[:i]
		if _, ok := g.ids[name]; !ok {
			g.order = append(g.order, name)
		}
		g.ids[name] = append(g.ids[name], acct.ID)
	}

	return g
}

// Names returns the workload names in the order they were first seen.
func (g *Groups) Names() []string { return g.order }

// AccountIDs returns the account IDs grouped under a workload.
func (g *Groups) AccountIDs(workload string) []string { return g.ids[workload] }

// Len returns the number of distinct workloads.
func (g *Groups) Len() int { return len(g.order) }
