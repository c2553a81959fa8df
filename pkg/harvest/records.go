package harvest

import (
	"github.com/yapay-ai/aws-budget-guardian/pkg/metadata"
	"github.com/yapay-ai/aws-budget-guardian/pkg/workload"
)

// FlatRecord is one fully classified account in the flat dataset. Field
// order matches the published artifact.
type FlatRecord struct {
	AccountID       string `json:"account_id"`
	Name            string `json:"name"`
	Workload        string `json:"workload"`
	WorkloadType    string `json:"workload_type"`
	Environment     string `json:"environment"`
	AssignmentGroup string `json:"assignment_group"`
	Email           string `json:"email"`
}

// backfill builds a workload -> value map from every row carrying a
// non-empty value. Later rows of the same workload overwrite earlier ones.
func backfill(rows []Row, value func(Row) string) map[string]string {
	m := make(map[string]string)
	for _, row := range rows {
		if v := value(row); v != "" {
			m[workload.SplitWorkload(row.AccountID, row.Name)] = v
		}
	}
	return m
}

// backfills holds the workload-level fallback values for rows with blank
// ownership fields.
type backfills struct {
	groups map[string]string
	emails map[string]string
}

func newBackfills(rows []Row) backfills {
	return backfills{
		groups: backfill(rows, func(r Row) string { return r.AssignmentGroup }),
		emails: backfill(rows, func(r Row) string { return r.Email }),
	}
}

// resolve returns a row's assignment group and email: the row's own values
// when present, else the workload fallback.
func (b backfills) resolve(row Row, w string) (group, email string) {
	group = row.AssignmentGroup
	if group == "" {
		group = b.groups[w]
	}
	email = row.Email
	if email == "" {
		email = b.emails[w]
	}
	return group, email
}

// BuildRecords classifies every CMDB row into a flat record. Rows keep
// their own assignment group and email when present; blank fields inherit
// from sibling accounts of the same workload. Unregistered accounts carry
// the Not found sentinel in both ownership fields.
func BuildRecords(rules *workload.Rules, rows []Row) []FlatRecord {
	fills := newBackfills(rows)

	records := make([]FlatRecord, 0, len(rows))
	for _, row := range rows {
		w := workload.SplitWorkload(row.AccountID, row.Name)

		group, email := fills.resolve(row, w)
		if w == workload.NotFound {
			group = workload.NotFound
			email = workload.NotFound
		}

		records = append(records, FlatRecord{
			AccountID:       row.AccountID,
			Name:            row.Name,
			Workload:        w,
			WorkloadType:    rules.Platform(w),
			Environment:     row.Environment,
			AssignmentGroup: group,
			Email:           email,
		})
	}

	return records
}

// BuildMapping builds the account-keyed metadata mapping from the CMDB
// rows. The account ID moves into the key and is not repeated in the
// record. Unlike the flat dataset, unregistered accounts keep their
// resolved ownership values rather than the sentinel: the email lookup
// must see blanks there, or the sentinel would ride into budget
// notification subscribers.
func BuildMapping(rules *workload.Rules, rows []Row) metadata.Mapping {
	fills := newBackfills(rows)

	m := make(metadata.Mapping, len(rows))
	for _, row := range rows {
		w := workload.SplitWorkload(row.AccountID, row.Name)
		group, email := fills.resolve(row, w)

		m[row.AccountID] = metadata.Record{
			Name:            row.Name,
			Workload:        w,
			WorkloadType:    rules.Platform(w),
			Environment:     row.Environment,
			AssignmentGroup: group,
			Email:           email,
		}
	}
	return m
}
