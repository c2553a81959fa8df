package model

import "time"

// DateLayout is the date format Cost Explorer and Budgets expect.
const DateLayout = "2006-01-02"

// Run statuses reported by job entry points.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Job names used in run results, logs and metrics.
const (
	JobSync    = "sync"
	JobHarvest = "harvest"
)

// Account is one linked account discovered through Cost Explorer.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunResult is the outcome of one job invocation. Every entry point returns
// one regardless of how the job went; Status tells the two cases apart and
// the counters describe what was actually done.
type RunResult struct {
	RunID        string  `json:"run_id"`
	Job          string  `json:"job"`
	Status       string  `json:"status"`
	Message      string  `json:"message,omitempty"`
	Accounts     int     `json:"accounts,omitempty"`
	Workloads    int     `json:"workloads,omitempty"`
	Budgets      int     `json:"budgets,omitempty"`
	Failures     int     `json:"failures,omitempty"`
	Records      int     `json:"records,omitempty"`
	TotalCostUSD float64 `json:"total_cost_usd,omitempty"`
	DurationMS   int64   `json:"duration_ms,omitempty"`
}

// Failed reports whether the run ended in the error status.
func (r RunResult) Failed() bool { return r.Status == StatusError }

// PreviousMonth returns the bounds of the last full calendar month before
// now, formatted as DateLayout strings. The end date is exclusive.
func PreviousMonth(now time.Time) (start, end string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Format(DateLayout), first.Format(DateLayout)
}
