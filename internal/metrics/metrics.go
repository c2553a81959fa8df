// Package metrics exposes Prometheus instrumentation for job runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yapay-ai/aws-budget-guardian/pkg/model"
)

const namespace = "budget_guardian"

var (
	jobRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Number of job runs, by job and final status.",
		},
		[]string{"job", "status"},
	)

	jobDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of a job run.",
			Buckets:   []float64{1.0, 10.0, 30.0, 60.0, 300.0},
		},
		[]string{"job"},
	)

	budgetsReconciledCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budgets_reconciled_total",
			Help:      "Number of workload budgets brought to their desired state.",
		},
	)

	workloadFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_failures_total",
			Help:      "Number of workloads whose budget calls failed during a sync.",
		},
	)

	recordsHarvestedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_harvested_total",
			Help:      "Number of account metadata records published by harvest runs.",
		},
	)
)

func init() {
	prometheus.MustRegister(jobRunsCounter)
	prometheus.MustRegister(jobDurationHistogram)
	prometheus.MustRegister(budgetsReconciledCounter)
	prometheus.MustRegister(workloadFailuresCounter)
	prometheus.MustRegister(recordsHarvestedCounter)
}

// ObserveRun records the outcome of one finished job run.
func ObserveRun(result model.RunResult) {
	jobRunsCounter.WithLabelValues(result.Job, result.Status).Inc()
	jobDurationHistogram.WithLabelValues(result.Job).Observe(float64(result.DurationMS) / 1000)
	budgetsReconciledCounter.Add(float64(result.Budgets))
	workloadFailuresCounter.Add(float64(result.Failures))
	recordsHarvestedCounter.Add(float64(result.Records))
}
