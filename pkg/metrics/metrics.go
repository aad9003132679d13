package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	docflow = "docflow"

	// Exchange metrics
	jobsProcessedTotal = "jobs_processed_total"
	queuePendingJobs   = "queue_pending_jobs"

	// Batch metrics
	batchItemsTotal = "batch_items_total"

	// Scheduler metrics
	scheduleFiresTotal = "schedule_fires_total"

	// Labels
	actionLabel = "action"
	statusLabel = "status"
	queueLabel  = "queue"
)

/**
* Metrics definition
**/
var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: docflow,
		Name:      jobsProcessedTotal,
		Help:      "number of exchange jobs processed by the worker",
	},
	[]string{actionLabel, statusLabel},
)

var queuePendingJobsMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: docflow,
		Name:      queuePendingJobs,
		Help:      "number of jobs currently waiting in the pending directory",
	},
	[]string{queueLabel},
)

var batchItemsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: docflow,
		Name:      batchItemsTotal,
		Help:      "number of documents processed by batch validation runs",
	},
	[]string{statusLabel},
)

var scheduleFiresTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: docflow,
		Name:      scheduleFiresTotal,
		Help:      "number of schedule rules fired by the trigger engine",
	},
	[]string{statusLabel},
)

func IncreaseJobsProcessedTotalMetric(action string, status string) {
	jobsProcessedTotalMetric.With(prometheus.Labels{
		actionLabel: action,
		statusLabel: status,
	}).Inc()
}

func UpdateQueuePendingJobsMetric(queue string, count int) {
	queuePendingJobsMetric.With(prometheus.Labels{
		queueLabel: queue,
	}).Set(float64(count))
}

func IncreaseBatchItemsTotalMetric(status string) {
	batchItemsTotalMetric.With(prometheus.Labels{
		statusLabel: status,
	}).Inc()
}

func IncreaseScheduleFiresTotalMetric(status string) {
	scheduleFiresTotalMetric.With(prometheus.Labels{
		statusLabel: status,
	}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(queuePendingJobsMetric)
	prometheus.MustRegister(batchItemsTotalMetric)
	prometheus.MustRegister(scheduleFiresTotalMetric)
}
