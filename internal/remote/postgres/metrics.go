package postgres

import "github.com/prometheus/client_golang/prometheus"

var (
	snapshotsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsync",
		Subsystem: "remote_postgres",
		Name:      "snapshots_emitted_total",
		Help:      "Full-state snapshots emitted to subscribers, by collection.",
	}, []string{"collection"})

	pollFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsync",
		Subsystem: "remote_postgres",
		Name:      "poll_failures_total",
		Help:      "Subscription polls that failed, by collection.",
	}, []string{"collection"})

	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitsync",
		Subsystem: "remote_postgres",
		Name:      "snapshot_fetch_duration_seconds",
		Help:      "Latency of full-collection snapshot fetches.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(snapshotsEmitted, pollFailures, fetchDuration)
}
