package gateway

import "github.com/prometheus/client_golang/prometheus"

var (
	remoteWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsync",
		Subsystem: "gateway",
		Name:      "remote_writes_total",
		Help:      "Number of successful asynchronous remote pushes per collection.",
	}, []string{"collection"})

	remoteWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitsync",
		Subsystem: "gateway",
		Name:      "remote_write_failures_total",
		Help:      "Number of failed asynchronous remote pushes per collection.",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(remoteWrites, remoteWriteFailures)
}
