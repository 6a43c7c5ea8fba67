// Package observability exposes cross-package freshness watermarks. Staleness
// alerts key off these: a healthy engine keeps both gauges moving.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	reconcileGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitsync",
		Subsystem: "sync",
		Name:      "last_reconcile_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful reconciliation per collection.",
	}, []string{"collection"})

	remoteWriteGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fitsync",
		Subsystem: "sync",
		Name:      "last_remote_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful remote write per collection.",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(reconcileGauge, remoteWriteGauge)
}

// RecordReconcile updates the reconciliation watermark gauge.
func RecordReconcile(collection string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	reconcileGauge.WithLabelValues(collection).Set(float64(ts.Unix()))
}

// RecordRemoteWrite updates the remote write watermark gauge.
func RecordRemoteWrite(collection string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	remoteWriteGauge.WithLabelValues(collection).Set(float64(ts.Unix()))
}
