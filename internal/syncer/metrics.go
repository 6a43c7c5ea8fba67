package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	reconcilePasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_reconcile_passes_total",
			Help: "Total reconciliation passes applied, by collection.",
		},
		[]string{"collection"},
	)

	reconcileFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_reconcile_failures_total",
			Help: "Total reconciliation passes that failed, by collection.",
		},
		[]string{"collection"},
	)

	reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitsync_syncer_reconcile_duration_seconds",
			Help:    "Latency of a reconciliation pass, by collection.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection"},
	)

	entitiesInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_entities_inserted_total",
			Help: "Entities inserted locally during reconciliation, by collection.",
		},
		[]string{"collection"},
	)

	entitiesUpdated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_entities_updated_total",
			Help: "Entities overwritten locally during reconciliation, by collection.",
		},
		[]string{"collection"},
	)

	entitiesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_entities_deleted_total",
			Help: "Entities deleted locally during reconciliation, by collection.",
		},
		[]string{"collection"},
	)

	snapshotsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_snapshots_dropped_total",
			Help: "Snapshots superseded before reconciliation, by collection.",
		},
		[]string{"collection"},
	)

	documentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_documents_rejected_total",
			Help: "Remote documents rejected by the codec, by collection.",
		},
		[]string{"collection"},
	)

	subscriptionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_syncer_subscription_failures_total",
			Help: "Remote subscriptions terminated by an error, by collection.",
		},
		[]string{"collection"},
	)
)

func init() {
	prometheus.MustRegister(
		reconcilePasses,
		reconcileFailures,
		reconcileDuration,
		entitiesInserted,
		entitiesUpdated,
		entitiesDeleted,
		snapshotsDropped,
		documentsRejected,
		subscriptionFailures,
	)
}

func recordReconcile(collection string, inserted, updated, deleted int, elapsed time.Duration) {
	reconcilePasses.WithLabelValues(collection).Inc()
	reconcileDuration.WithLabelValues(collection).Observe(elapsed.Seconds())
	entitiesInserted.WithLabelValues(collection).Add(float64(inserted))
	entitiesUpdated.WithLabelValues(collection).Add(float64(updated))
	entitiesDeleted.WithLabelValues(collection).Add(float64(deleted))
}

func recordReconcileFailure(collection string) {
	reconcileFailures.WithLabelValues(collection).Inc()
}

func recordSnapshotDropped(collection string) {
	snapshotsDropped.WithLabelValues(collection).Inc()
}

func recordDocumentRejected(collection string) {
	documentsRejected.WithLabelValues(collection).Inc()
}

func recordSubscriptionFailure(collection string) {
	subscriptionFailures.WithLabelValues(collection).Inc()
}
