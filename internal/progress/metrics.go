package progress

import "github.com/prometheus/client_golang/prometheus"

var (
	goalsAdvanced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_progress_goals_advanced_total",
			Help: "Goal progress updates applied, by goal type.",
		},
		[]string{"goal_type"},
	)

	goalsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_progress_goals_completed_total",
			Help: "Goals that reached their target, by goal type.",
		},
		[]string{"goal_type"},
	)

	goalsExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_progress_goals_expired_total",
			Help: "Goals settled after their end date, by terminal status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(goalsAdvanced, goalsCompleted, goalsExpired)
}
