package tracker

import "github.com/prometheus/client_golang/prometheus"

var (
	workoutsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_tracker_workouts_recorded_total",
			Help: "Workouts recorded, by workout type.",
		},
		[]string{"type"},
	)

	habitToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_tracker_habit_toggles_total",
			Help: "Habit completion toggles, by outcome.",
		},
		[]string{"outcome"},
	)

	goalEdits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_tracker_goal_edits_total",
			Help: "Manual goal mutations, by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(workoutsRecorded, habitToggles, goalEdits)
}
