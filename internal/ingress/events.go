// Package ingress consumes import events from Kafka, typically emitted by
// wearable and partner integrations, and replays them through the tracker so
// they flow into both stores and the progress engine.
package ingress

import "time"

// Event types carried in the event_type message header.
const (
	EventWorkoutRecorded = "workout.recorded"
	EventHabitCompleted  = "habit.completed"
)

// WorkoutImported is the payload of a workout.recorded message.
type WorkoutImported struct {
	WorkoutID    string    `json:"workout_id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"`
	DurationSec  int       `json:"duration_sec"`
	Calories     float64   `json:"calories"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	Intensity    *string   `json:"intensity,omitempty"`
	AvgHeartRate *int      `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *int      `json:"max_heart_rate,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
	Notes        string    `json:"notes,omitempty"`
	Source       string    `json:"source"`
}

// HabitCompletionImported is the payload of a habit.completed message. Date
// uses the YYYY-MM-DD day-key format; Completed false undoes a completion.
type HabitCompletionImported struct {
	HabitID    string    `json:"habit_id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	Completed  bool      `json:"completed"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
}
