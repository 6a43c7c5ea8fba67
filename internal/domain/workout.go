// Package domain defines the entities and business rules for the sync and
// progress engine: workouts, habits, goals, and the derivations that hang off
// them.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkoutType enumerates the supported workout categories.
type WorkoutType string

const (
	WorkoutRunning        WorkoutType = "running"
	WorkoutWalking        WorkoutType = "walking"
	WorkoutCycling        WorkoutType = "cycling"
	WorkoutSwimming       WorkoutType = "swimming"
	WorkoutWeightTraining WorkoutType = "weight_training"
	WorkoutYoga           WorkoutType = "yoga"
	WorkoutHIIT           WorkoutType = "hiit"
	WorkoutOther          WorkoutType = "other"
)

var workoutTypes = map[WorkoutType]struct{}{
	WorkoutRunning:        {},
	WorkoutWalking:        {},
	WorkoutCycling:        {},
	WorkoutSwimming:       {},
	WorkoutWeightTraining: {},
	WorkoutYoga:           {},
	WorkoutHIIT:           {},
	WorkoutOther:          {},
}

// ParseWorkoutType validates a raw workout type string.
func ParseWorkoutType(raw string) (WorkoutType, error) {
	t := WorkoutType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := workoutTypes[t]; !ok {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown workout type %q", raw)}
	}
	return t, nil
}

// Intensity grades perceived workout effort.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
	IntensityMaximum  Intensity = "maximum"
)

var intensities = map[Intensity]struct{}{
	IntensityLight:    {},
	IntensityModerate: {},
	IntensityIntense:  {},
	IntensityMaximum:  {},
}

// ParseIntensity validates a raw intensity string.
func ParseIntensity(raw string) (Intensity, error) {
	i := Intensity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := intensities[i]; !ok {
		return "", &ValidationError{Field: "intensity", Reason: fmt.Sprintf("unknown intensity %q", raw)}
	}
	return i, nil
}

// Workout is a single recorded exercise session.
type Workout struct {
	ID           string
	UserID       string
	Type         WorkoutType
	DurationSec  int
	Calories     float64
	RecordedAt   time.Time
	Notes        string
	DistanceKm   *float64
	Intensity    *Intensity
	AvgHeartRate *int
	MaxHeartRate *int
}

// EntityID implements Entity.
func (w Workout) EntityID() string { return w.ID }

// OwnerID implements Entity.
func (w Workout) OwnerID() string { return w.UserID }

// DurationMinutes returns the workout duration in minutes.
func (w Workout) DurationMinutes() float64 {
	return float64(w.DurationSec) / 60.0
}

// Validate checks the invariants from the entity model: duration and calories
// non-negative, distance positive when present.
func (w Workout) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return &ValidationError{Field: "id", Reason: "workout id is required"}
	}
	if strings.TrimSpace(w.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "owning user is required"}
	}
	if _, ok := workoutTypes[w.Type]; !ok {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown workout type %q", w.Type)}
	}
	if w.DurationSec < 0 {
		return &ValidationError{Field: "duration_sec", Reason: "duration must be >= 0"}
	}
	if w.Calories < 0 {
		return &ValidationError{Field: "calories", Reason: "calories must be >= 0"}
	}
	if w.DistanceKm != nil && *w.DistanceKm <= 0 {
		return &ValidationError{Field: "distance_km", Reason: "distance must be > 0 when present"}
	}
	if w.Intensity != nil {
		if _, ok := intensities[*w.Intensity]; !ok {
			return &ValidationError{Field: "intensity", Reason: fmt.Sprintf("unknown intensity %q", *w.Intensity)}
		}
	}
	if w.RecordedAt.IsZero() {
		return &ValidationError{Field: "recorded_at", Reason: "recorded_at is required"}
	}
	return nil
}
