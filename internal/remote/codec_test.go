package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitsync/internal/domain"
)

func TestWorkoutRoundTrip(t *testing.T) {
	distance := 5.2
	intensity := domain.IntensityModerate
	avg := 140
	w := domain.Workout{
		ID:           "w1",
		UserID:       "u1",
		Type:         domain.WorkoutRunning,
		DurationSec:  1830,
		Calories:     412.5,
		RecordedAt:   time.Date(2026, 8, 28, 7, 30, 0, 0, time.UTC),
		Notes:        "tempo run",
		DistanceKm:   &distance,
		Intensity:    &intensity,
		AvgHeartRate: &avg,
	}

	got, err := DecodeWorkout("w1", EncodeWorkout(w))
	require.NoError(t, err)
	require.Equal(t, w, got)
}

func TestDecodeWorkoutAcceptsNativeTimestamp(t *testing.T) {
	w := domain.Workout{
		ID: "w1", UserID: "u1", Type: domain.WorkoutYoga,
		DurationSec: 600, Calories: 80,
		RecordedAt: time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC),
	}
	doc := EncodeWorkout(w)
	doc["recorded_at"] = w.RecordedAt // native timestamp instead of epoch double

	got, err := DecodeWorkout("w1", doc)
	require.NoError(t, err)
	require.Equal(t, w.RecordedAt, got.RecordedAt)
}

func TestDecodeWorkoutAcceptsRFC3339String(t *testing.T) {
	w := domain.Workout{
		ID: "w1", UserID: "u1", Type: domain.WorkoutYoga,
		DurationSec: 600, Calories: 80,
		RecordedAt: time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC),
	}
	doc := EncodeWorkout(w)
	doc["recorded_at"] = w.RecordedAt.Format(time.RFC3339)

	got, err := DecodeWorkout("w1", doc)
	require.NoError(t, err)
	require.Equal(t, w.RecordedAt, got.RecordedAt)
}

func TestDecodeWorkoutFailsClosed(t *testing.T) {
	w := domain.Workout{
		ID: "w1", UserID: "u1", Type: domain.WorkoutRunning,
		DurationSec: 600, Calories: 80, RecordedAt: time.Now().UTC(),
	}

	missingUser := EncodeWorkout(w)
	delete(missingUser, "user_id")
	_, err := DecodeWorkout("w1", missingUser)
	require.True(t, domain.IsValidation(err))

	badVersion := EncodeWorkout(w)
	badVersion["schema_version"] = 99
	_, err = DecodeWorkout("w1", badVersion)
	require.True(t, domain.IsValidation(err))

	badTimestamp := EncodeWorkout(w)
	badTimestamp["recorded_at"] = map[string]any{"seconds": 12}
	_, err = DecodeWorkout("w1", badTimestamp)
	require.True(t, domain.IsValidation(err))
}

func TestHabitRoundTrip(t *testing.T) {
	h := domain.Habit{
		ID:          "h1",
		UserID:      "u1",
		Name:        "Morning stretch",
		Category:    "mobility",
		Frequency:   "daily",
		TargetDays:  7,
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Completions: []string{"2026-08-26", "2026-08-27"},
	}

	got, err := DecodeHabit("h1", EncodeHabit(h))
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDecodeHabitAcceptsAnySliceCompletions(t *testing.T) {
	h := domain.Habit{ID: "h1", UserID: "u1", Name: "Read", TargetDays: 5}
	doc := EncodeHabit(h)
	// JSON transports deliver arrays as []any.
	doc["completions"] = []any{"2026-08-26", "2026-08-27"}

	got, err := DecodeHabit("h1", doc)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-08-26", "2026-08-27"}, got.Completions)
}

func TestGoalRoundTrip(t *testing.T) {
	running := domain.WorkoutRunning
	habitID := "h9"
	g := domain.Goal{
		ID:                "g1",
		UserID:            "u1",
		Title:             "Run 50km in August",
		Type:              domain.GoalDistance,
		TargetValue:       50,
		CurrentValue:      12.4,
		StartDate:         time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Timeframe:         "monthly",
		Status:            domain.GoalActive,
		LinkedWorkoutType: &running,
		LinkedHabitID:     &habitID,
		UpdatedAt:         time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}

	got, err := DecodeGoal("g1", EncodeGoal(g))
	require.NoError(t, err)
	require.Equal(t, g, got)
}

func TestDecodeGoalRejectsInvalidEntity(t *testing.T) {
	g := domain.Goal{
		ID: "g1", UserID: "u1", Title: "Goal", Type: domain.GoalWorkoutCount,
		TargetValue: 5, Status: domain.GoalActive,
	}

	doc := EncodeGoal(g)
	doc["target_value"] = float64(0) // violates target > 0
	_, err := DecodeGoal("g1", doc)
	require.True(t, domain.IsValidation(err))

	doc = EncodeGoal(g)
	doc["status"] = "paused"
	_, err = DecodeGoal("g1", doc)
	require.True(t, domain.IsValidation(err))
}
