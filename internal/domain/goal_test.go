package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoalProgressClampsToUnitInterval(t *testing.T) {
	g := Goal{TargetValue: 10, CurrentValue: 4}
	require.InDelta(t, 0.4, g.Progress(), 1e-9)

	g.CurrentValue = 25
	require.Equal(t, 1.0, g.Progress())

	g.TargetValue = 0
	require.Equal(t, 0.0, g.Progress())
}

func TestGoalStatusTransitions(t *testing.T) {
	active := Goal{Status: GoalActive}
	require.True(t, active.CanTransition(GoalCompleted))
	require.True(t, active.CanTransition(GoalFailed))
	require.True(t, active.CanTransition(GoalArchived))

	done := Goal{Status: GoalCompleted}
	require.False(t, done.CanTransition(GoalActive))
	require.False(t, done.CanTransition(GoalFailed))
	require.True(t, done.CanTransition(GoalCompleted))
}

func TestResolveExpiry(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 7)

	reached := Goal{Status: GoalActive, TargetValue: 10, CurrentValue: 12, EndDate: past}
	status, changed := reached.ResolveExpiry(now)
	require.True(t, changed)
	require.Equal(t, GoalCompleted, status)

	missed := Goal{Status: GoalActive, TargetValue: 10, CurrentValue: 3, EndDate: past}
	status, changed = missed.ResolveExpiry(now)
	require.True(t, changed)
	require.Equal(t, GoalFailed, status)

	// Future end date stays active regardless of progress.
	ongoing := Goal{Status: GoalActive, TargetValue: 10, CurrentValue: 12, EndDate: future}
	status, changed = ongoing.ResolveExpiry(now)
	require.False(t, changed)
	require.Equal(t, GoalActive, status)

	// Non-active goals are frozen.
	archived := Goal{Status: GoalArchived, TargetValue: 10, CurrentValue: 3, EndDate: past}
	_, changed = archived.ResolveExpiry(now)
	require.False(t, changed)
}

func TestGoalLinkMatching(t *testing.T) {
	running := WorkoutRunning
	linked := Goal{LinkedWorkoutType: &running}
	require.True(t, linked.MatchesWorkout(Workout{Type: WorkoutRunning}))
	require.False(t, linked.MatchesWorkout(Workout{Type: WorkoutCycling}))

	unlinked := Goal{}
	require.True(t, unlinked.MatchesWorkout(Workout{Type: WorkoutCycling}))

	habitID := "h1"
	habitLinked := Goal{LinkedHabitID: &habitID}
	require.True(t, habitLinked.MatchesHabit(Habit{ID: "h1"}))
	require.False(t, habitLinked.MatchesHabit(Habit{ID: "h2"}))
}

func TestGoalValidate(t *testing.T) {
	valid := Goal{
		ID: "g1", UserID: "u1", Title: "Run 10km", Type: GoalDistance,
		TargetValue: 10, Status: GoalActive,
	}
	require.NoError(t, valid.Validate())

	nonPositiveTarget := valid
	nonPositiveTarget.TargetValue = 0
	require.True(t, IsValidation(nonPositiveTarget.Validate()))

	badType := valid
	badType.Type = "steps"
	require.True(t, IsValidation(badType.Validate()))

	inverted := valid
	inverted.StartDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	inverted.EndDate = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.True(t, IsValidation(inverted.Validate()))
}

func TestWorkoutValidate(t *testing.T) {
	valid := Workout{
		ID: "w1", UserID: "u1", Type: WorkoutRunning,
		DurationSec: 1800, Calories: 250, RecordedAt: time.Now().UTC(),
	}
	require.NoError(t, valid.Validate())

	negDuration := valid
	negDuration.DurationSec = -1
	require.True(t, IsValidation(negDuration.Validate()))

	zeroDistance := valid
	zero := 0.0
	zeroDistance.DistanceKm = &zero
	require.True(t, IsValidation(zeroDistance.Validate()))

	_, err := ParseWorkoutType("rowing")
	require.True(t, IsValidation(err))

	parsed, err := ParseWorkoutType(" Running ")
	require.NoError(t, err)
	require.Equal(t, WorkoutRunning, parsed)
}
