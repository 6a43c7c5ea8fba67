package domain

import (
	"fmt"
	"strings"
	"time"
)

// GoalType enumerates the supported goal accumulators.
type GoalType string

const (
	GoalWorkoutCount GoalType = "workout_count"
	GoalHabitCount   GoalType = "habit_count"
	GoalDistance     GoalType = "distance"
	GoalDuration     GoalType = "duration"
	GoalStreak       GoalType = "streak"
	GoalWeight       GoalType = "weight"
)

var goalTypes = map[GoalType]struct{}{
	GoalWorkoutCount: {},
	GoalHabitCount:   {},
	GoalDistance:     {},
	GoalDuration:     {},
	GoalStreak:       {},
	GoalWeight:       {},
}

// ParseGoalType validates a raw goal type string.
func ParseGoalType(raw string) (GoalType, error) {
	t := GoalType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := goalTypes[t]; !ok {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", raw)}
	}
	return t, nil
}

// GoalStatus is the lifecycle state of a goal. Transitions only leave
// active; once non-active the current value is frozen.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
	GoalArchived  GoalStatus = "archived"
)

var goalStatuses = map[GoalStatus]struct{}{
	GoalActive:    {},
	GoalCompleted: {},
	GoalFailed:    {},
	GoalArchived:  {},
}

// Goal is an aggregate target the progress engine mutates in response to
// workout and habit events.
type Goal struct {
	ID                string
	UserID            string
	Title             string
	Type              GoalType
	TargetValue       float64
	CurrentValue      float64
	StartDate         time.Time
	EndDate           time.Time
	Timeframe         string
	Status            GoalStatus
	LinkedWorkoutType *WorkoutType
	LinkedHabitID     *string
	Notes             string
	UpdatedAt         time.Time
}

// EntityID implements Entity.
func (g Goal) EntityID() string { return g.ID }

// OwnerID implements Entity.
func (g Goal) OwnerID() string { return g.UserID }

// Progress returns current/target clamped to [0,1].
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue / g.TargetValue
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// IsActive reports whether the progress engine may still mutate the goal.
func (g Goal) IsActive() bool { return g.Status == GoalActive }

// CanTransition reports whether the status change is legal: active may move
// to completed, failed, or archived; non-active states are terminal.
func (g Goal) CanTransition(to GoalStatus) bool {
	if g.Status == to {
		return true
	}
	if g.Status != GoalActive {
		return false
	}
	return to == GoalCompleted || to == GoalFailed || to == GoalArchived
}

// ResolveExpiry decides the terminal status for an active goal whose end date
// has passed: completed when the target was reached, failed otherwise. The
// second return is false when the goal is unaffected. Expiry is only ever
// observed at evaluation time, never driven by a timer.
func (g Goal) ResolveExpiry(now time.Time) (GoalStatus, bool) {
	if g.Status != GoalActive {
		return g.Status, false
	}
	if g.EndDate.IsZero() || !g.EndDate.Before(now) {
		return g.Status, false
	}
	if g.CurrentValue >= g.TargetValue {
		return GoalCompleted, true
	}
	return GoalFailed, true
}

// MatchesWorkout reports whether the goal's workout-type link admits the
// workout. An unlinked goal admits every type.
func (g Goal) MatchesWorkout(w Workout) bool {
	return g.LinkedWorkoutType == nil || *g.LinkedWorkoutType == w.Type
}

// MatchesHabit reports whether the goal's habit link admits the habit. An
// unlinked goal admits every habit.
func (g Goal) MatchesHabit(h Habit) bool {
	return g.LinkedHabitID == nil || *g.LinkedHabitID == h.ID
}

// Validate checks goal invariants before any write.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return &ValidationError{Field: "id", Reason: "goal id is required"}
	}
	if strings.TrimSpace(g.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "owning user is required"}
	}
	if strings.TrimSpace(g.Title) == "" {
		return &ValidationError{Field: "title", Reason: "goal title is required"}
	}
	if _, ok := goalTypes[g.Type]; !ok {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", g.Type)}
	}
	if _, ok := goalStatuses[g.Status]; !ok {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown goal status %q", g.Status)}
	}
	if g.TargetValue <= 0 {
		return &ValidationError{Field: "target_value", Reason: "target value must be > 0"}
	}
	if g.CurrentValue < 0 {
		return &ValidationError{Field: "current_value", Reason: "current value must be >= 0"}
	}
	if g.LinkedWorkoutType != nil {
		if _, ok := workoutTypes[*g.LinkedWorkoutType]; !ok {
			return &ValidationError{Field: "linked_workout_type", Reason: fmt.Sprintf("unknown workout type %q", *g.LinkedWorkoutType)}
		}
	}
	if !g.EndDate.IsZero() && !g.StartDate.IsZero() && g.EndDate.Before(g.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "end date precedes start date"}
	}
	return nil
}
