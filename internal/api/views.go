package api

import (
	"errors"
	"strings"
	"time"

	"example.com/fitsync/internal/domain"
)

// RecordWorkoutRequest is the payload for POST /v1/workouts.
type RecordWorkoutRequest struct {
	Type         string    `json:"type"`
	DurationSec  int       `json:"duration_sec"`
	Calories     float64   `json:"calories"`
	RecordedAt   time.Time `json:"recorded_at"`
	Notes        string    `json:"notes,omitempty"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	Intensity    *string   `json:"intensity,omitempty"`
	AvgHeartRate *int      `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *int      `json:"max_heart_rate,omitempty"`
}

func (r RecordWorkoutRequest) toDomain(userID string) (domain.Workout, error) {
	workoutType, err := domain.ParseWorkoutType(r.Type)
	if err != nil {
		return domain.Workout{}, err
	}
	workout := domain.Workout{
		UserID:       userID,
		Type:         workoutType,
		DurationSec:  r.DurationSec,
		Calories:     r.Calories,
		RecordedAt:   r.RecordedAt,
		Notes:        r.Notes,
		DistanceKm:   r.DistanceKm,
		AvgHeartRate: r.AvgHeartRate,
		MaxHeartRate: r.MaxHeartRate,
	}
	if r.Intensity != nil {
		intensity, err := domain.ParseIntensity(*r.Intensity)
		if err != nil {
			return domain.Workout{}, err
		}
		workout.Intensity = &intensity
	}
	return workout, nil
}

// WorkoutView exposes one workout.
type WorkoutView struct {
	WorkoutID    string    `json:"workout_id"`
	Type         string    `json:"type"`
	DurationSec  int       `json:"duration_sec"`
	Calories     float64   `json:"calories"`
	RecordedAt   time.Time `json:"recorded_at"`
	Notes        string    `json:"notes,omitempty"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	Intensity    *string   `json:"intensity,omitempty"`
	AvgHeartRate *int      `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *int      `json:"max_heart_rate,omitempty"`
}

// WorkoutListResponse packages list results.
type WorkoutListResponse struct {
	Items []WorkoutView `json:"items"`
}

func toWorkoutView(w domain.Workout) WorkoutView {
	view := WorkoutView{
		WorkoutID:    w.ID,
		Type:         string(w.Type),
		DurationSec:  w.DurationSec,
		Calories:     w.Calories,
		RecordedAt:   w.RecordedAt,
		Notes:        w.Notes,
		DistanceKm:   w.DistanceKm,
		AvgHeartRate: w.AvgHeartRate,
		MaxHeartRate: w.MaxHeartRate,
	}
	if w.Intensity != nil {
		intensity := string(*w.Intensity)
		view.Intensity = &intensity
	}
	return view
}

// HabitRequest is the payload for creating or replacing a habit.
type HabitRequest struct {
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Frequency  string `json:"frequency,omitempty"`
	TargetDays int    `json:"target_days,omitempty"`
	Archived   bool   `json:"archived,omitempty"`
}

func (r HabitRequest) toDomain(userID, id string) domain.Habit {
	return domain.Habit{
		ID:         id,
		UserID:     userID,
		Name:       r.Name,
		Category:   r.Category,
		Frequency:  r.Frequency,
		TargetDays: r.TargetDays,
		Archived:   r.Archived,
	}
}

// HabitView exposes one habit with its derived streak.
type HabitView struct {
	HabitID       string   `json:"habit_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	TargetDays    int      `json:"target_days,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	Completions   []string `json:"completions"`
	CurrentStreak int      `json:"current_streak"`
	Archived      bool     `json:"archived,omitempty"`
}

// HabitListResponse packages list results.
type HabitListResponse struct {
	Items []HabitView `json:"items"`
}

func (h *Handler) toHabitView(habit domain.Habit) HabitView {
	view := HabitView{
		HabitID:       habit.ID,
		Name:          habit.Name,
		Category:      habit.Category,
		Frequency:     habit.Frequency,
		TargetDays:    habit.TargetDays,
		Completions:   habit.Completions,
		CurrentStreak: habit.CurrentStreak(h.now()),
		Archived:      habit.Archived,
	}
	if view.Completions == nil {
		view.Completions = []string{}
	}
	if !habit.StartDate.IsZero() {
		view.StartDate = domain.DateKey(habit.StartDate)
	}
	return view
}

// ToggleCompletionRequest is the payload for POST /v1/habits/{id}/completions.
// An empty date means today.
type ToggleCompletionRequest struct {
	Date string `json:"date,omitempty"`
}

// ToggleCompletionResponse reports the habit after the toggle.
type ToggleCompletionResponse struct {
	Habit     HabitView `json:"habit"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
}

// GoalRequest is the payload for creating or replacing a goal.
type GoalRequest struct {
	Title             string    `json:"title"`
	Type              string    `json:"type"`
	TargetValue       float64   `json:"target_value"`
	CurrentValue      float64   `json:"current_value,omitempty"`
	StartDate         time.Time `json:"start_date,omitempty"`
	EndDate           time.Time `json:"end_date,omitempty"`
	Timeframe         string    `json:"timeframe,omitempty"`
	Status            string    `json:"status,omitempty"`
	LinkedWorkoutType *string   `json:"linked_workout_type,omitempty"`
	LinkedHabitID     *string   `json:"linked_habit_id,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

func (r GoalRequest) toDomain(userID, id string) (domain.Goal, error) {
	goalType, err := domain.ParseGoalType(r.Type)
	if err != nil {
		return domain.Goal{}, err
	}
	goal := domain.Goal{
		ID:            id,
		UserID:        userID,
		Title:         r.Title,
		Type:          goalType,
		TargetValue:   r.TargetValue,
		CurrentValue:  r.CurrentValue,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Timeframe:     r.Timeframe,
		LinkedHabitID: r.LinkedHabitID,
		Notes:         r.Notes,
	}
	if r.Status != "" {
		status := domain.GoalStatus(strings.ToLower(strings.TrimSpace(r.Status)))
		switch status {
		case domain.GoalActive, domain.GoalCompleted, domain.GoalFailed, domain.GoalArchived:
			goal.Status = status
		default:
			return domain.Goal{}, errors.New("unknown goal status " + r.Status)
		}
	}
	if r.LinkedWorkoutType != nil {
		workoutType, err := domain.ParseWorkoutType(*r.LinkedWorkoutType)
		if err != nil {
			return domain.Goal{}, err
		}
		goal.LinkedWorkoutType = &workoutType
	}
	return goal, nil
}

// GoalView exposes one goal with its derived progress ratio.
type GoalView struct {
	GoalID            string    `json:"goal_id"`
	Title             string    `json:"title"`
	Type              string    `json:"type"`
	TargetValue       float64   `json:"target_value"`
	CurrentValue      float64   `json:"current_value"`
	Progress          float64   `json:"progress"`
	StartDate         time.Time `json:"start_date,omitempty"`
	EndDate           time.Time `json:"end_date,omitempty"`
	Timeframe         string    `json:"timeframe,omitempty"`
	Status            string    `json:"status"`
	LinkedWorkoutType *string   `json:"linked_workout_type,omitempty"`
	LinkedHabitID     *string   `json:"linked_habit_id,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GoalListResponse packages list results.
type GoalListResponse struct {
	Items []GoalView `json:"items"`
}

func toGoalView(g domain.Goal) GoalView {
	view := GoalView{
		GoalID:        g.ID,
		Title:         g.Title,
		Type:          string(g.Type),
		TargetValue:   g.TargetValue,
		CurrentValue:  g.CurrentValue,
		Progress:      g.Progress(),
		StartDate:     g.StartDate,
		EndDate:       g.EndDate,
		Timeframe:     g.Timeframe,
		Status:        string(g.Status),
		LinkedHabitID: g.LinkedHabitID,
		Notes:         g.Notes,
		UpdatedAt:     g.UpdatedAt,
	}
	if g.LinkedWorkoutType != nil {
		workoutType := string(*g.LinkedWorkoutType)
		view.LinkedWorkoutType = &workoutType
	}
	return view
}
