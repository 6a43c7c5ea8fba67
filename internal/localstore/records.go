package localstore

import (
	"encoding/json"
	"fmt"
	"time"

	"example.com/fitsync/internal/domain"
)

// Rows are flat: no nested objects, one table per entity type, primary key =
// entity ID. Habit completion dates serialize into a single JSON text column.

type workoutRecord struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"index"`
	Type         string
	DurationSec  int
	Calories     float64
	RecordedAt   time.Time
	Notes        string
	DistanceKm   *float64
	Intensity    *string
	AvgHeartRate *int
	MaxHeartRate *int
}

func (workoutRecord) TableName() string { return "workouts" }

type habitRecord struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	Name        string
	Category    string
	Frequency   string
	TargetDays  int
	StartDate   time.Time
	Completions string
	Archived    bool
}

func (habitRecord) TableName() string { return "habits" }

type goalRecord struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"index"`
	Title             string
	Type              string
	TargetValue       float64
	CurrentValue      float64
	StartDate         time.Time
	EndDate           time.Time
	Timeframe         string
	Status            string
	LinkedWorkoutType *string
	LinkedHabitID     *string
	Notes             string
	// The engine owns this timestamp; GORM must not auto-track it.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (goalRecord) TableName() string { return "goals" }

func toWorkoutRecord(w domain.Workout) workoutRecord {
	rec := workoutRecord{
		ID:           w.ID,
		UserID:       w.UserID,
		Type:         string(w.Type),
		DurationSec:  w.DurationSec,
		Calories:     w.Calories,
		RecordedAt:   w.RecordedAt.UTC(),
		Notes:        w.Notes,
		DistanceKm:   w.DistanceKm,
		AvgHeartRate: w.AvgHeartRate,
		MaxHeartRate: w.MaxHeartRate,
	}
	if w.Intensity != nil {
		raw := string(*w.Intensity)
		rec.Intensity = &raw
	}
	return rec
}

func fromWorkoutRecord(rec workoutRecord) domain.Workout {
	w := domain.Workout{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Type:         domain.WorkoutType(rec.Type),
		DurationSec:  rec.DurationSec,
		Calories:     rec.Calories,
		RecordedAt:   rec.RecordedAt.UTC(),
		Notes:        rec.Notes,
		DistanceKm:   rec.DistanceKm,
		AvgHeartRate: rec.AvgHeartRate,
		MaxHeartRate: rec.MaxHeartRate,
	}
	if rec.Intensity != nil {
		intensity := domain.Intensity(*rec.Intensity)
		w.Intensity = &intensity
	}
	return w
}

func toHabitRecord(h domain.Habit) (habitRecord, error) {
	completions, err := json.Marshal(h.Completions)
	if err != nil {
		return habitRecord{}, fmt.Errorf("encode completions: %w", err)
	}
	return habitRecord{
		ID:          h.ID,
		UserID:      h.UserID,
		Name:        h.Name,
		Category:    h.Category,
		Frequency:   h.Frequency,
		TargetDays:  h.TargetDays,
		StartDate:   h.StartDate.UTC(),
		Completions: string(completions),
		Archived:    h.Archived,
	}, nil
}

func fromHabitRecord(rec habitRecord) (domain.Habit, error) {
	h := domain.Habit{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Name:       rec.Name,
		Category:   rec.Category,
		Frequency:  rec.Frequency,
		TargetDays: rec.TargetDays,
		StartDate:  rec.StartDate.UTC(),
		Archived:   rec.Archived,
	}
	if rec.Completions != "" {
		if err := json.Unmarshal([]byte(rec.Completions), &h.Completions); err != nil {
			return domain.Habit{}, fmt.Errorf("decode completions for habit %s: %w", rec.ID, err)
		}
	}
	return h, nil
}

func toGoalRecord(g domain.Goal) goalRecord {
	rec := goalRecord{
		ID:            g.ID,
		UserID:        g.UserID,
		Title:         g.Title,
		Type:          string(g.Type),
		TargetValue:   g.TargetValue,
		CurrentValue:  g.CurrentValue,
		StartDate:     g.StartDate.UTC(),
		EndDate:       g.EndDate.UTC(),
		Timeframe:     g.Timeframe,
		Status:        string(g.Status),
		LinkedHabitID: g.LinkedHabitID,
		Notes:         g.Notes,
		UpdatedAt:     g.UpdatedAt.UTC(),
	}
	if g.LinkedWorkoutType != nil {
		raw := string(*g.LinkedWorkoutType)
		rec.LinkedWorkoutType = &raw
	}
	return rec
}

func fromGoalRecord(rec goalRecord) domain.Goal {
	g := domain.Goal{
		ID:            rec.ID,
		UserID:        rec.UserID,
		Title:         rec.Title,
		Type:          domain.GoalType(rec.Type),
		TargetValue:   rec.TargetValue,
		CurrentValue:  rec.CurrentValue,
		StartDate:     rec.StartDate.UTC(),
		EndDate:       rec.EndDate.UTC(),
		Timeframe:     rec.Timeframe,
		Status:        domain.GoalStatus(rec.Status),
		LinkedHabitID: rec.LinkedHabitID,
		Notes:         rec.Notes,
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
	if rec.LinkedWorkoutType != nil {
		wt := domain.WorkoutType(*rec.LinkedWorkoutType)
		g.LinkedWorkoutType = &wt
	}
	return g
}
