// Package localstore provides the on-device system of record: a SQLite
// database holding flat rows for workouts, habits, and goals, mutated either
// entity-by-entity through the gateway or wholesale inside one transaction
// during reconciliation.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"example.com/fitsync/internal/domain"
)

// Store wraps the SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
// An empty path falls back to fitsync.db in the working directory.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "fitsync.db"
	}
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := gdb.AutoMigrate(&workoutRecord{}, &habitRecord{}, &goalRecord{}); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	return &Store{db: gdb}, nil
}

var memorySeq atomic.Int64

// OpenInMemory opens a private in-memory database, used by tests and the dev
// loop. The shared-cache name keeps every pooled connection on the same
// database while isolating concurrent opens from each other.
func OpenInMemory() (*Store, error) {
	name := fmt.Sprintf("file:fitsync-mem-%d?mode=memory&cache=shared", memorySeq.Add(1))
	return Open(name)
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WorkoutChangeSet groups the workout mutations of one reconciliation pass.
type WorkoutChangeSet struct {
	Upserts   []domain.Workout
	DeleteIDs []string
}

// HabitChangeSet groups the habit mutations of one reconciliation pass.
type HabitChangeSet struct {
	Upserts   []domain.Habit
	DeleteIDs []string
}

// GoalChangeSet groups the goal mutations of one reconciliation pass.
type GoalChangeSet struct {
	Upserts   []domain.Goal
	DeleteIDs []string
}

// Empty reports whether the changeset carries no mutations.
func (c WorkoutChangeSet) Empty() bool { return len(c.Upserts) == 0 && len(c.DeleteIDs) == 0 }

// Empty reports whether the changeset carries no mutations.
func (c HabitChangeSet) Empty() bool { return len(c.Upserts) == 0 && len(c.DeleteIDs) == 0 }

// Empty reports whether the changeset carries no mutations.
func (c GoalChangeSet) Empty() bool { return len(c.Upserts) == 0 && len(c.DeleteIDs) == 0 }

// FetchWorkouts returns every workout owned by the user.
func (s *Store) FetchWorkouts(ctx context.Context, userID string) ([]domain.Workout, error) {
	var records []workoutRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch workouts: %w", err)
	}
	out := make([]domain.Workout, 0, len(records))
	for _, rec := range records {
		out = append(out, fromWorkoutRecord(rec))
	}
	return out, nil
}

// PutWorkout upserts one workout.
func (s *Store) PutWorkout(ctx context.Context, w domain.Workout) error {
	rec := toWorkoutRecord(w)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("put workout: %w", err)
	}
	return nil
}

// DeleteWorkout removes one workout owned by the user.
func (s *Store) DeleteWorkout(ctx context.Context, userID, id string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&workoutRecord{}).Error; err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

// ApplyWorkouts applies a reconciliation changeset in one transaction.
func (s *Store) ApplyWorkouts(ctx context.Context, userID string, changes WorkoutChangeSet) error {
	if changes.Empty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range changes.Upserts {
			rec := toWorkoutRecord(w)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		if len(changes.DeleteIDs) > 0 {
			if err := tx.Where("user_id = ? AND id IN ?", userID, changes.DeleteIDs).
				Delete(&workoutRecord{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply workout changes: %w", err)
	}
	return nil
}

// FetchHabits returns every habit owned by the user.
func (s *Store) FetchHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	var records []habitRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch habits: %w", err)
	}
	out := make([]domain.Habit, 0, len(records))
	for _, rec := range records {
		habit, err := fromHabitRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, habit)
	}
	return out, nil
}

// GetHabit returns one habit, or ErrHabitNotFound.
func (s *Store) GetHabit(ctx context.Context, userID, id string) (*domain.Habit, error) {
	var rec habitRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	habit, err := fromHabitRecord(rec)
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

// PutHabit upserts one habit.
func (s *Store) PutHabit(ctx context.Context, h domain.Habit) error {
	rec, err := toHabitRecord(h)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("put habit: %w", err)
	}
	return nil
}

// DeleteHabit removes one habit owned by the user.
func (s *Store) DeleteHabit(ctx context.Context, userID, id string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&habitRecord{}).Error; err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

// ApplyHabits applies a reconciliation changeset in one transaction.
func (s *Store) ApplyHabits(ctx context.Context, userID string, changes HabitChangeSet) error {
	if changes.Empty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, h := range changes.Upserts {
			rec, err := toHabitRecord(h)
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		if len(changes.DeleteIDs) > 0 {
			if err := tx.Where("user_id = ? AND id IN ?", userID, changes.DeleteIDs).
				Delete(&habitRecord{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply habit changes: %w", err)
	}
	return nil
}

// FetchGoals returns every goal owned by the user.
func (s *Store) FetchGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	var records []goalRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch goals: %w", err)
	}
	out := make([]domain.Goal, 0, len(records))
	for _, rec := range records {
		out = append(out, fromGoalRecord(rec))
	}
	return out, nil
}

// GetGoal returns one goal, or ErrGoalNotFound.
func (s *Store) GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error) {
	var rec goalRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	goal := fromGoalRecord(rec)
	return &goal, nil
}

// PutGoal upserts one goal.
func (s *Store) PutGoal(ctx context.Context, g domain.Goal) error {
	rec := toGoalRecord(g)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("put goal: %w", err)
	}
	return nil
}

// DeleteGoal removes one goal owned by the user.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&goalRecord{}).Error; err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// ApplyGoals applies a reconciliation changeset in one transaction.
func (s *Store) ApplyGoals(ctx context.Context, userID string, changes GoalChangeSet) error {
	if changes.Empty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range changes.Upserts {
			rec := toGoalRecord(g)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		if len(changes.DeleteIDs) > 0 {
			if err := tx.Where("user_id = ? AND id IN ?", userID, changes.DeleteIDs).
				Delete(&goalRecord{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply goal changes: %w", err)
	}
	return nil
}
