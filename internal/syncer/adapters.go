package syncer

import (
	"context"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/remote"
)

// WorkoutAdapter reconciles the workouts collection. Views are ordered most
// recent first.
func WorkoutAdapter(store *localstore.Store) Adapter[domain.Workout] {
	return Adapter[domain.Workout]{
		Collection: remote.CollectionWorkouts,
		FetchLocal: store.FetchWorkouts,
		Apply: func(ctx context.Context, userID string, upserts []domain.Workout, deleteIDs []string) error {
			return store.ApplyWorkouts(ctx, userID, localstore.WorkoutChangeSet{
				Upserts:   upserts,
				DeleteIDs: deleteIDs,
			})
		},
		Decode: func(id string, doc remote.Document) (domain.Workout, error) {
			return remote.DecodeWorkout(id, doc)
		},
		Less: func(a, b domain.Workout) bool {
			if !a.RecordedAt.Equal(b.RecordedAt) {
				return a.RecordedAt.After(b.RecordedAt)
			}
			return a.ID < b.ID
		},
	}
}

// HabitAdapter reconciles the habits collection, ordered by name.
func HabitAdapter(store *localstore.Store) Adapter[domain.Habit] {
	return Adapter[domain.Habit]{
		Collection: remote.CollectionHabits,
		FetchLocal: store.FetchHabits,
		Apply: func(ctx context.Context, userID string, upserts []domain.Habit, deleteIDs []string) error {
			return store.ApplyHabits(ctx, userID, localstore.HabitChangeSet{
				Upserts:   upserts,
				DeleteIDs: deleteIDs,
			})
		},
		Decode: func(id string, doc remote.Document) (domain.Habit, error) {
			return remote.DecodeHabit(id, doc)
		},
		Less: func(a, b domain.Habit) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		},
	}
}

// GoalAdapter reconciles the goals collection, ordered by end date soonest
// first.
func GoalAdapter(store *localstore.Store) Adapter[domain.Goal] {
	return Adapter[domain.Goal]{
		Collection: remote.CollectionGoals,
		FetchLocal: store.FetchGoals,
		Apply: func(ctx context.Context, userID string, upserts []domain.Goal, deleteIDs []string) error {
			return store.ApplyGoals(ctx, userID, localstore.GoalChangeSet{
				Upserts:   upserts,
				DeleteIDs: deleteIDs,
			})
		},
		Decode: func(id string, doc remote.Document) (domain.Goal, error) {
			return remote.DecodeGoal(id, doc)
		},
		Less: func(a, b domain.Goal) bool {
			if !a.EndDate.Equal(b.EndDate) {
				return a.EndDate.Before(b.EndDate)
			}
			return a.ID < b.ID
		},
	}
}
