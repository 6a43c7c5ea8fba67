package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/remote"
	"example.com/fitsync/internal/remote/memory"
)

func newLocal(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testWorkout() domain.Workout {
	return domain.Workout{
		ID:          "w1",
		UserID:      "u1",
		Type:        domain.WorkoutRunning,
		DurationSec: 1800,
		Calories:    300,
		RecordedAt:  time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC),
	}
}

func TestPutWritesBothStores(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	remoteStore := memory.NewStore()
	gw := New(local, remoteStore)

	require.NoError(t, gw.PutWorkout(ctx, testWorkout()))
	gw.Flush()

	localGot, err := local.FetchWorkouts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, localGot, 1)

	docs := remoteStore.Documents("u1", remote.CollectionWorkouts)
	require.Contains(t, docs, "w1")
}

func TestValidationRejectedBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	remoteStore := memory.NewStore()
	gw := New(local, remoteStore)

	bad := testWorkout()
	bad.DurationSec = -5

	err := gw.PutWorkout(ctx, bad)
	require.True(t, domain.IsValidation(err))
	gw.Flush()

	localGot, err := local.FetchWorkouts(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, localGot)
	require.Empty(t, remoteStore.Documents("u1", remote.CollectionWorkouts))
}

// failingRemote rejects every push, standing in for a network outage.
type failingRemote struct{}

func (failingRemote) SetDocument(context.Context, string, string, string, remote.Document) error {
	return errors.New("network down")
}

func (failingRemote) DeleteDocument(context.Context, string, string, string) error {
	return errors.New("network down")
}

func (failingRemote) Subscribe(context.Context, string, string) (remote.Subscription, error) {
	return nil, errors.New("network down")
}

func TestRemoteFailureDoesNotRollBackLocal(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)

	var mu sync.Mutex
	var failures []*RemoteWriteError
	gw := New(local, failingRemote{}, WithRemoteFailureHandler(func(err *RemoteWriteError) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, err)
	}))

	require.NoError(t, gw.PutWorkout(ctx, testWorkout()))
	gw.Flush()

	// Local write survives the remote outage.
	localGot, err := local.FetchWorkouts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, localGot, 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	require.Equal(t, remote.CollectionWorkouts, failures[0].Collection)
	require.Equal(t, "w1", failures[0].ID)
}

func TestDeleteRemovesFromBothStores(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	remoteStore := memory.NewStore()
	gw := New(local, remoteStore)

	goal := domain.Goal{
		ID: "g1", UserID: "u1", Title: "Goal", Type: domain.GoalWorkoutCount,
		TargetValue: 5, Status: domain.GoalActive,
	}
	require.NoError(t, gw.PutGoal(ctx, goal))
	gw.Flush()
	require.Contains(t, remoteStore.Documents("u1", remote.CollectionGoals), "g1")

	require.NoError(t, gw.DeleteGoal(ctx, "u1", "g1"))
	gw.Flush()

	goals, err := local.FetchGoals(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, goals)
	require.Empty(t, remoteStore.Documents("u1", remote.CollectionGoals))
}

func TestPutHabitRoundTrip(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	remoteStore := memory.NewStore()
	gw := New(local, remoteStore)

	habit := domain.Habit{
		ID: "h1", UserID: "u1", Name: "Stretch", TargetDays: 5,
		Completions: []string{"2026-08-27"},
	}
	require.NoError(t, gw.PutHabit(ctx, habit))
	gw.Flush()

	doc := remoteStore.Documents("u1", remote.CollectionHabits)["h1"]
	require.NotNil(t, doc)
	decoded, err := remote.DecodeHabit("h1", doc)
	require.NoError(t, err)
	require.Equal(t, habit.Completions, decoded.Completions)
}
