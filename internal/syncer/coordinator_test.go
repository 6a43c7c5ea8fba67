package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/remote"
	"example.com/fitsync/internal/remote/memory"
)

const testUser = "user-1"

func newLocal(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testWorkout(id string, recordedAt time.Time, notes string) domain.Workout {
	return domain.Workout{
		ID:          id,
		UserID:      testUser,
		Type:        domain.WorkoutRunning,
		DurationSec: 1800,
		Calories:    320,
		RecordedAt:  recordedAt,
		Notes:       notes,
	}
}

func workoutIDs(workouts []domain.Workout) map[string]domain.Workout {
	out := make(map[string]domain.Workout, len(workouts))
	for _, w := range workouts {
		out[w.ID] = w
	}
	return out
}

func TestReconcileConvergesToSnapshot(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)

	// Local holds A (older content) and C; remote holds A (newer content)
	// and B. The reconciled outcome must be exactly {A remote, B}.
	require.NoError(t, local.PutWorkout(ctx, testWorkout("a", base, "stale")))
	require.NoError(t, local.PutWorkout(ctx, testWorkout("c", base.Add(time.Hour), "only local")))
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a",
		remote.EncodeWorkout(testWorkout("a", base, "fresh"))))
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "b",
		remote.EncodeWorkout(testWorkout("b", base.Add(2*time.Hour), "only remote"))))

	coord := New(WorkoutAdapter(local), remoteStore)
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		workouts, err := local.FetchWorkouts(ctx, testUser)
		if err != nil || len(workouts) != 2 {
			return false
		}
		byID := workoutIDs(workouts)
		stored, ok := byID["a"]
		if !ok || stored.Notes != "fresh" {
			return false
		}
		_, hasB := byID["b"]
		_, hasC := byID["c"]
		return hasB && !hasC
	}, 2*time.Second, 10*time.Millisecond)

	view := coord.Current()
	require.Len(t, view, 2)
	// Most recent first.
	require.Equal(t, "b", view[0].ID)
	require.Equal(t, "a", view[1].ID)
}

func TestReconcileIsIdempotent(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	recorded := time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC)
	doc := remote.EncodeWorkout(testWorkout("a", recorded, "runs"))
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a", doc))

	coord := New(WorkoutAdapter(local), remoteStore)
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		return len(coord.Current()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Re-writing the identical document emits an identical snapshot; applying
	// it again must not duplicate or alter anything.
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a", doc))
	time.Sleep(100 * time.Millisecond)

	workouts, err := local.FetchWorkouts(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Equal(t, "a", workouts[0].ID)
	require.Equal(t, "runs", workouts[0].Notes)
	require.Len(t, coord.Current(), 1)
}

func TestMalformedDocumentNeitherLandsNorDeletes(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	recorded := time.Date(2026, 8, 22, 6, 30, 0, 0, time.UTC)
	require.NoError(t, local.PutWorkout(ctx, testWorkout("bad", recorded, "kept local copy")))

	corrupt := remote.EncodeWorkout(testWorkout("bad", recorded, "unusable"))
	corrupt["schema_version"] = float64(99)
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "bad", corrupt))
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "good",
		remote.EncodeWorkout(testWorkout("good", recorded.Add(time.Hour), ""))))

	coord := New(WorkoutAdapter(local), remoteStore)
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		workouts, err := local.FetchWorkouts(ctx, testUser)
		if err != nil {
			return false
		}
		_, hasGood := workoutIDs(workouts)["good"]
		return hasGood
	}, 2*time.Second, 10*time.Millisecond)

	workouts, err := local.FetchWorkouts(ctx, testUser)
	require.NoError(t, err)
	byID := workoutIDs(workouts)
	require.Len(t, byID, 2)
	require.Equal(t, "kept local copy", byID["bad"].Notes)

	// The rejected document is not published either.
	for _, w := range coord.Current() {
		require.NotEqual(t, "unusable", w.Notes)
	}
}

func TestBootstrapPublishesLocalStateBeforeFirstSnapshot(t *testing.T) {
	local := newLocal(t)
	ctx := context.Background()

	recorded := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	require.NoError(t, local.PutWorkout(ctx, testWorkout("a", recorded, "offline")))

	// A subscription that never emits: the view must still be served from
	// the local bootstrap read.
	coord := New(WorkoutAdapter(local), silentRemote{})
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	view := coord.Current()
	require.Len(t, view, 1)
	require.Equal(t, "a", view[0].ID)
}

func TestGoalExpiryHookRunsDuringReconcile(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	missed := domain.Goal{
		ID:           "g1",
		UserID:       testUser,
		Type:         domain.GoalWorkoutCount,
		Title:        "10 workouts",
		TargetValue:  10,
		CurrentValue: 3,
		StartDate:    now.AddDate(0, -1, 0),
		EndDate:      now.AddDate(0, 0, -1),
		Status:       domain.GoalActive,
	}
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionGoals, "g1",
		remote.EncodeGoal(missed)))

	hook := func(_ context.Context, _ string, goals []domain.Goal) []domain.Goal {
		for i := range goals {
			if status, changed := goals[i].ResolveExpiry(now); changed {
				goals[i].Status = status
			}
		}
		return goals
	}

	coord := New(GoalAdapter(local), remoteStore, WithHook(hook))
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		view := coord.Current()
		return len(view) == 1 && view[0].Status == domain.GoalFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLocalWriteLostToStaleSnapshot(t *testing.T) {
	// A snapshot captured before a local write overwrites that write when it
	// arrives: remote content is authoritative, field by field. This pins the
	// accepted behaviour rather than guarding against it.
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	recorded := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a",
		remote.EncodeWorkout(testWorkout("a", recorded, "remote rev 1"))))

	coord := New(WorkoutAdapter(local), remoteStore)
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		view := coord.Current()
		return len(view) == 1 && view[0].Notes == "remote rev 1"
	}, 2*time.Second, 10*time.Millisecond)

	// Local-only edit, never pushed to the remote store.
	require.NoError(t, local.PutWorkout(ctx, testWorkout("a", recorded, "local edit")))

	// Any later snapshot still carries rev 1 and wins.
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "b",
		remote.EncodeWorkout(testWorkout("b", recorded.Add(time.Hour), ""))))

	require.Eventually(t, func() bool {
		workouts, err := local.FetchWorkouts(ctx, testUser)
		if err != nil || len(workouts) != 2 {
			return false
		}
		return workoutIDs(workouts)["a"].Notes == "remote rev 1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopRetainsViewAndClearViewEmptiesIt(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	recorded := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a",
		remote.EncodeWorkout(testWorkout("a", recorded, ""))))

	coord := New(WorkoutAdapter(local), remoteStore)
	require.NoError(t, coord.Start(ctx, testUser))

	require.Eventually(t, func() bool {
		return len(coord.Current()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	coord.Stop()
	require.Len(t, coord.Current(), 1)

	coord.ClearView()
	require.Empty(t, coord.Current())
}

func TestWatchDeliversLatestView(t *testing.T) {
	local := newLocal(t)
	remoteStore := memory.NewStore()
	ctx := context.Background()

	coord := New(WorkoutAdapter(local), remoteStore)
	views, cancel := coord.Watch()
	defer cancel()

	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	recorded := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	require.NoError(t, remoteStore.SetDocument(ctx, testUser, remote.CollectionWorkouts, "a",
		remote.EncodeWorkout(testWorkout("a", recorded, ""))))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case view := <-views:
			if len(view) == 1 && view[0].ID == "a" {
				return
			}
		case <-deadline:
			t.Fatal("watcher never observed the reconciled view")
		}
	}
}

func TestSubscriptionDyingKeepsLastView(t *testing.T) {
	local := newLocal(t)
	ctx := context.Background()

	recorded := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	require.NoError(t, local.PutWorkout(ctx, testWorkout("a", recorded, "")))

	// The feed dies immediately without a reason; the bootstrap view must
	// survive it.
	coord := New(WorkoutAdapter(local), dyingRemote{})
	require.NoError(t, coord.Start(ctx, testUser))
	defer coord.Stop()

	require.Eventually(t, func() bool {
		view := coord.Current()
		return len(view) == 1 && view[0].ID == "a"
	}, 2*time.Second, 10*time.Millisecond)
}

// silentRemote returns subscriptions that stay open but never emit.
type silentRemote struct{}

func (silentRemote) SetDocument(context.Context, string, string, string, remote.Document) error {
	return nil
}

func (silentRemote) DeleteDocument(context.Context, string, string, string) error {
	return nil
}

func (silentRemote) Subscribe(ctx context.Context, _, _ string) (remote.Subscription, error) {
	sub := &silentSubscription{ch: make(chan remote.Snapshot)}
	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()
	return sub, nil
}

type silentSubscription struct {
	once sync.Once
	ch   chan remote.Snapshot
}

// dyingRemote returns subscriptions whose channel closes straight away.
type dyingRemote struct{}

func (dyingRemote) SetDocument(context.Context, string, string, string, remote.Document) error {
	return nil
}

func (dyingRemote) DeleteDocument(context.Context, string, string, string) error {
	return nil
}

func (dyingRemote) Subscribe(context.Context, string, string) (remote.Subscription, error) {
	sub := &silentSubscription{ch: make(chan remote.Snapshot)}
	_ = sub.Close()
	return sub, nil
}

func (s *silentSubscription) Snapshots() <-chan remote.Snapshot { return s.ch }

func (s *silentSubscription) Err() error { return nil }

func (s *silentSubscription) Close() error {
	s.once.Do(func() { close(s.ch) })
	return nil
}
