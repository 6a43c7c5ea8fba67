package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitsync/internal/remote"
)

func waitSnapshot(t *testing.T, sub remote.Subscription) remote.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return remote.Snapshot{}
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionWorkouts, "w1", remote.Document{"type": "running"}))

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionWorkouts)
	require.NoError(t, err)
	defer sub.Close()

	snap := waitSnapshot(t, sub)
	require.Equal(t, "u1", snap.UserID)
	require.Len(t, snap.Documents, 1)
	require.Equal(t, "running", snap.Documents["w1"]["type"])
}

func TestMutationsEmitFullState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionGoals)
	require.NoError(t, err)
	defer sub.Close()

	waitSnapshot(t, sub) // initial empty state

	require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionGoals, "g1", remote.Document{"title": "a"}))
	snap := waitSnapshot(t, sub)
	require.Len(t, snap.Documents, 1)

	require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionGoals, "g2", remote.Document{"title": "b"}))
	snap = waitSnapshot(t, sub)
	require.Len(t, snap.Documents, 2)

	require.NoError(t, store.DeleteDocument(ctx, "u1", remote.CollectionGoals, "g1"))
	snap = waitSnapshot(t, sub)
	require.Len(t, snap.Documents, 1)
	require.Contains(t, snap.Documents, "g2")
}

func TestSnapshotsAreScopedByUserAndCollection(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionHabits)
	require.NoError(t, err)
	defer sub.Close()
	waitSnapshot(t, sub)

	// Another user's writes and another collection's writes are invisible.
	require.NoError(t, store.SetDocument(ctx, "u2", remote.CollectionHabits, "h1", remote.Document{}))
	require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionGoals, "g1", remote.Document{}))

	select {
	case snap := <-sub.Snapshots():
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLatestWinsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionWorkouts)
	require.NoError(t, err)
	defer sub.Close()

	// Without draining, rapid writes collapse onto the latest full state.
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionWorkouts, "w1", remote.Document{"n": i}))
	}

	snap := waitSnapshot(t, sub)
	require.Equal(t, 4, snap.Documents["w1"]["n"])
}

func TestCloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionWorkouts)
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	_, ok := <-sub.Snapshots()
	require.False(t, ok)

	// Writes after close must not panic on the closed channel.
	require.NoError(t, store.SetDocument(ctx, "u1", remote.CollectionWorkouts, "w1", remote.Document{}))
}

func TestContextCancelClosesSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewStore()

	sub, err := store.Subscribe(ctx, "u1", remote.CollectionWorkouts)
	require.NoError(t, err)

	waitSnapshot(t, sub)
	cancel()

	select {
	case _, ok := <-sub.Snapshots():
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close on context cancel")
	}
}
