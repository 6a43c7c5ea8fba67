// Package remote defines the cloud document store contract the engine syncs
// against, together with the flat document encoding shared by every backend.
package remote

import (
	"context"
	"errors"
)

// Collection names inside a user's namespace.
const (
	CollectionWorkouts = "workouts"
	CollectionHabits   = "habits"
	CollectionGoals    = "goals"
)

// Document is the flat field map stored per entity. Values are restricted to
// JSON-compatible scalars, string slices, and timestamps.
type Document map[string]any

// Snapshot is a full-state image of one user collection; it is delivered on
// every remote change, never as a diff.
type Snapshot struct {
	UserID     string
	Collection string
	Documents  map[string]Document
}

// ErrSubscriptionClosed is reported when a subscription terminates for a
// reason other than caller cancellation.
var ErrSubscriptionClosed = errors.New("remote subscription closed")

// Subscription is a live feed of full-collection snapshots. The channel is
// closed when the subscription ends; Err reports why.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Err() error
	Close() error
}

// Store is the remote collaborator: per-user namespaces holding the three
// entity collections keyed by entity ID.
type Store interface {
	SetDocument(ctx context.Context, userID, collection, id string, doc Document) error
	DeleteDocument(ctx context.Context, userID, collection, id string) error
	Subscribe(ctx context.Context, userID, collection string) (Subscription, error)
}
