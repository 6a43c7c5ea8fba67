// Package gateway performs the dual write shared by every mutation path:
// local store first, synchronously, then the remote store asynchronously.
// A local failure aborts before remote is attempted; a remote failure is
// reported but never rolls back the local write.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/localstore"
	"example.com/fitsync/internal/observability"
	"example.com/fitsync/internal/remote"
)

// RemoteWriteError reports a failed remote push. The local write it followed
// has already been committed.
type RemoteWriteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write failed (collection=%s, id=%s): %v", e.Collection, e.ID, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// Option configures optional Gateway behaviour.
type Option func(*Gateway)

// WithRemoteFailureHandler overrides the handler invoked for asynchronous
// remote write failures. The default logs them.
func WithRemoteFailureHandler(fn func(*RemoteWriteError)) Option {
	return func(g *Gateway) {
		g.onRemoteFailure = fn
	}
}

// WithRemoteTimeout overrides the per-push remote write deadline.
func WithRemoteTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.remoteTimeout = d
	}
}

// Gateway is the write-through pipeline for one local/remote store pair.
type Gateway struct {
	local           *localstore.Store
	remote          remote.Store
	remoteTimeout   time.Duration
	onRemoteFailure func(*RemoteWriteError)
	logger          *log.Logger

	wg sync.WaitGroup
}

// New constructs a Gateway.
func New(local *localstore.Store, remoteStore remote.Store, opts ...Option) *Gateway {
	g := &Gateway{
		local:         local,
		remote:        remoteStore,
		remoteTimeout: 10 * time.Second,
		logger:        log.New(log.Writer(), "[gateway] ", log.LstdFlags),
	}
	g.onRemoteFailure = func(err *RemoteWriteError) {
		g.logger.Printf("%v", err)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PutWorkout validates and persists a workout to both stores.
func (g *Gateway) PutWorkout(ctx context.Context, w domain.Workout) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := g.local.PutWorkout(ctx, w); err != nil {
		return err
	}
	g.pushRemote(w.UserID, remote.CollectionWorkouts, w.ID, remote.EncodeWorkout(w))
	return nil
}

// DeleteWorkout removes a workout from both stores.
func (g *Gateway) DeleteWorkout(ctx context.Context, userID, id string) error {
	if err := g.local.DeleteWorkout(ctx, userID, id); err != nil {
		return err
	}
	g.deleteRemote(userID, remote.CollectionWorkouts, id)
	return nil
}

// PutHabit validates and persists a habit to both stores.
func (g *Gateway) PutHabit(ctx context.Context, h domain.Habit) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := g.local.PutHabit(ctx, h); err != nil {
		return err
	}
	g.pushRemote(h.UserID, remote.CollectionHabits, h.ID, remote.EncodeHabit(h))
	return nil
}

// DeleteHabit removes a habit from both stores.
func (g *Gateway) DeleteHabit(ctx context.Context, userID, id string) error {
	if err := g.local.DeleteHabit(ctx, userID, id); err != nil {
		return err
	}
	g.deleteRemote(userID, remote.CollectionHabits, id)
	return nil
}

// PutGoal validates and persists a goal to both stores.
func (g *Gateway) PutGoal(ctx context.Context, goal domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	if err := g.local.PutGoal(ctx, goal); err != nil {
		return err
	}
	g.pushRemote(goal.UserID, remote.CollectionGoals, goal.ID, remote.EncodeGoal(goal))
	return nil
}

// DeleteGoal removes a goal from both stores.
func (g *Gateway) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := g.local.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	g.deleteRemote(userID, remote.CollectionGoals, id)
	return nil
}

// Flush blocks until every in-flight remote push has finished. Used on
// shutdown and by tests.
func (g *Gateway) Flush() {
	g.wg.Wait()
}

// pushRemote fires the remote write without blocking the caller. The push is
// detached from the request context on purpose: the local write already
// succeeded, so a cancelled request must not abandon the replica write.
func (g *Gateway) pushRemote(userID, collection, id string, doc remote.Document) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.remoteTimeout)
		defer cancel()
		if err := g.remote.SetDocument(ctx, userID, collection, id, doc); err != nil {
			remoteWriteFailures.WithLabelValues(collection).Inc()
			g.onRemoteFailure(&RemoteWriteError{Collection: collection, ID: id, Err: err})
			return
		}
		remoteWrites.WithLabelValues(collection).Inc()
		observability.RecordRemoteWrite(collection, time.Now())
	}()
}

func (g *Gateway) deleteRemote(userID, collection, id string) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.remoteTimeout)
		defer cancel()
		if err := g.remote.DeleteDocument(ctx, userID, collection, id); err != nil {
			remoteWriteFailures.WithLabelValues(collection).Inc()
			g.onRemoteFailure(&RemoteWriteError{Collection: collection, ID: id, Err: err})
			return
		}
		remoteWrites.WithLabelValues(collection).Inc()
		observability.RecordRemoteWrite(collection, time.Now())
	}()
}
