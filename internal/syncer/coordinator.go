// Package syncer keeps the local store convergent with the remote store. One
// Coordinator runs per entity collection and per signed-in user: it consumes
// full-state snapshots from the remote subscription, reconciles them into the
// local store inside a single transaction, and republishes the in-memory view
// observers render from.
package syncer

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/observability"
	"example.com/fitsync/internal/remote"
)

// Adapter binds a Coordinator to one entity collection: how to read the local
// set, apply a reconciliation changeset transactionally, decode remote
// documents, and order the published view.
type Adapter[T domain.Entity] struct {
	Collection string
	FetchLocal func(ctx context.Context, userID string) ([]T, error)
	Apply      func(ctx context.Context, userID string, upserts []T, deleteIDs []string) error
	Decode     func(id string, doc remote.Document) (T, error)
	Less       func(a, b T) bool
}

// Hook runs over the reconciled set before it is published; the goal
// coordinator uses it for the expiry pass. It returns the set to publish.
type Hook[T domain.Entity] func(ctx context.Context, userID string, entities []T) []T

// Option configures optional Coordinator behaviour.
type Option[T domain.Entity] func(*Coordinator[T])

// WithHook installs a pre-publish hook.
func WithHook[T domain.Entity](hook Hook[T]) Option[T] {
	return func(c *Coordinator[T]) {
		c.hook = hook
	}
}

// WithLogger overrides the logger.
func WithLogger[T domain.Entity](logger *log.Logger) Option[T] {
	return func(c *Coordinator[T]) {
		c.logger = logger
	}
}

// Coordinator reconciles one collection for one user at a time.
type Coordinator[T domain.Entity] struct {
	adapter Adapter[T]
	remote  remote.Store
	hook    Hook[T]
	logger  *log.Logger

	mu       sync.Mutex
	view     []T
	watchers map[int]chan []T
	nextID   int
	cancel   context.CancelFunc
	done     chan struct{}
}

// New constructs a Coordinator for the adapter's collection.
func New[T domain.Entity](adapter Adapter[T], remoteStore remote.Store, opts ...Option[T]) *Coordinator[T] {
	c := &Coordinator[T]{
		adapter:  adapter,
		remote:   remoteStore,
		logger:   log.New(log.Writer(), "[syncer] ", log.LstdFlags),
		watchers: make(map[int]chan []T),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start cancels any previous subscription, performs one local bootstrap read
// so the published view is populated before the first remote snapshot
// arrives, then consumes the live subscription until Stop or ctx
// cancellation.
func (c *Coordinator[T]) Start(ctx context.Context, userID string) error {
	c.Stop()

	bootstrap, err := c.adapter.FetchLocal(ctx, userID)
	if err != nil {
		return err
	}
	if c.hook != nil {
		bootstrap = c.hook(ctx, userID, bootstrap)
	}
	c.publish(bootstrap)

	runCtx, cancel := context.WithCancel(ctx)
	sub, err := c.remote.Subscribe(runCtx, userID, c.adapter.Collection)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(runCtx, userID, sub, done)
	return nil
}

// Stop cancels the live subscription. An in-flight reconciliation finishes
// (or fails cleanly) before the loop exits; the published view is retained.
func (c *Coordinator[T]) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// ClearView empties the published view, used on sign-out. Remote and local
// rows are untouched.
func (c *Coordinator[T]) ClearView() {
	c.publish(nil)
}

// Current returns a copy of the published view.
func (c *Coordinator[T]) Current() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.view))
	copy(out, c.view)
	return out
}

// Watch registers an observer for published views. The latest unconsumed
// view is replaced, never queued.
func (c *Coordinator[T]) Watch() (<-chan []T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan []T, 1)
	c.watchers[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(existing)
		}
	}
	return ch, cancel
}

func (c *Coordinator[T]) run(ctx context.Context, userID string, sub remote.Subscription, done chan struct{}) {
	defer close(done)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				if ctx.Err() == nil {
					err := sub.Err()
					if err == nil {
						err = remote.ErrSubscriptionClosed
					}
					// Keep the last reconciled view: stale but consistent.
					c.logger.Printf("subscription failed (collection=%s): %v", c.adapter.Collection, err)
					recordSubscriptionFailure(c.adapter.Collection)
				}
				return
			}
			// Snapshots are full-state images, so only the newest matters:
			// drain anything queued behind and reconcile once.
			for {
				var drained bool
				select {
				case next, stillOpen := <-sub.Snapshots():
					if stillOpen {
						snap = next
						drained = true
						recordSnapshotDropped(c.adapter.Collection)
					}
				default:
				}
				if !drained {
					break
				}
			}

			if err := c.reconcile(ctx, userID, snap); err != nil {
				// The view stays as-is; the next snapshot retries naturally.
				c.logger.Printf("reconcile failed (collection=%s): %v", c.adapter.Collection, err)
				recordReconcileFailure(c.adapter.Collection)
			}
		}
	}
}

// reconcile aligns the local store to one full-state snapshot: decode the
// remote set, diff against the local set, apply insert/update/delete in one
// transaction, run the pre-publish hook, publish. The remote document content
// always wins; local optimistic writes survive only until the next snapshot.
func (c *Coordinator[T]) reconcile(ctx context.Context, userID string, snap remote.Snapshot) error {
	start := time.Now()

	local, err := c.adapter.FetchLocal(ctx, userID)
	if err != nil {
		return err
	}
	localIDs := make(map[string]struct{}, len(local))
	for _, entity := range local {
		localIDs[entity.EntityID()] = struct{}{}
	}

	entities := make([]T, 0, len(snap.Documents))
	upserts := make([]T, 0, len(snap.Documents))
	remoteIDs := make(map[string]struct{}, len(snap.Documents))
	inserted, updated := 0, 0
	for id, doc := range snap.Documents {
		entity, err := c.adapter.Decode(id, doc)
		if err != nil {
			// Fail closed per document: a malformed record neither lands
			// locally nor deletes the local copy it shadows.
			c.logger.Printf("rejected document (collection=%s, id=%s): %v", c.adapter.Collection, id, err)
			recordDocumentRejected(c.adapter.Collection)
			remoteIDs[id] = struct{}{}
			continue
		}
		remoteIDs[id] = struct{}{}
		entities = append(entities, entity)
		upserts = append(upserts, entity)
		if _, ok := localIDs[id]; ok {
			updated++
		} else {
			inserted++
		}
	}

	deleteIDs := make([]string, 0)
	for id := range localIDs {
		if _, ok := remoteIDs[id]; !ok {
			deleteIDs = append(deleteIDs, id)
		}
	}
	sort.Strings(deleteIDs)

	if err := c.adapter.Apply(ctx, userID, upserts, deleteIDs); err != nil {
		return err
	}

	if c.adapter.Less != nil {
		sort.Slice(entities, func(i, j int) bool {
			return c.adapter.Less(entities[i], entities[j])
		})
	}
	if c.hook != nil {
		entities = c.hook(ctx, userID, entities)
	}
	c.publish(entities)

	recordReconcile(c.adapter.Collection, inserted, updated, len(deleteIDs), time.Since(start))
	observability.RecordReconcile(c.adapter.Collection, time.Now())
	return nil
}

func (c *Coordinator[T]) publish(view []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view = view
	for _, ch := range c.watchers {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}
