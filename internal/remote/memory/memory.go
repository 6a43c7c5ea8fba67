// Package memory provides an in-memory remote store for local development
// and tests. Every mutation fans a full-collection snapshot out to live
// subscribers, mimicking the cloud listener behaviour.
package memory

import (
	"context"
	"sync"

	"example.com/fitsync/internal/remote"
)

// Store keeps per-user document collections in memory.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]remote.Document // key: userID/collection
	subscribers map[string][]*subscription
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]remote.Document),
		subscribers: make(map[string][]*subscription),
	}
}

func key(userID, collection string) string {
	return userID + "/" + collection
}

// SetDocument stores the document and notifies subscribers.
func (s *Store) SetDocument(_ context.Context, userID, collection, id string, doc remote.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, collection)
	docs, ok := s.collections[k]
	if !ok {
		docs = make(map[string]remote.Document)
		s.collections[k] = docs
	}
	docs[id] = cloneDocument(doc)
	s.broadcastLocked(userID, collection)
	return nil
}

// DeleteDocument removes the document and notifies subscribers. Deleting an
// absent document is a no-op but still emits a snapshot.
func (s *Store) DeleteDocument(_ context.Context, userID, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[key(userID, collection)], id)
	s.broadcastLocked(userID, collection)
	return nil
}

// Subscribe opens a live snapshot feed. The current collection state is
// delivered immediately; the feed closes when ctx is cancelled or Close is
// called.
func (s *Store) Subscribe(ctx context.Context, userID, collection string) (remote.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscription{
		store:      s,
		userID:     userID,
		collection: collection,
		ch:         make(chan remote.Snapshot, 1),
	}
	k := key(userID, collection)
	s.subscribers[k] = append(s.subscribers[k], sub)
	sub.deliver(s.snapshotLocked(userID, collection))

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

// Documents returns a copy of the current collection state, for test
// assertions.
func (s *Store) Documents(userID, collection string) map[string]remote.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID, collection).Documents
}

func (s *Store) snapshotLocked(userID, collection string) remote.Snapshot {
	docs := make(map[string]remote.Document, len(s.collections[key(userID, collection)]))
	for id, doc := range s.collections[key(userID, collection)] {
		docs[id] = cloneDocument(doc)
	}
	return remote.Snapshot{UserID: userID, Collection: collection, Documents: docs}
}

func (s *Store) broadcastLocked(userID, collection string) {
	for _, sub := range s.subscribers[key(userID, collection)] {
		sub.deliver(s.snapshotLocked(userID, collection))
	}
}

func (s *Store) unsubscribe(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(sub.userID, sub.collection)
	subs := s.subscribers[k]
	for i, candidate := range subs {
		if candidate == sub {
			s.subscribers[k] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func cloneDocument(doc remote.Document) remote.Document {
	out := make(remote.Document, len(doc))
	for k, v := range doc {
		if slice, ok := v.([]string); ok {
			copied := make([]string, len(slice))
			copy(copied, slice)
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

type subscription struct {
	store      *Store
	userID     string
	collection string

	mu     sync.Mutex
	ch     chan remote.Snapshot
	closed bool
}

// deliver pushes a snapshot with latest-wins semantics: a pending undelivered
// snapshot is replaced, never queued behind.
func (s *subscription) deliver(snap remote.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}
}

func (s *subscription) Snapshots() <-chan remote.Snapshot { return s.ch }

func (s *subscription) Err() error { return nil }

func (s *subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	// Drain the undelivered snapshot so receivers observe the close, not a
	// stale delivery.
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
	s.mu.Unlock()

	s.store.unsubscribe(s)
	return nil
}
