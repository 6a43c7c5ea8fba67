// Package postgres backs the remote document store with Postgres. Documents
// live as JSONB rows keyed by user, collection, and document ID; subscriptions
// poll a per-collection watermark and emit a full-state snapshot whenever it
// moves.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fitsync/internal/remote"
)

const schema = `CREATE TABLE IF NOT EXISTS remote_documents (
    user_id    TEXT NOT NULL,
    collection TEXT NOT NULL,
    doc_id     TEXT NOT NULL,
    fields     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, collection, doc_id)
)`

// Option configures the Store.
type Option func(*Store)

// WithPollInterval overrides the snapshot poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		s.pollInterval = d
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store implements remote.Store on a pgx connection pool.
type Store struct {
	pool         *pgxpool.Pool
	pollInterval time.Duration
	logger       *log.Logger
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:         pool,
		pollInterval: 2 * time.Second,
		logger:       log.New(log.Writer(), "[remote/postgres] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the remote_documents table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate remote documents: %w", err)
	}
	return nil
}

// SetDocument upserts one document and advances the collection watermark.
func (s *Store) SetDocument(ctx context.Context, userID, collection, id string, doc remote.Document) error {
	fields, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO remote_documents (user_id, collection, doc_id, fields, updated_at)
         VALUES ($1,$2,$3,$4,now())
         ON CONFLICT (user_id, collection, doc_id)
         DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`,
		userID, collection, id, fields,
	)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// DeleteDocument removes one document. Deleting an absent document is a
// no-op; the next poll still notices because the row count changed when it
// did exist.
func (s *Store) DeleteDocument(ctx context.Context, userID, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM remote_documents WHERE user_id = $1 AND collection = $2 AND doc_id = $3`,
		userID, collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Subscribe opens a polling snapshot feed. The current state is delivered
// immediately; afterwards a snapshot is emitted whenever the collection's row
// count or latest update time moves.
func (s *Store) Subscribe(ctx context.Context, userID, collection string) (remote.Subscription, error) {
	snap, mark, err := s.fetch(ctx, userID, collection)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ch:     make(chan remote.Snapshot, 1),
		cancel: cancel,
	}
	sub.deliver(snap)
	snapshotsEmitted.WithLabelValues(collection).Inc()

	go s.poll(runCtx, sub, userID, collection, mark)
	return sub, nil
}

// watermark is the cheap change detector for one collection.
type watermark struct {
	count   int64
	updated time.Time
}

func (s *Store) poll(ctx context.Context, sub *subscription, userID, collection string, last watermark) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	defer sub.close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mark, err := s.watermark(ctx, userID, collection)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Printf("watermark poll failed (collection=%s): %v", collection, err)
			pollFailures.WithLabelValues(collection).Inc()
			sub.fail(err)
			return
		}
		if mark == last {
			continue
		}

		snap, mark, err := s.fetch(ctx, userID, collection)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Printf("snapshot fetch failed (collection=%s): %v", collection, err)
			pollFailures.WithLabelValues(collection).Inc()
			sub.fail(err)
			return
		}
		last = mark
		sub.deliver(snap)
		snapshotsEmitted.WithLabelValues(collection).Inc()
	}
}

func (s *Store) watermark(ctx context.Context, userID, collection string) (watermark, error) {
	var mark watermark
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(max(updated_at), 'epoch'::timestamptz)
         FROM remote_documents WHERE user_id = $1 AND collection = $2`,
		userID, collection,
	).Scan(&mark.count, &mark.updated)
	return mark, err
}

func (s *Store) fetch(ctx context.Context, userID, collection string) (remote.Snapshot, watermark, error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	var mark watermark
	rows, err := s.pool.Query(ctx,
		`SELECT doc_id, fields, updated_at
         FROM remote_documents WHERE user_id = $1 AND collection = $2`,
		userID, collection,
	)
	if err != nil {
		return remote.Snapshot{}, mark, err
	}
	defer rows.Close()

	docs := make(map[string]remote.Document)
	for rows.Next() {
		var (
			id      string
			fields  []byte
			updated time.Time
		)
		if err := rows.Scan(&id, &fields, &updated); err != nil {
			return remote.Snapshot{}, mark, err
		}
		var doc remote.Document
		if err := json.Unmarshal(fields, &doc); err != nil {
			return remote.Snapshot{}, mark, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
		}
		docs[id] = doc
		mark.count++
		if updated.After(mark.updated) {
			mark.updated = updated
		}
	}
	if err := rows.Err(); err != nil {
		return remote.Snapshot{}, mark, err
	}

	return remote.Snapshot{UserID: userID, Collection: collection, Documents: docs}, mark, nil
}

type subscription struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	ch     chan remote.Snapshot
	err    error
	closed bool
}

// deliver pushes a snapshot with latest-wins semantics, matching the
// in-memory store.
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

func (s *subscription) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	// Drain the undelivered snapshot so receivers observe the close, not a
	// stale delivery.
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
}

func (s *subscription) Snapshots() <-chan remote.Snapshot { return s.ch }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.cancel()
	return nil
}
