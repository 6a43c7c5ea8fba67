// Package bus is the in-process event channel decoupling the recording
// surfaces from the sync coordinator and the progress engine. The event set
// is closed and fully typed; there are no string topics or untyped payloads.
package bus

import (
	"log"
	"sync"

	"example.com/fitsync/internal/domain"
)

// WorkoutRecorded is published after a workout has been persisted.
type WorkoutRecorded struct {
	Workout domain.Workout
}

// HabitCompleted is published after a habit completion was toggled. Completed
// is false when a completion was removed.
type HabitCompleted struct {
	Habit     domain.Habit
	Completed bool
}

// AuthChanged is published when the authenticated user changes. An empty
// UserID means signed out.
type AuthChanged struct {
	UserID string
}

// Event is the closed set of bus payloads.
type Event interface {
	isEvent()
}

func (WorkoutRecorded) isEvent() {}
func (HabitCompleted) isEvent()  {}
func (AuthChanged) isEvent()     {}

const subscriberBuffer = 64

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// that falls more than subscriberBuffer events behind loses the oldest ones,
// which is logged.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *log.Logger
}

// New constructs a Bus.
func New() *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: log.New(log.Writer(), "[bus] ", log.LstdFlags),
	}
}

// Subscribe registers a new subscriber. Cancel removes it and closes the
// channel; events published after cancellation are not delivered.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Drop the oldest pending event to make room for the newest.
			select {
			case <-ch:
				b.logger.Printf("subscriber %d lagging, dropped oldest event", id)
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}
