// Package progress advances goals in response to workout and habit events and
// settles goals whose end date has passed. It never runs on a timer: expiry is
// observed whenever goals are loaded or reconciled.
package progress

import (
	"context"
	"log"
	"time"

	"example.com/fitsync/internal/bus"
	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/gateway"
	"example.com/fitsync/internal/localstore"
)

// Option configures the Engine.
type Option func(*Engine)

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine mutates active goals. Reads come from the local store, the system of
// record; writes go through the gateway so they reach both stores.
type Engine struct {
	store   *localstore.Store
	gateway *gateway.Gateway
	now     func() time.Time
	logger  *log.Logger

	events      <-chan bus.Event
	unsubscribe func()
}

// NewEngine constructs an Engine. The bus subscription is taken here, not in
// Run, so events published before the Run goroutine is scheduled still reach
// the engine.
func NewEngine(store *localstore.Store, gw *gateway.Gateway, b *bus.Bus, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		gateway: gw,
		now:     time.Now,
		logger:  log.New(log.Writer(), "[progress] ", log.LstdFlags),
	}
	e.events, e.unsubscribe = b.Subscribe()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run consumes bus events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	defer e.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.events:
			if !ok {
				return
			}
			switch event := event.(type) {
			case bus.WorkoutRecorded:
				if err := e.ApplyWorkout(ctx, event.Workout); err != nil {
					e.logger.Printf("apply workout %s: %v", event.Workout.ID, err)
				}
			case bus.HabitCompleted:
				if err := e.ApplyHabit(ctx, event.Habit, event.Completed); err != nil {
					e.logger.Printf("apply habit %s: %v", event.Habit.ID, err)
				}
			}
		}
	}
}

// ApplyWorkout advances every active goal the workout matches: workout_count
// by one, distance by the workout's kilometres, duration by its minutes.
func (e *Engine) ApplyWorkout(ctx context.Context, w domain.Workout) error {
	goals, err := e.store.FetchGoals(ctx, w.UserID)
	if err != nil {
		return err
	}
	for _, g := range goals {
		if !g.IsActive() || !g.MatchesWorkout(w) {
			continue
		}
		var delta float64
		switch g.Type {
		case domain.GoalWorkoutCount:
			delta = 1
		case domain.GoalDistance:
			if w.DistanceKm != nil {
				delta = *w.DistanceKm
			}
		case domain.GoalDuration:
			delta = w.DurationMinutes()
		default:
			continue
		}
		if delta <= 0 {
			continue
		}
		g.CurrentValue += delta
		if err := e.settle(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// ApplyHabit advances habit-linked goals. habit_count gains one per new
// completion; streak goals track the habit's current streak as a high-water
// mark. Removing a completion never rolls progress back.
func (e *Engine) ApplyHabit(ctx context.Context, h domain.Habit, completed bool) error {
	goals, err := e.store.FetchGoals(ctx, h.UserID)
	if err != nil {
		return err
	}
	streak := float64(h.CurrentStreak(e.now()))
	for _, g := range goals {
		if !g.IsActive() || !g.MatchesHabit(h) {
			continue
		}
		switch g.Type {
		case domain.GoalHabitCount:
			if !completed {
				continue
			}
			g.CurrentValue++
		case domain.GoalStreak:
			if streak <= g.CurrentValue {
				continue
			}
			g.CurrentValue = streak
		default:
			continue
		}
		if err := e.settle(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateExpiry settles every listed goal whose end date has passed,
// persisting the transition, and returns the slice with the settled statuses
// in place. It is the pre-publish hook of the goal sync coordinator and runs
// again on every list load.
func (e *Engine) EvaluateExpiry(ctx context.Context, goals []domain.Goal) []domain.Goal {
	now := e.now()
	for i := range goals {
		status, changed := goals[i].ResolveExpiry(now)
		if !changed {
			continue
		}
		goals[i].Status = status
		goals[i].UpdatedAt = now
		if err := e.gateway.PutGoal(ctx, goals[i]); err != nil {
			e.logger.Printf("persist expiry of goal %s: %v", goals[i].ID, err)
			continue
		}
		goalsExpired.WithLabelValues(string(status)).Inc()
		if status == domain.GoalCompleted {
			goalsCompleted.WithLabelValues(string(goals[i].Type)).Inc()
		}
	}
	return goals
}

// settle persists an advanced goal. Reaching the target does not change the
// status: a goal stays active until its end date passes, and EvaluateExpiry
// alone decides completed versus failed.
func (e *Engine) settle(ctx context.Context, g domain.Goal) error {
	g.UpdatedAt = e.now()
	if err := e.gateway.PutGoal(ctx, g); err != nil {
		return err
	}
	goalsAdvanced.WithLabelValues(string(g.Type)).Inc()
	return nil
}
