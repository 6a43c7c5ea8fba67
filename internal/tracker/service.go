// Package tracker is the recording surface: it assigns identities, writes
// entities through the gateway, and announces mutations on the event bus so
// the progress engine reacts to them.
package tracker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/fitsync/internal/bus"
	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/gateway"
	"example.com/fitsync/internal/localstore"
)

// ExpiryEvaluator settles goals whose end date has passed. The progress
// engine implements it.
type ExpiryEvaluator interface {
	EvaluateExpiry(ctx context.Context, goals []domain.Goal) []domain.Goal
}

// Option configures the Service.
type Option func(*Service)

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service coordinates writes for workouts, habits, and goals.
type Service struct {
	store   *localstore.Store
	gateway *gateway.Gateway
	bus     *bus.Bus
	expiry  ExpiryEvaluator
	now     func() time.Time
	logger  *log.Logger
}

// NewService constructs a Service.
func NewService(store *localstore.Store, gw *gateway.Gateway, b *bus.Bus, expiry ExpiryEvaluator, opts ...Option) *Service {
	s := &Service{
		store:   store,
		gateway: gw,
		bus:     b,
		expiry:  expiry,
		now:     time.Now,
		logger:  log.New(log.Writer(), "[tracker] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordWorkout persists a new workout and publishes WorkoutRecorded. A
// missing ID is assigned; a zero RecordedAt defaults to now.
func (s *Service) RecordWorkout(ctx context.Context, w domain.Workout) (domain.Workout, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.RecordedAt.IsZero() {
		w.RecordedAt = s.now()
	}
	if err := s.gateway.PutWorkout(ctx, w); err != nil {
		return domain.Workout{}, err
	}
	workoutsRecorded.WithLabelValues(string(w.Type)).Inc()
	s.bus.Publish(bus.WorkoutRecorded{Workout: w})
	return w, nil
}

// ListWorkouts returns the user's workouts from the local store.
func (s *Service) ListWorkouts(ctx context.Context, userID string) ([]domain.Workout, error) {
	return s.store.FetchWorkouts(ctx, userID)
}

// DeleteWorkout removes a workout from both stores.
func (s *Service) DeleteWorkout(ctx context.Context, userID, id string) error {
	return s.gateway.DeleteWorkout(ctx, userID, id)
}

// CreateHabit persists a new habit. A missing ID is assigned; a zero start
// date defaults to now.
func (s *Service) CreateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.StartDate.IsZero() {
		h.StartDate = s.now()
	}
	if err := s.gateway.PutHabit(ctx, h); err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

// UpdateHabit overwrites an existing habit.
func (s *Service) UpdateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error) {
	if _, err := s.store.GetHabit(ctx, h.UserID, h.ID); err != nil {
		return domain.Habit{}, err
	}
	if err := s.gateway.PutHabit(ctx, h); err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

// ListHabits returns the user's habits from the local store.
func (s *Service) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	return s.store.FetchHabits(ctx, userID)
}

// DeleteHabit removes a habit from both stores.
func (s *Service) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.gateway.DeleteHabit(ctx, userID, id)
}

// ToggleHabitCompletion flips the completion mark for one day and publishes
// HabitCompleted with the persisted habit. The returned bool reports whether
// the day ended up completed.
func (s *Service) ToggleHabitCompletion(ctx context.Context, userID, habitID string, day time.Time) (domain.Habit, bool, error) {
	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return domain.Habit{}, false, err
	}

	completed := habit.AddCompletion(day)
	if !completed {
		habit.RemoveCompletion(day)
	}
	if err := s.gateway.PutHabit(ctx, *habit); err != nil {
		return domain.Habit{}, false, err
	}

	habitToggles.WithLabelValues(toggleLabel(completed)).Inc()
	s.bus.Publish(bus.HabitCompleted{Habit: *habit, Completed: completed})
	return *habit, completed, nil
}

// SetHabitCompletion forces the completion mark for one day to the desired
// state. Unlike ToggleHabitCompletion it is idempotent: re-importing the same
// completion neither flips it back nor republishes.
func (s *Service) SetHabitCompletion(ctx context.Context, userID, habitID string, day time.Time, completed bool) (domain.Habit, error) {
	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return domain.Habit{}, err
	}

	var changed bool
	if completed {
		changed = habit.AddCompletion(day)
	} else {
		changed = habit.RemoveCompletion(day)
	}
	if !changed {
		return *habit, nil
	}
	if err := s.gateway.PutHabit(ctx, *habit); err != nil {
		return domain.Habit{}, err
	}

	habitToggles.WithLabelValues(toggleLabel(completed)).Inc()
	s.bus.Publish(bus.HabitCompleted{Habit: *habit, Completed: completed})
	return *habit, nil
}

// CreateGoal persists a new goal. A missing ID is assigned; status defaults
// to active and a zero start date to now.
func (s *Service) CreateGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = domain.GoalActive
	}
	if g.StartDate.IsZero() {
		g.StartDate = s.now()
	}
	g.UpdatedAt = s.now()
	if err := s.gateway.PutGoal(ctx, g); err != nil {
		return domain.Goal{}, err
	}
	goalEdits.WithLabelValues("create").Inc()
	return g, nil
}

// UpdateGoal applies a manual edit, including direct changes to the current
// value. Status changes must follow the legal transitions.
func (s *Service) UpdateGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	existing, err := s.store.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return domain.Goal{}, err
	}
	if g.Status != existing.Status && !existing.CanTransition(g.Status) {
		return domain.Goal{}, &domain.ValidationError{
			Field:  "status",
			Reason: string(existing.Status) + " goals cannot move to " + string(g.Status),
		}
	}
	g.UpdatedAt = s.now()
	if err := s.gateway.PutGoal(ctx, g); err != nil {
		return domain.Goal{}, err
	}
	goalEdits.WithLabelValues("update").Inc()
	return g, nil
}

// ListGoals returns the user's goals after running the expiry pass, so a
// lapsed goal is never served as active.
func (s *Service) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	goals, err := s.store.FetchGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.expiry != nil {
		goals = s.expiry.EvaluateExpiry(ctx, goals)
	}
	return goals, nil
}

// DeleteGoal removes a goal from both stores.
func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.gateway.DeleteGoal(ctx, userID, id); err != nil {
		return err
	}
	goalEdits.WithLabelValues("delete").Inc()
	return nil
}

func toggleLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "uncompleted"
}
