package syncer

import (
	"context"
	"log"

	"example.com/fitsync/internal/bus"
	"example.com/fitsync/internal/domain"
)

// Session drives the three coordinators from auth state changes: sign-in
// starts a subscription per collection for that user, sign-out stops them and
// clears the published views. Local rows are kept across sign-out; every read
// path is user-scoped, so another account never sees them.
type Session struct {
	workouts *Coordinator[domain.Workout]
	habits   *Coordinator[domain.Habit]
	goals    *Coordinator[domain.Goal]
	logger   *log.Logger

	events      <-chan bus.Event
	unsubscribe func()
}

// NewSession wires the coordinators to the event bus. The bus subscription is
// taken here, not in Run, so auth events published between construction and
// the Run goroutine being scheduled are not lost.
func NewSession(b *bus.Bus, workouts *Coordinator[domain.Workout], habits *Coordinator[domain.Habit], goals *Coordinator[domain.Goal]) *Session {
	s := &Session{
		workouts: workouts,
		habits:   habits,
		goals:    goals,
		logger:   log.New(log.Writer(), "[session] ", log.LstdFlags),
	}
	s.events, s.unsubscribe = b.Subscribe()
	return s
}

// Run consumes auth events until ctx is cancelled. It stops all coordinators
// on exit.
func (s *Session) Run(ctx context.Context) {
	defer s.unsubscribe()
	defer s.stopAll()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			change, isAuth := event.(bus.AuthChanged)
			if !isAuth {
				continue
			}
			if change.UserID == "" {
				s.logger.Printf("signed out, clearing views")
				s.stopAll()
				s.workouts.ClearView()
				s.habits.ClearView()
				s.goals.ClearView()
				continue
			}
			s.logger.Printf("signed in (user=%s), starting sync", change.UserID)
			s.startAll(ctx, change.UserID)
		}
	}
}

func (s *Session) startAll(ctx context.Context, userID string) {
	if err := s.workouts.Start(ctx, userID); err != nil {
		s.logger.Printf("start workouts sync: %v", err)
	}
	if err := s.habits.Start(ctx, userID); err != nil {
		s.logger.Printf("start habits sync: %v", err)
	}
	if err := s.goals.Start(ctx, userID); err != nil {
		s.logger.Printf("start goals sync: %v", err)
	}
}

func (s *Session) stopAll() {
	s.workouts.Stop()
	s.habits.Stop()
	s.goals.Stop()
}
