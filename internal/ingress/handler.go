package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/tracker"
)

// TrackerHandler replays import events through the tracker service. Payloads
// that fail domain validation are logged and dropped rather than retried:
// redelivery cannot fix them.
type TrackerHandler struct {
	service *tracker.Service
	logger  *log.Logger
}

// NewTrackerHandler constructs a handler backed by the tracker service.
func NewTrackerHandler(service *tracker.Service) *TrackerHandler {
	return &TrackerHandler{
		service: service,
		logger:  log.New(log.Writer(), "[ingress] ", log.LstdFlags),
	}
}

// Handle dispatches one decoded message by event type. Unknown event types
// are skipped so new producers can roll out ahead of this consumer.
func (h *TrackerHandler) Handle(ctx context.Context, msg Message) error {
	var err error
	switch msg.EventType {
	case EventWorkoutRecorded:
		err = h.handleWorkout(ctx, msg)
	case EventHabitCompleted:
		err = h.handleHabit(ctx, msg)
	default:
		h.logger.Printf("skipping unknown event type %q (topic=%s, offset=%d)", msg.EventType, msg.Topic, msg.Offset)
		recordSkipped(msg.Topic, msg.EventType)
		return nil
	}
	if err != nil && domain.IsValidation(err) {
		h.logger.Printf("dropping unprocessable %s event (user=%s): %v", msg.EventType, msg.UserID, err)
		recordRejected(msg.Topic, msg.EventType)
		return nil
	}
	return err
}

func (h *TrackerHandler) handleWorkout(ctx context.Context, msg Message) error {
	var payload WorkoutImported
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return &domain.ValidationError{Field: "payload", Reason: err.Error()}
	}

	workoutType, err := domain.ParseWorkoutType(payload.Type)
	if err != nil {
		return err
	}
	workout := domain.Workout{
		ID:           payload.WorkoutID,
		UserID:       payload.UserID,
		Type:         workoutType,
		DurationSec:  payload.DurationSec,
		Calories:     payload.Calories,
		RecordedAt:   payload.RecordedAt,
		Notes:        payload.Notes,
		DistanceKm:   payload.DistanceKm,
		AvgHeartRate: payload.AvgHeartRate,
		MaxHeartRate: payload.MaxHeartRate,
	}
	if payload.Intensity != nil {
		intensity, err := domain.ParseIntensity(*payload.Intensity)
		if err != nil {
			return err
		}
		workout.Intensity = &intensity
	}

	_, err = h.service.RecordWorkout(ctx, workout)
	return err
}

func (h *TrackerHandler) handleHabit(ctx context.Context, msg Message) error {
	var payload HabitCompletionImported
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return &domain.ValidationError{Field: "payload", Reason: err.Error()}
	}
	day, err := time.Parse(domain.DateLayout, payload.Date)
	if err != nil {
		return &domain.ValidationError{Field: "date", Reason: fmt.Sprintf("malformed day key %q", payload.Date)}
	}

	_, err = h.service.SetHabitCompletion(ctx, payload.UserID, payload.HabitID, day, payload.Completed)
	return err
}
