// Package api exposes HTTP handlers for workouts, habits, and goals. Every
// read and write is scoped to the user carried by the bearer token.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/fitsync/internal/auth"
	"example.com/fitsync/internal/domain"
	"example.com/fitsync/internal/tracker"
)

// Handler coordinates HTTP requests with the tracker service.
type Handler struct {
	service *tracker.Service
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *tracker.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts", h.workouts)
	mux.HandleFunc("/v1/workouts/", h.workoutByID)
	mux.HandleFunc("/v1/habits", h.habits)
	mux.HandleFunc("/v1/habits/", h.habitByID)
	mux.HandleFunc("/v1/goals", h.goals)
	mux.HandleFunc("/v1/goals/", h.goalByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/workouts/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}
	if err := h.service.DeleteWorkout(r.Context(), userID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordWorkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req RecordWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	workout, err := req.toDomain(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	recorded, err := h.service.RecordWorkout(r.Context(), workout)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkoutView(recorded))
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	workouts, err := h.service.ListWorkouts(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]WorkoutView, 0, len(workouts))
	for _, workout := range workouts {
		items = append(items, toWorkoutView(workout))
	}
	writeJSON(w, http.StatusOK, WorkoutListResponse{Items: items})
}

func (h *Handler) habits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createHabit(w, r)
	case http.MethodGet:
		h.listHabits(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) habitByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/habits/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing habit id")
		return
	}

	switch {
	case sub == "completions" && r.Method == http.MethodPost:
		h.toggleCompletion(w, r, id)
	case sub == "" && r.Method == http.MethodPut:
		h.updateHabit(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.deleteHabit(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req HabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	habit, err := h.service.CreateHabit(r.Context(), req.toDomain(userID, ""))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toHabitView(habit))
}

func (h *Handler) updateHabit(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req HabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	habit, err := h.service.UpdateHabit(r.Context(), req.toDomain(userID, id))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toHabitView(habit))
}

func (h *Handler) deleteHabit(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}
	if err := h.service.DeleteHabit(r.Context(), userID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	habits, err := h.service.ListHabits(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]HabitView, 0, len(habits))
	for _, habit := range habits {
		items = append(items, h.toHabitView(habit))
	}
	writeJSON(w, http.StatusOK, HabitListResponse{Items: items})
}

func (h *Handler) toggleCompletion(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req ToggleCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	day := h.now()
	if req.Date != "" {
		parsed, err := time.Parse(domain.DateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must use YYYY-MM-DD")
			return
		}
		day = parsed
	}

	habit, completed, err := h.service.ToggleHabitCompletion(r.Context(), userID, id, day)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleCompletionResponse{
		Habit:     h.toHabitView(habit),
		Date:      domain.DateKey(day),
		Completed: completed,
	})
}

func (h *Handler) goals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGoal(w, r)
	case http.MethodGet:
		h.listGoals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) goalByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/goals/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing goal id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateGoal(w, r, id)
	case http.MethodDelete:
		h.deleteGoal(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	goal, err := req.toDomain(userID, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.service.CreateGoal(r.Context(), goal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalView(created))
}

func (h *Handler) updateGoal(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	goal, err := req.toDomain(userID, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	updated, err := h.service.UpdateGoal(r.Context(), goal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalView(updated))
}

func (h *Handler) deleteGoal(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessWrite)
	if !ok {
		return
	}
	if err := h.service.DeleteGoal(r.Context(), userID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireScope(w, r, auth.ScopeFitnessRead, auth.ScopeFitnessWrite)
	if !ok {
		return
	}

	goals, err := h.service.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]GoalView, 0, len(goals))
	for _, goal := range goals {
		items = append(items, toGoalView(goal))
	}
	writeJSON(w, http.StatusOK, GoalListResponse{Items: items})
}

// requireScope extracts the authenticated user and enforces that at least one
// of the scopes is present.
func (h *Handler) requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return "", false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims.Subject, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return "", false
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrWorkoutNotFound),
		errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
