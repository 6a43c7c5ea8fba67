package remote

import (
	"fmt"
	"time"

	"example.com/fitsync/internal/domain"
)

// SchemaVersion is stamped into every encoded document. Decoding fails closed
// on any version this build does not understand.
const SchemaVersion = 1

// EncodeWorkout flattens a workout into a remote document. Timestamps are
// written as raw epoch seconds so the document survives JSON transports
// unchanged.
func EncodeWorkout(w domain.Workout) Document {
	doc := Document{
		"schema_version": SchemaVersion,
		"user_id":        w.UserID,
		"type":           string(w.Type),
		"duration_sec":   w.DurationSec,
		"calories":       w.Calories,
		"recorded_at":    float64(w.RecordedAt.UTC().Unix()),
	}
	if w.Notes != "" {
		doc["notes"] = w.Notes
	}
	if w.DistanceKm != nil {
		doc["distance_km"] = *w.DistanceKm
	}
	if w.Intensity != nil {
		doc["intensity"] = string(*w.Intensity)
	}
	if w.AvgHeartRate != nil {
		doc["avg_heart_rate"] = *w.AvgHeartRate
	}
	if w.MaxHeartRate != nil {
		doc["max_heart_rate"] = *w.MaxHeartRate
	}
	return doc
}

// DecodeWorkout rebuilds a workout from a remote document.
func DecodeWorkout(id string, doc Document) (domain.Workout, error) {
	d := newDecoder(doc)
	w := domain.Workout{
		ID:          id,
		UserID:      d.str("user_id"),
		DurationSec: d.intVal("duration_sec"),
		Calories:    d.f64("calories"),
		RecordedAt:  d.timeVal("recorded_at"),
		Notes:       d.optStr("notes"),
	}
	if raw := d.optStr("type"); d.err == nil {
		parsed, err := domain.ParseWorkoutType(raw)
		if err != nil {
			return domain.Workout{}, err
		}
		w.Type = parsed
	}
	if v, ok := d.optF64("distance_km"); ok {
		w.DistanceKm = &v
	}
	if raw := d.optStr("intensity"); raw != "" && d.err == nil {
		parsed, err := domain.ParseIntensity(raw)
		if err != nil {
			return domain.Workout{}, err
		}
		w.Intensity = &parsed
	}
	if v, ok := d.optInt("avg_heart_rate"); ok {
		w.AvgHeartRate = &v
	}
	if v, ok := d.optInt("max_heart_rate"); ok {
		w.MaxHeartRate = &v
	}
	if d.err != nil {
		return domain.Workout{}, d.err
	}
	return w, w.Validate()
}

// EncodeHabit flattens a habit into a remote document.
func EncodeHabit(h domain.Habit) Document {
	completions := make([]string, len(h.Completions))
	copy(completions, h.Completions)
	doc := Document{
		"schema_version": SchemaVersion,
		"user_id":        h.UserID,
		"name":           h.Name,
		"category":       h.Category,
		"frequency":      h.Frequency,
		"target_days":    h.TargetDays,
		"completions":    completions,
		"archived":       h.Archived,
	}
	if !h.StartDate.IsZero() {
		doc["start_date"] = float64(h.StartDate.UTC().Unix())
	}
	return doc
}

// DecodeHabit rebuilds a habit from a remote document.
func DecodeHabit(id string, doc Document) (domain.Habit, error) {
	d := newDecoder(doc)
	h := domain.Habit{
		ID:          id,
		UserID:      d.str("user_id"),
		Name:        d.str("name"),
		Category:    d.optStr("category"),
		Frequency:   d.optStr("frequency"),
		TargetDays:  d.intVal("target_days"),
		Completions: d.strSlice("completions"),
		Archived:    d.boolVal("archived"),
	}
	if ts, ok := d.optTime("start_date"); ok {
		h.StartDate = ts
	}
	if d.err != nil {
		return domain.Habit{}, d.err
	}
	return h, h.Validate()
}

// EncodeGoal flattens a goal into a remote document.
func EncodeGoal(g domain.Goal) Document {
	doc := Document{
		"schema_version": SchemaVersion,
		"user_id":        g.UserID,
		"title":          g.Title,
		"type":           string(g.Type),
		"target_value":   g.TargetValue,
		"current_value":  g.CurrentValue,
		"status":         string(g.Status),
		"timeframe":      g.Timeframe,
	}
	if !g.StartDate.IsZero() {
		doc["start_date"] = float64(g.StartDate.UTC().Unix())
	}
	if !g.EndDate.IsZero() {
		doc["end_date"] = float64(g.EndDate.UTC().Unix())
	}
	if !g.UpdatedAt.IsZero() {
		doc["updated_at"] = float64(g.UpdatedAt.UTC().Unix())
	}
	if g.LinkedWorkoutType != nil {
		doc["linked_workout_type"] = string(*g.LinkedWorkoutType)
	}
	if g.LinkedHabitID != nil {
		doc["linked_habit_id"] = *g.LinkedHabitID
	}
	if g.Notes != "" {
		doc["notes"] = g.Notes
	}
	return doc
}

// DecodeGoal rebuilds a goal from a remote document.
func DecodeGoal(id string, doc Document) (domain.Goal, error) {
	d := newDecoder(doc)
	g := domain.Goal{
		ID:           id,
		UserID:       d.str("user_id"),
		Title:        d.str("title"),
		TargetValue:  d.f64("target_value"),
		CurrentValue: d.f64("current_value"),
		Timeframe:    d.optStr("timeframe"),
		Notes:        d.optStr("notes"),
	}
	if raw := d.str("type"); d.err == nil {
		parsed, err := domain.ParseGoalType(raw)
		if err != nil {
			return domain.Goal{}, err
		}
		g.Type = parsed
	}
	if raw := d.str("status"); d.err == nil {
		g.Status = domain.GoalStatus(raw)
	}
	if ts, ok := d.optTime("start_date"); ok {
		g.StartDate = ts
	}
	if ts, ok := d.optTime("end_date"); ok {
		g.EndDate = ts
	}
	if ts, ok := d.optTime("updated_at"); ok {
		g.UpdatedAt = ts
	}
	if raw := d.optStr("linked_workout_type"); raw != "" && d.err == nil {
		parsed, err := domain.ParseWorkoutType(raw)
		if err != nil {
			return domain.Goal{}, err
		}
		g.LinkedWorkoutType = &parsed
	}
	if raw := d.optStr("linked_habit_id"); raw != "" {
		g.LinkedHabitID = &raw
	}
	if d.err != nil {
		return domain.Goal{}, d.err
	}
	return g, g.Validate()
}

// decoder accumulates the first field error while reading a document. Every
// accessor fails closed: a missing required field or a value of the wrong
// shape becomes a ValidationError instead of a silent default.
type decoder struct {
	doc Document
	err error
}

func newDecoder(doc Document) *decoder {
	d := &decoder{doc: doc}
	switch v := doc["schema_version"].(type) {
	case int:
		if v != SchemaVersion {
			d.fail("schema_version", fmt.Sprintf("unsupported version %d", v))
		}
	case float64:
		if int(v) != SchemaVersion {
			d.fail("schema_version", fmt.Sprintf("unsupported version %v", v))
		}
	default:
		d.fail("schema_version", "missing or malformed")
	}
	return d
}

func (d *decoder) fail(field, reason string) {
	if d.err == nil {
		d.err = &domain.ValidationError{Field: field, Reason: reason}
	}
}

func (d *decoder) str(key string) string {
	v, ok := d.doc[key].(string)
	if !ok {
		d.fail(key, "missing or not a string")
		return ""
	}
	return v
}

func (d *decoder) optStr(key string) string {
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return ""
	}
	v, ok := raw.(string)
	if !ok {
		d.fail(key, "not a string")
		return ""
	}
	return v
}

func (d *decoder) f64(key string) float64 {
	v, ok := numeric(d.doc[key])
	if !ok {
		d.fail(key, "missing or not a number")
		return 0
	}
	return v
}

func (d *decoder) optF64(key string) (float64, bool) {
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return 0, false
	}
	v, ok := numeric(raw)
	if !ok {
		d.fail(key, "not a number")
		return 0, false
	}
	return v, true
}

func (d *decoder) intVal(key string) int {
	return int(d.f64(key))
}

func (d *decoder) optInt(key string) (int, bool) {
	v, ok := d.optF64(key)
	return int(v), ok
}

func (d *decoder) boolVal(key string) bool {
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return false
	}
	v, ok := raw.(bool)
	if !ok {
		d.fail(key, "not a boolean")
		return false
	}
	return v
}

// timeVal accepts a native timestamp, raw epoch seconds (double or integer),
// or an RFC 3339 string; older writers stored epoch doubles.
func (d *decoder) timeVal(key string) time.Time {
	ts, ok := d.optTime(key)
	if !ok && d.err == nil {
		d.fail(key, "missing or malformed timestamp")
	}
	return ts
}

func (d *decoder) optTime(key string) (time.Time, bool) {
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			d.fail(key, "malformed timestamp string")
			return time.Time{}, false
		}
		return ts.UTC(), true
	default:
		d.fail(key, "malformed timestamp")
		return time.Time{}, false
	}
}

func (d *decoder) strSlice(key string) []string {
	raw, ok := d.doc[key]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				d.fail(key, "not a string array")
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		d.fail(key, "not a string array")
		return nil
	}
}

func numeric(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
