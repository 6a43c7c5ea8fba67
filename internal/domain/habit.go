package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form used for habit completions.
const DateLayout = "2006-01-02"

// DateKey normalizes a timestamp to its calendar-date form.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Habit is a recurring behaviour the user checks off on individual days.
// Completions is kept sorted ascending and free of duplicates; the current
// streak is derived from it, never stored.
type Habit struct {
	ID          string
	UserID      string
	Name        string
	Category    string
	Frequency   string
	TargetDays  int
	StartDate   time.Time
	Completions []string
	Archived    bool
}

// EntityID implements Entity.
func (h Habit) EntityID() string { return h.ID }

// OwnerID implements Entity.
func (h Habit) OwnerID() string { return h.UserID }

// HasCompletion reports whether the habit was completed on the given day.
func (h Habit) HasCompletion(day time.Time) bool {
	key := DateKey(day)
	idx := sort.SearchStrings(h.Completions, key)
	return idx < len(h.Completions) && h.Completions[idx] == key
}

// AddCompletion records a completion for the given day, keeping the set
// sorted and unique. Returns false when the day was already recorded.
func (h *Habit) AddCompletion(day time.Time) bool {
	key := DateKey(day)
	idx := sort.SearchStrings(h.Completions, key)
	if idx < len(h.Completions) && h.Completions[idx] == key {
		return false
	}
	h.Completions = append(h.Completions, "")
	copy(h.Completions[idx+1:], h.Completions[idx:])
	h.Completions[idx] = key
	return true
}

// RemoveCompletion deletes a completion for the given day. Returns false when
// no completion existed.
func (h *Habit) RemoveCompletion(day time.Time) bool {
	key := DateKey(day)
	idx := sort.SearchStrings(h.Completions, key)
	if idx >= len(h.Completions) || h.Completions[idx] != key {
		return false
	}
	h.Completions = append(h.Completions[:idx], h.Completions[idx+1:]...)
	return true
}

// CurrentStreak derives the run of consecutive completed calendar days ending
// at today, or at yesterday when today has not been completed yet. Any gap
// resets the streak to zero.
func (h Habit) CurrentStreak(today time.Time) int {
	if len(h.Completions) == 0 {
		return 0
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !h.HasCompletion(day) {
		day = day.AddDate(0, 0, -1)
		if !h.HasCompletion(day) {
			return 0
		}
	}

	streak := 0
	for h.HasCompletion(day) {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Validate checks habit invariants before any write.
func (h Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return &ValidationError{Field: "id", Reason: "habit id is required"}
	}
	if strings.TrimSpace(h.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "owning user is required"}
	}
	if strings.TrimSpace(h.Name) == "" {
		return &ValidationError{Field: "name", Reason: "habit name is required"}
	}
	if h.TargetDays < 0 || h.TargetDays > 7 {
		return &ValidationError{Field: "target_days", Reason: "target days per week must be in 0..7"}
	}
	for _, raw := range h.Completions {
		if _, err := time.Parse(DateLayout, raw); err != nil {
			return &ValidationError{Field: "completions", Reason: fmt.Sprintf("malformed completion date %q", raw)}
		}
	}
	if !sort.StringsAreSorted(h.Completions) {
		return &ValidationError{Field: "completions", Reason: "completion dates must be sorted ascending"}
	}
	return nil
}
