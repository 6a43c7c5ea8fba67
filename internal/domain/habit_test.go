package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCurrentStreakCountsBackFromToday(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-26", "2026-08-27", "2026-08-28"}}
	require.Equal(t, 3, h.CurrentStreak(day("2026-08-28")))
}

func TestCurrentStreakAnchorsOnYesterdayWhenTodayMissing(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-26", "2026-08-27"}}
	require.Equal(t, 2, h.CurrentStreak(day("2026-08-28")))
}

func TestCurrentStreakResetsOnGap(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-20", "2026-08-21", "2026-08-25"}}
	// Today and yesterday are both missing relative to 2026-08-28.
	require.Equal(t, 0, h.CurrentStreak(day("2026-08-28")))
}

func TestCurrentStreakIgnoresDaysBeforeGap(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-20", "2026-08-24", "2026-08-25", "2026-08-26"}}
	require.Equal(t, 3, h.CurrentStreak(day("2026-08-26")))
}

func TestCurrentStreakEmpty(t *testing.T) {
	var h Habit
	require.Equal(t, 0, h.CurrentStreak(day("2026-08-28")))
}

func TestAddCompletionKeepsSortedUnique(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-10", "2026-08-20"}}

	require.True(t, h.AddCompletion(day("2026-08-15")))
	require.Equal(t, []string{"2026-08-10", "2026-08-15", "2026-08-20"}, h.Completions)

	require.False(t, h.AddCompletion(day("2026-08-15")))
	require.Len(t, h.Completions, 3)
}

func TestRemoveCompletion(t *testing.T) {
	h := Habit{Completions: []string{"2026-08-10", "2026-08-15"}}

	require.True(t, h.RemoveCompletion(day("2026-08-10")))
	require.Equal(t, []string{"2026-08-15"}, h.Completions)

	require.False(t, h.RemoveCompletion(day("2026-08-10")))
}

func TestHabitValidateRejectsMalformedCompletion(t *testing.T) {
	h := Habit{ID: "h1", UserID: "u1", Name: "Read", TargetDays: 5, Completions: []string{"28-08-2026"}}
	err := h.Validate()
	require.Error(t, err)
	require.True(t, IsValidation(err))
}

func TestHabitValidateRejectsUnsortedCompletions(t *testing.T) {
	h := Habit{ID: "h1", UserID: "u1", Name: "Read", Completions: []string{"2026-08-20", "2026-08-10"}}
	require.True(t, IsValidation(h.Validate()))
}
