package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskdeck/internal/model"
)

func strPtr(s string) *string { return &s }

func TestCalculateStats(t *testing.T) {
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.Local) // a Thursday
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -8)

	tasks := []model.Task{
		{Title: "done today", Completed: true, UpdatedAt: now},
		{Title: "done yesterday", Completed: true, UpdatedAt: yesterday},
		{Title: "done last week", Completed: true, UpdatedAt: lastWeek},
		{Title: "active undated"},
		{Title: "overdue", DueDate: strPtr("2026-03-10")},
		{Title: "due today is not overdue", DueDate: strPtr("2026-03-12")},
	}

	s := CalculateStats(tasks, now)

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.Active)
	assert.Equal(t, 3, s.Completed)
	assert.Equal(t, 50, s.CompletionRate)
	assert.Equal(t, 1, s.CompletedToday)
	assert.Equal(t, 2, s.CompletedThisWeek, "week starts Monday")
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
}

func TestCalculateStats_Empty(t *testing.T) {
	s := CalculateStats(nil, time.Now())
	assert.Equal(t, Stats{}, s)
}

func TestCalculateStats_CompletionRateRounds(t *testing.T) {
	tasks := []model.Task{
		{Title: "a", Completed: true, UpdatedAt: time.Now()},
		{Title: "b"},
		{Title: "c"},
	}
	s := CalculateStats(tasks, time.Now())
	assert.Equal(t, 33, s.CompletionRate)
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{
			"midweek",
			time.Date(2026, 3, 12, 15, 30, 0, 0, time.Local),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local),
		},
		{
			"monday maps to itself",
			time.Date(2026, 3, 9, 8, 0, 0, 0, time.Local),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local),
		},
		{
			"sunday belongs to preceding monday",
			time.Date(2026, 3, 15, 23, 0, 0, 0, time.Local),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, startOfWeek(tc.day))
		})
	}
}
