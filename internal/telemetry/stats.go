// Package telemetry derives aggregate productivity stats from the raw task
// list. Everything here is a pure read over an already-fetched snapshot.
package telemetry

import (
	"time"

	"taskdeck/internal/model"
	"taskdeck/internal/task"
)

type Stats struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`

	CompletedToday    int `json:"completedToday"`
	CompletedThisWeek int `json:"completedThisWeek"`
	Overdue           int `json:"overdue"`

	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

// CalculateStats computes the dashboard numbers in a single pass over the
// unfiltered list. Overdue means dated, not completed, and due strictly
// before today; a task due today is not overdue yet.
func CalculateStats(tasks []model.Task, now time.Time) Stats {
	now = now.In(time.Local)
	today := now.Format(model.DueDateLayout)
	weekStart := startOfWeek(now)

	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if !t.Completed {
			s.Active++
			if t.DueDate != nil && *t.DueDate < today {
				s.Overdue++
			}
			continue
		}

		s.Completed++
		if t.UpdatedAt.IsZero() {
			continue
		}
		done := t.UpdatedAt.In(time.Local)
		if done.Format(model.DueDateLayout) == today {
			s.CompletedToday++
		}
		if !done.Before(weekStart) {
			s.CompletedThisWeek++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = (s.Completed*100 + s.Total/2) / s.Total
	}
	s.CurrentStreak = task.Streak(tasks, now)
	s.LongestStreak = task.LongestStreak(tasks)
	return s
}

// startOfWeek returns local midnight of the Monday of now's ISO week.
func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
