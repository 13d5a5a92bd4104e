package task

import (
	"sort"
	"time"

	"taskdeck/internal/model"
)

const dayLayout = "2006-01-02"

// Streak returns the current consecutive-day completion streak as of now.
// A day counts when at least one completed task has its UpdatedAt on that
// local calendar day; how many tasks completed per day is irrelevant. The
// streak is 0 unless the most recent completion day is today or yesterday,
// and counting stops at the first gap.
func Streak(tasks []model.Task, now time.Time) int {
	days := completionDays(tasks)
	if len(days) == 0 {
		return 0
	}
	// Newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	now = now.In(time.Local)
	today := now.Format(dayLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dayLayout)

	latest := days[0]
	if latest != today && latest != yesterday {
		return 0
	}

	streak := 1
	prev, _ := time.ParseInLocation(dayLayout, latest, time.Local)
	for _, day := range days[1:] {
		want := prev.AddDate(0, 0, -1).Format(dayLayout)
		if day != want {
			break
		}
		streak++
		prev, _ = time.ParseInLocation(dayLayout, day, time.Local)
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completion days ever
// recorded, regardless of whether it is still alive.
func LongestStreak(tasks []model.Task) int {
	days := completionDays(tasks)
	if len(days) == 0 {
		return 0
	}
	sort.Strings(days)

	longest, run := 1, 1
	prev, _ := time.ParseInLocation(dayLayout, days[0], time.Local)
	for _, day := range days[1:] {
		cur, _ := time.ParseInLocation(dayLayout, day, time.Local)
		if prev.AddDate(0, 0, 1).Format(dayLayout) == day {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
		prev = cur
	}
	return longest
}

// completionDays reduces completed tasks to their distinct local completion
// days in YYYY-MM-DD form.
func completionDays(tasks []model.Task) []string {
	seen := map[string]bool{}
	for _, t := range tasks {
		if !t.Completed || t.UpdatedAt.IsZero() {
			continue
		}
		day := t.UpdatedAt.In(time.Local).Format(dayLayout)
		seen[day] = true
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	return days
}
