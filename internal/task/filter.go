package task

import (
	"strings"

	"taskdeck/internal/model"
)

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// AdvancedFilters is a compound predicate over tags, priorities and a due
// date range. Empty slices and empty bounds mean "don't care". The date
// range only applies when both bounds are set; an undated task always
// passes the date predicate.
type AdvancedFilters struct {
	Tags       []string         `json:"tags"`
	Priorities []model.Priority `json:"priorities"`
	DateFrom   string           `json:"dateFrom,omitempty"`
	DateTo     string           `json:"dateTo,omitempty"`
}

func (f AdvancedFilters) Empty() bool {
	return len(f.Tags) == 0 && len(f.Priorities) == 0 && f.DateFrom == "" && f.DateTo == ""
}

// Filter returns the subset of tasks satisfying every active predicate.
// Categories combine with AND; membership inside the tag and priority
// categories is OR. Input order is preserved and the input is not mutated.
func Filter(tasks []model.Task, status StatusFilter, query string, adv AdvancedFilters) []model.Task {
	query = strings.ToLower(strings.TrimSpace(query))

	wantTags := make(map[string]bool, len(adv.Tags))
	for _, tag := range adv.Tags {
		if n := model.NormalizeTag(tag); n != "" {
			wantTags[n] = true
		}
	}
	wantPriorities := make(map[model.Priority]bool, len(adv.Priorities))
	for _, p := range adv.Priorities {
		wantPriorities[p] = true
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		switch status {
		case StatusActive:
			if t.Completed {
				continue
			}
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		}

		if query != "" && !matchesQuery(&t, query) {
			continue
		}

		if len(wantTags) > 0 {
			// A task with no tags never matches a non-empty tag filter.
			found := false
			for _, tag := range t.Tags {
				if wantTags[tag] {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		if len(wantPriorities) > 0 && !wantPriorities[t.Priority] {
			continue
		}

		if adv.DateFrom != "" && adv.DateTo != "" && t.DueDate != nil {
			// YYYY-MM-DD compares lexicographically; inclusive interval.
			if *t.DueDate < adv.DateFrom || *t.DueDate > adv.DateTo {
				continue
			}
		}

		out = append(out, t)
	}
	return out
}

func matchesQuery(t *model.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	if t.Description != "" && strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return false
}
