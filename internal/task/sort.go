package task

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskdeck/internal/model"
)

type SortMode string

const (
	SortCreated  SortMode = "createdAt"
	SortDueDate  SortMode = "dueDate"
	SortPriority SortMode = "priority"
	SortTitle    SortMode = "title"
	SortCustom   SortMode = "custom"
)

func (m SortMode) Valid() bool {
	switch m {
	case SortCreated, SortDueDate, SortPriority, SortTitle, SortCustom:
		return true
	}
	return false
}

// titleCollator orders titles the way a user-facing list should, not by raw
// byte value. Collators are not safe for concurrent use, so Sort builds one
// per call when sorting by title.
func titleCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

// Sort returns a new ordering of tasks; the input slice is left untouched.
// Every mode sorts stably: equal-key tasks keep their relative input order,
// which manual reordering under the custom mode depends on.
func Sort(tasks []model.Task, mode SortMode) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	switch mode {
	case SortDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].DueDate, out[j].DueDate
			switch {
			case di == nil && dj == nil:
				return false
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return *di < *dj
			}
		})

	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		})

	case SortTitle:
		col := titleCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Title, out[j].Title) < 0
		})

	case SortCustom:
		sort.SliceStable(out, func(i, j int) bool {
			oi, oj := out[i].CustomOrder, out[j].CustomOrder
			switch {
			case oi == nil && oj == nil:
				return false
			case oi == nil:
				return false
			case oj == nil:
				return true
			default:
				return *oi < *oj
			}
		})

	default: // SortCreated: newest first
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}

	return out
}
