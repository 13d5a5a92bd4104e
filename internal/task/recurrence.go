package task

import (
	"time"

	"taskdeck/internal/model"
)

// Expand computes the follow-up payload for a recurring task that is about
// to be completed. It reports false when the task has no recurrence rule or
// no due date. The source task is never mutated; the caller persists the
// returned payload before flipping the source's completed flag so a failed
// create never loses the occurrence.
func Expand(t model.Task) (model.Task, bool) {
	if t.Recurrence == model.RecurrenceNone || t.Recurrence == "" {
		return model.Task{}, false
	}
	due, ok := t.DueDay()
	if !ok {
		return model.Task{}, false
	}

	var next time.Time
	switch t.Recurrence {
	case model.RecurrenceDaily:
		next = due.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		next = due.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		next = addMonthClamped(due)
	default:
		return model.Task{}, false
	}

	nextDue := next.Format(model.DueDateLayout)
	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)

	// Subtasks, custom order and calendar link are not carried over: the
	// fresh occurrence starts empty and unordered.
	return model.Task{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Tags:        tags,
		DueDate:     &nextDue,
		Completed:   false,
		Recurrence:  t.Recurrence,
	}, true
}

// addMonthClamped advances one calendar month, clamping to the last valid
// day of the target month: Jan 31 -> Feb 29 (leap) / Feb 28, never Mar 2.
// time.AddDate would normalize the overflow into the following month.
func addMonthClamped(d time.Time) time.Time {
	year, month, day := d.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, d.Location())
	if last := lastDayOfMonth(firstOfNext); day > last {
		day = last
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, d.Location())
}

func lastDayOfMonth(d time.Time) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, d.Location()).Day()
}
