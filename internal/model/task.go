package model

import (
	"strings"
	"time"
)

type TaskID string

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank maps priorities to a sortable weight (high first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// DueDateLayout is the wire form for due dates. Due dates carry no time
// component; lexicographic comparison of this layout matches chronological
// order, which the filter pipeline relies on.
const DueDateLayout = "2006-01-02"

type Task struct {
	ID          TaskID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	DueDate     *string    `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	Recurrence  Recurrence `json:"recurrence"`
	CustomOrder *int       `json:"customOrder,omitempty"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`

	CalendarEventID *string `json:"calendarEventId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Task) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// DueDay parses the due date, reporting false when absent or malformed.
func (t *Task) DueDay() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DueDateLayout, *t.DueDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// NormalizeTag lowercases and trims a tag. Filtering is exact-match on this
// normalized form; entry points must normalize before persisting.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		n := NormalizeTag(tag)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
