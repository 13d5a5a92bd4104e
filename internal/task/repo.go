package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/model"
)

var (
	ErrNotFound    = errors.New("task not found")
	ErrEmptyTitle  = errors.New("task title is required")
	ErrBadPriority = errors.New("unknown priority")
	ErrBadRecur    = errors.New("unknown recurrence")
	ErrBadDueDate  = errors.New("due date must be YYYY-MM-DD")
)

// Patch represents a partial update.
// nil pointer => "no change"
// empty string for DueDate => clear (set to nil)
// negative CustomOrder => clear
type Patch struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Priority    *model.Priority   `json:"priority,omitempty"`
	Tags        *[]string         `json:"tags,omitempty"`
	DueDate     *string           `json:"dueDate,omitempty"`
	Completed   *bool             `json:"completed,omitempty"`
	Recurrence  *model.Recurrence `json:"recurrence,omitempty"`
	CustomOrder *int              `json:"customOrder,omitempty"`
	Subtasks    *[]model.Subtask  `json:"subtasks,omitempty"`

	CalendarEventID *string `json:"calendarEventId,omitempty"`
}

// Repo is the persistence boundary. Implementations assign IDs and
// timestamps on Create and bump UpdatedAt on Update; everything above this
// interface sees canonical time.Time values only.
type Repo interface {
	List(ctx context.Context, userID string) ([]model.Task, error)
	Create(ctx context.Context, userID string, t model.Task) (model.Task, error)
	Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error)
	Delete(ctx context.Context, id model.TaskID) error
}

// ValidateNew checks a task payload before it reaches any repo call and
// normalizes tags in place. Validation failures never hit persistence.
func ValidateNew(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrBadPriority, t.Priority)
	}
	if t.Recurrence == "" {
		t.Recurrence = model.RecurrenceNone
	}
	if !t.Recurrence.Valid() {
		return fmt.Errorf("%w: %q", ErrBadRecur, t.Recurrence)
	}
	if t.DueDate != nil {
		d := strings.TrimSpace(*t.DueDate)
		if d == "" {
			t.DueDate = nil
		} else {
			if _, err := time.ParseInLocation(model.DueDateLayout, d, time.Local); err != nil {
				return ErrBadDueDate
			}
			t.DueDate = &d
		}
	}
	t.Tags = model.NormalizeTags(t.Tags)
	return nil
}

func validatePatch(p *Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrBadPriority, *p.Priority)
	}
	if p.Recurrence != nil && !p.Recurrence.Valid() {
		return fmt.Errorf("%w: %q", ErrBadRecur, *p.Recurrence)
	}
	if p.DueDate != nil && strings.TrimSpace(*p.DueDate) != "" {
		if _, err := time.ParseInLocation(model.DueDateLayout, strings.TrimSpace(*p.DueDate), time.Local); err != nil {
			return ErrBadDueDate
		}
	}
	return nil
}

func normalizeTask(t *model.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
}

func applyPatch(t *model.Task, p Patch) error {
	if err := validatePatch(&p); err != nil {
		return err
	}

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = model.NormalizeTags(*p.Tags)
	}

	// pointer string field with "empty clears" semantics
	if p.DueDate != nil {
		d := strings.TrimSpace(*p.DueDate)
		if d == "" {
			t.DueDate = nil
		} else {
			t.DueDate = &d
		}
	}

	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.CustomOrder != nil {
		if *p.CustomOrder < 0 {
			t.CustomOrder = nil
		} else {
			v := *p.CustomOrder
			t.CustomOrder = &v
		}
	}
	if p.Subtasks != nil {
		if *p.Subtasks == nil {
			t.Subtasks = []model.Subtask{}
		} else {
			t.Subtasks = *p.Subtasks
		}
	}
	if p.CalendarEventID != nil {
		if strings.TrimSpace(*p.CalendarEventID) == "" {
			t.CalendarEventID = nil
		} else {
			t.CalendarEventID = p.CalendarEventID
		}
	}

	return nil
}

// IsValidationErr reports whether err was produced by payload validation as
// opposed to the repo itself.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrBadPriority) ||
		errors.Is(err, ErrBadRecur) ||
		errors.Is(err, ErrBadDueDate)
}
