package task

import (
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/model"
)

const icsDateLayout = "20060102"

// BuildTaskCalendarICS renders a task as a single all-day iCalendar event.
// A due date is required so the event has a concrete start date.
func BuildTaskCalendarICS(t model.Task, now time.Time) (string, error) {
	due, ok := t.DueDay()
	if !ok {
		return "", fmt.Errorf("task due date required for calendar export")
	}
	end := due.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Task"
	}
	desc := strings.TrimSpace(t.Description)

	uid := fmt.Sprintf("task-%s@taskdeck", strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(string(t.ID)) == "" {
		uid = fmt.Sprintf("task-export-%d@taskdeck", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//taskdeck//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + due.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if rrule := recurrenceToICSRRULE(t.Recurrence); rrule != "" {
		lines = append(lines, "RRULE:"+rrule)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

func recurrenceToICSRRULE(rec model.Recurrence) string {
	switch rec {
	case model.RecurrenceDaily:
		return "FREQ=DAILY;INTERVAL=1"
	case model.RecurrenceWeekly:
		return "FREQ=WEEKLY;INTERVAL=1"
	case model.RecurrenceMonthly:
		return "FREQ=MONTHLY;INTERVAL=1"
	default:
		return ""
	}
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
