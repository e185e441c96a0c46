package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the priority-matrix category a habit belongs to. The theme
// maps each category to a display colour.
type Priority string

const (
	PriorityUrgentImportant Priority = "urgent-important"
	PriorityImportant       Priority = "important"
	PriorityUrgent          Priority = "urgent"
	PriorityNeither         Priority = "neither"
)

// Priorities lists every category in matrix order.
var Priorities = []Priority{PriorityUrgentImportant, PriorityImportant, PriorityUrgent, PriorityNeither}

// ParsePriority accepts a category name; an empty string yields PriorityNeither.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return PriorityNeither, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// TimeOfDay is a wall-clock reminder time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at this time of day on day's calendar date, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// CompletionRecord is the evidence that a habit was performed on a calendar
// day, Count times.
type CompletionRecord struct {
	ID    string    `json:"id"`
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Habit is a tracked practice with a single recurrence rule.
type Habit struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	Priority            Priority           `json:"priority"`
	Rule                RecurrenceRule     `json:"-"`
	Reminder            TimeOfDay          `json:"reminder"`
	NotificationEnabled bool               `json:"notification_enabled"`
	Records             []CompletionRecord `json:"records"`
	CreatedAt           time.Time          `json:"created_at"`
	ArchivedAt          *time.Time         `json:"archived_at,omitempty"`
}

func (h *Habit) Validate() error {
	if err := ValidateHabitID(h.ID); err != nil {
		return err
	}
	if strings.TrimSpace(h.Title) == "" {
		return fmt.Errorf("habit title cannot be empty")
	}
	if !h.Reminder.Valid() {
		return fmt.Errorf("invalid reminder time %02d:%02d", h.Reminder.Hour, h.Reminder.Minute)
	}
	if _, err := ParsePriority(string(h.Priority)); err != nil {
		return err
	}
	switch r := h.Rule.(type) {
	case nil:
		return fmt.Errorf("habit %q has no recurrence rule", h.Title)
	case OneShotDueDate:
		if r.Due.IsZero() {
			return fmt.Errorf("one-shot due date cannot be empty")
		}
	case RepeatingWeekdays:
		if r.Days&^0x7f != 0 {
			return fmt.Errorf("invalid weekday mask %d", r.Days)
		}
	}
	return nil
}

// ValidateHabitID rejects IDs that would make notification keys ambiguous.
func ValidateHabitID(id string) error {
	if strings.Contains(id, KeySeparator) {
		return fmt.Errorf("habit id %q must not contain %q", id, KeySeparator)
	}
	return nil
}

// IsArchived reports whether the habit has been soft-deleted.
func (h *Habit) IsArchived() bool {
	return h.ArchivedAt != nil
}

// ArchivedHabit is the archive entity that inherits a habit's records when the
// habit is archived, so that statistics keep their history.
type ArchivedHabit struct {
	ID         string             `json:"id"`
	HabitID    string             `json:"habit_id"`
	Title      string             `json:"title"`
	Priority   Priority           `json:"priority"`
	Records    []CompletionRecord `json:"records"`
	CreatedAt  time.Time          `json:"created_at"`
	ArchivedAt time.Time          `json:"archived_at"`
}

// AsHabit presents an archived habit as a read-only Habit for statistics.
// The result never schedules notifications.
func (a ArchivedHabit) AsHabit() Habit {
	archivedAt := a.ArchivedAt
	return Habit{
		ID:         a.HabitID,
		Title:      a.Title,
		Priority:   a.Priority,
		Rule:       RepeatingWeekdays{},
		Records:    a.Records,
		CreatedAt:  a.CreatedAt,
		ArchivedAt: &archivedAt,
	}
}

// Pill is one completed, visible habit on a calendar day.
type Pill struct {
	HabitID string `json:"habit_id"`
	Title   string `json:"title"`
	Color   string `json:"color"`
	Count   int    `json:"count"`
}
