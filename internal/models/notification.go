package models

import (
	"fmt"
	"time"
)

// Trigger describes when a scheduled notification fires. It is either a
// DateTrigger (non-repeating) or a WeeklyTrigger (repeating).
type Trigger interface {
	Repeats() bool
	isTrigger()
}

// DateTrigger fires once at the given calendar components.
type DateTrigger struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Day    int        `json:"day"`
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
}

func (DateTrigger) Repeats() bool { return false }
func (DateTrigger) isTrigger()    {}

// DateTriggerAt extracts the calendar components of t in t's location.
func DateTriggerAt(t time.Time) DateTrigger {
	return DateTrigger{Year: t.Year(), Month: t.Month(), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

// Time returns the trigger instant in loc.
func (d DateTrigger) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, 0, 0, loc)
}

// WeeklyTrigger fires every week when weekday, hour and minute match.
type WeeklyTrigger struct {
	Weekday Weekday `json:"weekday"`
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
}

func (WeeklyTrigger) Repeats() bool { return true }
func (WeeklyTrigger) isTrigger()    {}

// ScheduledNotification is one registered reminder. Key is derived from the
// habit ID (plus the weekday for repeating entries) so that rescheduling a
// habit always produces the same key set.
type ScheduledNotification struct {
	Key     string  `json:"key"`
	HabitID string  `json:"habit_id"`
	Weekday Weekday `json:"weekday,omitempty"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Trigger Trigger `json:"-"`
}

// KeySeparator joins a habit ID and a weekday in a notification key. Habit
// IDs may not contain it.
const KeySeparator = "#"

// OneShotKey is the notification key of a habit's one-shot reminder.
func OneShotKey(habitID string) string {
	return habitID
}

// WeekdayKey is the notification key of a habit's reminder on weekday w.
func WeekdayKey(habitID string, w Weekday) string {
	return fmt.Sprintf("%s%s%d", habitID, KeySeparator, int(w))
}

// HabitKeys returns every key a habit could have registered: the one-shot key
// and all seven weekday keys.
func HabitKeys(habitID string) []string {
	keys := make([]string, 0, 8)
	keys = append(keys, OneShotKey(habitID))
	for _, w := range AllWeekdays {
		keys = append(keys, WeekdayKey(habitID, w))
	}
	return keys
}

// Delivery records that a scheduled notification was shown.
type Delivery struct {
	Key         string    `json:"key"`
	HabitID     string    `json:"habit_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}
