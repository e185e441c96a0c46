package utils

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/models"
)

// IsDue reports whether the habit's rule marks it as due on d's calendar day.
// Repeating rules match d's weekday; one-shot rules match the due date's day.
func IsDue(h models.Habit, d time.Time) bool {
	switch rule := h.Rule.(type) {
	case models.RepeatingWeekdays:
		return rule.Days.Has(models.WeekdayOf(d))
	case models.OneShotDueDate:
		return SameDay(rule.Due, d)
	default:
		return false
	}
}

// IsCompleted reports whether a completion record exists for d's calendar day.
// Due-ness is irrelevant: a habit may be completed on an unscheduled day.
func IsCompleted(h models.Habit, d time.Time) bool {
	return recordIndex(h.Records, d) >= 0
}

// CompletionCount returns how many times the habit was completed on d's day.
func CompletionCount(h models.Habit, d time.Time) int {
	if i := recordIndex(h.Records, d); i >= 0 {
		return h.Records[i].Count
	}
	return 0
}

// Complete records one completion at `at`. An existing record for that day is
// incremented; otherwise a new record with count 1 is appended. The affected
// record is returned.
func Complete(h *models.Habit, at time.Time) models.CompletionRecord {
	if i := recordIndex(h.Records, at); i >= 0 {
		h.Records[i].Count++
		return h.Records[i]
	}
	rec := models.CompletionRecord{
		ID:    uuid.New().String(),
		Date:  at,
		Count: 1,
	}
	h.Records = append(h.Records, rec)
	return rec
}

// Uncomplete removes one completion from at's day. The record is dropped from
// the habit when its count reaches zero, in which case the returned record has
// Count 0. found is false when there was nothing to remove.
func Uncomplete(h *models.Habit, at time.Time) (rec models.CompletionRecord, found bool) {
	i := recordIndex(h.Records, at)
	if i < 0 {
		return models.CompletionRecord{}, false
	}
	h.Records[i].Count--
	rec = h.Records[i]
	if rec.Count == 0 {
		h.Records = append(h.Records[:i], h.Records[i+1:]...)
	}
	return rec, true
}

// NextOccurrence returns the first reminder instant at or after from. One-shot
// rules yield their due instant when it is not in the past. Repeating rules
// use the habit's reminder time in from's location.
func NextOccurrence(h models.Habit, from time.Time) (time.Time, bool) {
	switch rule := h.Rule.(type) {
	case models.OneShotDueDate:
		if rule.Due.Before(from) {
			return time.Time{}, false
		}
		return rule.Due, true
	case models.RepeatingWeekdays:
		if rule.Days.IsEmpty() {
			return time.Time{}, false
		}
		// Eight days covers today's already-passed reminder plus a full week.
		for offset := 0; offset <= 7; offset++ {
			day := from.AddDate(0, 0, offset)
			if !rule.Days.Has(models.WeekdayOf(day)) {
				continue
			}
			at := h.Reminder.On(day, from.Location())
			if !at.Before(from) {
				return at, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func recordIndex(records []models.CompletionRecord, d time.Time) int {
	for i, rec := range records {
		if SameDay(rec.Date, d) {
			return i
		}
	}
	return -1
}
