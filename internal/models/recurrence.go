package models

import (
	"fmt"
	"time"
)

// RuleKind names the variant of a RecurrenceRule for storage and display.
type RuleKind string

const (
	RuleRepeatingWeekdays RuleKind = "weekdays"
	RuleOneShot           RuleKind = "one_shot"
)

// RecurrenceRule is a closed sum type: RepeatingWeekdays or OneShotDueDate.
// Consumers match it with a type switch over both variants.
type RecurrenceRule interface {
	Kind() RuleKind
	isRecurrenceRule()
}

// RepeatingWeekdays recurs every week on the listed weekdays.
type RepeatingWeekdays struct {
	Days WeekdaySet
}

func (RepeatingWeekdays) Kind() RuleKind    { return RuleRepeatingWeekdays }
func (RepeatingWeekdays) isRecurrenceRule() {}

// OneShotDueDate occurs once, at Due.
type OneShotDueDate struct {
	Due time.Time
}

func (OneShotDueDate) Kind() RuleKind    { return RuleOneShot }
func (OneShotDueDate) isRecurrenceRule() {}

// FormatRule returns a human-readable description of a rule.
func FormatRule(rule RecurrenceRule) string {
	switch r := rule.(type) {
	case RepeatingWeekdays:
		if r.Days.IsEmpty() {
			return "weekly (no days)"
		}
		if r.Days.Len() == 7 {
			return "daily"
		}
		return fmt.Sprintf("weekly on %s", r.Days)
	case OneShotDueDate:
		return fmt.Sprintf("once on %s", r.Due.Format("2006-01-02 15:04"))
	default:
		return "none"
	}
}
