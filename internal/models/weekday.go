package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// Weekday numbers the days of the week Sunday-first: 1=Sunday ... 7=Saturday.
// The zero value means "no weekday".
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// AllWeekdays lists every weekday in canonical order.
var AllWeekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// symbolReference is a Sunday; adding (w-1) days yields a date falling on w.
var symbolReference = time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC)

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return FromTimeWeekday(t.Weekday())
}

// FromTimeWeekday converts a time.Weekday (0=Sunday) to a Weekday.
func FromTimeWeekday(wd time.Weekday) Weekday {
	return Weekday(wd) + 1
}

// TimeWeekday converts back to the standard library representation.
func (w Weekday) TimeWeekday() time.Weekday {
	return time.Weekday(w - 1)
}

// Valid reports whether w is one of the seven weekdays.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return w.TimeWeekday().String()
}

// ShortSymbol returns the abbreviated weekday name for the given locale
// (e.g. "Mon" for en_US, "Mo" for de_DE).
func (w Weekday) ShortSymbol(locale string) string {
	if !w.Valid() {
		return ""
	}
	day := symbolReference.AddDate(0, 0, int(w)-1)
	return monday.Format(day, "Mon", monday.Locale(locale))
}

// OrderedWeekdays returns the seven weekdays starting at first. An invalid
// first weekday falls back to Sunday.
func OrderedWeekdays(first Weekday) []Weekday {
	if !first.Valid() {
		first = Sunday
	}
	days := make([]Weekday, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, Weekday((int(first)-1+i)%7+1))
	}
	return days
}

var weekdayNames = map[string]Weekday{
	"sun":       Sunday,
	"sunday":    Sunday,
	"mon":       Monday,
	"monday":    Monday,
	"tue":       Tuesday,
	"tuesday":   Tuesday,
	"wed":       Wednesday,
	"wednesday": Wednesday,
	"thu":       Thursday,
	"thursday":  Thursday,
	"fri":       Friday,
	"friday":    Friday,
	"sat":       Saturday,
	"saturday":  Saturday,
}

// ParseWeekday accepts English day names or abbreviations, or a number
// (1=Sunday, 7=Saturday).
func ParseWeekday(s string) (Weekday, error) {
	part := strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[part]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(part)
	if err == nil && Weekday(num).Valid() {
		return Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseWeekdays parses a comma-separated list of weekdays into a set.
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		wd, err := ParseWeekday(part)
		if err != nil {
			return 0, err
		}
		set = set.Add(wd)
	}
	return set, nil
}

// WeekdaySet is a bit set of weekdays. Bit (w-1) is set when w is a member.
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays, ignoring invalid values.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

func (s WeekdaySet) Has(w Weekday) bool {
	return w.Valid() && s&(1<<uint(w-1)) != 0
}

func (s WeekdaySet) Add(w Weekday) WeekdaySet {
	if !w.Valid() {
		return s
	}
	return s | 1<<uint(w-1)
}

func (s WeekdaySet) Remove(w Weekday) WeekdaySet {
	if !w.Valid() {
		return s
	}
	return s &^ (1 << uint(w-1))
}

func (s WeekdaySet) Len() int {
	n := 0
	for _, w := range AllWeekdays {
		if s.Has(w) {
			n++
		}
	}
	return n
}

func (s WeekdaySet) IsEmpty() bool {
	return s&0x7f == 0
}

// Days returns the members in canonical (Sunday-first) order.
func (s WeekdaySet) Days() []Weekday {
	var days []Weekday
	for _, w := range AllWeekdays {
		if s.Has(w) {
			days = append(days, w)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}
