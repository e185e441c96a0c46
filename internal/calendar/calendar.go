// Package calendar builds padded month grids for the statistics views.
//
// Every function here is pure: given the same anchor, "now" and Config it
// returns the same sections, and it is safe to call from any goroutine.
package calendar

import (
	"fmt"
	"time"

	"github.com/goodsign/monday"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Config carries the locale-dependent parameters of a grid.
type Config struct {
	FirstWeekday models.Weekday
	Location     *time.Location
	Locale       string
}

// DefaultConfig is a Sunday-first, en_US grid in the system timezone.
func DefaultConfig() Config {
	return Config{
		FirstWeekday: models.Weekday(constants.DefaultFirstWeekday),
		Location:     time.Local,
		Locale:       constants.DefaultLocale,
	}
}

// ConfigFromSettings derives a grid configuration from stored settings.
func ConfigFromSettings(s models.Settings) (Config, error) {
	models.ApplyDefaultSettings(&s)
	loc, err := utils.LoadLocation(s.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return Config{FirstWeekday: s.FirstWeekday, Location: loc, Locale: s.Locale}, nil
}

func (c Config) normalized() Config {
	if !c.FirstWeekday.Valid() {
		c.FirstWeekday = models.Sunday
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Locale == "" {
		c.Locale = constants.DefaultLocale
	}
	return c
}

// DayCell is one slot of a month grid. Blank cells pad the grid at month
// boundaries; they carry the zero Date and never receive pills.
type DayCell struct {
	Date                  time.Time
	BelongsToVisibleMonth bool
	IsToday               bool
	Pills                 []models.Pill
	IsBlank               bool
}

// MonthSection is a rectangular (7-wide) grid for one month.
type MonthSection struct {
	MonthAnchor  time.Time
	DisplayTitle string
	Cells        []DayCell
	FirstWeekday models.Weekday
	Locale       string
}

// Weeks splits the cells into rows of seven.
func (m MonthSection) Weeks() [][]DayCell {
	weeks := make([][]DayCell, 0, len(m.Cells)/7)
	for i := 0; i+7 <= len(m.Cells); i += 7 {
		weeks = append(weeks, m.Cells[i:i+7])
	}
	return weeks
}

// Stale reports whether the section was built with a different week start or
// locale than cfg. Stale sections must be rebuilt, not patched.
func (m MonthSection) Stale(cfg Config) bool {
	cfg = cfg.normalized()
	return m.FirstWeekday != cfg.FirstWeekday || m.Locale != cfg.Locale
}

// LeadingBlanks returns how many blank cells precede the first day of a month
// whose first day falls on first, in a grid starting on weekStart.
func LeadingBlanks(first, weekStart models.Weekday) int {
	return (int(first) - int(weekStart) + 7) % 7
}

// BuildMonth builds the grid for the month containing anchor.
func BuildMonth(anchor, now time.Time, cfg Config) MonthSection {
	cfg = cfg.normalized()
	monthStart := utils.StartOfMonth(anchor.In(cfg.Location))
	today := now.In(cfg.Location)
	days := utils.DaysInMonth(monthStart)

	leading := LeadingBlanks(models.WeekdayOf(monthStart), cfg.FirstWeekday)
	total := leading + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	cells := make([]DayCell, 0, total)
	for i := 0; i < leading; i++ {
		cells = append(cells, DayCell{IsBlank: true})
	}
	for day := 1; day <= days; day++ {
		date := time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, cfg.Location)
		cells = append(cells, DayCell{
			Date:                  date,
			BelongsToVisibleMonth: true,
			IsToday:               utils.SameDay(today, date),
		})
	}
	for len(cells) < total {
		cells = append(cells, DayCell{IsBlank: true})
	}

	return MonthSection{
		MonthAnchor:  monthStart,
		DisplayTitle: monday.Format(monthStart, "January 2006", monday.Locale(cfg.Locale)),
		Cells:        cells,
		FirstWeekday: cfg.FirstWeekday,
		Locale:       cfg.Locale,
	}
}

// BuildYear builds January of anchor's year through the lesser of December
// and the current month. Months after now are never shown, so a year that has
// not started yet yields no sections.
func BuildYear(anchor, now time.Time, cfg Config) []MonthSection {
	cfg = cfg.normalized()
	anchor = anchor.In(cfg.Location)
	now = now.In(cfg.Location)

	last := time.December
	switch {
	case anchor.Year() > now.Year():
		return nil
	case anchor.Year() == now.Year():
		last = now.Month()
	}

	sections := make([]MonthSection, 0, int(last))
	for m := time.January; m <= last; m++ {
		monthAnchor := time.Date(anchor.Year(), m, 1, 0, 0, 0, 0, cfg.Location)
		sections = append(sections, BuildMonth(monthAnchor, now, cfg))
	}
	return sections
}

// WeekdayHeader returns the localized short weekday symbols in grid order.
func WeekdayHeader(cfg Config) []string {
	cfg = cfg.normalized()
	days := models.OrderedWeekdays(cfg.FirstWeekday)
	header := make([]string, len(days))
	for i, d := range days {
		header[i] = d.ShortSymbol(cfg.Locale)
	}
	return header
}
