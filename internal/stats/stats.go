// Package stats turns completion records into calendar pills.
package stats

import (
	"time"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Palette supplies the colour of a priority category.
type Palette interface {
	ColorFor(models.Priority) string
}

// Aggregate returns one pill per habit completed on day, in the order of the
// habits slice. Callers pass the already-filtered (visible) habits.
func Aggregate(habits []models.Habit, day time.Time, palette Palette) []models.Pill {
	var pills []models.Pill
	for _, h := range habits {
		count := utils.CompletionCount(h, day)
		if count == 0 {
			continue
		}
		pills = append(pills, newPill(h, count, palette))
	}
	return pills
}

// DecorateMonth returns a copy of section with pills attached to every real
// cell. Blank cells are left untouched.
func DecorateMonth(section calendar.MonthSection, habits []models.Habit, palette Palette) calendar.MonthSection {
	idx := newIndex(habits, section.MonthAnchor.Location())
	cells := make([]calendar.DayCell, len(section.Cells))
	for i, cell := range section.Cells {
		cells[i] = cell
		if cell.IsBlank {
			continue
		}
		cells[i].Pills = idx.pills(cell.Date, palette)
	}
	section.Cells = cells
	return section
}

// Decorate applies DecorateMonth to every section.
func Decorate(sections []calendar.MonthSection, habits []models.Habit, palette Palette) []calendar.MonthSection {
	out := make([]calendar.MonthSection, len(sections))
	for i, s := range sections {
		out[i] = DecorateMonth(s, habits, palette)
	}
	return out
}

// BuildYear builds and decorates the viewed year in one step.
func BuildYear(anchor, now time.Time, cfg calendar.Config, habits []models.Habit, palette Palette) []calendar.MonthSection {
	return Decorate(calendar.BuildYear(anchor, now, cfg), habits, palette)
}

func newPill(h models.Habit, count int, palette Palette) models.Pill {
	return models.Pill{
		HabitID: h.ID,
		Title:   h.Title,
		Color:   palette.ColorFor(h.Priority),
		Count:   count,
	}
}

// index caches day -> count per habit so a month is decorated with one pass
// over the records.
type index struct {
	habits []models.Habit
	counts []map[string]int
	loc    *time.Location
}

func newIndex(habits []models.Habit, loc *time.Location) index {
	idx := index{habits: habits, counts: make([]map[string]int, len(habits)), loc: loc}
	for i, h := range habits {
		m := make(map[string]int, len(h.Records))
		for _, rec := range h.Records {
			// The first record of a day wins, as in utils.CompletionCount.
			key := utils.DayKey(rec.Date, loc)
			if _, ok := m[key]; !ok {
				m[key] = rec.Count
			}
		}
		idx.counts[i] = m
	}
	return idx
}

func (idx index) pills(day time.Time, palette Palette) []models.Pill {
	key := day.In(idx.loc).Format(constants.DateFormat)
	var pills []models.Pill
	for i, h := range idx.habits {
		if count := idx.counts[i][key]; count > 0 {
			pills = append(pills, newPill(h, count, palette))
		}
	}
	return pills
}
