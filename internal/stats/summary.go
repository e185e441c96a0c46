package stats

import (
	"time"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Summary is a per-habit roll-up over a date range.
type Summary struct {
	HabitID       string
	Title         string
	DueDays       int
	CompletedDays int
	DueCompleted  int
	TotalCount    int
}

// Rate is the share of due days that were completed, in [0, 1].
func (s Summary) Rate() float64 {
	if s.DueDays == 0 {
		return 0
	}
	return float64(s.DueCompleted) / float64(s.DueDays)
}

// Summarize rolls up each habit over the calendar days from..to inclusive.
func Summarize(habits []models.Habit, from, to time.Time) []Summary {
	from = utils.StartOfDay(from)
	to = utils.StartOfDay(to.In(from.Location()))
	out := make([]Summary, 0, len(habits))
	for _, h := range habits {
		s := Summary{HabitID: h.ID, Title: h.Title}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			due := utils.IsDue(h, d)
			count := utils.CompletionCount(h, d)
			if due {
				s.DueDays++
			}
			if count > 0 {
				s.CompletedDays++
				s.TotalCount += count
				if due {
					s.DueCompleted++
				}
			}
		}
		out = append(out, s)
	}
	return out
}
