package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/pipeline"
	"github.com/julianstephens/habitlit/internal/stats"
	"github.com/julianstephens/habitlit/internal/theme"
	"github.com/julianstephens/habitlit/internal/utils"
)

type StatsCmd struct {
	Year     int    `help:"Year to show (default: current year)."`
	Filter   string `help:"Comma-separated habit IDs to show, or 'all' (default: saved filter)."`
	Archived bool   `help:"Include archived habits."`
	Save     bool   `help:"Save --filter as the default statistics filter."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cfg, err := calendar.ConfigFromSettings(settings)
	if err != nil {
		return err
	}
	now, err := ctx.Now()
	if err != nil {
		return err
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	if c.Archived {
		archives, err := ctx.Store.GetArchivedHabits()
		if err != nil {
			return err
		}
		for _, a := range archives {
			habits = append(habits, a.AsHabit())
		}
	}

	sel := pipeline.NewSelection(settings.StatsFilter...)
	if c.Filter != "" {
		sel = resolveSelection(pipeline.ParseSelection(c.Filter), habits)
	}
	if c.Save {
		settings.StatsFilter = sel.IDs()
		if sel.IsAll() {
			settings.StatsFilter = nil
		}
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	anchor := now
	if c.Year != 0 {
		anchor = time.Date(c.Year, time.January, 1, 0, 0, 0, 0, now.Location())
	}

	palette, err := Palette(ctx)
	if err != nil {
		return err
	}
	result := Build(habits, sel, anchor, now, cfg, palette, settings.MaxFilterSelections)
	fmt.Print(Render(result, cfg, now))
	return nil
}

// resolveSelection expands ID prefixes to the full IDs of tracked habits.
func resolveSelection(sel pipeline.Selection, habits []models.Habit) pipeline.Selection {
	if sel.IsAll() {
		return sel
	}
	var ids []string
	for _, ref := range sel.IDs() {
		for _, h := range habits {
			if strings.HasPrefix(h.ID, ref) {
				ids = append(ids, h.ID)
				break
			}
		}
	}
	return pipeline.NewSelection(ids...)
}

// Palette applies configured colour overrides to the default theme.
func Palette(ctx *cli.Context) (theme.Palette, error) {
	palette := theme.Default()
	if ctx.Config == nil || len(ctx.Config.Theme.Colors) == 0 {
		return palette, nil
	}
	return palette.WithOverrides(ctx.Config.Theme.Colors)
}

// Build runs one pipeline pass and waits for its result.
func Build(habits []models.Habit, sel pipeline.Selection, anchor, now time.Time, cfg calendar.Config, palette stats.Palette, maxSelected int) pipeline.Result {
	results := make(chan pipeline.Result, 1)
	p := pipeline.New(palette, func(r pipeline.Result) { results <- r },
		pipeline.WithClock(utils.NewFixedClock(now)),
		pipeline.WithDebounce(0),
		pipeline.WithConfig(cfg),
		pipeline.WithSelection(sel),
		pipeline.WithMaxSelections(maxSelected),
		pipeline.WithAnchor(anchor),
	)
	defer p.Close()

	p.SetHabits(habits)
	return <-results
}

// Render prints each month as a grid of day numbers, marking completed days
// with the number of visible habits done, followed by per-habit rates.
func Render(r pipeline.Result, cfg calendar.Config, now time.Time) string {
	var b strings.Builder

	if len(r.Sections) == 0 {
		fmt.Fprintf(&b, "No statistics for %d yet.\n", r.Anchor.Year())
		return b.String()
	}

	header := calendar.WeekdayHeader(cfg)
	for _, m := range r.Sections {
		fmt.Fprintf(&b, "%s\n", m.DisplayTitle)
		for _, h := range header {
			fmt.Fprintf(&b, "%-5s", h)
		}
		b.WriteString("\n")
		for _, week := range m.Weeks() {
			for _, cell := range week {
				b.WriteString(formatCell(cell))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	from := time.Date(r.Anchor.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	to := time.Date(r.Anchor.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
	if to.After(now) {
		to = now
	}
	for _, s := range stats.Summarize(r.Visible, from, to) {
		fmt.Fprintf(&b, "%-24s %3d/%-3d due days done (%3.0f%%), %d completions\n",
			s.Title, s.DueCompleted, s.DueDays, s.Rate()*100, s.TotalCount)
	}
	return b.String()
}

func formatCell(cell calendar.DayCell) string {
	if cell.IsBlank {
		return "     "
	}
	marker := " "
	if n := len(cell.Pills); n > 0 {
		marker = fmt.Sprintf("%d", n)
		if n > 9 {
			marker = "+"
		}
	}
	day := fmt.Sprintf("%2d", cell.Date.Day())
	if cell.IsToday {
		return fmt.Sprintf("[%s]%s", day, marker)
	}
	return fmt.Sprintf(" %s %s", day, marker)
}
