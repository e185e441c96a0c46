package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/utils"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	Edit    HabitEditCmd    `cmd:"" help:"Edit a habit and reschedule its reminders."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Done    HabitDoneCmd    `cmd:"" help:"Record a completion for a day."`
	Undo    HabitUndoCmd    `cmd:"" help:"Remove a completion for a day."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit, keeping its history for statistics."`
	Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
}

type HabitAddCmd struct {
	Title    string `arg:"" help:"Habit title."`
	Days     string `help:"Comma-separated weekdays (e.g. mon,wed,fri)." xor:"rule"`
	Due      string `help:"One-shot due date (YYYY-MM-DD or YYYY-MM-DDTHH:MM)." xor:"rule"`
	Time     string `help:"Reminder time (HH:MM)." default:"09:00"`
	Priority string `help:"Priority category (urgent-important, important, urgent, neither)." default:"neither"`
	NoNotify bool   `help:"Do not schedule reminders."`
	DryRun   bool   `help:"Show the reminders that would be scheduled without saving."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	now, err := ctx.Now()
	if err != nil {
		return err
	}

	rule, err := cli.ParseRule(c.Days, c.Due, now.Location())
	if err != nil {
		return err
	}
	reminder, err := utils.ParseTimeOfDay(c.Time)
	if err != nil {
		return err
	}
	priority, err := models.ParsePriority(c.Priority)
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:                  uuid.New().String(),
		Title:               strings.TrimSpace(c.Title),
		Priority:            priority,
		Rule:                rule,
		Reminder:            reminder,
		NotificationEnabled: !c.NoNotify,
		CreatedAt:           now,
	}
	if err := habit.Validate(); err != nil {
		return err
	}

	if c.DryRun {
		return previewReminders(ctx, habit)
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}
	fmt.Printf("Added habit %s (%s): %s\n", habit.Title, shortID(habit.ID), models.FormatRule(habit.Rule))

	return ctx.Reschedule(habit)
}

// previewReminders runs the scheduler against an in-memory center and prints
// what it registered.
func previewReminders(ctx *cli.Context, habit models.Habit) error {
	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	center := notifier.NewMemoryCenter()
	s := notifier.NewScheduler(center, notifier.WithClock(clockOf(ctx)), notifier.WithLocation(loc))
	if err := s.Reschedule(context.Background(), habit); err != nil {
		return err
	}

	pending := center.Pending()
	if len(pending) == 0 {
		fmt.Println("[DryRun] No reminders would be scheduled.")
		return nil
	}
	for _, n := range pending {
		fmt.Printf("[DryRun] %s  %s  %q\n", n.Key, describeTrigger(n.Trigger), n.Body)
	}
	return nil
}

func clockOf(ctx *cli.Context) utils.Clock {
	if ctx.Clock == nil {
		return utils.RealClock{}
	}
	return ctx.Clock
}

func describeTrigger(t models.Trigger) string {
	switch tr := t.(type) {
	case models.WeeklyTrigger:
		return fmt.Sprintf("every %s at %02d:%02d", tr.Weekday, tr.Hour, tr.Minute)
	case models.DateTrigger:
		return fmt.Sprintf("once on %04d-%02d-%02d at %02d:%02d", tr.Year, int(tr.Month), tr.Day, tr.Hour, tr.Minute)
	default:
		return "unknown trigger"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type HabitEditCmd struct {
	ID       string  `arg:"" help:"Habit ID, ID prefix or title."`
	Title    *string `help:"New title."`
	Days     *string `help:"Replace the rule with these weekdays." xor:"rule"`
	Due      *string `help:"Replace the rule with a one-shot due date." xor:"rule"`
	Time     *string `help:"New reminder time (HH:MM)."`
	Priority *string `help:"New priority category."`
	Notify   bool    `help:"Enable reminders." xor:"notify"`
	NoNotify bool    `help:"Disable reminders." xor:"notify"`
}

// Run saves the edit and always reschedules, even when nothing changed, so
// that `habit edit ID` repairs a habit's reminders.
func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.ID)
	if err != nil {
		return err
	}

	if c.Title != nil {
		habit.Title = strings.TrimSpace(*c.Title)
	}
	if c.Days != nil || c.Due != nil {
		loc, err := ctx.Location()
		if err != nil {
			return err
		}
		rule, err := cli.ParseRule(deref(c.Days), deref(c.Due), loc)
		if err != nil {
			return err
		}
		habit.Rule = rule
	}
	if c.Time != nil {
		reminder, err := utils.ParseTimeOfDay(*c.Time)
		if err != nil {
			return err
		}
		habit.Reminder = reminder
	}
	if c.Priority != nil {
		priority, err := models.ParsePriority(*c.Priority)
		if err != nil {
			return err
		}
		habit.Priority = priority
	}
	if c.Notify {
		habit.NotificationEnabled = true
	}
	if c.NoNotify {
		habit.NotificationEnabled = false
	}

	if err := habit.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.UpdateHabit(habit); err != nil {
		return err
	}
	fmt.Printf("Updated habit %s: %s\n", habit.Title, models.FormatRule(habit.Rule))

	return ctx.Reschedule(habit)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type HabitListCmd struct {
	Archived bool `help:"List archived habits instead."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if c.Archived {
		archives, err := ctx.Store.GetArchivedHabits()
		if err != nil {
			return err
		}
		if len(archives) == 0 {
			fmt.Println("No archived habits found.")
			return nil
		}
		for _, a := range archives {
			fmt.Printf("%s  %-24s archived %s  (%d records)\n",
				shortID(a.HabitID), a.Title, a.ArchivedAt.Format("2006-01-02"), len(a.Records))
		}
		return nil
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	now, err := ctx.Now()
	if err != nil {
		return err
	}
	for _, h := range habits {
		status := "[ ]"
		if utils.IsCompleted(h, now) {
			status = "[x]"
		}
		next := "-"
		if !h.NotificationEnabled {
			next = "off"
		} else if at, ok := utils.NextOccurrence(h, now); ok {
			next = at.Format("Mon Jan 2 15:04")
		}
		fmt.Printf("%s %s  %-24s %-20s %-16s next: %s\n",
			status, shortID(h.ID), h.Title, models.FormatRule(h.Rule), h.Priority, next)
	}
	return nil
}

type HabitDoneCmd struct {
	ID   string `arg:"" help:"Habit ID, ID prefix or title."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.ID)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}

	rec := utils.Complete(&habit, day)
	if err := ctx.Store.UpsertCompletionRecord(habit.ID, rec); err != nil {
		return err
	}
	fmt.Printf("Marked %s done for %s (count %d)\n", habit.Title, day.Format("2006-01-02"), rec.Count)
	return nil
}

type HabitUndoCmd struct {
	ID   string `arg:"" help:"Habit ID, ID prefix or title."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitUndoCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.ID)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}

	rec, found := utils.Uncomplete(&habit, day)
	if !found {
		fmt.Printf("%s has no completion on %s\n", habit.Title, day.Format("2006-01-02"))
		return nil
	}
	if rec.Count == 0 {
		err = ctx.Store.DeleteCompletionRecord(rec.ID)
	} else {
		err = ctx.Store.UpsertCompletionRecord(habit.ID, rec)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Removed a completion of %s on %s (count %d)\n", habit.Title, day.Format("2006-01-02"), rec.Count)
	return nil
}

type HabitArchiveCmd struct {
	ID string `arg:"" help:"Habit ID, ID prefix or title."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.ID)
	if err != nil {
		return err
	}
	now, err := ctx.Now()
	if err != nil {
		return err
	}

	if _, err := ctx.Store.ArchiveHabit(habit.ID, now); err != nil {
		return err
	}
	if err := ctx.CancelReminders(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Archived habit %s (%d records kept)\n", habit.Title, len(habit.Records))
	return nil
}

type HabitDeleteCmd struct {
	ID string `arg:"" help:"Habit ID, ID prefix or title."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.ID)
	if err != nil {
		return err
	}

	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}
	if err := ctx.CancelReminders(habit.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit %s\n", habit.Title)
	return nil
}
