package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/config"
	clierrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Context is handed to every command's Run method by kong.
type Context struct {
	Store  storage.Provider
	Config *config.Config
	Clock  utils.Clock

	// Scheduler is built on first use from the stored settings unless a
	// command or test supplies one.
	Scheduler *notifier.Scheduler
}

// Now returns the current time in the configured timezone.
func (c *Context) Now() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return c.clock().Now().In(loc), nil
}

func (c *Context) clock() utils.Clock {
	if c.Clock == nil {
		return utils.RealClock{}
	}
	return c.Clock
}

// Location resolves the timezone setting.
func (c *Context) Location() (*time.Location, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return loc, nil
}

// Backups returns the snapshot manager of the SQLite database. Other stores
// have no file to snapshot.
func (c *Context) Backups() (*backup.Manager, error) {
	s, ok := c.Store.(*sqlite.Store)
	if !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite storage")
	}
	keep := 0
	if c.Config != nil {
		keep = c.Config.Backup.Keep
	}
	return backup.NewManager(s.GetConfigPath(), backup.WithKeep(keep), backup.WithClock(c.clock())), nil
}

// PerformAutomaticBackup snapshots the SQLite database before a destructive
// operation. Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup(reason string) {
	mgr, err := c.Backups()
	if err != nil {
		return
	}
	snap, err := mgr.Create()
	if err != nil {
		logger.Warn("Automatic backup failed", "reason", reason, "error", err)
		return
	}
	logger.Info("Automatic backup created", "reason", reason, "path", snap.Path)
}

// Reminders returns the scheduler that writes to the store-backed center.
func (c *Context) Reminders() (*notifier.Scheduler, error) {
	if c.Scheduler != nil {
		return c.Scheduler, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	c.Scheduler = notifier.NewScheduler(
		notifier.NewStoreCenter(c.Store),
		notifier.WithClock(c.clock()),
		notifier.WithLocation(loc),
	)
	return c.Scheduler, nil
}

// Reschedule brings the habit's reminders in line with its rule. Denied
// authorization and partial failures leave the habit saved, so they are
// reported as warnings.
func (c *Context) Reschedule(h models.Habit) error {
	s, err := c.Reminders()
	if err != nil {
		return err
	}
	err = s.Reschedule(context.Background(), h)
	var partial *notifier.PartialFailureError
	if errors.Is(err, notifier.ErrAuthorizationDenied) || errors.As(err, &partial) {
		clierrors.Warn(err)
		return nil
	}
	return err
}

// CancelReminders removes every reminder the habit could have registered.
func (c *Context) CancelReminders(habitID string) error {
	s, err := c.Reminders()
	if err != nil {
		return err
	}
	if err := s.Cancel(context.Background(), habitID); err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	logger.Debug("Cancelled reminders", "habit", habitID)
	return nil
}

// FindHabit resolves ref as a habit ID, a unique ID prefix or an exact
// (case-insensitive) title.
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, fmt.Errorf("habit reference cannot be empty")
	}
	if h, err := c.Store.GetHabit(ref); err == nil {
		return h, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}

	habits, err := c.Store.GetAllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	var matches []models.Habit
	for _, h := range habits {
		if strings.HasPrefix(h.ID, ref) || strings.EqualFold(h.Title, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("habit %q: %w", ref, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("habit reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ParseRule builds a recurrence rule from --days or --due. Exactly one must be
// set.
func ParseRule(days, due string, loc *time.Location) (models.RecurrenceRule, error) {
	days, due = strings.TrimSpace(days), strings.TrimSpace(due)
	switch {
	case days != "" && due != "":
		return nil, fmt.Errorf("--days and --due are mutually exclusive")
	case days != "":
		set, err := models.ParseWeekdays(days)
		if err != nil {
			return nil, err
		}
		return models.RepeatingWeekdays{Days: set}, nil
	case due != "":
		t, err := utils.ParseDateTimeInLocation(due, loc)
		if err != nil {
			return nil, err
		}
		return models.OneShotDueDate{Due: t}, nil
	default:
		return nil, fmt.Errorf("one of --days or --due is required")
	}
}

// ParseDay parses an optional YYYY-MM-DD flag, defaulting to today.
func (c *Context) ParseDay(value string) (time.Time, error) {
	now, err := c.Now()
	if err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(value) == "" {
		return now, nil
	}
	d, err := utils.ParseDateInLocation(value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", value)
	}
	return d, nil
}
