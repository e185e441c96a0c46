package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Clock/timezone", needsDB: true, run: checkClockTimezone},
	{name: "Habit integrity", needsDB: true, run: checkHabitsIntegrity},
	{name: "Completion records", needsDB: true, run: checkCompletionRecords},
	{name: "Reminder consistency", needsDB: true, warnOnly: true, run: checkReminders},
	{name: "Backups", needsDB: true, warnOnly: true, run: checkBackups},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
	{name: "Tray app", warnOnly: true, run: checkTray},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'habitlit migrate')", current, latest)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := ctx.Location(); err != nil {
		return err
	}
	return nil
}

func checkHabitsIntegrity(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	seen := make(map[string]bool, len(habits))
	for _, h := range habits {
		if seen[h.ID] {
			return fmt.Errorf("duplicate habit ID found: %s", h.ID)
		}
		seen[h.ID] = true
		if err := h.Validate(); err != nil {
			return fmt.Errorf("habit %s: %w", h.ID, err)
		}
	}
	return nil
}

// checkCompletionRecords enforces at most one record per habit and day.
func checkCompletionRecords(ctx *cli.Context) error {
	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	for _, h := range habits {
		days := make(map[string]bool, len(h.Records))
		for _, r := range h.Records {
			key := utils.DayKey(r.Date, loc)
			if days[key] {
				return fmt.Errorf("habit %s has more than one record on %s", h.ID, key)
			}
			days[key] = true
			if r.Count < 1 {
				return fmt.Errorf("record %s has invalid count %d", r.ID, r.Count)
			}
		}
	}
	return nil
}

// checkReminders compares stored reminders with what each habit's rule
// derives right now.
func checkReminders(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	loc, err := ctx.Location()
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
	pending, err := ctx.Store.GetScheduledNotifications()
	if err != nil {
		return err
	}

	stored := make(map[string]bool, len(pending))
	for _, n := range pending {
		stored[n.Key] = true
	}

	var missing []string
	expected := make(map[string]bool)
	for _, h := range habits {
		if !h.NotificationEnabled || !settings.NotificationsEnabled {
			continue
		}
		for _, req := range notifier.Requests(h, now, loc) {
			expected[req.Key] = true
			if !stored[req.Key] {
				missing = append(missing, req.Key)
			}
		}
	}
	var orphaned []string
	for key := range stored {
		if !expected[key] {
			orphaned = append(orphaned, key)
		}
	}
	sort.Strings(orphaned)

	if len(missing) > 0 || len(orphaned) > 0 {
		return fmt.Errorf("%d missing and %d stale reminder(s); run 'habitlit habit edit <id>' to reschedule (stale: %v)",
			len(missing), len(orphaned), orphaned)
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); !ok {
		return nil
	}
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; PostgreSQL credentials must come from the environment or .pgpass")
	}
	return nil
}

func checkTray(_ *cli.Context) error {
	dir, err := notifier.GetTrayAppConfigDir()
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, constants.NotifierLockfileName)); err != nil {
		return fmt.Errorf("tray app is not running; reminders will not be shown")
	}
	return nil
}


func checkBackups(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	snaps, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'habitlit backup create'")
	}
	return nil
}
