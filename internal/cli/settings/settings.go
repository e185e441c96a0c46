package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
	Set  SettingsSetCmd  `cmd:"" help:"Change a setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	fmt.Println("Current Settings:")
	fmt.Printf("  First Weekday:         %s\n", settings.FirstWeekday)
	fmt.Printf("  Locale:                %s\n", settings.Locale)
	fmt.Printf("  Timezone:              %s\n", settings.Timezone)
	fmt.Println("\nNotification Settings:")
	fmt.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)
	fmt.Println("\nStatistics Settings:")
	fmt.Printf("  Debounce:              %d ms\n", settings.StatsDebounceMs)
	fmt.Printf("  Max Filter Selections: %d\n", settings.MaxFilterSelections)
	filter := "all"
	if len(settings.StatsFilter) > 0 {
		filter = strings.Join(settings.StatsFilter, ",")
	}
	fmt.Printf("  Filter:                %s\n", filter)
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting key (first_weekday, locale, timezone, notifications_enabled, stats_debounce_ms, max_filter_selections, stats_filter)."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	before := settings

	if err := Apply(&settings, c.Key, c.Value); err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Printf("Set %s = %s\n", c.Key, c.Value)

	switch {
	case before.NotificationsEnabled && !settings.NotificationsEnabled:
		return cancelAll(ctx)
	case !before.NotificationsEnabled && settings.NotificationsEnabled,
		settings.NotificationsEnabled && before.Timezone != settings.Timezone:
		return rescheduleAll(ctx)
	}
	return nil
}

// Apply parses value and stores it in the field named by key.
func Apply(settings *models.Settings, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case constants.SettingFirstWeekday:
		wd, err := models.ParseWeekday(value)
		if err != nil {
			return err
		}
		settings.FirstWeekday = wd
	case constants.SettingLocale:
		if value == "" {
			return fmt.Errorf("locale cannot be empty")
		}
		settings.Locale = value
	case constants.SettingTimezone:
		if !utils.ValidateTimezone(value) {
			return fmt.Errorf("invalid timezone: %s", value)
		}
		settings.Timezone = value
	case constants.SettingNotificationsEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		settings.NotificationsEnabled = b
	case constants.SettingStatsDebounceMs:
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		settings.StatsDebounceMs = n
	case constants.SettingMaxFilterSelections:
		n, err := positiveInt(key, value)
		if err != nil {
			return err
		}
		settings.MaxFilterSelections = n
	case constants.SettingStatsFilter:
		settings.StatsFilter = nil
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" && id != constants.FilterAllID {
				settings.StatsFilter = append(settings.StatsFilter, id)
			}
		}
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

func rescheduleAll(ctx *cli.Context) error {
	// The scheduler captured the old timezone.
	ctx.Scheduler = nil

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	for _, h := range habits {
		if err := ctx.Reschedule(h); err != nil {
			return fmt.Errorf("failed to reschedule %s: %w", h.Title, err)
		}
	}
	logger.Info("Rescheduled reminders after settings change", "habits", len(habits))
	fmt.Printf("Rescheduled reminders for %d habit(s).\n", len(habits))
	return nil
}

func cancelAll(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	for _, h := range habits {
		if err := ctx.CancelReminders(h.ID); err != nil {
			return err
		}
	}
	fmt.Printf("Cleared reminders for %d habit(s).\n", len(habits))
	return nil
}
