package models

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingFirstWeekday:
			var wd int
			if _, err := fmt.Sscanf(value, "%d", &wd); err != nil {
				return Settings{}, fmt.Errorf("parsing first_weekday: %w", err)
			}
			settings.FirstWeekday = Weekday(wd)
		case constants.SettingLocale:
			settings.Locale = value
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingStatsDebounceMs:
			if _, err := fmt.Sscanf(value, "%d", &settings.StatsDebounceMs); err != nil {
				return Settings{}, fmt.Errorf("parsing stats_debounce_ms: %w", err)
			}
		case constants.SettingMaxFilterSelections:
			if _, err := fmt.Sscanf(value, "%d", &settings.MaxFilterSelections); err != nil {
				return Settings{}, fmt.Errorf("parsing max_filter_selections: %w", err)
			}
		case constants.SettingStatsFilter:
			settings.StatsFilter = splitList(value)
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingFirstWeekday:         fmt.Sprintf("%d", int(settings.FirstWeekday)),
		constants.SettingLocale:               settings.Locale,
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingNotificationsEnabled: fmt.Sprintf("%v", settings.NotificationsEnabled),
		constants.SettingStatsDebounceMs:      fmt.Sprintf("%d", settings.StatsDebounceMs),
		constants.SettingMaxFilterSelections:  fmt.Sprintf("%d", settings.MaxFilterSelections),
		constants.SettingStatsFilter:          strings.Join(settings.StatsFilter, ","),
	}
}

// DefaultSettings returns the settings written by a fresh init.
func DefaultSettings() Settings {
	s := Settings{NotificationsEnabled: constants.DefaultNotificationsEnabled}
	ApplyDefaultSettings(&s)
	return s
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if !settings.FirstWeekday.Valid() {
		settings.FirstWeekday = Weekday(constants.DefaultFirstWeekday)
	}
	if settings.Locale == "" {
		settings.Locale = constants.DefaultLocale
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.StatsDebounceMs <= 0 {
		settings.StatsDebounceMs = constants.DefaultStatsDebounceMs
	}
	if settings.MaxFilterSelections <= 0 {
		settings.MaxFilterSelections = constants.DefaultMaxFilterSelected
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
