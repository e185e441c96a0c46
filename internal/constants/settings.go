package constants

const (
	// Calendar Settings
	SettingFirstWeekday = "first_weekday"
	SettingLocale       = "locale"
	SettingTimezone     = "timezone"

	// Notification Settings
	SettingNotificationsEnabled = "notifications_enabled"

	// Statistics Settings
	SettingStatsDebounceMs     = "stats_debounce_ms"
	SettingMaxFilterSelections = "max_filter_selections"
	SettingStatsFilter         = "stats_filter"

	// Default Settings Values
	DefaultFirstWeekday         = 1 // Sunday
	DefaultLocale               = "en_US"
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultNotificationsEnabled = true
	DefaultStatsDebounceMs      = 40
)
