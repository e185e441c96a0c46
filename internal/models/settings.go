package models

// Settings represents application-wide settings
type Settings struct {
	FirstWeekday         Weekday  `json:"first_weekday"`         // first column of the calendar grid (1=Sunday ... 7=Saturday)
	Locale               string   `json:"locale"`                // locale for month and weekday names, e.g. "en_US"
	Timezone             string   `json:"timezone"`              // IANA timezone name or "Local" for the system timezone
	NotificationsEnabled bool     `json:"notifications_enabled"` // global switch; off means reminder authorization is denied
	StatsDebounceMs      int      `json:"stats_debounce_ms"`     // debounce applied to statistics rebuilds
	MaxFilterSelections  int      `json:"max_filter_selections"` // cap on individually selected habits in the statistics filter
	StatsFilter          []string `json:"stats_filter"`          // persisted statistics filter selection
}
