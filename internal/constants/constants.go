package constants

import "time"

const (
	AppName            = "habitlit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/habitlit"
	DefaultDBPath      = "~/.config/habitlit/habitlit.db"
	DefaultConfigFile  = "~/.config/habitlit/config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is accepted for one-shot due dates (YYYY-MM-DDTHH:MM)
	DateTimeFormat = "2006-01-02T15:04"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitlit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitlit"
	TraySecretHeader       = "X-Habitlit-Secret"

	// Daemon constants
	DefaultDaemonSyncInterval = 30 * time.Second

	// Backup constants
	DefaultBackupKeep = 14
	BackupDirName     = "backups"
	BackupFilePrefix  = "habitlit-"
	BackupFileSuffix  = ".db"

	// Statistics constants
	DefaultStatsDebounce     = 40 * time.Millisecond
	DefaultMaxFilterSelected = 4
	FilterAllID              = "all"
)
