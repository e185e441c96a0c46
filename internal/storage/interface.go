package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

// ErrNotFound is returned when a requested habit or archive does not exist.
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Migrate applies pending schema migrations, reporting progress to logFn.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion returns the database version and the latest embedded one.
	SchemaVersion() (current int, latest int, err error)

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetAllHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	// DeleteHabit removes the habit and, by cascade, its records.
	DeleteHabit(id string) error
	// ArchiveHabit moves the habit to the archive and reparents its records.
	ArchiveHabit(id string, at time.Time) (models.ArchivedHabit, error)
	GetArchivedHabits() ([]models.ArchivedHabit, error)

	// Completion records
	UpsertCompletionRecord(habitID string, rec models.CompletionRecord) error
	DeleteCompletionRecord(id string) error

	// Notifications
	SaveScheduledNotification(models.ScheduledNotification) error
	DeleteScheduledNotifications(keys []string) error
	GetScheduledNotifications() ([]models.ScheduledNotification, error)
	RecordDelivery(models.Delivery) error
	DeleteDeliveries(keys []string) error
	GetDeliveries() ([]models.Delivery, error)

	// Utils
	GetConfigPath() string
}
