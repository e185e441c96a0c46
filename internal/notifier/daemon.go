package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/utils"
)

// DaemonStore is what the daemon reads pending reminders from and writes
// deliveries to.
type DaemonStore interface {
	GetScheduledNotifications() ([]models.ScheduledNotification, error)
	DeleteScheduledNotifications(keys []string) error
	RecordDelivery(models.Delivery) error
}

// Daemon fires persisted reminders on a cron schedule. It periodically
// resyncs with the store so edits made by other processes are picked up.
type Daemon struct {
	store    DaemonStore
	sender   Sender
	clock    utils.Clock
	loc      *time.Location
	interval time.Duration
	cron     *cron.Cron

	mu      sync.Mutex
	entries map[string]daemonEntry
}

type daemonEntry struct {
	id          cron.EntryID
	fingerprint string
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

func WithDaemonClock(c utils.Clock) DaemonOption {
	return func(d *Daemon) { d.clock = c }
}

func WithDaemonLocation(loc *time.Location) DaemonOption {
	return func(d *Daemon) {
		if loc != nil {
			d.loc = loc
		}
	}
}

func WithSyncInterval(interval time.Duration) DaemonOption {
	return func(d *Daemon) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

func NewDaemon(store DaemonStore, sender Sender, opts ...DaemonOption) *Daemon {
	d := &Daemon{
		store:    store,
		sender:   sender,
		clock:    utils.RealClock{},
		loc:      time.Local,
		interval: constants.DefaultDaemonSyncInterval,
		entries:  make(map[string]daemonEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cron = cron.New(cron.WithLocation(d.loc))
	return d
}

// CronSpec converts a trigger to a five-field cron expression. Cron numbers
// weekdays from 0 (Sunday).
func CronSpec(t models.Trigger) (string, error) {
	switch tr := t.(type) {
	case models.WeeklyTrigger:
		if !tr.Weekday.Valid() {
			return "", fmt.Errorf("invalid weekday %d", int(tr.Weekday))
		}
		return fmt.Sprintf("%d %d * * %d", tr.Minute, tr.Hour, int(tr.Weekday)-1), nil
	case models.DateTrigger:
		return fmt.Sprintf("%d %d %d %d *", tr.Minute, tr.Hour, tr.Day, int(tr.Month)), nil
	default:
		return "", fmt.Errorf("unsupported trigger %T", t)
	}
}

// Run syncs, starts the cron loop and blocks until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

func (d *Daemon) Start() error {
	if err := d.Sync(); err != nil {
		return err
	}
	if _, err := d.cron.AddFunc(fmt.Sprintf("@every %s", d.interval), func() {
		if err := d.Sync(); err != nil {
			logger.Error("Failed to sync reminders", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to add sync job: %w", err)
	}
	d.cron.Start()
	logger.Info("Reminder daemon started", "interval", d.interval, "location", d.loc.String())
	return nil
}

func (d *Daemon) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	logger.Info("Reminder daemon stopped")
}

// Sync makes the cron entries match the store's pending reminders. Expired
// one-shot reminders are dropped from the store.
func (d *Daemon) Sync() error {
	pending, err := d.store.GetScheduledNotifications()
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	now := d.clock.Now().In(d.loc)
	var expired []string
	seen := make(map[string]struct{}, len(pending))

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range pending {
		if dt, ok := n.Trigger.(models.DateTrigger); ok && dt.Time(d.loc).Before(now) {
			expired = append(expired, n.Key)
			continue
		}
		spec, err := CronSpec(n.Trigger)
		if err != nil {
			logger.Warn("Skipping reminder", "key", n.Key, "error", err)
			continue
		}
		seen[n.Key] = struct{}{}
		fp := spec + "|" + n.Title + "|" + n.Body
		if existing, ok := d.entries[n.Key]; ok {
			if existing.fingerprint == fp {
				continue
			}
			d.cron.Remove(existing.id)
		}
		note := n
		id, err := d.cron.AddFunc(spec, func() { d.fire(note) })
		if err != nil {
			delete(d.entries, n.Key)
			logger.Warn("Failed to register reminder", "key", n.Key, "spec", spec, "error", err)
			continue
		}
		d.entries[n.Key] = daemonEntry{id: id, fingerprint: fp}
	}

	for key, entry := range d.entries {
		if _, ok := seen[key]; !ok {
			d.cron.Remove(entry.id)
			delete(d.entries, key)
		}
	}

	if len(expired) > 0 {
		if err := d.store.DeleteScheduledNotifications(expired); err != nil {
			return fmt.Errorf("failed to drop expired reminders: %w", err)
		}
	}
	logger.Debug("Synced reminders", "registered", len(d.entries), "expired", len(expired))
	return nil
}

func (d *Daemon) fire(n models.ScheduledNotification) {
	now := d.clock.Now().In(d.loc)
	dt, oneShot := n.Trigger.(models.DateTrigger)
	if oneShot && dt.Year != now.Year() {
		return
	}

	if err := d.sender.Notify(n.Body); err != nil {
		logger.Warn("Failed to deliver reminder", "key", n.Key, "error", err)
		return
	}
	if err := d.store.RecordDelivery(models.Delivery{Key: n.Key, HabitID: n.HabitID, DeliveredAt: now}); err != nil {
		logger.Warn("Failed to record delivery", "key", n.Key, "error", err)
	}

	if oneShot {
		d.mu.Lock()
		if entry, ok := d.entries[n.Key]; ok {
			d.cron.Remove(entry.id)
			delete(d.entries, n.Key)
		}
		d.mu.Unlock()
		if err := d.store.DeleteScheduledNotifications([]string{n.Key}); err != nil {
			logger.Warn("Failed to remove fired reminder", "key", n.Key, "error", err)
		}
	}
}

func (d *Daemon) registered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
