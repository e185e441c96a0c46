package notifier

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitlit/internal/models"
)

// NotificationStore is the persistence the store-backed center writes to.
type NotificationStore interface {
	SaveScheduledNotification(models.ScheduledNotification) error
	DeleteScheduledNotifications(keys []string) error
	DeleteDeliveries(keys []string) error
	GetSettings() (models.Settings, error)
}

// StoreCenter persists pending reminders so the daemon can pick them up.
// Authorization follows the notifications_enabled setting.
type StoreCenter struct {
	store NotificationStore
}

func NewStoreCenter(store NotificationStore) *StoreCenter {
	return &StoreCenter{store: store}
}

func (c *StoreCenter) Add(ctx context.Context, n models.ScheduledNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.store.SaveScheduledNotification(n); err != nil {
		return fmt.Errorf("failed to save reminder %s: %w", n.Key, err)
	}
	return nil
}

func (c *StoreCenter) RemovePending(_ context.Context, keys []string) error {
	return c.store.DeleteScheduledNotifications(keys)
}

func (c *StoreCenter) RemoveDelivered(_ context.Context, keys []string) error {
	return c.store.DeleteDeliveries(keys)
}

func (c *StoreCenter) RequestAuthorization(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	settings, err := c.store.GetSettings()
	if err != nil {
		return false, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings.NotificationsEnabled, nil
}
