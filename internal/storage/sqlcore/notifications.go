package sqlcore

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitlit/internal/models"
)

const (
	triggerDate   = "date"
	triggerWeekly = "weekly"
)

func (c *Core) SaveScheduledNotification(n models.ScheduledNotification) error {
	var kind string
	var year, month, day, hour, minute int
	switch t := n.Trigger.(type) {
	case models.DateTrigger:
		kind = triggerDate
		year, month, day, hour, minute = t.Year, int(t.Month), t.Day, t.Hour, t.Minute
	case models.WeeklyTrigger:
		kind = triggerWeekly
		hour, minute = t.Hour, t.Minute
	default:
		return fmt.Errorf("unsupported trigger %T", n.Trigger)
	}

	_, err := c.db.Exec(c.Rebind(`
		INSERT INTO scheduled_notifications
			(key, habit_id, weekday, title, body, trigger_kind,
			 trigger_year, trigger_month, trigger_day, trigger_hour, trigger_minute)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			habit_id = excluded.habit_id,
			weekday = excluded.weekday,
			title = excluded.title,
			body = excluded.body,
			trigger_kind = excluded.trigger_kind,
			trigger_year = excluded.trigger_year,
			trigger_month = excluded.trigger_month,
			trigger_day = excluded.trigger_day,
			trigger_hour = excluded.trigger_hour,
			trigger_minute = excluded.trigger_minute`),
		n.Key, n.HabitID, int(n.Weekday), n.Title, n.Body, kind,
		year, month, day, hour, minute)
	if err != nil {
		return fmt.Errorf("failed to save scheduled notification: %w", err)
	}
	return nil
}

func (c *Core) DeleteScheduledNotifications(keys []string) error {
	return c.deleteKeys("scheduled_notifications", keys)
}

func (c *Core) DeleteDeliveries(keys []string) error {
	return c.deleteKeys("notification_deliveries", keys)
}

func (c *Core) deleteKeys(table string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE key IN (%s)", table, placeholders(len(keys)))
	if _, err := c.db.Exec(c.Rebind(query), stringArgs(keys)...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// GetScheduledNotifications returns every registered reminder ordered by key.
func (c *Core) GetScheduledNotifications() ([]models.ScheduledNotification, error) {
	rows, err := c.db.Query(`
		SELECT key, habit_id, weekday, title, body, trigger_kind,
			trigger_year, trigger_month, trigger_day, trigger_hour, trigger_minute
		FROM scheduled_notifications ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScheduledNotification{}
	for rows.Next() {
		var n models.ScheduledNotification
		var weekday, year, month, day, hour, minute int
		var kind string
		if err := rows.Scan(&n.Key, &n.HabitID, &weekday, &n.Title, &n.Body, &kind,
			&year, &month, &day, &hour, &minute); err != nil {
			return nil, err
		}
		n.Weekday = models.Weekday(weekday)
		switch kind {
		case triggerDate:
			n.Trigger = models.DateTrigger{Year: year, Month: time.Month(month), Day: day, Hour: hour, Minute: minute}
		case triggerWeekly:
			n.Trigger = models.WeeklyTrigger{Weekday: n.Weekday, Hour: hour, Minute: minute}
		default:
			return nil, fmt.Errorf("notification %s: unknown trigger kind %q", n.Key, kind)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (c *Core) RecordDelivery(d models.Delivery) error {
	_, err := c.db.Exec(c.Rebind(`
		INSERT INTO notification_deliveries (key, habit_id, delivered_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET delivered_at = excluded.delivered_at`),
		d.Key, d.HabitID, formatTime(d.DeliveredAt))
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

func (c *Core) GetDeliveries() ([]models.Delivery, error) {
	rows, err := c.db.Query("SELECT key, habit_id, delivered_at FROM notification_deliveries ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Delivery{}
	for rows.Next() {
		var d models.Delivery
		var at string
		if err := rows.Scan(&d.Key, &d.HabitID, &at); err != nil {
			return nil, err
		}
		if d.DeliveredAt, err = parseTime("delivered_at", at); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
