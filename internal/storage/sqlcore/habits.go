package sqlcore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
)

const habitColumns = `id, title, priority, rule_kind, weekday_mask, due_at,
	reminder_hour, reminder_minute, notification_enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var priority, kind, createdAt string
	var mask, enabled int
	var dueAt sql.NullString

	if err := row.Scan(&h.ID, &h.Title, &priority, &kind, &mask, &dueAt,
		&h.Reminder.Hour, &h.Reminder.Minute, &enabled, &createdAt); err != nil {
		return models.Habit{}, err
	}
	h.Priority = models.Priority(priority)
	h.NotificationEnabled = enabled != 0

	var err error
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}

	switch models.RuleKind(kind) {
	case models.RuleOneShot:
		if !dueAt.Valid {
			return models.Habit{}, fmt.Errorf("habit %s: one-shot rule without due_at", h.ID)
		}
		due, err := parseTime("due_at", dueAt.String)
		if err != nil {
			return models.Habit{}, err
		}
		h.Rule = models.OneShotDueDate{Due: due}
	case models.RuleRepeatingWeekdays:
		h.Rule = models.RepeatingWeekdays{Days: models.WeekdaySet(mask)}
	default:
		return models.Habit{}, fmt.Errorf("habit %s: unknown rule kind %q", h.ID, kind)
	}
	return h, nil
}

// ruleColumns flattens a rule into (rule_kind, weekday_mask, due_at).
func ruleColumns(rule models.RecurrenceRule) (string, int, sql.NullString, error) {
	switch r := rule.(type) {
	case models.RepeatingWeekdays:
		return string(models.RuleRepeatingWeekdays), int(r.Days), sql.NullString{}, nil
	case models.OneShotDueDate:
		return string(models.RuleOneShot), 0, sql.NullString{String: formatTime(r.Due), Valid: true}, nil
	default:
		return "", 0, sql.NullString{}, fmt.Errorf("unsupported recurrence rule %T", rule)
	}
}

func (c *Core) AddHabit(h models.Habit) error {
	kind, mask, due, err := ruleColumns(h.Rule)
	if err != nil {
		return err
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(c.Rebind(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		h.ID, h.Title, string(h.Priority), kind, mask, due,
		h.Reminder.Hour, h.Reminder.Minute, boolToInt(h.NotificationEnabled), formatTime(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	if err := c.replaceRecords(tx, h.ID, h.Records); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateHabit rewrites the habit row and its records.
func (c *Core) UpdateHabit(h models.Habit) error {
	kind, mask, due, err := ruleColumns(h.Rule)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(c.Rebind(`
		UPDATE habits SET title = ?, priority = ?, rule_kind = ?, weekday_mask = ?, due_at = ?,
			reminder_hour = ?, reminder_minute = ?, notification_enabled = ?
		WHERE id = ?`),
		h.Title, string(h.Priority), kind, mask, due,
		h.Reminder.Hour, h.Reminder.Minute, boolToInt(h.NotificationEnabled), h.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("habit %s: %w", h.ID, storage.ErrNotFound)
	}

	if err := c.replaceRecords(tx, h.ID, h.Records); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *Core) replaceRecords(tx *sql.Tx, habitID string, records []models.CompletionRecord) error {
	if _, err := tx.Exec(c.Rebind("DELETE FROM completion_records WHERE habit_id = ?"), habitID); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(c.Rebind(`
		INSERT INTO completion_records (id, habit_id, recorded_at, count) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.Exec(r.ID, habitID, formatTime(r.Date), r.Count); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}
	return nil
}

func (c *Core) GetHabit(id string) (models.Habit, error) {
	row := c.db.QueryRow(c.Rebind("SELECT "+habitColumns+" FROM habits WHERE id = ?"), id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Habit{}, err
	}

	records, err := c.recordsBy("habit_id", []string{id})
	if err != nil {
		return models.Habit{}, err
	}
	h.Records = records[id]
	return h, nil
}

// GetAllHabits returns every active habit in creation order with records.
func (c *Core) GetAllHabits() ([]models.Habit, error) {
	rows, err := c.db.Query("SELECT " + habitColumns + " FROM habits ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	var ids []string
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return []models.Habit{}, nil
	}

	records, err := c.recordsBy("habit_id", nil)
	if err != nil {
		return nil, err
	}
	for i := range habits {
		habits[i].Records = records[habits[i].ID]
	}
	return habits, nil
}

// recordsBy loads completion records grouped by owner column. A nil ids
// slice loads every record with a non-null owner.
func (c *Core) recordsBy(column string, ids []string) (map[string][]models.CompletionRecord, error) {
	query := fmt.Sprintf("SELECT id, %s, recorded_at, count FROM completion_records WHERE %s IS NOT NULL", column, column)
	var args []any
	if ids != nil {
		query += fmt.Sprintf(" AND %s IN (%s)", column, placeholders(len(ids)))
		args = stringArgs(ids)
	}
	query += " ORDER BY recorded_at, id"

	rows, err := c.db.Query(c.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.CompletionRecord)
	for rows.Next() {
		var r models.CompletionRecord
		var owner, recordedAt string
		if err := rows.Scan(&r.ID, &owner, &recordedAt, &r.Count); err != nil {
			return nil, err
		}
		if r.Date, err = parseTime("recorded_at", recordedAt); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], r)
	}
	return out, rows.Err()
}

// DeleteHabit removes a habit and its records. Records are deleted
// explicitly as well as by the foreign key cascade.
func (c *Core) DeleteHabit(id string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(c.Rebind("DELETE FROM completion_records WHERE habit_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	res, err := tx.Exec(c.Rebind("DELETE FROM habits WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	return tx.Commit()
}

// ArchiveHabit moves a habit into archived_habits and reparents its records
// to the archive row in one transaction.
func (c *Core) ArchiveHabit(id string, at time.Time) (models.ArchivedHabit, error) {
	h, err := c.GetHabit(id)
	if err != nil {
		return models.ArchivedHabit{}, err
	}

	archived := models.ArchivedHabit{
		ID:         uuid.New().String(),
		HabitID:    h.ID,
		Title:      h.Title,
		Priority:   h.Priority,
		Records:    h.Records,
		CreatedAt:  h.CreatedAt,
		ArchivedAt: at,
	}

	tx, err := c.db.Begin()
	if err != nil {
		return models.ArchivedHabit{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(c.Rebind(`
		INSERT INTO archived_habits (id, habit_id, title, priority, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		archived.ID, archived.HabitID, archived.Title, string(archived.Priority),
		formatTime(archived.CreatedAt), formatTime(archived.ArchivedAt)); err != nil {
		return models.ArchivedHabit{}, fmt.Errorf("failed to insert archive: %w", err)
	}
	if _, err := tx.Exec(c.Rebind(`
		UPDATE completion_records SET archive_id = ?, habit_id = NULL WHERE habit_id = ?`),
		archived.ID, h.ID); err != nil {
		return models.ArchivedHabit{}, fmt.Errorf("failed to reparent records: %w", err)
	}
	if _, err := tx.Exec(c.Rebind("DELETE FROM habits WHERE id = ?"), h.ID); err != nil {
		return models.ArchivedHabit{}, fmt.Errorf("failed to remove habit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ArchivedHabit{}, err
	}
	return archived, nil
}

func (c *Core) GetArchivedHabits() ([]models.ArchivedHabit, error) {
	rows, err := c.db.Query(`
		SELECT id, habit_id, title, priority, created_at, archived_at
		FROM archived_habits ORDER BY archived_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var archives []models.ArchivedHabit
	for rows.Next() {
		var a models.ArchivedHabit
		var priority, createdAt, archivedAt string
		if err := rows.Scan(&a.ID, &a.HabitID, &a.Title, &priority, &createdAt, &archivedAt); err != nil {
			return nil, err
		}
		a.Priority = models.Priority(priority)
		if a.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if a.ArchivedAt, err = parseTime("archived_at", archivedAt); err != nil {
			return nil, err
		}
		archives = append(archives, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(archives) == 0 {
		return []models.ArchivedHabit{}, nil
	}

	records, err := c.recordsBy("archive_id", nil)
	if err != nil {
		return nil, err
	}
	for i := range archives {
		archives[i].Records = records[archives[i].ID]
	}
	return archives, nil
}

// UpsertCompletionRecord inserts the record or updates its count.
func (c *Core) UpsertCompletionRecord(habitID string, rec models.CompletionRecord) error {
	_, err := c.db.Exec(c.Rebind(`
		INSERT INTO completion_records (id, habit_id, recorded_at, count) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET count = excluded.count`),
		rec.ID, habitID, formatTime(rec.Date), rec.Count)
	if err != nil {
		return fmt.Errorf("failed to save completion record: %w", err)
	}
	return nil
}

func (c *Core) DeleteCompletionRecord(id string) error {
	_, err := c.db.Exec(c.Rebind("DELETE FROM completion_records WHERE id = ?"), id)
	return err
}
