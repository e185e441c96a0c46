package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/pipeline"
	"github.com/julianstephens/habitlit/internal/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Results are consumed in every state so the mailbox keeps draining.
	if msg, ok := msg.(resultMsg); ok {
		m.result = pipeline.Result(msg)
		m.ready = true
		m.catalog = m.pipeline.Catalog()
		m.clampCursor()
		return m, waitForResult(m.updates)
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmArchive:
		return m.updateConfirmArchive(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		m.status = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			m.cursor--
			m.clampCursor()
		case key.Matches(msg, m.keys.Down):
			m.cursor++
			m.clampCursor()
		case key.Matches(msg, m.keys.PrevYear):
			m.pipeline.SetAnchor(m.pipeline.Anchor().AddDate(-1, 0, 0))
		case key.Matches(msg, m.keys.NextYear):
			m.pipeline.SetAnchor(m.pipeline.Anchor().AddDate(1, 0, 0))
		case key.Matches(msg, m.keys.Today):
			if now, err := m.ctx.Now(); err == nil {
				m.pipeline.SetAnchor(now)
			}
		case key.Matches(msg, m.keys.Toggle):
			m.toggleFilter()
		case key.Matches(msg, m.keys.Done):
			m.setError(m.markToday(false))
		case key.Matches(msg, m.keys.Undo):
			m.setError(m.markToday(true))
		case key.Matches(msg, m.keys.Add):
			m.habitForm = &HabitFormModel{
				Time:     "09:00",
				Priority: models.PriorityNeither,
				Notify:   true,
			}
			m.formError = ""
			m.form = NewHabitForm(m.habitForm)
			m.state = StateAddHabit
			return m, m.form.Init()
		case key.Matches(msg, m.keys.Archive):
			h, ok := m.selectedHabit()
			if !ok {
				m.status = "Select a habit to archive"
				return m, nil
			}
			m.habitToArchiveID = h.ID
			m.confirmForm = &ConfirmFormModel{}
			m.form = NewConfirmForm(
				fmt.Sprintf("Archive %s?", h.Title),
				"Its history stays in statistics; reminders are removed.",
				m.confirmForm,
			)
			m.state = StateConfirmArchive
			return m, m.form.Init()
		}
	}

	return m, nil
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.formError = ""
		m.state = StateStats
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if err := m.saveHabitForm(); err != nil {
			// Stay in the form so the user can correct it or cancel with ESC
			m.formError = err.Error()
			m.form.State = huh.StateNormal
			return m, cmd
		}
		m.formError = ""
		m.state = StateStats
	case huh.StateAborted:
		m.formError = ""
		m.state = StateStats
	}
	return m, cmd
}

func (m Model) updateConfirmArchive(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.habitToArchiveID = ""
		m.state = StateStats
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.confirmForm.Confirmed {
			m.setError(m.archive(m.habitToArchiveID))
		}
		m.habitToArchiveID = ""
		m.state = StateStats
	case huh.StateAborted:
		m.habitToArchiveID = ""
		m.state = StateStats
	}
	return m, cmd
}

func (m *Model) setError(err error) {
	if err != nil {
		m.status = dangerStyle.Render("Error: " + err.Error())
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.catalog) {
		m.cursor = len(m.catalog) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// toggleFilter flips the catalog entry under the cursor and persists the
// resulting selection.
func (m *Model) toggleFilter() {
	if m.cursor >= len(m.catalog) {
		return
	}
	sel := m.pipeline.Toggle(m.catalog[m.cursor].ID)
	m.catalog = m.pipeline.Catalog()

	settings, err := m.ctx.Store.GetSettings()
	if err != nil {
		m.setError(err)
		return
	}
	settings.StatsFilter = sel.IDs()
	if sel.IsAll() {
		settings.StatsFilter = nil
	}
	m.setError(m.ctx.Store.SaveSettings(settings))
}

// markToday adds or removes one completion of the highlighted habit today.
func (m *Model) markToday(undo bool) error {
	h, ok := m.selectedHabit()
	if !ok {
		m.status = "Select a habit first"
		return nil
	}
	now, err := m.ctx.Now()
	if err != nil {
		return err
	}

	if undo {
		rec, found := utils.Uncomplete(&h, now)
		if !found {
			m.status = fmt.Sprintf("%s has no completion today", h.Title)
			return nil
		}
		if rec.Count == 0 {
			err = m.ctx.Store.DeleteCompletionRecord(rec.ID)
		} else {
			err = m.ctx.Store.UpsertCompletionRecord(h.ID, rec)
		}
		if err != nil {
			return err
		}
		m.status = fmt.Sprintf("Removed a completion of %s", h.Title)
	} else {
		rec := utils.Complete(&h, now)
		if err := m.ctx.Store.UpsertCompletionRecord(h.ID, rec); err != nil {
			return err
		}
		m.status = fmt.Sprintf("%s done (%d today)", h.Title, rec.Count)
	}
	return m.reload()
}

// saveHabitForm creates a weekday habit from the add form and schedules its
// reminders.
func (m *Model) saveHabitForm() error {
	fm := m.habitForm
	now, err := m.ctx.Now()
	if err != nil {
		return err
	}
	var days models.WeekdaySet
	if strings.TrimSpace(fm.Days) != "" {
		if days, err = models.ParseWeekdays(fm.Days); err != nil {
			return err
		}
	}
	reminder, err := utils.ParseTimeOfDay(fm.Time)
	if err != nil {
		return err
	}

	habit := models.Habit{
		ID:                  uuid.New().String(),
		Title:               strings.TrimSpace(fm.Title),
		Priority:            fm.Priority,
		Rule:                models.RepeatingWeekdays{Days: days},
		Reminder:            reminder,
		NotificationEnabled: fm.Notify,
		CreatedAt:           now,
	}
	if err := habit.Validate(); err != nil {
		return err
	}
	if err := m.ctx.Store.AddHabit(habit); err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	m.status = fmt.Sprintf("Added %s", habit.Title)

	if err := m.reschedule(habit); err != nil {
		m.status = warningStyle.Render(fmt.Sprintf("Added %s, but reminders were not scheduled: %v", habit.Title, err))
	}
	return m.reload()
}

func (m *Model) reschedule(h models.Habit) error {
	s, err := m.ctx.Reminders()
	if err != nil {
		return err
	}
	err = s.Reschedule(context.Background(), h)
	if errors.Is(err, notifier.ErrAuthorizationDenied) {
		return errors.New("notifications are disabled")
	}
	return err
}

// archive moves the habit to the archive, then removes its reminders.
func (m *Model) archive(id string) error {
	now, err := m.ctx.Now()
	if err != nil {
		return err
	}
	archived, err := m.ctx.Store.ArchiveHabit(id, now)
	if err != nil {
		return err
	}
	if err := m.ctx.CancelReminders(id); err != nil {
		return err
	}
	m.status = fmt.Sprintf("Archived %s", archived.Title)
	return m.reload()
}

// reload re-reads the tracked habits and forces a rebuild, since completion
// changes keep the visible habit IDs the same.
func (m *Model) reload() error {
	settings, err := m.ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	cfg, err := calendar.ConfigFromSettings(settings)
	if err != nil {
		return err
	}
	if m.configChanged(cfg) {
		m.cfg = cfg
		m.pipeline.SetConfig(cfg)
	}

	habits, err := m.ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}
	m.habits = habits
	m.pipeline.SetHabits(habits)
	m.pipeline.Refresh()
	m.catalog = m.pipeline.Catalog()
	m.clampCursor()
	return nil
}

// configChanged reports whether settings edited elsewhere invalidate the grid.
func (m *Model) configChanged(cfg calendar.Config) bool {
	if cfg.Location.String() != m.cfg.Location.String() {
		return true
	}
	if len(m.result.Sections) > 0 {
		return m.result.Sections[0].Stale(cfg)
	}
	return cfg.FirstWeekday != m.cfg.FirstWeekday || cfg.Locale != m.cfg.Locale
}
