package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/pipeline"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/testutil"
	"github.com/julianstephens/habitlit/internal/theme"
)

var (
	reading = models.Habit{
		ID:                  "habit-reading",
		Title:               "Reading",
		Priority:            models.PriorityImportant,
		Rule:                models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.Monday, models.Wednesday)},
		Reminder:            models.TimeOfDay{Hour: 7, Minute: 30},
		NotificationEnabled: true,
		Records: []models.CompletionRecord{
			{ID: "rec-1", Date: time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC), Count: 1},
		},
		CreatedAt: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	running = models.Habit{
		ID:                  "habit-running",
		Title:               "Running",
		Priority:            models.PriorityNeither,
		Rule:                models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.Friday)},
		Reminder:            models.TimeOfDay{Hour: 18, Minute: 0},
		NotificationEnabled: true,
		CreatedAt:           time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
)

func setupModel(t *testing.T) (*cli.Context, Model) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	settings.Timezone = "UTC"
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
	for _, h := range []models.Habit{reading, running} {
		if err := store.AddHabit(h); err != nil {
			t.Fatalf("failed to add habit: %v", err)
		}
	}

	ctx := &cli.Context{Store: store, Clock: testutil.FixedClock()}
	m, err := NewModel(ctx, theme.Default())
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	t.Cleanup(m.Close)
	return ctx, nextResult(t, m, func(pipeline.Result) bool { return true })
}

// nextResult feeds pipeline results into the model until match accepts one.
func nextResult(t *testing.T, m Model, match func(pipeline.Result) bool) Model {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case r := <-m.updates:
			m = send(m, resultMsg(r))
			if match(r) {
				return m
			}
		case <-deadline:
			t.Fatal("timed out waiting for a statistics result")
		}
	}
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func forYear(year int) func(pipeline.Result) bool {
	return func(r pipeline.Result) bool { return r.Anchor.Year() == year }
}

func todayCount(t *testing.T, ctx *cli.Context, id string) int {
	t.Helper()
	h, err := ctx.Store.GetHabit(id)
	if err != nil {
		t.Fatalf("failed to get habit: %v", err)
	}
	for _, r := range h.Records {
		if r.Date.In(time.UTC).Format("2006-01-02") == "2025-06-18" {
			return r.Count
		}
	}
	return 0
}

func TestNewModelDeliversCurrentYear(t *testing.T) {
	_, m := setupModel(t)

	if !m.ready {
		t.Fatal("model should be ready after the first result")
	}
	if len(m.result.Sections) != 6 {
		t.Fatalf("expected January through June, got %d sections", len(m.result.Sections))
	}
	if len(m.catalog) != 3 || m.catalog[0].Title != "All" {
		t.Fatalf("unexpected catalog: %+v", m.catalog)
	}

	var pills []models.Pill
	for _, cell := range m.result.Sections[5].Cells {
		if !cell.IsBlank && cell.Date.Day() == 10 {
			pills = cell.Pills
		}
	}
	if len(pills) != 1 || pills[0].HabitID != reading.ID {
		t.Errorf("expected a Reading pill on June 10, got %+v", pills)
	}

	view := m.View()
	if !strings.Contains(view, "2025") || !strings.Contains(view, "Reading") {
		t.Errorf("view missing year or habit:\n%s", view)
	}
}

func TestYearNavigation(t *testing.T) {
	_, m := setupModel(t)

	m = send(m, tea.KeyMsg{Type: tea.KeyRight})
	m = nextResult(t, m, forYear(2026))
	if len(m.result.Sections) != 0 {
		t.Errorf("future year should have no sections, got %d", len(m.result.Sections))
	}
	if !strings.Contains(m.View(), "No statistics for 2026 yet.") {
		t.Error("expected empty year message")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	m = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	m = nextResult(t, m, forYear(2024))
	if len(m.result.Sections) != 12 {
		t.Errorf("past year should have 12 sections, got %d", len(m.result.Sections))
	}

	m = send(m, runes("t"))
	m = nextResult(t, m, forYear(2025))
	if len(m.result.Sections) != 6 {
		t.Errorf("expected 6 sections after returning to this year, got %d", len(m.result.Sections))
	}
}

func TestToggleFilterPersists(t *testing.T) {
	ctx, m := setupModel(t)

	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = nextResult(t, m, func(r pipeline.Result) bool { return len(r.Visible) == 1 })

	if m.result.Visible[0].ID != reading.ID {
		t.Errorf("expected Reading to be visible, got %s", m.result.Visible[0].ID)
	}
	if !m.catalog[1].Selected {
		t.Error("catalog should mark Reading as selected")
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if len(settings.StatsFilter) != 1 || settings.StatsFilter[0] != reading.ID {
		t.Errorf("expected persisted filter [%s], got %v", reading.ID, settings.StatsFilter)
	}

	// Selecting the remaining habit covers everything and collapses to All
	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.catalog[0].Selected {
		t.Error("selecting every habit should collapse to All")
	}
	settings, _ = ctx.Store.GetSettings()
	if len(settings.StatsFilter) != 0 {
		t.Errorf("All should persist as an empty filter, got %v", settings.StatsFilter)
	}
}

func TestDoneAndUndo(t *testing.T) {
	ctx, m := setupModel(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyDown})

	m = send(m, runes("d"))
	if got := todayCount(t, ctx, reading.ID); got != 1 {
		t.Fatalf("expected 1 completion today, got %d", got)
	}
	m = send(m, runes("d"))
	if got := todayCount(t, ctx, reading.ID); got != 2 {
		t.Fatalf("expected 2 completions today, got %d", got)
	}
	if !strings.Contains(m.status, "2 today") {
		t.Errorf("unexpected status %q", m.status)
	}

	m = nextResult(t, m, func(r pipeline.Result) bool {
		for _, cell := range r.Sections[5].Cells {
			if !cell.IsBlank && cell.Date.Day() == 18 {
				return len(cell.Pills) == 1 && cell.Pills[0].Count == 2
			}
		}
		return false
	})

	m = send(m, runes("u"))
	m = send(m, runes("u"))
	if got := todayCount(t, ctx, reading.ID); got != 0 {
		t.Errorf("expected today's record to be removed, got count %d", got)
	}
	m = send(m, runes("u"))
	if !strings.Contains(m.status, "no completion today") {
		t.Errorf("unexpected status %q", m.status)
	}

	h, _ := ctx.Store.GetHabit(reading.ID)
	if len(h.Records) != 1 {
		t.Errorf("older records must survive, got %d records", len(h.Records))
	}
}

func TestDoneRequiresHabit(t *testing.T) {
	ctx, m := setupModel(t)

	m = send(m, runes("d"))
	if m.status != "Select a habit first" {
		t.Errorf("unexpected status %q", m.status)
	}
	if got := todayCount(t, ctx, reading.ID); got != 0 {
		t.Errorf("no completion should be recorded, got %d", got)
	}

	m = send(m, runes("x"))
	if m.state != StateStats {
		t.Error("archive on All must not open the confirmation")
	}
}

func TestFormStates(t *testing.T) {
	_, m := setupModel(t)

	m = send(m, runes("a"))
	if m.state != StateAddHabit || m.form == nil {
		t.Fatal("expected add habit form")
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateStats {
		t.Error("esc should close the form")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	m = send(m, runes("x"))
	if m.state != StateConfirmArchive || m.habitToArchiveID != reading.ID {
		t.Fatalf("expected archive confirmation for Reading, got state %d id %q", m.state, m.habitToArchiveID)
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateStats || m.habitToArchiveID != "" {
		t.Error("esc should cancel the archive")
	}
}

func TestSaveHabitForm(t *testing.T) {
	ctx, m := setupModel(t)

	tests := []struct {
		name    string
		form    HabitFormModel
		wantErr bool
	}{
		{name: "empty title", form: HabitFormModel{Title: " ", Time: "08:00", Priority: models.PriorityNeither}, wantErr: true},
		{name: "bad weekday", form: HabitFormModel{Title: "Yoga", Days: "funday", Time: "08:00", Priority: models.PriorityNeither}, wantErr: true},
		{name: "bad time", form: HabitFormModel{Title: "Yoga", Days: "mon", Time: "25:00", Priority: models.PriorityNeither}, wantErr: true},
		{name: "valid", form: HabitFormModel{Title: "Stretch", Days: "tue,thu", Time: "08:00", Priority: models.PriorityUrgent, Notify: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			m.habitForm = &form
			err := m.saveHabitForm()
			if (err != nil) != tt.wantErr {
				t.Fatalf("saveHabitForm() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		t.Fatalf("failed to get habits: %v", err)
	}
	if len(habits) != 3 {
		t.Fatalf("expected 3 habits, got %d", len(habits))
	}
	if len(m.catalog) != 4 {
		t.Errorf("catalog should include the new habit, got %d entries", len(m.catalog))
	}

	pending, err := ctx.Store.GetScheduledNotifications()
	if err != nil {
		t.Fatalf("failed to get notifications: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected Tuesday and Thursday reminders, got %d", len(pending))
	}
}

func TestArchive(t *testing.T) {
	ctx, m := setupModel(t)

	if err := m.archive(reading.ID); err != nil {
		t.Fatalf("archive() error = %v", err)
	}

	habits, _ := ctx.Store.GetAllHabits()
	if len(habits) != 1 || habits[0].ID != running.ID {
		t.Errorf("expected only Running to remain, got %+v", habits)
	}
	archived, err := ctx.Store.GetArchivedHabits()
	if err != nil {
		t.Fatalf("failed to get archived habits: %v", err)
	}
	if len(archived) != 1 || len(archived[0].Records) != 1 {
		t.Errorf("expected archived Reading with its record, got %+v", archived)
	}
	if len(m.catalog) != 2 {
		t.Errorf("expected All and Running in the catalog, got %d entries", len(m.catalog))
	}
}

func TestPublishKeepsNewest(t *testing.T) {
	ch := make(chan pipeline.Result, 1)
	f := publish(ch)
	f(pipeline.Result{Generation: 1})
	f(pipeline.Result{Generation: 2})

	if r := <-ch; r.Generation != 2 {
		t.Errorf("expected generation 2, got %d", r.Generation)
	}
	select {
	case r := <-ch:
		t.Errorf("unexpected extra result %d", r.Generation)
	default:
	}
}

func TestReloadPicksUpWeekStart(t *testing.T) {
	ctx, m := setupModel(t)
	if m.result.Sections[0].FirstWeekday != models.Sunday {
		t.Fatalf("expected a Sunday-first grid, got %v", m.result.Sections[0].FirstWeekday)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	settings.FirstWeekday = models.Monday
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	if err := m.reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	m = nextResult(t, m, func(r pipeline.Result) bool {
		return len(r.Sections) > 0 && r.Sections[0].FirstWeekday == models.Monday
	})
	if m.cfg.FirstWeekday != models.Monday {
		t.Errorf("model config not updated: %v", m.cfg.FirstWeekday)
	}
}
