// Package tui is the interactive statistics screen: a year of month grids fed
// by the statistics pipeline, a habit filter and quick completion keys.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/pipeline"
	"github.com/julianstephens/habitlit/internal/theme"
	"github.com/julianstephens/habitlit/internal/utils"
)

type SessionState int

const (
	StateStats SessionState = iota
	StateAddHabit
	StateConfirmArchive
)

// HabitFormModel represents the form model for habit creation
type HabitFormModel struct {
	Title    string
	Days     string
	Time     string
	Priority models.Priority
	Notify   bool
}

// ConfirmFormModel backs a yes/no prompt
type ConfirmFormModel struct {
	Confirmed bool
}

// resultMsg carries a pipeline build into the update loop.
type resultMsg pipeline.Result

type Model struct {
	ctx      *cli.Context
	pipeline *pipeline.Pipeline
	updates  chan pipeline.Result
	palette  theme.Palette
	cfg      calendar.Config

	state       SessionState
	keys        KeyMap
	help        help.Model
	form        *huh.Form
	habitForm   *HabitFormModel
	confirmForm *ConfirmFormModel

	habits           []models.Habit
	catalog          []pipeline.CatalogOption
	cursor           int
	result           pipeline.Result
	ready            bool
	habitToArchiveID string
	status           string
	formError        string
	quitting         bool
	width            int
	height           int
}

// NewModel loads the tracked habits and starts the pipeline. The first build
// arrives through Init.
func NewModel(ctx *cli.Context, palette theme.Palette) (Model, error) {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return Model{}, err
	}
	models.ApplyDefaultSettings(&settings)
	cfg, err := calendar.ConfigFromSettings(settings)
	if err != nil {
		return Model{}, err
	}
	now, err := ctx.Now()
	if err != nil {
		return Model{}, err
	}
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return Model{}, err
	}

	var clock utils.Clock = utils.RealClock{}
	if ctx.Clock != nil {
		clock = ctx.Clock
	}

	updates := make(chan pipeline.Result, 1)
	p := pipeline.New(palette, publish(updates),
		pipeline.WithClock(clock),
		pipeline.WithDebounce(time.Duration(settings.StatsDebounceMs)*time.Millisecond),
		pipeline.WithMaxSelections(settings.MaxFilterSelections),
		pipeline.WithConfig(cfg),
		pipeline.WithSelection(pipeline.NewSelection(settings.StatsFilter...)),
		pipeline.WithAnchor(now),
	)
	p.SetHabits(habits)

	return Model{
		ctx:      ctx,
		pipeline: p,
		updates:  updates,
		palette:  palette,
		cfg:      cfg,
		state:    StateStats,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		habits:   habits,
		catalog:  p.Catalog(),
	}, nil
}

// publish keeps only the newest undelivered result. The pipeline never calls
// it concurrently, so the send after draining cannot block.
func publish(ch chan pipeline.Result) func(pipeline.Result) {
	return func(r pipeline.Result) {
		select {
		case <-ch:
		default:
		}
		ch <- r
	}
}

func waitForResult(ch <-chan pipeline.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(<-ch)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForResult(m.updates)
}

// Close stops the pipeline.
func (m Model) Close() {
	m.pipeline.Close()
}

// selectedHabit returns the habit under the cursor, if the cursor is not on
// the All entry. Its records are copied since the pipeline may be reading the
// tracked slice.
func (m Model) selectedHabit() (models.Habit, bool) {
	if m.cursor <= 0 || m.cursor >= len(m.catalog) {
		return models.Habit{}, false
	}
	h, ok := m.habitByID(m.catalog[m.cursor].ID)
	if ok {
		h.Records = append([]models.CompletionRecord(nil), h.Records...)
	}
	return h, ok
}
