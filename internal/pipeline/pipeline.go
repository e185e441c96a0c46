// Package pipeline recomputes the statistics calendar whenever the tracked
// habits, the filter or the viewed year change.
//
// All inputs are mutated through the Pipeline's methods. Each change takes a
// snapshot, coalesces with other changes inside the debounce window and runs
// at most one build at a time; a newer change cancels an older build and its
// result is never delivered.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/stats"
	"github.com/julianstephens/habitlit/internal/utils"
)

// Result is one delivered build.
type Result struct {
	Generation uint64
	Anchor     time.Time
	Selection  Selection
	Visible    []models.Habit
	Sections   []calendar.MonthSection
}

type snapshot struct {
	habits    []models.Habit
	selection Selection
	anchor    time.Time
	cfg       calendar.Config
}

type Pipeline struct {
	palette  stats.Palette
	onUpdate func(Result)
	clock    utils.Clock
	debounce time.Duration
	max      int

	mu        sync.Mutex
	habits    []models.Habit
	selection Selection
	anchor    time.Time
	cfg       calendar.Config
	lastKey   string
	gen       uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	prev      chan struct{}
	done      chan struct{}
	closed    bool
}

type Option func(*Pipeline)

func WithClock(c utils.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithDebounce sets the coalescing window. Zero builds on the next tick.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.debounce = d
		}
	}
}

func WithMaxSelections(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.max = n
		}
	}
}

func WithConfig(cfg calendar.Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

func WithSelection(sel Selection) Option {
	return func(p *Pipeline) { p.selection = sel }
}

// WithAnchor sets the initial viewed date instead of the clock's now.
func WithAnchor(anchor time.Time) Option {
	return func(p *Pipeline) { p.anchor = anchor }
}

// New creates an idle pipeline. onUpdate is called from a build goroutine,
// never concurrently with itself, in generation order.
func New(palette stats.Palette, onUpdate func(Result), opts ...Option) *Pipeline {
	p := &Pipeline{
		palette:  palette,
		onUpdate: onUpdate,
		clock:    utils.RealClock{},
		debounce: constants.DefaultStatsDebounce,
		max:      constants.DefaultMaxFilterSelected,
		cfg:      calendar.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.anchor.IsZero() {
		p.anchor = p.clock.Now()
	}
	return p
}

// SetHabits replaces the tracked habits. Selected IDs that are no longer
// tracked are pruned.
func (p *Pipeline) SetHabits(habits []models.Habit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.habits = append([]models.Habit(nil), habits...)
	p.selection = p.selection.Prune(habitIDs(p.habits))
	p.triggerLocked(false)
}

func (p *Pipeline) SetSelection(sel Selection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selection = sel.Prune(habitIDs(p.habits))
	p.triggerLocked(false)
}

// Toggle applies a filter toggle and returns the resulting selection.
func (p *Pipeline) Toggle(id string) Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.selection.Toggle(id, habitIDs(p.habits), p.max)
	if !next.equal(p.selection) {
		p.selection = next
		p.triggerLocked(false)
	}
	return next
}

// SetAnchor changes the viewed date. Only its year affects the output.
func (p *Pipeline) SetAnchor(anchor time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = anchor
	p.triggerLocked(false)
}

// SetConfig changes the calendar configuration. Sections built with another
// week start are rebuilt, never patched.
func (p *Pipeline) SetConfig(cfg calendar.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	p.triggerLocked(false)
}

// Refresh rebuilds even if the visible habits are unchanged, for example
// after completion records changed.
func (p *Pipeline) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triggerLocked(true)
}

func (p *Pipeline) Selection() Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection
}

func (p *Pipeline) Catalog() []CatalogOption {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Catalog(p.habits, p.selection)
}

func (p *Pipeline) Anchor() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anchor
}

// Close cancels any pending build and waits for a running one to stop.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.stopLocked()
	p.mu.Unlock()
	if idle != nil {
		<-idle
	}
}

func (p *Pipeline) triggerLocked(force bool) {
	if p.closed {
		return
	}
	snap := snapshot{
		habits:    p.habits,
		selection: p.selection,
		anchor:    p.anchor,
		cfg:       p.cfg,
	}
	key := dedupeKey(Visible(snap.habits, snap.selection), snap.anchor, snap.cfg)
	if !force && p.gen > 0 && key == p.lastKey {
		logger.Debug("Statistics inputs unchanged, skipping rebuild")
		return
	}
	p.lastKey = key

	prevDone := p.stopLocked()

	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.prev = prevDone
	p.done = done
	p.timer = time.AfterFunc(p.debounce, func() {
		p.run(ctx, gen, snap, prevDone, done)
	})
}

// stopLocked cancels the current generation and returns a channel that is
// closed once no build of this pipeline is running. A generation whose timer
// had not fired never runs, so the build it was waiting on is returned
// instead and its own done channel is dropped.
func (p *Pipeline) stopLocked() chan struct{} {
	if p.cancel != nil {
		p.cancel()
	}
	idle := p.done
	if p.timer != nil && p.timer.Stop() {
		idle = p.prev
	}
	p.timer = nil
	return idle
}

func (p *Pipeline) run(ctx context.Context, gen uint64, snap snapshot, prevDone, done chan struct{}) {
	defer close(done)
	if prevDone != nil {
		<-prevDone
	}
	if ctx.Err() != nil {
		return
	}

	visible := Visible(snap.habits, snap.selection)
	sections, err := p.build(ctx, snap, visible)
	if err != nil {
		logger.Debug("Statistics build superseded", "generation", gen)
		return
	}

	p.mu.Lock()
	current := gen == p.gen && !p.closed
	p.mu.Unlock()
	if !current || p.onUpdate == nil {
		return
	}
	p.onUpdate(Result{
		Generation: gen,
		Anchor:     snap.anchor,
		Selection:  snap.selection,
		Visible:    visible,
		Sections:   sections,
	})
}

func (p *Pipeline) build(ctx context.Context, snap snapshot, visible []models.Habit) ([]calendar.MonthSection, error) {
	months := calendar.BuildYear(snap.anchor, p.clock.Now(), snap.cfg)
	out := make([]calendar.MonthSection, 0, len(months))
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, stats.DecorateMonth(m, visible, p.palette))
	}
	return out, nil
}

func dedupeKey(visible []models.Habit, anchor time.Time, cfg calendar.Config) string {
	loc := "Local"
	if cfg.Location != nil {
		loc = cfg.Location.String()
	}
	return fmt.Sprintf("%d|%d|%s|%s|%s", anchor.Year(), int(cfg.FirstWeekday), cfg.Locale, loc,
		strings.Join(habitIDs(visible), ","))
}
