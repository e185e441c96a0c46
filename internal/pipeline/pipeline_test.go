package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/testutil"
	"github.com/julianstephens/habitlit/internal/theme"
)

type collector struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newCollector() *collector {
	return &collector{ch: make(chan Result, 64)}
}

func (c *collector) update(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
	c.ch <- r
}

func (c *collector) next(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a statistics build")
		return Result{}
	}
}

func (c *collector) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case r := <-c.ch:
		t.Fatalf("unexpected build generation %d", r.Generation)
	case <-time.After(wait):
	}
}

// gatedPalette holds its first ColorFor call until release is closed and
// records the most calls that overlapped.
type gatedPalette struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	active int
	peak   int
}

func newGatedPalette() *gatedPalette {
	return &gatedPalette{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedPalette) ColorFor(models.Priority) string {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()

	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return "#000000"
}

func (g *gatedPalette) maxOverlap() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

func completedOn(id string, days ...time.Time) models.Habit {
	h := models.Habit{ID: id, Title: id, Rule: models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.AllWeekdays...)}}
	for i, d := range days {
		h.Records = append(h.Records, models.CompletionRecord{ID: id + "-" + string(rune('a'+i)), Date: d, Count: 1})
	}
	return h
}

func newTestPipeline(c *collector, opts ...Option) *Pipeline {
	cfg := calendar.Config{FirstWeekday: models.Sunday, Location: time.UTC, Locale: "en_US"}
	base := []Option{WithClock(testutil.FixedClock()), WithDebounce(5 * time.Millisecond), WithConfig(cfg)}
	return New(theme.Default(), c.update, append(base, opts...)...)
}

func findCell(t *testing.T, sections []calendar.MonthSection, day time.Time) calendar.DayCell {
	t.Helper()
	for _, s := range sections {
		for _, c := range s.Cells {
			if !c.IsBlank && c.Date.Year() == day.Year() && c.Date.YearDay() == day.YearDay() {
				return c
			}
		}
	}
	t.Fatalf("no cell for %s", day.Format("2006-01-02"))
	return calendar.DayCell{}
}

func TestPipelineFiltersVisibleHabits(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c)
	defer p.Close()

	day := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	habits := []models.Habit{completedOn("A", day), completedOn("B"), completedOn("C", day)}

	p.SetHabits(habits)
	all := c.next(t)
	if len(all.Sections) != 6 {
		t.Fatalf("expected Jan-Jun sections, got %d", len(all.Sections))
	}
	if got := len(findCell(t, all.Sections, day).Pills); got != 2 {
		t.Errorf("expected 2 pills with no filter, got %d", got)
	}

	p.SetSelection(NewSelection("A", "B"))
	filtered := c.next(t)
	pills := findCell(t, filtered.Sections, day).Pills
	if len(pills) != 1 || pills[0].HabitID != "A" {
		t.Errorf("expected only habit A's pill, got %+v", pills)
	}
}

func TestPipelineSkipsUnchangedVisibleSet(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c)
	defer p.Close()

	habits := []models.Habit{completedOn("A"), completedOn("B")}
	p.SetHabits(habits)
	c.next(t)

	// Same ids, same year: nothing to rebuild.
	p.SetHabits(habits)
	p.SetAnchor(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	p.SetSelection(AllSelection())
	c.expectNone(t, 50*time.Millisecond)

	p.Refresh()
	c.next(t)

	p.SetAnchor(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	r := c.next(t)
	if len(r.Sections) != 12 {
		t.Errorf("expected 12 sections for a past year, got %d", len(r.Sections))
	}
}

func TestPipelineDebounceCoalesces(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c, WithDebounce(30*time.Millisecond))
	defer p.Close()

	habits := []models.Habit{completedOn("A"), completedOn("B"), completedOn("C")}
	p.SetHabits(habits)
	p.SetSelection(NewSelection("A"))
	p.SetSelection(NewSelection("A", "B"))
	p.SetSelection(NewSelection("C"))

	r := c.next(t)
	if got := habitIDs(r.Visible); len(got) != 1 || got[0] != "C" {
		t.Errorf("expected only the last input to build, got %v", got)
	}
	c.expectNone(t, 80*time.Millisecond)
}

func TestPipelineGenerationsIncrease(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c, WithDebounce(0))
	defer p.Close()

	p.SetHabits([]models.Habit{completedOn("A"), completedOn("B")})
	first := c.next(t)
	p.Toggle("A")
	second := c.next(t)
	if second.Generation <= first.Generation {
		t.Errorf("expected increasing generations, got %d then %d", first.Generation, second.Generation)
	}
	if !second.Selection.Has("A") {
		t.Errorf("expected toggled selection in result, got %v", second.Selection)
	}
}

func TestPipelineTogglePrunesAndCollapses(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c)
	defer p.Close()

	p.SetHabits([]models.Habit{completedOn("A"), completedOn("B")})
	p.Toggle("A")
	if sel := p.Toggle("B"); !sel.IsAll() {
		t.Errorf("expected collapse to All, got %v", sel)
	}

	p.Toggle("A") // All -> {A}
	p.SetHabits([]models.Habit{completedOn("B")})
	if sel := p.Selection(); !sel.IsEmpty() {
		t.Errorf("expected removed habit pruned from selection, got %v", sel)
	}
}

func TestPipelineConfigChangeRebuilds(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c)
	defer p.Close()

	p.SetHabits([]models.Habit{completedOn("A")})
	first := c.next(t)

	cfg := calendar.Config{FirstWeekday: models.Monday, Location: time.UTC, Locale: "en_US"}
	if !first.Sections[0].Stale(cfg) {
		t.Fatal("expected sections built for Sunday to be stale for Monday")
	}
	p.SetConfig(cfg)
	second := c.next(t)
	if second.Sections[0].Stale(cfg) {
		t.Error("expected rebuilt sections to match the new configuration")
	}
}

func TestPipelineCloseStopsDelivery(t *testing.T) {
	c := newCollector()
	p := newTestPipeline(c, WithDebounce(20*time.Millisecond))

	p.SetHabits([]models.Habit{completedOn("A")})
	p.Close()
	c.expectNone(t, 60*time.Millisecond)

	p.Refresh()
	c.expectNone(t, 40*time.Millisecond)
}

func TestPipelineSupersededBuildDoesNotOverlap(t *testing.T) {
	c := newCollector()
	g := newGatedPalette()
	cfg := calendar.Config{FirstWeekday: models.Sunday, Location: time.UTC, Locale: "en_US"}
	p := New(g, c.update, WithClock(testutil.FixedClock()), WithDebounce(20*time.Millisecond), WithConfig(cfg))
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(g.release) }) }
	defer p.Close()
	defer release()

	day2025 := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	day2023 := time.Date(2023, time.March, 1, 9, 0, 0, 0, time.UTC)
	p.SetHabits([]models.Habit{completedOn("A", day2025, day2023)})

	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first build never reached the palette")
	}

	// Two changes while the first build is still running: the second
	// replaces the first before its debounce window ends.
	p.SetAnchor(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	p.SetAnchor(time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC))

	c.expectNone(t, 80*time.Millisecond)
	if got := g.maxOverlap(); got != 1 {
		t.Fatalf("expected builds to run one at a time, saw %d overlapping", got)
	}

	release()
	r := c.next(t)
	if r.Generation != 3 || r.Anchor.Year() != 2023 {
		t.Errorf("expected only the newest build (generation 3, 2023), got generation %d for %d", r.Generation, r.Anchor.Year())
	}
	if got := len(findCell(t, r.Sections, day2023).Pills); got != 1 {
		t.Errorf("expected the 2023 completion in the delivered build, got %d pills", got)
	}
	c.expectNone(t, 60*time.Millisecond)
	if got := g.maxOverlap(); got != 1 {
		t.Errorf("expected builds to run one at a time, saw %d overlapping", got)
	}
}
