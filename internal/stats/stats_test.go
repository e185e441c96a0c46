package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/models"
)

type fixedPalette map[models.Priority]string

func (p fixedPalette) ColorFor(pr models.Priority) string { return p[pr] }

var palette = fixedPalette{
	models.PriorityImportant: "#00ff00",
	models.PriorityNeither:   "#888888",
}

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2025, month, day, hour, 0, 0, 0, time.UTC)
}

func testHabits() []models.Habit {
	return []models.Habit{
		{
			ID:       "habit-reading",
			Title:    "Reading",
			Priority: models.PriorityImportant,
			Rule:     models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.Monday, models.Wednesday)},
			Records: []models.CompletionRecord{
				{ID: "r1", Date: at(time.June, 9, 8), Count: 1},
				{ID: "r2", Date: at(time.June, 10, 20), Count: 3},
			},
		},
		{
			ID:       "habit-running",
			Title:    "Running",
			Priority: models.PriorityNeither,
			Rule:     models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.Tuesday)},
			Records: []models.CompletionRecord{
				{ID: "r3", Date: at(time.June, 10, 7), Count: 1},
			},
		},
	}
}

func TestAggregate(t *testing.T) {
	habits := testHabits()

	pills := Aggregate(habits, at(time.June, 10, 12), palette)
	if len(pills) != 2 {
		t.Fatalf("expected 2 pills, got %d", len(pills))
	}
	if pills[0].HabitID != "habit-reading" || pills[0].Count != 3 || pills[0].Color != "#00ff00" {
		t.Errorf("unexpected first pill: %+v", pills[0])
	}
	if pills[1].HabitID != "habit-running" || pills[1].Color != "#888888" {
		t.Errorf("unexpected second pill: %+v", pills[1])
	}

	if pills := Aggregate(habits, at(time.June, 11, 12), palette); len(pills) != 0 {
		t.Errorf("expected no pills on an empty day, got %+v", pills)
	}
	if pills := Aggregate(habits[1:], at(time.June, 9, 12), palette); len(pills) != 0 {
		t.Errorf("filtered-out habit leaked a pill: %+v", pills)
	}
}

func TestDecorateMonth(t *testing.T) {
	cfg := calendar.Config{FirstWeekday: models.Sunday, Location: time.UTC, Locale: "en_US"}
	section := calendar.BuildMonth(at(time.June, 1, 0), at(time.June, 18, 10), cfg)

	decorated := DecorateMonth(section, testHabits(), palette)
	for i, cell := range decorated.Cells {
		if section.Cells[i].Pills != nil {
			t.Fatal("input section was modified")
		}
		if cell.IsBlank {
			if cell.Pills != nil {
				t.Errorf("blank cell %d received pills", i)
			}
			continue
		}
		var want int
		switch cell.Date.Day() {
		case 9:
			want = 1
		case 10:
			want = 2
		}
		if len(cell.Pills) != want {
			t.Errorf("day %d: got %d pills, want %d", cell.Date.Day(), len(cell.Pills), want)
		}
	}
}

func TestDecorateMonth_MatchesAggregateOnDuplicateDay(t *testing.T) {
	h := models.Habit{
		ID:       "habit-dup",
		Title:    "Stretching",
		Priority: models.PriorityImportant,
		Rule:     models.RepeatingWeekdays{Days: models.NewWeekdaySet(models.Tuesday)},
		Records: []models.CompletionRecord{
			{ID: "d1", Date: at(time.June, 10, 7), Count: 2},
			{ID: "d2", Date: at(time.June, 10, 19), Count: 5},
		},
	}
	day := at(time.June, 10, 12)
	want := Aggregate([]models.Habit{h}, day, palette)
	if len(want) != 1 || want[0].Count != 2 {
		t.Fatalf("expected the first record's count, got %+v", want)
	}

	cfg := calendar.Config{FirstWeekday: models.Sunday, Location: time.UTC, Locale: "en_US"}
	section := DecorateMonth(calendar.BuildMonth(day, day, cfg), []models.Habit{h}, palette)
	for _, cell := range section.Cells {
		if cell.IsBlank || cell.Date.Day() != 10 {
			continue
		}
		if len(cell.Pills) != 1 || cell.Pills[0].Count != want[0].Count {
			t.Errorf("calendar cell disagrees with Aggregate: got %+v, want %+v", cell.Pills, want)
		}
	}
}

func TestDecorate_UsesSectionTimezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	cfg := calendar.Config{FirstWeekday: models.Sunday, Location: tokyo, Locale: "en_US"}
	// 20:00 UTC on the 10th is the 11th in Tokyo.
	sections := BuildYear(at(time.June, 1, 0), at(time.June, 18, 10), cfg, testHabits()[:1], palette)
	if len(sections) != 6 {
		t.Fatalf("expected 6 sections, got %d", len(sections))
	}
	june := sections[5]
	for _, cell := range june.Cells {
		if cell.IsBlank {
			continue
		}
		day := cell.Date.Day()
		if day == 11 && (len(cell.Pills) != 1 || cell.Pills[0].Count != 3) {
			t.Errorf("expected the evening record on the 11th in Tokyo, got %+v", cell.Pills)
		}
		if day == 10 && len(cell.Pills) != 0 {
			t.Errorf("unexpected pills on the 10th in Tokyo: %+v", cell.Pills)
		}
	}
}

func TestSummarize(t *testing.T) {
	// Monday 9th through Sunday 15th.
	summaries := Summarize(testHabits(), at(time.June, 9, 0), at(time.June, 15, 23))
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	reading := summaries[0]
	if reading.DueDays != 2 || reading.CompletedDays != 2 || reading.DueCompleted != 1 || reading.TotalCount != 4 {
		t.Errorf("unexpected reading summary: %+v", reading)
	}
	if reading.Rate() != 0.5 {
		t.Errorf("reading rate = %v, want 0.5", reading.Rate())
	}

	running := summaries[1]
	if running.DueDays != 1 || running.DueCompleted != 1 || running.Rate() != 1 {
		t.Errorf("unexpected running summary: %+v", running)
	}

	if (Summary{}).Rate() != 0 {
		t.Error("rate without due days should be 0")
	}
}
