package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := LoadLocation(tz)
		if err != nil || loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, %v; want time.Local", tz, loc, err)
		}
	}
	loc, err := LoadLocation("UTC")
	if err != nil || loc.String() != "UTC" {
		t.Errorf("LoadLocation(UTC) = %v, %v", loc, err)
	}
	if ValidateTimezone("Mars/Olympus") {
		t.Error("expected invalid timezone")
	}
}

func TestCalendarHelpers(t *testing.T) {
	ts := time.Date(2024, time.February, 14, 15, 4, 5, 6, time.UTC)

	if got := StartOfDay(ts); !got.Equal(time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfDay = %v", got)
	}
	if got := StartOfMonth(ts); !got.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfMonth = %v", got)
	}
	tests := []struct {
		t    time.Time
		want int
	}{
		{ts, 29},
		{time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.t); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.t.Format("2006-01"), got, tt.want)
		}
	}
}

func TestSameDayAndDayKey(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	a := time.Date(2025, time.June, 16, 20, 0, 0, 0, time.UTC)

	if !SameDay(a, time.Date(2025, time.June, 17, 1, 0, 0, 0, tokyo)) {
		t.Error("20:00 UTC should be the 17th in Tokyo")
	}
	if SameDay(a, time.Date(2025, time.June, 16, 1, 0, 0, 0, tokyo)) {
		t.Error("20:00 UTC is not the 16th in Tokyo")
	}
	if got := DayKey(a, tokyo); got != "2025-06-17" {
		t.Errorf("DayKey = %q, want 2025-06-17", got)
	}
	if got := DayKey(a, time.UTC); got != "2025-06-16" {
		t.Errorf("DayKey = %q, want 2025-06-16", got)
	}
}

func TestParsing(t *testing.T) {
	tod, err := ParseTimeOfDay("07:45")
	if err != nil || tod.Hour != 7 || tod.Minute != 45 {
		t.Errorf("ParseTimeOfDay = %+v, %v", tod, err)
	}
	if _, err := ParseTimeOfDay("7pm"); err == nil {
		t.Error("expected error for 7pm")
	}

	d, err := ParseDateInLocation("2025-03-01", time.UTC)
	if err != nil || !d.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDateInLocation = %v, %v", d, err)
	}
	if _, err := ParseDateInLocation("03/01/2025", time.UTC); err == nil {
		t.Error("expected error for US-style date")
	}

	dt, err := ParseDateTimeInLocation("2025-03-01T18:30", time.UTC)
	if err != nil || !dt.Equal(time.Date(2025, time.March, 1, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("ParseDateTimeInLocation = %v, %v", dt, err)
	}
	dt, err = ParseDateTimeInLocation("2025-03-01", time.UTC)
	if err != nil || dt.Hour() != 0 {
		t.Errorf("bare date should parse as midnight, got %v, %v", dt, err)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, time.June, 18, 10, 30, 0, 0, time.UTC)
	var c Clock = NewFixedClock(at)
	if !c.Now().Equal(at) {
		t.Errorf("Now = %v, want %v", c.Now(), at)
	}
	if (RealClock{}).Now().IsZero() {
		t.Error("RealClock returned zero time")
	}
}
