package schedule_test

import (
	"testing"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/schedule"
)

func mustWindow(t *testing.T, s domain.CallSettings) *schedule.Window {
	t.Helper()
	w, err := schedule.FromSettings(s)
	if err != nil {
		t.Fatalf("FromSettings: %v", err)
	}
	return w
}

func TestFromSettings_NoRestriction_ReturnsNil(t *testing.T) {
	w, err := schedule.FromSettings(domain.CallSettings{Timezone: "America/Santiago"})
	if err != nil {
		t.Fatalf("FromSettings: %v", err)
	}
	if w != nil {
		t.Error("want nil window when no hours or weekdays are set")
	}
}

func TestFromSettings_InvalidClock_ReturnsError(t *testing.T) {
	_, err := schedule.FromSettings(domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "25:00", End: "18:00"},
	})
	if err == nil {
		t.Error("want error for hour 25")
	}

	_, err = schedule.FromSettings(domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "nine", End: "18:00"},
	})
	if err == nil {
		t.Error("want error for non-numeric clock")
	}
}

func TestFromSettings_InvalidTimezone_ReturnsError(t *testing.T) {
	_, err := schedule.FromSettings(domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		Timezone:     "Mars/Olympus",
	})
	if err == nil {
		t.Error("want error for unknown timezone")
	}
}

func TestContains_NilWindowAllowsEverything(t *testing.T) {
	var w *schedule.Window
	if !w.Contains(time.Now()) {
		t.Error("nil window must allow any instant")
	}
}

func TestContains_HourRange(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		Timezone:     "UTC",
	})

	cases := []struct {
		clock string
		want  bool
	}{
		{"08:59", false},
		{"09:00", true}, // start is inclusive
		{"12:30", true},
		{"17:59", true},
		{"18:00", false}, // end is exclusive
		{"20:00", false},
	}
	for _, tc := range cases {
		at, _ := time.Parse("15:04", tc.clock)
		instant := time.Date(2026, 3, 2, at.Hour(), at.Minute(), 0, 0, time.UTC)
		if got := w.Contains(instant); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestContains_RespectsTimezone(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		Timezone:     "America/Santiago",
	})

	// 13:00 UTC on 2026-03-02 is 10:00 in Santiago (UTC-3): inside.
	inside := time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC)
	if !w.Contains(inside) {
		t.Error("13:00 UTC should be inside a 09:00-18:00 Santiago window")
	}

	// 23:00 UTC is 20:00 in Santiago: outside.
	outside := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	if w.Contains(outside) {
		t.Error("23:00 UTC should be outside a 09:00-18:00 Santiago window")
	}
}

func TestContains_WindowSpanningMidnight(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "22:00", End: "02:00"},
		Timezone:     "UTC",
	})

	if !w.Contains(time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)) {
		t.Error("23:00 should be inside a 22:00-02:00 window")
	}
	if !w.Contains(time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC)) {
		t.Error("01:00 should be inside a 22:00-02:00 window")
	}
	if w.Contains(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)) {
		t.Error("12:00 should be outside a 22:00-02:00 window")
	}
}

func TestContains_Weekdays(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		DaysOfWeek:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:     "UTC",
	})

	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	if !w.Contains(monday) {
		t.Error("Monday noon should be inside a weekday window")
	}
	if w.Contains(saturday) {
		t.Error("Saturday noon should be outside a weekday window")
	}
}

func TestNextOpen_SameDayBeforeStart(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		Timezone:     "UTC",
	})

	at := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if got := w.NextOpen(at); !got.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", got, want)
	}
}

func TestNextOpen_AfterCloseRollsToNextDay(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		Timezone:     "UTC",
	})

	at := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	if got := w.NextOpen(at); !got.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", got, want)
	}
}

func TestNextOpen_SkipsDisallowedWeekdays(t *testing.T) {
	w := mustWindow(t, domain.CallSettings{
		AllowedHours: &domain.AllowedHours{Start: "09:00", End: "18:00"},
		DaysOfWeek:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:     "UTC",
	})

	// Friday 20:00 → next opening is Monday 09:00.
	at := time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	if got := w.NextOpen(at); !got.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", got, want)
	}
}
