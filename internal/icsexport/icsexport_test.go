package icsexport

import (
	"strings"
	"testing"
	"time"

	"github.com/studzonetools/bunker/internal/timetable"
)

func TestWeekStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// A Wednesday maps back to its Monday.
		{time.Date(2026, 8, 26, 15, 4, 5, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		// Monday maps to itself at midnight.
		{time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		// Sunday belongs to the week that started six days earlier.
		{time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC), time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := WeekStart(tc.now); !got.Equal(tc.want) {
			t.Fatalf("WeekStart(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestCalendarSkipsFreeSlots(t *testing.T) {
	t.Parallel()

	grid := &timetable.Grid{
		Days: []timetable.DaySchedule{
			{
				Day: "MON",
				Slots: []timetable.Slot{
					{Period: 1, TimeRange: "8.30 - 9.20", CourseCode: "19Z101", CourseName: "Data Structures"},
					{Period: 2, TimeRange: "9.20 - 10.10", Free: true},
					{Period: 3, TimeRange: "1.40 - 2.30", CourseCode: "19Z102"},
				},
			},
			{
				Day:   "HOLIDAY", // not a weekday the exporter knows
				Slots: []timetable.Slot{{Period: 1, TimeRange: "8.30 - 9.20", CourseCode: "19Z103"}},
			},
		},
	}

	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	cal, err := Calendar(grid, weekStart)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (free slot and unknown day skipped), got %d", len(events))
	}

	out := cal.Serialize()
	if !strings.Contains(out, "19Z101 Data Structures") {
		t.Fatalf("expected code+name summary in output:\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY:19Z102") {
		t.Fatalf("expected bare-code summary in output:\n%s", out)
	}
	if strings.Contains(out, "19Z103") {
		t.Fatalf("unknown day label leaked into output:\n%s", out)
	}
}

func TestSlotTimesAfternoonHeuristic(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	start, end, err := slotTimes(date, "1.40 - 2.30")
	if err != nil {
		t.Fatalf("slotTimes: %v", err)
	}
	if start.Hour() != 13 || start.Minute() != 40 {
		t.Fatalf("expected 13:40 start, got %v", start)
	}
	if end.Hour() != 14 || end.Minute() != 30 {
		t.Fatalf("expected 14:30 end, got %v", end)
	}

	// Morning slots pass through untouched.
	start, end, err = slotTimes(date, "8.30 - 9.20")
	if err != nil {
		t.Fatalf("slotTimes: %v", err)
	}
	if start.Hour() != 8 || end.Hour() != 9 {
		t.Fatalf("expected 8:30-9:20, got %v-%v", start, end)
	}

	// A range straddling noon must not run backwards.
	start, end, err = slotTimes(date, "11.30 - 12.20")
	if err != nil {
		t.Fatalf("slotTimes: %v", err)
	}
	if !end.After(start) {
		t.Fatalf("expected end after start, got %v-%v", start, end)
	}

	if _, _, err := slotTimes(date, "whenever"); err == nil {
		t.Fatal("expected error for unparseable range")
	}
}
