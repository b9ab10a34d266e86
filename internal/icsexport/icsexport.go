// Package icsexport renders a weekly timetable grid as an iCalendar file so
// the schedule can be dropped into any calendar client.
package icsexport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/studzonetools/bunker/internal/timetable"
)

var weekdays = map[string]time.Weekday{
	"MON": time.Monday, "MONDAY": time.Monday,
	"TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"THU": time.Thursday, "THURSDAY": time.Thursday,
	"FRI": time.Friday, "FRIDAY": time.Friday,
	"SAT": time.Saturday, "SATURDAY": time.Saturday,
	"SUN": time.Sunday, "SUNDAY": time.Sunday,
}

// WeekStart returns the Monday of the week containing now, at midnight in
// now's location.
func WeekStart(now time.Time) time.Time {
	offset := int(time.Monday - now.Weekday())
	if offset > 0 {
		offset = -6 // Sunday
	}
	day := now.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

// Calendar builds one event per scheduled (non-free) slot in the week
// starting at weekStart. Day labels the exporter does not recognise are
// skipped rather than guessed at.
func Calendar(grid *timetable.Grid, weekStart time.Time) (*ics.Calendar, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//studzonetools//bunker//EN")

	for _, day := range grid.Days {
		wd, ok := weekdays[strings.ToUpper(strings.TrimSpace(day.Day))]
		if !ok {
			continue
		}
		date := weekStart.AddDate(0, 0, (int(wd)-int(time.Monday)+7)%7)

		for _, slot := range day.Slots {
			if slot.Free {
				continue
			}
			start, end, err := slotTimes(date, slot.TimeRange)
			if err != nil {
				return nil, fmt.Errorf("icsexport: %s period %d: %w", day.Day, slot.Period, err)
			}

			event := cal.AddEvent(fmt.Sprintf("%s-p%d@bunker", strings.ToLower(day.Day), slot.Period))
			event.SetCreatedTime(time.Now())
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(slotSummary(slot))
		}
	}
	return cal, nil
}

func slotSummary(slot timetable.Slot) string {
	switch {
	case slot.CourseCode != "" && slot.CourseName != "":
		return slot.CourseCode + " " + slot.CourseName
	case slot.CourseCode != "":
		return slot.CourseCode
	default:
		return slot.CourseName
	}
}

// slotTimes parses a header time range like "8.30 - 9.20" onto a concrete
// date. The grid clock is 12-hour with no meridiem; anything before 8 is an
// afternoon period.
func slotTimes(date time.Time, timeRange string) (time.Time, time.Time, error) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("unparseable time range %q", timeRange)
	}

	start, err := clockOn(date, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := clockOn(date, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.Add(12 * time.Hour)
	}
	return start, end, nil
}

func clockOn(date time.Time, s string) (time.Time, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ":"))
	hm := strings.SplitN(s, ":", 2)
	if len(hm) != 2 {
		return time.Time{}, fmt.Errorf("unparseable time %q", s)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hm[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q", s)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(hm[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q", s)
	}
	if hour < 8 {
		hour += 12
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
