// Package timetable builds a Day -> ordered Slot grid out of the portal's
// weekly timetable table.
package timetable

import (
	"fmt"

	"github.com/studzonetools/bunker/internal/htmltable"
)

// Slot is one period of one day. Free means no class is scheduled there.
type Slot struct {
	Day        string `json:"day"`
	Period     int    `json:"period"`
	TimeRange  string `json:"time_range"`
	CourseCode string `json:"course_code,omitempty"`
	CourseName string `json:"course_name,omitempty"`
	Free       bool   `json:"free"`
}

// DaySchedule is one day's slots in period order.
type DaySchedule struct {
	Day   string `json:"day"`
	Slots []Slot `json:"slots"`
}

// Grid is the full weekly grid. Days appear in the order the portal listed
// them; no canonicalization or deduplication happens here.
type Grid struct {
	Periods []string      `json:"periods"`
	Times   []string      `json:"times"`
	Days    []DaySchedule `json:"days"`
}

// FromRows splits the portal's raw timetable rows into the two header rows
// (period numbers, time ranges) and the day rows, then builds the grid.
func FromRows(rows []htmltable.Row) (*Grid, error) {
	if len(rows) < 3 {
		return nil, fmt.Errorf("%w: timetable grid is missing its header rows", htmltable.ErrTableNotFound)
	}
	return Build(rows[2:], headerValues(rows[0]), headerValues(rows[1])), nil
}

// headerValues drops the leading label cell ("Period", "Day/Time").
func headerValues(row htmltable.Row) []string {
	values := make([]string, 0, len(row))
	for _, cell := range row[1:] {
		values = append(values, cell.Text)
	}
	return values
}

// Build expands each day row against the period header. A cell spanning N
// columns becomes N consecutive slots with identical content; the header
// length is authoritative, so expansion that would run past it is silently
// dropped.
func Build(dayRows []htmltable.Row, periods, times []string) *Grid {
	g := &Grid{Periods: periods, Times: times}

	for _, row := range dayRows {
		if len(row) == 0 {
			continue
		}
		sched := DaySchedule{Day: row[0].Text}

		pos := 0
		for _, cell := range row[1:] {
			for n := 0; n < cell.Span && pos < len(periods); n++ {
				slot := Slot{
					Day:    sched.Day,
					Period: pos + 1,
				}
				if pos < len(times) {
					slot.TimeRange = times[pos]
				}
				switch {
				case cell.Free():
					slot.Free = true
				case cell.Code != "":
					slot.CourseCode = cell.Code
					slot.CourseName = cell.Title
				default:
					slot.CourseName = cell.Text
				}
				sched.Slots = append(sched.Slots, slot)
				pos++
			}
		}
		g.Days = append(g.Days, sched)
	}
	return g
}

// Annotate fills in full course names from the portal's course description
// table for slots that only carry a code.
func (g *Grid) Annotate(titles map[string]string) {
	if len(titles) == 0 {
		return
	}
	for di := range g.Days {
		slots := g.Days[di].Slots
		for si := range slots {
			if slots[si].CourseCode == "" || slots[si].CourseName != "" {
				continue
			}
			if title, ok := titles[slots[si].CourseCode]; ok {
				slots[si].CourseName = title
			}
		}
	}
}

// Day returns the first schedule with the given day label, if present.
func (g *Grid) Day(name string) (DaySchedule, bool) {
	for _, d := range g.Days {
		if d.Day == name {
			return d, true
		}
	}
	return DaySchedule{}, false
}
