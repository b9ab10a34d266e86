package studzone

import (
	"strconv"
	"strings"

	"github.com/studzonetools/bunker/internal/htmltable"
)

const attendanceTable = "table.cssbody"

// attendanceSchema is the declared layout of the portal's attendance table.
// Column positions are fixed by the portal; if the college reshuffles them,
// only this block changes.
var attendanceSchema = htmltable.Schema{
	Kind: "attendance",
	Fields: []string{
		"course_code",
		"total_hours",
		"exemption_hours",
		"total_absent",
		"total_present",
		"percentage",
		"percentage_with_exemption",
		"percentage_with_medical",
		"period_from",
		"period_to",
	},
}

// CourseAttendance is one course's row from the attendance page. Percentage
// is the portal's own figure, taken verbatim; it is only ever recomputed
// when a manual adjustment is merged in.
type CourseAttendance struct {
	CourseCode     string  `json:"course_code"`
	TotalHours     int     `json:"total_hours"`
	ExemptionHours int     `json:"exemption_hours"`
	TotalAbsent    int     `json:"total_absent"`
	TotalPresent   int     `json:"total_present"`
	Percentage     float64 `json:"percentage"`
	PeriodFrom     string  `json:"period_from"`
	PeriodTo       string  `json:"period_to"`
}

// FetchAttendance fetches and parses the attendance page. Rows narrower
// than the declared schema fail the whole call; a partially-populated
// record is worse than no record.
func (s *Session) FetchAttendance() ([]CourseAttendance, error) {
	doc, err := s.get(attendancePage)
	if err != nil {
		return nil, err
	}

	rows, err := htmltable.ExtractDoc(doc, attendanceTable)
	if err != nil {
		return nil, err
	}

	records := make([]CourseAttendance, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		rec, err := parseAttendanceRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseAttendanceRow(row htmltable.Row) (CourseAttendance, error) {
	if err := attendanceSchema.Check(row); err != nil {
		return CourseAttendance{}, err
	}
	cell := func(name string) htmltable.Cell {
		return row[attendanceSchema.Col(name)]
	}

	rec := CourseAttendance{
		CourseCode: cell("course_code").Text,
		PeriodFrom: cell("period_from").Text,
		PeriodTo:   cell("period_to").Text,
	}
	// Some programmes render the code as a bold sub-span inside a cell
	// that also carries the course name.
	if code := cell("course_code").Code; code != "" {
		rec.CourseCode = code
	}

	var err error
	if rec.TotalHours, err = intField(cell("total_hours"), "total_hours"); err != nil {
		return CourseAttendance{}, err
	}
	if rec.ExemptionHours, err = intField(cell("exemption_hours"), "exemption_hours"); err != nil {
		return CourseAttendance{}, err
	}
	if rec.TotalAbsent, err = intField(cell("total_absent"), "total_absent"); err != nil {
		return CourseAttendance{}, err
	}
	if rec.TotalPresent, err = intField(cell("total_present"), "total_present"); err != nil {
		return CourseAttendance{}, err
	}
	if rec.Percentage, err = floatField(cell("percentage"), "percentage"); err != nil {
		return CourseAttendance{}, err
	}
	return rec, nil
}

func intField(c htmltable.Cell, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Text))
	if err != nil {
		return 0, attendanceSchema.Malformed(name)
	}
	return n, nil
}

func floatField(c htmltable.Cell, name string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	if err != nil {
		return 0, attendanceSchema.Malformed(name)
	}
	return f, nil
}
