package studzone

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/studzonetools/bunker/internal/htmltable"
	"github.com/studzonetools/bunker/internal/timetable"
)

const (
	timetableGridTable = "table#DtStfTimtab"
	courseTitleTable   = "table#TbCourDesc"
)

// FetchTimetable fetches the timetable page and builds the weekly grid.
// Course names are filled in from the course description table on the same
// page when the portal renders one.
func (s *Session) FetchTimetable() (*timetable.Grid, error) {
	doc, err := s.get(timetablePage)
	if err != nil {
		return nil, err
	}

	rows, err := htmltable.ExtractDoc(doc, timetableGridTable)
	if err != nil {
		return nil, err
	}
	grid, err := timetable.FromRows(rows)
	if err != nil {
		return nil, err
	}
	grid.Annotate(titlesFromDoc(doc))
	return grid, nil
}

// FetchCourseTitles returns the course code -> title map from the timetable
// page. Not every programme gets the table; absence yields an empty map,
// not an error.
func (s *Session) FetchCourseTitles() (map[string]string, error) {
	doc, err := s.get(timetablePage)
	if err != nil {
		return nil, err
	}
	return titlesFromDoc(doc), nil
}

func titlesFromDoc(doc *goquery.Document) map[string]string {
	titles := make(map[string]string)

	rows, err := htmltable.ExtractDoc(doc, courseTitleTable)
	if err != nil {
		return titles
	}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		titles[row[0].Text] = row[1].Text
	}
	return titles
}
