// Package htmltable turns one table inside a server-rendered portal page
// into ordered rows of cells. The portal's markup is loose: merged cells,
// placeholder entities and decorative sub-elements all appear in the wild,
// so every cell keeps its span and any bold/tooltip sub-structure for the
// consumer to interpret.
package htmltable

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrTableNotFound means the selector matched nothing: the wrong page
	// was fetched or the portal changed its layout.
	ErrTableNotFound = errors.New("htmltable: table not found")

	// ErrPortalProcessing means the table is absent because the portal is
	// regenerating it server-side. Retry later.
	ErrPortalProcessing = errors.New("htmltable: portal data is being regenerated")
)

// The portal announces regeneration through its status span rather than an
// HTTP status code.
const (
	statusSelector   = "span#Message"
	processingMarker = "On Process"
)

// Cell is one logical table cell. Span is the declared colspan (>= 1) and
// is not expanded here; grid consumers expand it against their own axis.
type Cell struct {
	Text  string // visible text, whitespace-collapsed
	Span  int
	Code  string // bolded sub-element, used as a course code when present
	Title string // title-attribute of a detail sub-element, e.g. a full name
}

// Free reports whether the cell is the portal's "no class" marker: a bare
// "-", an empty cell or a non-breaking-space placeholder.
func (c Cell) Free() bool {
	t := strings.TrimSpace(strings.ReplaceAll(c.Text, " ", ""))
	return t == "" || t == "-"
}

// Row is an ordered left-to-right sequence of cells.
type Row []Cell

// Extract parses the document in r and returns the rows of the first table
// matched by selector. Extraction is a pure function of its input.
func Extract(r io.Reader, selector string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmltable: parse document: %w", err)
	}
	return ExtractDoc(doc, selector)
}

// ExtractDoc is Extract over an already-parsed document, for callers that
// read several tables out of one page.
func ExtractDoc(doc *goquery.Document, selector string) ([]Row, error) {
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		if strings.Contains(doc.Find(statusSelector).Text(), processingMarker) {
			return nil, ErrPortalProcessing
		}
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, selector)
	}

	var rows []Row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row Row
		tr.Find("td, th").Each(func(_ int, td *goquery.Selection) {
			row = append(row, newCell(td))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows, nil
}

func newCell(td *goquery.Selection) Cell {
	cell := Cell{Text: collapse(td.Text()), Span: 1}

	if v, ok := td.Attr("colspan"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
			cell.Span = n
		}
	}
	if b := td.Find("b, strong").First(); b.Length() > 0 {
		cell.Code = collapse(b.Text())
	}
	if t := td.Find("[title]").First(); t.Length() > 0 {
		cell.Title = collapse(t.AttrOr("title", ""))
	}
	return cell
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}
