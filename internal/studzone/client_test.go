package studzone

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studzonetools/bunker/internal/htmltable"
)

// fakePortal mimics the WebForms portal: a login form with hidden state
// tokens, cookie-gated data pages, and the portal's marker strings.
type fakePortal struct {
	viewState       string
	viewStateGen    string
	eventValidation string
	password        string

	lastForm    map[string]string
	lastReferer string

	attendanceHTML string
	timetableHTML  string
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		viewState:       "vs-blob==",
		viewStateGen:    "CA0B0334",
		eventValidation: "ev-blob==",
		password:        "hunter2",
	}
}

func (p *fakePortal) loginForm() string {
	return fmt.Sprintf(`<html><body><form>
<input name="__VIEWSTATE" value="%s"/>
<input name="__VIEWSTATEGENERATOR" value="%s"/>
<input name="__EVENTVALIDATION" value="%s"/>
<input name="txtusercheck"/><input name="txtpwdcheck"/>
</form></body></html>`, p.viewState, p.viewStateGen, p.eventValidation)
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, p.loginForm())
			return
		}

		_ = r.ParseForm()
		p.lastForm = map[string]string{}
		for k := range r.PostForm {
			p.lastForm[k] = r.PostForm.Get(k)
		}
		p.lastReferer = r.Header.Get("Referer")

		if r.PostForm.Get("txtpwdcheck") != p.password {
			fmt.Fprint(w, `<html><body>Invalid User Name/Password</body></html>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "fake-session", Path: "/"})
		fmt.Fprint(w, `<html><body>Welcome</body></html>`)
	})
	mux.HandleFunc("/AttWfPercView.aspx", func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(r) {
			fmt.Fprint(w, p.loginForm())
			return
		}
		fmt.Fprint(w, p.attendanceHTML)
	})
	mux.HandleFunc("/AttWfStudTimtab.aspx", func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(r) {
			fmt.Fprint(w, p.loginForm())
			return
		}
		fmt.Fprint(w, p.timetableHTML)
	})
	return mux
}

func (p *fakePortal) authed(r *http.Request) bool {
	c, err := r.Cookie("ASP.NET_SessionId")
	return err == nil && c.Value == "fake-session"
}

func startPortal(t *testing.T, p *fakePortal) *Client {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestLoginReplaysStateTokens(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	want := map[string]string{
		"__EVENTTARGET":        "",
		"__EVENTARGUMENT":      "",
		"__LASTFOCUS":          "",
		"__VIEWSTATE":          portal.viewState,
		"__VIEWSTATEGENERATOR": portal.viewStateGen,
		"__EVENTVALIDATION":    portal.eventValidation,
		"rdolst":               "S",
		"txtusercheck":         "21Z001",
		"txtpwdcheck":          "hunter2",
		"abcd3":                "Login",
	}
	for k, v := range want {
		got, ok := portal.lastForm[k]
		if !ok {
			t.Fatalf("login POST missing field %s", k)
		}
		if got != v {
			t.Fatalf("field %s = %q, want %q", k, got, v)
		}
	}
	if portal.lastReferer == "" || !strings.HasPrefix(portal.lastReferer, "http") {
		t.Fatalf("expected Referer set to the resolved login URL, got %q", portal.lastReferer)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()
	client := startPortal(t, newFakePortal())

	_, err := client.Login(Credentials{RollNo: "21Z001", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginEmptyCredentials(t *testing.T) {
	t.Parallel()
	client := startPortal(t, newFakePortal())
	if _, err := client.Login(Credentials{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginTransientOnUnreachablePortal(t *testing.T) {
	t.Parallel()
	client := NewClient("http://127.0.0.1:1/") // nothing listens here

	_, err := client.Login(Credentials{RollNo: "21Z001", Password: "x"})
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestFetchAttendance(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	portal.attendanceHTML = `<html><body><table class="cssbody">
<tr><td>Code</td><td>Tot</td><td>Exem</td><td>Abs</td><td>Pres</td><td>%</td><td>%E</td><td>%M</td><td>From</td><td>To</td></tr>
<tr><td>19Z101</td><td>40</td><td>0</td><td>10</td><td>30</td><td>75</td><td>75</td><td>75</td><td>01/07/2026</td><td>31/08/2026</td></tr>
<tr><td>19Z102</td><td>32</td><td>2</td><td>2</td><td>30</td><td>94</td><td>94</td><td>94</td><td>01/07/2026</td><td>31/08/2026</td></tr>
</table></body></html>`
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	records, err := sess.FetchAttendance()
	if err != nil {
		t.Fatalf("fetch attendance: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.CourseCode != "19Z101" || first.TotalHours != 40 || first.TotalPresent != 30 {
		t.Fatalf("unexpected record %+v", first)
	}
	if first.Percentage != 75 {
		t.Fatalf("expected verbatim percentage 75, got %v", first.Percentage)
	}
	if first.PeriodFrom != "01/07/2026" || first.PeriodTo != "31/08/2026" {
		t.Fatalf("unexpected period %q..%q", first.PeriodFrom, first.PeriodTo)
	}
}

func TestFetchAttendanceSchemaMismatch(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	portal.attendanceHTML = `<html><body><table class="cssbody">
<tr><td>Code</td><td>Tot</td><td>Exem</td><td>Abs</td><td>Pres</td><td>%</td></tr>
<tr><td>19Z101</td><td>40</td><td>0</td><td>10</td><td>30</td><td>75</td></tr>
</table></body></html>`
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	_, err = sess.FetchAttendance()
	var se *htmltable.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError for a 6-column row, got %v", err)
	}
}

func TestFetchAttendancePortalProcessing(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	portal.attendanceHTML = `<html><body><span id="Message">Attendance On Process</span></body></html>`
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	_, err = sess.FetchAttendance()
	if !errors.Is(err, htmltable.ErrPortalProcessing) {
		t.Fatalf("expected ErrPortalProcessing, got %v", err)
	}
}

func TestFetchTimetable(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	portal.timetableHTML = `<html><body>
<table id="DtStfTimtab">
<tr><td>Period</td><td>1</td><td>2</td><td>3</td></tr>
<tr><td>Day/Time</td><td>8.30 - 9.20</td><td>9.20 - 10.10</td><td>10.30 - 11.20</td></tr>
<tr><td>MON</td><td><b>19Z101</b></td><td>-</td><td colspan="2">19Z102</td></tr>
</table>
<table id="TbCourDesc">
<tr><td>Code</td><td>Title</td></tr>
<tr><td>19Z101</td><td>Data Structures</td></tr>
</table>
</body></html>`
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	grid, err := sess.FetchTimetable()
	if err != nil {
		t.Fatalf("fetch timetable: %v", err)
	}
	mon, ok := grid.Day("MON")
	if !ok {
		t.Fatal("expected MON schedule")
	}
	// Spanning cell expands to periods 3 only: the header has 3 columns
	// and period 3 is the last.
	if len(mon.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(mon.Slots))
	}
	if mon.Slots[0].CourseCode != "19Z101" {
		t.Fatalf("unexpected first slot %+v", mon.Slots[0])
	}
	if mon.Slots[0].CourseName != "Data Structures" {
		t.Fatalf("expected annotation from TbCourDesc, got %q", mon.Slots[0].CourseName)
	}
	if !mon.Slots[1].Free {
		t.Fatal("expected sentinel slot to be free")
	}
}

func TestSessionExpired(t *testing.T) {
	t.Parallel()
	portal := newFakePortal()
	client := startPortal(t, portal)

	sess, err := client.Login(Credentials{RollNo: "21Z001", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer sess.Close()

	// The portal dropping its cookie bounces fetches back to the login
	// form, which must surface as expiry, not a missing table.
	sess.client.Jar = nil

	_, err = sess.FetchAttendance()
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
