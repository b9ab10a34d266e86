// Package studzone logs in to the PSG Tech StudZone portal and fetches the
// attendance and timetable pages through the resulting session.
//
// The portal is an ASP.NET WebForms application: every page embeds opaque
// state tokens that must be echoed back unmodified on the next POST, and
// authentication lives entirely in the cookie jar established during the
// login exchange. A Session therefore owns one cookie-bearing HTTP client
// and must be reused verbatim for every subsequent fetch.
package studzone

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the live portal. Tests point the client elsewhere.
const DefaultBaseURL = "https://ecampus.psgtech.ac.in/studzone2/"

const (
	attendancePage = "AttWfPercView.aspx"
	timetablePage  = "AttWfStudTimtab.aspx"
)

// Hidden state tokens the server requires to be replayed blind.
var stateTokens = []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"}

// loginFailureMarker appears in the response body when the portal rejects
// the credentials; success is its absence.
const loginFailureMarker = "Invalid"

// loginFormMarker is the login form's user field. Seeing it on a data page
// means the portal bounced us back to the login screen.
const loginFormMarker = `name="txtusercheck"`

// Credentials are consumed once by Login and never logged.
type Credentials struct {
	RollNo   string
	Password string
}

// Client builds Sessions against one portal host.
type Client struct {
	BaseURL string
	Timeout time.Duration
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, Timeout: 30 * time.Second}
}

// Session is an authenticated handle on the portal. It is owned by the
// caller that created it and is valid until the portal's own expiry, which
// is unobservable until a fetch returns ErrSessionExpired. Concurrent
// fetches on one Session will not corrupt each other's exchange, but no
// atomicity is promised across their results.
type Session struct {
	client  *http.Client
	baseURL *url.URL
}

// Login replays the portal's two-step form handshake: fetch the landing
// page, lift the hidden state tokens out of it, and post them back together
// with the credentials to the same resolved URL.
func (c *Client) Login(creds Credentials) (*Session, error) {
	if creds.RollNo == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("studzone: base url %q: %w", c.BaseURL, err)
	}

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar, Timeout: c.Timeout}

	resp, err := client.Get(base.String())
	if err != nil {
		return nil, transient("fetch login page", err)
	}
	// The portal redirects to the actual login form; the resolved URL is
	// the one the form must be posted back to, and the one the server
	// expects in the Referer header.
	formURL := resp.Request.URL.String()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, transient("parse login page", err)
	}

	form := url.Values{}
	form.Set("__EVENTTARGET", "")
	form.Set("__EVENTARGUMENT", "")
	form.Set("__LASTFOCUS", "")
	for _, name := range stateTokens {
		val, ok := doc.Find("input[name='" + name + "']").Attr("value")
		if !ok {
			// The portal occasionally serves an interstitial without the
			// form; a retry usually gets the real page.
			return nil, transient("read form state", fmt.Errorf("hidden field %s missing", name))
		}
		form.Set(name, val)
	}
	form.Set("rdolst", "S") // student login mode
	form.Set("txtusercheck", creds.RollNo)
	form.Set("txtpwdcheck", creds.Password)
	form.Set("abcd3", "Login")

	req, err := http.NewRequest(http.MethodPost, formURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transient("build login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", formURL)

	resp, err = client.Do(req)
	if err != nil {
		return nil, transient("submit login form", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient("read login response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, transient("submit login form", fmt.Errorf("unexpected status %s", resp.Status))
	}
	if bytes.Contains(body, []byte(loginFailureMarker)) {
		return nil, ErrInvalidCredentials
	}

	return &Session{client: client, baseURL: base}, nil
}

// get fetches one portal page through the session's cookie jar and parses
// it. Landing back on the login form is reported as ErrSessionExpired.
func (s *Session) get(page string) (*goquery.Document, error) {
	ref, err := s.baseURL.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("studzone: page %q: %w", page, err)
	}

	resp, err := s.client.Get(ref.String())
	if err != nil {
		return nil, transient("fetch "+page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transient("read "+page, err)
	}
	if bytes.Contains(body, []byte(loginFormMarker)) {
		return nil, ErrSessionExpired
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, transient("parse "+page, err)
	}
	return doc, nil
}

// Close releases the session's idle connections. The portal models no
// explicit logout; server-side expiry is left to the server.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}
