package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studzonetools/bunker/internal/bunk"
	"github.com/studzonetools/bunker/internal/studzone"
	"github.com/studzonetools/bunker/internal/timetable"
)

const (
	WHITE      = lipgloss.Color("#FFFFFF")
	BLUE       = lipgloss.Color("#0043a8")
	GREY       = lipgloss.Color("#626262")
	GREEN      = lipgloss.Color("#50FA7B")
	RED        = lipgloss.Color("#FF5555")
	YELLOW     = lipgloss.Color("#F1FA8C")
	LIGHT_BLUE = lipgloss.Color("#8BE9FD")
	LAVENDER   = lipgloss.Color("#B8B8FF")
)

type ViewType int

const (
	LoginView ViewType = iota
	LoadingView
	ErrorView
	AttendanceView
	TimetableView
	WhatIfView
)

type courseReport struct {
	studzone.CourseAttendance
	Projection bunk.Projection
}

type loginResultMsg struct {
	session *studzone.Session
	reports []courseReport
	grid    *timetable.Grid
	err     error
}

type refreshResultMsg struct {
	reports []courseReport
	grid    *timetable.Grid
	err     error
}

type loadingState struct {
	Reason     string
	BottomText string
}

type model struct {
	width  int
	height int

	currentView ViewType
	client      *studzone.Client
	threshold   float64

	creds        studzone.Credentials
	rememberMe   bool
	showPassword bool
	focusedField int
	submitted    bool

	session     *studzone.Session
	reports     []courseReport
	grid        *timetable.Grid
	lastUpdated string
	errText     string

	spinner  spinner.Model
	loading  loadingState
	attTable table.Model

	whatIfFields [4]string
	whatIfFocus  int
	whatIfResult *bunk.WhatIf
}

const (
	fieldRollNo = iota
	fieldPassword
	fieldRememberMe
	fieldLoginButton
)

var whatIfLabels = [4]string{"Current hours", "Current present", "Future classes", "Will attend"}

func NewModel(client *studzone.Client, threshold float64) model {
	creds, err := LoadCreds()

	startView := LoginView
	var rememberMe bool
	if err == nil && creds.RollNo != "" && creds.Password != "" {
		startView = LoadingView
		rememberMe = true
	}

	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(BLUE)
	s.Spinner = spinner.Points

	return model{
		currentView: startView,
		client:      client,
		threshold:   threshold,
		creds:       creds,
		rememberMe:  rememberMe,
		spinner:     s,
		loading: loadingState{
			Reason:     "🔐 Logging in, please wait",
			BottomText: "• Q: Cancel and quit",
		},
	}
}

func (m model) loginCmd() tea.Cmd {
	client, creds, threshold := m.client, m.creds, m.threshold
	return func() tea.Msg {
		session, err := client.Login(creds)
		if err != nil {
			return loginResultMsg{err: err}
		}
		reports, grid, err := fetchAll(session, threshold)
		if err != nil {
			session.Close()
			return loginResultMsg{err: err}
		}
		return loginResultMsg{session: session, reports: reports, grid: grid}
	}
}

func (m model) refreshCmd() tea.Cmd {
	session, threshold := m.session, m.threshold
	return func() tea.Msg {
		reports, grid, err := fetchAll(session, threshold)
		return refreshResultMsg{reports: reports, grid: grid, err: err}
	}
}

func fetchAll(session *studzone.Session, threshold float64) ([]courseReport, *timetable.Grid, error) {
	records, err := session.FetchAttendance()
	if err != nil {
		return nil, nil, err
	}
	reports := make([]courseReport, 0, len(records))
	for _, rec := range records {
		reports = append(reports, courseReport{
			CourseAttendance: rec,
			Projection:       bunk.Project(rec.TotalHours, rec.TotalPresent, threshold),
		})
	}

	grid, err := session.FetchTimetable()
	if err != nil {
		// Attendance alone is still worth showing; the grid gets its own
		// error when the user opens the timetable view.
		grid = nil
	}
	return reports, grid, nil
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.currentView == LoadingView && m.creds.RollNo != "" && m.creds.Password != "" {
		cmds = append(cmds, m.loginCmd())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginResultMsg:
		m.submitted = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			m.currentView = ErrorView
			return m, nil
		}
		m.session = msg.session
		m.applyReports(msg.reports, msg.grid)
		if m.rememberMe {
			_ = SaveCreds(m.creds)
		}
		m.currentView = AttendanceView

	case refreshResultMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			m.currentView = ErrorView
			return m, nil
		}
		m.applyReports(msg.reports, msg.grid)
		m.currentView = AttendanceView

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m *model) applyReports(reports []courseReport, grid *timetable.Grid) {
	m.reports = reports
	m.grid = grid
	m.lastUpdated = ""
	if len(reports) > 0 {
		m.lastUpdated = reports[0].PeriodTo
	}
	m.attTable = newAttendanceTable(reports)
}

func newAttendanceTable(reports []courseReport) table.Model {
	columns := []table.Column{
		{Title: "Course", Width: 10},
		{Title: "Hours", Width: 6},
		{Title: "Present", Width: 8},
		{Title: "%", Width: 7},
		{Title: "Advice", Width: 18},
	}

	var rows []table.Row
	for _, r := range reports {
		advice := fmt.Sprintf("attend %d more", r.Projection.Count)
		if r.Projection.Status == bunk.CanBunk {
			advice = fmt.Sprintf("can bunk %d", r.Projection.Count)
		}
		rows = append(rows, table.Row{
			r.CourseCode,
			strconv.Itoa(r.TotalHours),
			strconv.Itoa(r.TotalPresent),
			fmt.Sprintf("%.2f", r.Percentage),
			advice,
		})
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(min(max(len(rows)+1, 5), 15)),
		table.WithFocused(true),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(BLUE).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(WHITE).
		Background(BLUE).
		Bold(true)
	tbl.SetStyles(s)

	return tbl
}

func (m model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case LoginView:
		return m.handleLoginKeys(msg)
	case LoadingView:
		return m.handleLoadingKeys(msg)
	case ErrorView:
		return m.handleErrorKeys(msg)
	case AttendanceView:
		return m.handleAttendanceKeys(msg)
	case TimetableView:
		return m.handleTimetableKeys(msg)
	case WhatIfView:
		return m.handleWhatIfKeys(msg)
	default:
		return m, nil
	}
}

func (m model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.showPassword = !m.showPassword

	case "tab", "down":
		m.focusedField = (m.focusedField + 1) % 4

	case "shift+tab", "up":
		m.focusedField = (m.focusedField - 1 + 4) % 4

	case "enter":
		switch m.focusedField {
		case fieldRememberMe:
			m.rememberMe = !m.rememberMe
		case fieldLoginButton:
			if m.creds.RollNo == "" || m.creds.Password == "" {
				return m, nil
			}
			m.submitted = true
			m.loading = loadingState{
				Reason:     "🔐 Logging in, please wait",
				BottomText: "• Q: Cancel and quit",
			}
			m.currentView = LoadingView
			return m, tea.Batch(m.spinner.Tick, m.loginCmd())
		}

	case " ":
		if m.focusedField == fieldRememberMe {
			m.rememberMe = !m.rememberMe
		}

	case "backspace":
		if m.focusedField == fieldRollNo && len(m.creds.RollNo) > 0 {
			m.creds.RollNo = m.creds.RollNo[:len(m.creds.RollNo)-1]
		} else if m.focusedField == fieldPassword && len(m.creds.Password) > 0 {
			m.creds.Password = m.creds.Password[:len(m.creds.Password)-1]
		}

	default:
		if len(msg.String()) == 1 {
			if m.focusedField == fieldRollNo {
				m.creds.RollNo += msg.String()
			} else if m.focusedField == fieldPassword {
				m.creds.Password += msg.String()
			}
		}
	}
	return m, nil
}

func (m model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter", "r":
		m.errText = ""
		m.currentView = LoginView
	}
	return m, nil
}

func (m model) handleAttendanceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "t":
		if m.grid != nil {
			m.currentView = TimetableView
		}

	case "w", "enter":
		m.whatIfResult = nil
		m.whatIfFocus = 0
		m.whatIfFields = [4]string{"", "", "", ""}
		if i := m.attTable.Cursor(); i >= 0 && i < len(m.reports) {
			m.whatIfFields[0] = strconv.Itoa(m.reports[i].TotalHours)
			m.whatIfFields[1] = strconv.Itoa(m.reports[i].TotalPresent)
		}
		m.currentView = WhatIfView

	case "r":
		m.loading = loadingState{
			Reason:     "🔄 Refreshing attendance, please wait",
			BottomText: "• Q: Cancel and quit",
		}
		m.currentView = LoadingView
		return m, tea.Batch(m.spinner.Tick, m.refreshCmd())

	case "l":
		if m.session != nil {
			m.session.Close()
		}
		if !m.rememberMe {
			_ = deleteCreds()
		}
		m.session = nil
		m.reports = nil
		m.grid = nil
		m.creds = studzone.Credentials{}
		m.focusedField = fieldRollNo
		m.currentView = LoginView

	default:
		var cmd tea.Cmd
		m.attTable, cmd = m.attTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleTimetableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "enter":
		m.currentView = AttendanceView
	}
	return m, nil
}

func (m model) handleWhatIfKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		m.currentView = AttendanceView

	case "tab", "down":
		m.whatIfFocus = (m.whatIfFocus + 1) % 4

	case "shift+tab", "up":
		m.whatIfFocus = (m.whatIfFocus - 1 + 4) % 4

	case "backspace":
		field := &m.whatIfFields[m.whatIfFocus]
		if len(*field) > 0 {
			*field = (*field)[:len(*field)-1]
		}

	case "enter":
		values := [4]int{}
		for i, raw := range m.whatIfFields {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return m, nil
			}
			values[i] = n
		}
		if values[3] > values[2] {
			return m, nil // cannot attend more classes than are held
		}
		result := bunk.ProjectWhatIf(values[0], values[1], values[2], values[3], m.threshold)
		m.whatIfResult = &result

	default:
		s := msg.String()
		if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			m.whatIfFields[m.whatIfFocus] += s
		}
	}
	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case LoginView:
		return m.renderLogin()
	case LoadingView:
		return m.renderLoading()
	case ErrorView:
		return m.renderError()
	case AttendanceView:
		return m.renderAttendance()
	case TimetableView:
		return m.renderTimetable()
	case WhatIfView:
		return m.renderWhatIf()
	default:
		return "Unknown view"
	}
}

func (m model) renderLogin() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LIGHT_BLUE).
		MarginBottom(2)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE)

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(WHITE).
		Padding(0, 1).
		Width(30).
		MarginBottom(1)

	focusedInputStyle := inputStyle.
		BorderForeground(BLUE)

	checkboxStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE)

	focusedCheckboxStyle := checkboxStyle.
		Foreground(BLUE)

	buttonStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE).
		Padding(0, 2).
		Margin(1, 0).
		Border(lipgloss.RoundedBorder())

	focusedButtonStyle := buttonStyle.
		Background(BLUE)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY)

	title := titleStyle.Render("StudZone Bunker")

	var rollNoInput string
	rollNoValue := m.creds.RollNo
	if m.focusedField == fieldRollNo {
		rollNoValue += "│"
		rollNoInput = focusedInputStyle.Render(rollNoValue)
	} else {
		if rollNoValue == "" {
			rollNoValue = "Enter your roll number"
		}
		rollNoInput = inputStyle.Render(rollNoValue)
	}
	rollNoField := lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render("Roll Number:"), rollNoInput)

	var passwordInput string
	passwordValue := strings.Repeat("*", len(m.creds.Password))
	if m.showPassword {
		passwordValue = m.creds.Password
	}
	if m.focusedField == fieldPassword {
		passwordValue += "│"
		passwordInput = focusedInputStyle.Render(passwordValue)
	} else {
		if len(m.creds.Password) == 0 {
			passwordValue = "Enter your password"
		}
		passwordInput = inputStyle.Render(passwordValue)
	}
	passwordField := lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render("Password:"), passwordInput)

	checkboxChar := "○"
	if m.rememberMe {
		checkboxChar = "●"
	}
	rememberMeField := checkboxStyle.Render(fmt.Sprintf("%s Remember me", checkboxChar))
	if m.focusedField == fieldRememberMe {
		rememberMeField = focusedCheckboxStyle.Render(fmt.Sprintf("%s Remember me", checkboxChar))
	}

	loginButton := buttonStyle.Render("Login")
	if m.focusedField == fieldLoginButton {
		loginButton = focusedButtonStyle.Render("Login")
	}

	helpText := helpStyle.Render("• ↑/↓: Navigate • Esc: Show password • Enter/Space: Select • Ctrl+C: Quit")

	content := lipgloss.JoinVertical(lipgloss.Center, title, rollNoField, passwordField, rememberMeField, loginButton, "", helpText)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderLoading() string {
	reasonStyle := lipgloss.NewStyle().
		Foreground(WHITE).
		Bold(true).
		MarginBottom(1)

	quitStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	content := lipgloss.JoinVertical(lipgloss.Center,
		reasonStyle.Render(m.loading.Reason),
		m.spinner.View(),
		quitStyle.Render(m.loading.BottomText),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderError() string {
	errorStyle := lipgloss.NewStyle().
		Foreground(RED).
		Bold(true).
		MarginBottom(1)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY)

	content := lipgloss.JoinVertical(lipgloss.Center,
		errorStyle.Render("✗ "+m.errText),
		helpStyle.Render("• Enter/R: Back to login • Q: Quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderAttendance() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LIGHT_BLUE).
		MarginBottom(1)

	summaryStyle := lipgloss.NewStyle().
		Foreground(LAVENDER).
		MarginBottom(1)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	header := headerStyle.Render("📋 Attendance")
	summary := ""
	if m.lastUpdated != "" {
		summary = summaryStyle.Render("Updated up to " + m.lastUpdated)
	}

	var below, above int
	for _, r := range m.reports {
		if r.Projection.Status == bunk.NeedAttend {
			below++
		} else {
			above++
		}
	}
	countStyleOK := lipgloss.NewStyle().Foreground(GREEN).Bold(true)
	countStyleBad := lipgloss.NewStyle().Foreground(RED).Bold(true)
	counts := countStyleOK.Render(fmt.Sprintf("%d safe", above)) + "  " +
		countStyleBad.Render(fmt.Sprintf("%d below threshold", below))

	helpText := helpStyle.Render("• ↑/↓: Navigate • Enter/W: What-if • T: Timetable • R: Refresh • L: Logout • Q: Quit")

	content := lipgloss.JoinVertical(lipgloss.Center, header, summary, m.attTable.View(), counts, helpText)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderTimetable() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LIGHT_BLUE).
		MarginBottom(1)

	dayStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(YELLOW).
		Width(5)

	slotStyle := lipgloss.NewStyle().
		Foreground(WHITE).
		Width(12)

	freeStyle := lipgloss.NewStyle().
		Foreground(GREY).
		Width(12)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	var lines []string
	lines = append(lines, headerStyle.Render("📅 Weekly Timetable"))
	for _, day := range m.grid.Days {
		cells := []string{dayStyle.Render(day.Day)}
		for _, slot := range day.Slots {
			switch {
			case slot.Free:
				cells = append(cells, freeStyle.Render("·"))
			case slot.CourseCode != "":
				cells = append(cells, slotStyle.Render(slot.CourseCode))
			default:
				cells = append(cells, slotStyle.Render(slot.CourseName))
			}
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	lines = append(lines, helpStyle.Render("• Esc/Enter: Back • Q: Quit"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderWhatIf() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(LIGHT_BLUE).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(WHITE)

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(WHITE).
		Padding(0, 1).
		Width(20)

	focusedInputStyle := inputStyle.
		BorderForeground(BLUE)

	helpStyle := lipgloss.NewStyle().
		Foreground(GREY).
		MarginTop(1)

	parts := []string{headerStyle.Render("🔮 What-If Projection")}
	for i, label := range whatIfLabels {
		value := m.whatIfFields[i]
		style := inputStyle
		if i == m.whatIfFocus {
			value += "│"
			style = focusedInputStyle
		}
		parts = append(parts, lipgloss.JoinVertical(lipgloss.Left,
			labelStyle.Render(label+":"), style.Render(value)))
	}

	if r := m.whatIfResult; r != nil {
		resultStyle := lipgloss.NewStyle().Foreground(GREEN).Bold(true).MarginTop(1)
		if r.Projection.Status == bunk.NeedAttend {
			resultStyle = resultStyle.Foreground(RED)
		}
		advice := fmt.Sprintf("attend %d more", r.Projection.Count)
		if r.Projection.Status == bunk.CanBunk {
			advice = fmt.Sprintf("can bunk %d", r.Projection.Count)
		}
		parts = append(parts, resultStyle.Render(fmt.Sprintf(
			"now %.2f%% → then %.2f%% • %s",
			r.CurrentPercentage, r.Projection.CurrentPercentage, advice)))
	}

	parts = append(parts, helpStyle.Render("• Tab/↑/↓: Fields • Enter: Compute • Esc: Back • Q: Quit"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
