package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/studzonetools/bunker/internal/bunk"
	"github.com/studzonetools/bunker/internal/htmltable"
	"github.com/studzonetools/bunker/internal/studzone"
	"github.com/studzonetools/bunker/internal/timetable"
)

type loginRequest struct {
	RollNo   string `json:"rollno" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type whatIfRequest struct {
	CurrentHours   int `json:"current_hours" validate:"gte=0"`
	CurrentPresent int `json:"current_present" validate:"gte=0,ltefield=CurrentHours"`
	FutureClasses  int `json:"future_classes" validate:"gte=0"`
	FutureAttended int `json:"future_attended" validate:"gte=0,ltefield=FutureClasses"`
}

type adjustRequest struct {
	CourseCode   string `json:"course_code" validate:"required"`
	ExtraHours   int    `json:"extra_hours" validate:"gte=0"`
	ExtraPresent int    `json:"extra_present" validate:"gte=0,ltefield=ExtraHours"`
}

// courseReport is a fetched record with its projection, after any stored
// manual adjustment has been folded in.
type courseReport struct {
	studzone.CourseAttendance
	Projection bunk.Projection `json:"projection"`
	Adjusted   bool            `json:"adjusted,omitempty"`
}

type dashboardResponse struct {
	Attendance  []courseReport  `json:"attendance"`
	Timetable   *timetable.Grid `json:"timetable,omitempty"`
	LastUpdated string          `json:"last_updated,omitempty"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return badRequest(c, "rollno and password are required")
	}

	sess, err := s.client.Login(studzone.Credentials{RollNo: req.RollNo, Password: req.Password})
	if err != nil {
		return s.respondErr(c, err)
	}

	sid := s.store.Put(sess)
	if err := s.issueCookie(c, sid); err != nil {
		s.store.Delete(sid)
		return s.respondErr(c, err)
	}

	// First response doubles as the dashboard: attendance with advice,
	// plus the weekly grid if the portal serves it.
	records, err := sess.FetchAttendance()
	if err != nil {
		return s.respondErr(c, err)
	}
	resp := dashboardResponse{Attendance: s.report(records, nil)}
	if len(records) > 0 {
		resp.LastUpdated = records[0].PeriodTo
	}
	if grid, err := sess.FetchTimetable(); err == nil {
		resp.Timetable = grid
	}
	return c.JSON(resp)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if sid, err := s.sessionID(c); err == nil {
		s.store.Delete(sid)
	}
	s.clearCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleAttendance(c *fiber.Ctx) error {
	sess, sid, err := s.session(c)
	if err != nil {
		return s.respondErr(c, err)
	}
	records, err := sess.FetchAttendance()
	if err != nil {
		return s.respondErr(c, err)
	}
	resp := dashboardResponse{Attendance: s.report(records, s.store.Adjustments(sid))}
	if len(records) > 0 {
		resp.LastUpdated = records[0].PeriodTo
	}
	return c.JSON(resp)
}

func (s *Server) handleTimetable(c *fiber.Ctx) error {
	sess, _, err := s.session(c)
	if err != nil {
		return s.respondErr(c, err)
	}
	grid, err := sess.FetchTimetable()
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(grid)
}

func (s *Server) handleWhatIf(c *fiber.Ctx) error {
	var req whatIfRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return badRequest(c, "counts must be non-negative and attended must not exceed classes")
	}
	return c.JSON(bunk.ProjectWhatIf(
		req.CurrentHours, req.CurrentPresent,
		req.FutureClasses, req.FutureAttended,
		s.threshold,
	))
}

func (s *Server) handleAdjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return badRequest(c, "course_code is required and extra counts must be sane")
	}

	sid, err := s.sessionID(c)
	if err != nil {
		return s.respondErr(c, err)
	}
	ok := s.store.Adjust(sid, bunk.Adjustment{
		CourseCode:   req.CourseCode,
		ExtraHours:   req.ExtraHours,
		ExtraPresent: req.ExtraPresent,
	})
	if !ok {
		return s.respondErr(c, errNoSession)
	}
	return c.JSON(fiber.Map{"ok": true, "adjustments": s.store.Adjustments(sid)})
}

func (s *Server) handleClearAdjustments(c *fiber.Ctx) error {
	sid, err := s.sessionID(c)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.store.ClearAdjustments(sid)
	return c.JSON(fiber.Map{"ok": true})
}

// session resolves the cookie to a live portal session.
func (s *Server) session(c *fiber.Ctx) (*studzone.Session, string, error) {
	sid, err := s.sessionID(c)
	if err != nil {
		return nil, "", err
	}
	sess, ok := s.store.Session(sid)
	if !ok {
		return nil, "", errNoSession
	}
	return sess, sid, nil
}

// report merges stored adjustments into the fresh records and projects each
// one. Merged records get their percentage recomputed; untouched records
// keep the portal's verbatim figure.
func (s *Server) report(records []studzone.CourseAttendance, adjustments map[string]bunk.Adjustment) []courseReport {
	reports := make([]courseReport, 0, len(records))
	for _, rec := range records {
		adjusted := false
		if adj, ok := adjustments[rec.CourseCode]; ok {
			rec = bunk.Merge(rec, adj)
			adjusted = true
		}
		reports = append(reports, courseReport{
			CourseAttendance: rec,
			Projection:       bunk.Project(rec.TotalHours, rec.TotalPresent, s.threshold),
			Adjusted:         adjusted,
		})
	}
	return reports
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": msg})
}

// respondErr maps the core error taxonomy onto status codes so clients can
// branch on retryability without string matching.
func (s *Server) respondErr(c *fiber.Ctx, err error) error {
	var (
		te *studzone.TransientError
		se *htmltable.SchemaError
	)
	switch {
	case errors.Is(err, studzone.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials"})
	case errors.Is(err, studzone.ErrSessionExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session_expired"})
	case errors.Is(err, errNoSession):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_logged_in"})
	case errors.Is(err, htmltable.ErrPortalProcessing):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "portal_processing"})
	case errors.Is(err, htmltable.ErrTableNotFound):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "table_not_found"})
	case errors.As(err, &te):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "portal_unreachable"})
	case errors.As(err, &se):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "schema_mismatch"})
	default:
		s.logger.Printf("[ERR] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal"})
	}
}
