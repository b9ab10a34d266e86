// Package web is the HTTP front end: thin JSON glue over the studzone
// client, the projector and the grid builder. All scraping and arithmetic
// lives in those packages; this one only holds browser sessions and maps
// core errors onto status codes.
package web

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/studzonetools/bunker/internal/studzone"
)

type Options struct {
	Client     *studzone.Client
	Threshold  float64 // normalized fraction, see bunk.Threshold
	JWTSecret  []byte
	SessionTTL time.Duration
	Logger     *log.Logger
}

type Server struct {
	app       *fiber.App
	client    *studzone.Client
	store     *sessionStore
	validate  *validator.Validate
	threshold float64
	jwtSecret []byte
	ttl       time.Duration
	logger    *log.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 45 * time.Minute
	}

	s := &Server{
		client:    opts.Client,
		store:     newSessionStore(opts.SessionTTL),
		validate:  validator.New(),
		threshold: opts.Threshold,
		jwtSecret: opts.JWTSecret,
		ttl:       opts.SessionTTL,
		logger:    opts.Logger,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		start := time.Now()
		err := c.Next()
		s.logger.Printf("[REQ] id=%s %s %s status=%d dur=%s",
			id, c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
		return err
	})

	app.Post("/login", s.handleLogin)
	app.Post("/logout", s.handleLogout)
	app.Get("/attendance", s.handleAttendance)
	app.Get("/timetable", s.handleTimetable)
	app.Post("/whatif", s.handleWhatIf)
	app.Post("/adjustments", s.handleAdjust)
	app.Delete("/adjustments", s.handleClearAdjustments)

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown. The sweeper reclaims portal sessions for
// browsers that walked away.
func (s *Server) Listen(addr string) error {
	stop := make(chan struct{})
	defer close(stop)
	go s.sweepLoop(stop)

	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if n := s.store.Sweep(now); n > 0 {
				s.logger.Printf("[SWEEP] closed %d idle portal sessions", n)
			}
		}
	}
}
