package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sudankdk/runbox/internal/limiter"
	"github.com/sudankdk/runbox/internal/logging"
	"github.com/sudankdk/runbox/internal/model"
)

type Server struct {
	exec model.CodeRunner
	app  *fiber.App
	log  *logging.ZapLogger
}

func NewServer(exec model.CodeRunner, rl *limiter.RateLimiter, log *logging.ZapLogger) *Server {
	s := &Server{exec: exec, log: log}

	app := fiber.New(fiber.Config{
		AppName:               "runbox",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	// Any origin, any method; requested headers are echoed back.
	app.Use(cors.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Use(rl.Middleware())
	app.Use(requestid.New())
	app.Use(s.requestLogger)

	s.setupRoutes(app)
	s.app = app
	return s
}

// requestLogger scopes the logger to the request id set by requestid, so
// engine logs for a run can be traced back to the request that caused them.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	l := s.log.With("request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	c.SetUserContext(logging.NewContext(c.UserContext(), l))
	return c.Next()
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// StartServer blocks until the listener fails or Shutdown is called.
func (s *Server) StartServer(bind string) error {
	s.log.Info("listening", "bind", bind)
	return s.app.Listen(bind)
}

func (s *Server) Shutdown(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return s.app.Shutdown()
	}
	return s.app.ShutdownWithTimeout(time.Until(deadline))
}
