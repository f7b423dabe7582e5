package server

import (
	"context"
	"net"

	"campaign-session/internal/bootstrap"
	"campaign-session/internal/config"
	"campaign-session/internal/pkg/serverutils"
	"campaign-session/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// loopbackHost keeps the bridge API off every non-local interface.
const loopbackHost = "127.0.0.1"

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept",
		AllowMethods:  "GET, POST, PATCH, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Addr() string {
	return net.JoinHostPort(loopbackHost, s.cfg.App.Port)
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Bridge API listening", map[string]interface{}{"addr": "http://" + s.Addr()})
	return s.app.Listen(s.Addr())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	c.SessionController.RegisterRoutes(api, serverutils.RateLimit(cfg.App.AuthRatePerMinute, cfg.App.AuthRatePerMinute))
	c.LogController.RegisterRoutes(api)

	websocket.RegisterRoutes(app, c.WebSocketHub)

	app.Get("/metrics", adaptor.HTTPHandler(c.Metrics.Handler()))
}
