// Package server wires the HTTP surface: public submission endpoints, the
// admin API and file handling, all behind one fiber app.
package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"detox-form-api/internal/common/auth"
	"detox-form-api/internal/common/config"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/common/observability"
)

// Deps bundles everything the router needs. Sheets and Mailer may be nil
// when the respective integrations are disabled.
type Deps struct {
	Config       *config.Config
	Logger       logger.Logger
	Tokens       *auth.TokenManager
	Applications *ApplicationHandler
	Admin        *AdminHandler
	Files        *FilesHandler
	Obs          *observability.Observability
}

// Server owns the fiber app lifecycle.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	logger logger.Logger
}

// New builds the fiber app and mounts every route.
func New(d Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               d.Config.App.Name,
		BodyLimit:             d.Config.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(requestLogger(d.Logger, d.Obs))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": d.Config.App.Name,
			"version": d.Config.App.Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        d.Config.RateLimit.MaxRequests,
		Expiration: time.Duration(d.Config.RateLimit.Window) * time.Millisecond,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(envelope{
				Success: false,
				Message: "Çok fazla istek gönderdiniz. Lütfen daha sonra tekrar deneyin.",
			})
		},
	}))

	v1 := api.Group("/v1")
	v1.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": d.Config.App.Name,
			"version": d.Config.App.Version,
			"endpoints": fiber.Map{
				"applications": "/api/v1/applications",
				"admin":        "/api/v1/admin",
				"files":        "/api/v1/files",
			},
		})
	})

	admin := requireAdmin(d.Tokens)

	applications := v1.Group("/applications")
	applications.Post("/", d.Applications.Submit)
	applications.Get("/", admin, d.Applications.List)
	applications.Get("/:id", admin, d.Applications.Get)
	applications.Put("/:id/status", admin, d.Applications.UpdateStatus)
	applications.Delete("/:id", admin, d.Applications.Delete)

	adminGroup := v1.Group("/admin")
	adminGroup.Post("/login", d.Admin.Login)
	adminGroup.Get("/dashboard", admin, d.Admin.Dashboard)
	adminGroup.Get("/statistics", admin, d.Admin.Statistics)
	adminGroup.Get("/system", admin, d.Admin.System)
	adminGroup.Get("/export/applications", admin, d.Admin.Export)
	adminGroup.Get("/sheets/test", admin, d.Admin.SheetsTest)
	adminGroup.Get("/sheets/export", admin, d.Admin.SheetsExport)

	files := v1.Group("/files")
	files.Post("/upload", d.Files.Upload)
	files.Get("/", admin, d.Files.List)
	files.Get("/:filename", d.Files.Download)
	files.Get("/:filename/info", admin, d.Files.Info)
	files.Delete("/:filename", admin, d.Files.Delete)

	return &Server{app: app, cfg: d.Config, logger: d.Logger}
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Info("http server listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Millisecond
	return s.app.ShutdownWithTimeout(timeout)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
