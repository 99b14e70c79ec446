// Package server wires the engine behind a small fiber app. The engine core
// never depends on this package, it is the boundary to the surrounding
// pipeline.
package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/shieldgate/shieldgate/pkg/config"
	handlers "github.com/shieldgate/shieldgate/pkg/handlers/http"
	infraPrometheus "github.com/shieldgate/shieldgate/pkg/infra/prometheus"
	"github.com/shieldgate/shieldgate/pkg/middleware"
	"github.com/shieldgate/shieldgate/pkg/security"
)

type Server struct {
	app    *fiber.App
	cfg    config.ServerConfig
	logger *logrus.Logger
}

func New(cfg config.ServerConfig, service *security.Service, logger *logrus.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "shieldgate",
		DisableStartupMessage: true,
	})

	app.Use(middleware.NewPanicRecoverMiddleware(logger).Middleware())
	app.Use(middleware.NewRequestIDMiddleware(logger).Middleware())

	validateHandler := handlers.NewValidateHandler(service, logger)
	adminHandler := handlers.NewAdminHandler(service, logger)

	app.Get("/health", adminHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
		infraPrometheus.Registry(),
		promhttp.HandlerOpts{},
	)))

	v1 := app.Group("/api/v1")
	v1.Post("/validate/input", validateHandler.ValidateInput)
	v1.Post("/validate/output", validateHandler.ValidateOutput)

	admin := v1.Group("/security")
	admin.Get("/metrics", adminHandler.Metrics)
	admin.Delete("/metrics", adminHandler.ResetMetrics)
	admin.Get("/config", adminHandler.Configuration)
	admin.Get("/cache/stats", adminHandler.CacheStatistics)
	admin.Delete("/cache", adminHandler.ClearCache)
	admin.Post("/warmup", adminHandler.Warmup)

	return &Server{app: app, cfg: cfg, logger: logger}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.WithField("addr", addr).Info("server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
