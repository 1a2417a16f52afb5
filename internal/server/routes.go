package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// JSON API consumed by the front-end
	s.echo.GET("/api/config", s.handleConfig)
	s.echo.GET("/api/messages", s.handleMessages)
	s.echo.POST("/api/subscribe", s.handleSubscribe)
	s.echo.POST("/api/send", s.handleSend)

	// Realtime feed (WebSocket upgrade)
	s.echo.GET("/realtime", s.handleRealtime)

	// Front-end assets, when a static dir is configured and present
	if s.staticDirExists() {
		s.echo.Static("/", s.config.StaticDir)
	}
}
