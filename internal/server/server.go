package server

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"notifyd/internal/config"
	"notifyd/internal/domain"
	apperrors "notifyd/internal/errors"
)

// bodyLimit bounds request bodies; images travel inline as data URIs.
const bodyLimit = "5M"

// messageService is the slice of intake the handlers use.
type messageService interface {
	Send(ctx context.Context, sender, text, imageDataURL string) (domain.Message, error)
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	intake      messageService
	history     domain.History
	store       domain.SubscriptionStore
	broadcaster connectionBroker
	vapidPublic string
}

// NewServer wires the HTTP surface around the core components.
// vapidPublic is handed to browsers via /api/config so they can subscribe.
func NewServer(cfg *config.Config, intake messageService, history domain.History, store domain.SubscriptionStore, broadcaster connectionBroker, vapidPublic string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		intake:      intake,
		history:     history,
		store:       store,
		broadcaster: broadcaster,
		vapidPublic: vapidPublic,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// staticDirExists reports whether the configured front-end directory is
// servable; the API works fine without one.
func (s *Server) staticDirExists() bool {
	if s.config.StaticDir == "" {
		return false
	}
	info, err := os.Stat(s.config.StaticDir)
	return err == nil && info.IsDir()
}
