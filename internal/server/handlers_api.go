package server

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"notifyd/internal/domain"
	apperrors "notifyd/internal/errors"
)

// messagesReplayCount caps the /api/messages response at the same window a
// realtime client gets on connect.
const messagesReplayCount = 50

func (s *Server) handleConfig(c echo.Context) error {
	return c.JSON(200, map[string]string{"vapidPublicKey": s.vapidPublic})
}

func (s *Server) handleMessages(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"messages": s.history.Recent(messagesReplayCount),
	})
}

type subscribeRequest struct {
	Subscription domain.Subscription `json:"subscription"`
}

func (s *Server) handleSubscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid subscription payload")
	}

	if err := s.store.Add(req.Subscription); err != nil {
		if errors.Is(err, domain.ErrInvalidSubscription) {
			return apperrors.ValidationError("invalid subscription payload")
		}
		return apperrors.InternalError("failed to store subscription", err)
	}

	if err := c.JSON(201, map[string]any{
		"success":          true,
		"totalSubscribers": s.store.Count(),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type sendRequest struct {
	Sender       string `json:"sender"`
	Text         string `json:"text"`
	ImageDataURL string `json:"imageDataUrl"`
}

func (s *Server) handleSend(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid message payload")
	}

	msg, err := s.intake.Send(c.Request().Context(), req.Sender, req.Text, req.ImageDataURL)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			return apperrors.ValidationError("please include text or an image")
		}
		return apperrors.InternalError("failed to send message", err)
	}

	if err := c.JSON(201, map[string]any{
		"success": true,
		"message": msg,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
