package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed is public, same as the rest of the API
	},
}

// connectionBroker is the slice of the broadcaster the realtime handler uses.
type connectionBroker interface {
	Register(conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
}

func (s *Server) handleRealtime(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	if err := s.broadcaster.Register(conn); err != nil {
		slog.Warn("Failed to register realtime client", "error", err)
		// Connection already closed by the broadcaster, just return
		return nil
	}

	// Read pump: no client frames are defined, we only watch for close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broadcaster.Unregister(conn)
	return nil
}
