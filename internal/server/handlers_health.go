package server

import "github.com/labstack/echo/v4"

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"ok":          true,
		"subscribers": s.store.Count(),
		"messages":    s.history.Len(),
	})
}
