package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/handlers"
	"github.com/nfrund/profitbridge/internal/websocket"
	"github.com/nfrund/profitbridge/web"
)

// RegisterRoutes sets up the framework routes. Module routes are added in Boot.
func (s *Server) RegisterRoutes() {
	health := handlers.NewHealthHandler(s.Store)
	s.E.GET("/health", health.HealthGet)

	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	ws := s.E.Group("/ws")
	ws.GET("/html", s.Bridge.Handler(websocket.EndpointHTML))
	ws.GET("/data", s.Bridge.Handler(websocket.EndpointData))
}
