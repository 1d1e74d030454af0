package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/store"
)

const healthTimeout = 2 * time.Second

// StoreStatus is the part of store.Client the health check needs.
type StoreStatus interface {
	Ping(ctx context.Context) error
	Mode() store.Mode
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string     `json:"status"`
	Store  store.Mode `json:"store"`
	Error  string     `json:"error,omitempty"`
}

// HealthHandler reports whether the remote store is reachable.
type HealthHandler struct {
	store StoreStatus
}

func NewHealthHandler(s StoreStatus) *HealthHandler {
	return &HealthHandler{store: s}
}

// HealthGet answers 200 when the store responds and 503 otherwise.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Store: h.store.Mode()}
	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
