package admin

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/middleware"
	"github.com/nfrund/profitbridge/internal/module"
	"github.com/nfrund/profitbridge/internal/pubsub"
	"github.com/nfrund/profitbridge/internal/rendering"
	"github.com/nfrund/profitbridge/internal/websocket"
	"github.com/samber/do/v2"
)

const (
	PagePath = "/admin/investments"
	APIPath  = "/api/investments"
	LiveURL  = "/ws/html"
)

// AdminModule serves the investments admin view over HTTP and hosts a live
// view for every websocket connection.
type AdminModule struct {
	module.BaseModule
	live *LiveViews
}

func New() *AdminModule {
	return &AdminModule{}
}

func (m *AdminModule) Name() string {
	return "admin"
}

// Register provides the live view host to the container.
func (m *AdminModule) Register(i do.Injector) error {
	do.Provide(i, func(i do.Injector) (*LiveViews, error) {
		cfg := do.MustInvoke[config.Provider](i)
		return NewLiveViews(
			do.MustInvoke[*investments.Joiner](i),
			do.MustInvoke[*investments.ChangeListener](i),
			do.MustInvoke[rendering.Renderer](i),
			do.MustInvoke[*websocket.Bridge](i),
			cfg.GetSearchMode(),
		), nil
	})
	return nil
}

// Boot starts the live views and mounts the routes.
func (m *AdminModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	live, err := do.Invoke[*LiveViews](i)
	if err != nil {
		return err
	}
	if err := live.Start(ctx, do.MustInvoke[pubsub.Subscriber](i)); err != nil {
		return err
	}
	m.live = live

	slog.Info("Booting AdminModule: setting up routes...")
	h := NewHandler(do.MustInvoke[*investments.Joiner](i), do.MustInvoke[rendering.Renderer](i), LiveURL)
	g.GET(PagePath, h.InvestmentsGet)
	g.GET(APIPath, h.InvestmentsAPIGet, middleware.RateLimiter())
	return nil
}

func (m *AdminModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down AdminModule...")
	if m.live != nil {
		m.live.Shutdown()
	}
	return nil
}
