package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/profitbridge/internal/app"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/handlers"
	appmiddleware "github.com/nfrund/profitbridge/internal/middleware"
	"github.com/nfrund/profitbridge/internal/module"
	"github.com/nfrund/profitbridge/internal/pubsub"
	"github.com/nfrund/profitbridge/internal/rendering"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/nfrund/profitbridge/internal/websocket"
	"github.com/samber/do/v2"
)

// Server holds the HTTP server and the services it owns.
type Server struct {
	E       *echo.Echo
	Cfg     config.Provider
	Store   store.Client
	PubSub  *pubsub.WatermillBridge
	Bridge  *websocket.Bridge
	modules []module.Module

	injector  do.Injector
	telemetry *app.Telemetry
	cancel    context.CancelFunc
}

// New resolves the core services from the container, configures echo and
// registers every module. The store connection is established here, so a
// configured but unreachable database fails startup.
func New(i do.Injector, modules []module.Module) (*Server, error) {
	cfg, err := do.Invoke[config.Provider](i)
	if err != nil {
		return nil, err
	}
	st, err := do.Invoke[store.Client](i)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	telemetry, err := do.Invoke[*app.Telemetry](i)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	for _, m := range modules {
		if err := m.Register(i); err != nil {
			return nil, fmt.Errorf("module %s: register: %w", m.Name(), err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	e.Use(session.Middleware(newSessionStore(cfg.GetSessionSecret())))
	setupErrorHandling(e)

	renderer := do.MustInvoke[rendering.Renderer](i)
	if r, ok := renderer.(echo.Renderer); ok {
		e.Renderer = r
	}

	s := &Server{
		E:         e,
		Cfg:       cfg,
		Store:     st,
		PubSub:    do.MustInvoke[*pubsub.WatermillBridge](i),
		Bridge:    do.MustInvoke[*websocket.Bridge](i),
		modules:   modules,
		injector:  i,
		telemetry: telemetry,
	}
	s.RegisterRoutes()
	return s, nil
}

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		slog.Warn("SESSION_SECRET is empty, using a random key; flash messages will not survive restarts")
		secret = uuid.NewString() + uuid.NewString()
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Boot starts the websocket bridge and boots every module. Background work
// runs until Shutdown.
func (s *Server) Boot(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if err := s.Bridge.Start(ctx); err != nil {
		return fmt.Errorf("failed to start websocket bridge: %w", err)
	}

	root := s.E.Group("")
	for _, m := range s.modules {
		slog.Info("Booting module", "module", m.Name())
		if err := m.Boot(ctx, root, s.injector); err != nil {
			return fmt.Errorf("module %s: boot: %w", m.Name(), err)
		}
	}
	return nil
}
