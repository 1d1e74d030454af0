package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/profitbridge/internal/app"
	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/logging"
	"github.com/nfrund/profitbridge/internal/server"
)

func main() {
	logging.New()
	cfg := config.New()

	i := app.NewContainer(context.Background(), cfg, app.Options{})

	s, err := server.New(i, app.NewModules())
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(cfg.GetServerAddr()); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}
