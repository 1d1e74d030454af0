package server

import (
	"context"
	"errors"
	"log/slog"
)

// Shutdown stops the server and releases its services: modules first, so
// their views drop their subscriptions, then connections, the bus, the
// store and tracing.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server")
	var errs []error

	for _, m := range s.modules {
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.Bridge.Close()
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.PubSub.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
