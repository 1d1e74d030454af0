package investments

import (
	"context"

	"github.com/nfrund/profitbridge/internal/domain"
)

// LoadFailedMessage is the operator-facing text for an aborted run.
const LoadFailedMessage = "Failed to load investments"

// Level is the severity of a Notice.
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Notice is a transient operator notification.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier delivers notices to the operator.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Sink receives every new ViewState. Render is called with the view's lock
// held, so implementations must not call back into the View.
type Sink interface {
	Render(ctx context.Context, rows []domain.ViewRow)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rows []domain.ViewRow)

func (f SinkFunc) Render(ctx context.Context, rows []domain.ViewRow) { f(ctx, rows) }

func loadFailed() Notice {
	return Notice{Level: LevelError, Message: LoadFailedMessage}
}
