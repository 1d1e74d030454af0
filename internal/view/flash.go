package view

import (
	"context"
	"fmt"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/investments"
)

const (
	flashSessionName = "flash-session"
	flashKeySuccess  = "success"
	flashKeyError    = "error"
)

// FlashData holds the flash messages pending for the current request.
type FlashData struct {
	Success []string
	Error   []string
}

// Empty reports whether there is nothing to show.
func (f FlashData) Empty() bool {
	return len(f.Success) == 0 && len(f.Error) == 0
}

// Notices returns the messages as notices, errors first.
func (f FlashData) Notices() []investments.Notice {
	out := make([]investments.Notice, 0, len(f.Error)+len(f.Success))
	for _, msg := range f.Error {
		out = append(out, investments.Notice{Level: investments.LevelError, Message: msg})
	}
	for _, msg := range f.Success {
		out = append(out, investments.Notice{Level: investments.LevelInfo, Message: msg})
	}
	return out
}

func setFlash(c echo.Context, key, message string) {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		c.Logger().Warnf("flash session unavailable: %v", err)
		return
	}
	sess.AddFlash(message, key)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("saving flash session: %v", err)
	}
}

// SetFlashSuccess sets a success flash message.
func SetFlashSuccess(c echo.Context, message string) {
	setFlash(c, flashKeySuccess, message)
}

// SetFlashError sets an error flash message.
func SetFlashError(c echo.Context, message string) {
	setFlash(c, flashKeyError, message)
}

// GetFlashData retrieves and clears the flash messages from the session.
func GetFlashData(c echo.Context) FlashData {
	var data FlashData

	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return data
	}

	success := sess.Flashes(flashKeySuccess)
	failure := sess.Flashes(flashKeyError)
	if len(success) == 0 && len(failure) == 0 {
		return data
	}

	data.Success = toStrings(success)
	data.Error = toStrings(failure)
	_ = sess.Save(c.Request(), c.Response())
	return data
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// FlashNotifier returns a Notifier that records notices as flash messages
// on the request's session, for pages rendered within the same request or
// after a redirect.
func FlashNotifier(c echo.Context) investments.Notifier {
	return investments.NotifierFunc(func(_ context.Context, n investments.Notice) {
		if n.Level == investments.LevelError {
			SetFlashError(c, n.Message)
			return
		}
		SetFlashSuccess(c, n.Message)
	})
}
