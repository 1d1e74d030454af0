package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/handlers"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/middleware"
	"github.com/nfrund/profitbridge/internal/rendering"
	"github.com/nfrund/profitbridge/internal/view"
)

// Handler serves the investments page and its JSON counterpart. Each request
// is one Joiner run.
type Handler struct {
	joiner   *investments.Joiner
	renderer rendering.Renderer
	liveURL  string
}

func NewHandler(joiner *investments.Joiner, renderer rendering.Renderer, liveURL string) *Handler {
	return &Handler{joiner: joiner, renderer: renderer, liveURL: liveURL}
}

func bindSearch(c echo.Context) (handlers.SearchRequest, error) {
	var req handlers.SearchRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid search").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "search term too long").SetInternal(err)
	}
	return req, nil
}

// InvestmentsGet renders the full page. A failed load keeps the table empty
// and shows the failure as a toast.
func (h *Handler) InvestmentsGet(c echo.Context) error {
	req, err := bindSearch(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	rows, err := h.joiner.Run(ctx, req.Search)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load investments", "event", "investments_load_failure", "error", err)
		view.FlashNotifier(c).Notify(ctx, investments.Notice{Level: investments.LevelError, Message: investments.LoadFailedMessage})
		rows = nil
	}

	page := view.InvestmentsPageNode(ctx, view.InvestmentsPage{
		Term:    req.Search,
		Rows:    rows,
		Flash:   view.GetFlashData(c),
		LiveURL: h.liveURL,
		Action:  c.Path(),
	})
	return h.renderer.RenderPage(c, http.StatusOK, page)
}

// InvestmentsAPIGet returns the filtered rows as JSON.
func (h *Handler) InvestmentsAPIGet(c echo.Context) error {
	req, err := bindSearch(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	rows, err := h.joiner.Run(ctx, req.Search)
	if err != nil {
		middleware.FromContext(ctx).ErrorContext(ctx, "Failed to load investments", "event", "investments_load_failure", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrStoreNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, handlers.LoadFailedResponse())
	}
	return c.JSON(http.StatusOK, handlers.NewInvestmentsResponse(req.Search, rows))
}
