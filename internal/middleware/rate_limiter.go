package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/profitbridge/internal/handlers"
	"golang.org/x/time/rate"
)

// APIRequestsPerSecond is the sustained per-client rate allowed on the JSON
// API. Each request is a full join against the remote store.
const APIRequestsPerSecond = 10

// RateLimiter limits each client IP to APIRequestsPerSecond.
func RateLimiter() echo.MiddlewareFunc {
	return RateLimiterWithRate(APIRequestsPerSecond)
}

// RateLimiterWithRate limits each client IP to perSecond requests with a
// burst of the same size. Denied requests get a JSON error and Retry-After.
func RateLimiterWithRate(perSecond int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(perSecond),
			Burst: perSecond,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, handlers.ErrorResponse{Code: "forbidden", Message: "Client could not be identified"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, handlers.ErrorResponse{Code: "rate_limited", Message: "Too many requests"})
		},
	})
}
