package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/studyplan/server/internal/observability"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = echo.HeaderXRequestID

// RequestContext attaches an observability.RequestContext to every request,
// reusing the caller's X-Request-ID when present, and logs the outcome.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			operation := req.Method + " " + c.Path()
			reqCtx := observability.NewRequestContextWithID(logger, req.Header.Get(HeaderRequestID), operation)

			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			reqCtx.Debug("request completed",
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, reqCtx.Duration().Milliseconds()),
			)
			return nil
		}
	}
}
