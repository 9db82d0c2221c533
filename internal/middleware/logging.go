package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/logger"
)

// RequestLogger attaches a request-scoped zap logger to the request context
// and writes one line per request once the handler has finished.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}

			l := log.With(zap.String("request_id", reqID))
			c.SetRequest(req.WithContext(logger.NewContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if uid := UserID(c); uid != 0 {
				fields = append(fields, zap.Uint64("user_id", uid))
			}
			switch status := c.Response().Status; {
			case status >= 500:
				l.Error("request", append(fields, zap.Error(err))...)
			case status >= 400:
				l.Info("request", fields...)
			default:
				l.Debug("request", fields...)
			}
			return nil
		}
	}
}
