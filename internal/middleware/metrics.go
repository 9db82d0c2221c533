package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/association-platform/internal/metrics"
)

// Metrics records request count and latency per route template. Unmatched
// paths are folded into one label to keep cardinality bounded.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			m.Duration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(c.Request().Method, path, status).Inc()
			return nil
		}
	}
}
