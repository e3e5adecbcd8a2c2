package middleware

import (
	"net/http"
	"time"

	"philbox/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HTTPMetrics records request counts and latencies by route template.
func HTTPMetrics(collector *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error handler has not run yet, so derive the status it will write.
				status = http.StatusInternalServerError
				var httpErr *echo.HTTPError
				var coded interface{ HTTPCode() int }
				switch {
				case errors.As(err, &httpErr):
					status = httpErr.Code
				case errors.As(err, &coded):
					status = coded.HTTPCode()
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			collector.ObserveHTTP(c.Request().Method, route, status, time.Since(start))

			return err
		}
	}
}
