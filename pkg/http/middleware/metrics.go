package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"RegimeNews/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regimenews",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	requestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "regimenews",
		Subsystem: "http",
		Name:      "request_seconds",
		Help:      "HTTP request latency. Pipeline runs dominate the upper buckets.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route", "method"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "regimenews",
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})
)

// Metrics labels requests by route template, not raw path. Failed and slow
// requests are also logged.
func Metrics(log *logger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			code := statusOf(c, err)

			requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			requestSeconds.WithLabelValues(route, method).Observe(elapsed.Seconds())

			fields := []logger.Field{
				logger.String("route", route),
				logger.String("method", method),
				logger.Int("status", code),
				logger.Duration("elapsed", elapsed),
			}
			if code >= http.StatusInternalServerError {
				log.Error("request failed", fields...)
			} else if slow > 0 && elapsed >= slow {
				log.Warn("slow request", fields...)
			}
			return err
		}
	}
}

func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
