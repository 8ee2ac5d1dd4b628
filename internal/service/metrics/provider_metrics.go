package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regimenews",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of upstream provider calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regimenews",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Failed upstream provider calls",
		},
		[]string{"provider", "endpoint"},
	)

	ProviderRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regimenews",
			Subsystem: "provider",
			Name:      "rows_total",
			Help:      "Rows returned by upstream providers",
		},
		[]string{"provider", "endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ProviderLatency, ProviderErrors, ProviderRows)
	})
}

// ObserveFetch records one provider call that started at start.
func ObserveFetch(provider, endpoint string, start time.Time, rows int, err error) {
	ProviderLatency.WithLabelValues(provider, endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		ProviderErrors.WithLabelValues(provider, endpoint).Inc()
		return
	}
	ProviderRows.WithLabelValues(provider, endpoint).Add(float64(rows))
}
