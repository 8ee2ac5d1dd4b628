package metrics

import (
	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	stageDuration  *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	riskMultiplier *prometheus.GaugeVec
	allowNew       *prometheus.GaugeVec
	tightenStops   *prometheus.GaugeVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// New registers the recorder's collectors on reg; nil uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimenews_pipeline_runs_total",
				Help: "Pipeline runs by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimenews_pipeline_run_seconds",
				Help:    "End-to-end pipeline run duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimenews_pipeline_stage_seconds",
				Help:    "Duration of individual pipeline stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimenews_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		riskMultiplier: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimenews_overlay_risk_multiplier",
				Help: "Latest overlay risk multiplier per ticker",
			},
			[]string{"ticker"},
		),
		allowNew: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimenews_overlay_allow_new_positions",
				Help: "1 when the latest overlay allows new positions",
			},
			[]string{"ticker"},
		),
		tightenStops: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimenews_overlay_tighten_stops",
				Help: "1 when the latest overlay asks to tighten stops",
			},
			[]string{"ticker"},
		),
	}
}

func (r *Recorder) RecordRun(mode, outcome string, seconds float64) {
	r.runsTotal.WithLabelValues(mode, outcome).Inc()
	r.runDuration.WithLabelValues(mode).Observe(seconds)
}

func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordDecision exports the latest overlay verdict for ticker.
func (r *Recorder) RecordDecision(ticker string, d models.EventOverlayDecision) {
	r.riskMultiplier.WithLabelValues(ticker).Set(d.RiskMultiplier)
	r.allowNew.WithLabelValues(ticker).Set(boolGauge(d.AllowNewPositions))
	r.tightenStops.WithLabelValues(ticker).Set(boolGauge(d.TightenStops))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Nop discards every observation.
type Nop struct{}

var _ domrepo.Metrics = Nop{}

func (Nop) RecordRun(string, string, float64)                  {}
func (Nop) RecordStage(string, float64)                        {}
func (Nop) RecordError(string)                                 {}
func (Nop) RecordDecision(string, models.EventOverlayDecision) {}
