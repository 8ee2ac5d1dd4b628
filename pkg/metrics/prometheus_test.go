package metrics

import (
	"testing"

	"RegimeNews/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordRun("strict", "ok", 1.2)
	r.RecordRun("strict", "ok", 0.8)
	r.RecordError("INSUFFICIENT_DATA")
	r.RecordDecision("AAPL", models.EventOverlayDecision{RiskMultiplier: 0.35, TightenStops: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("strict", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("INSUFFICIENT_DATA")))
	assert.Equal(t, 0.35, testutil.ToFloat64(r.riskMultiplier.WithLabelValues("AAPL")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.allowNew.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tightenStops.WithLabelValues("AAPL")))
}
