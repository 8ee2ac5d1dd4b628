package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fomc(offset time.Duration, importance int) models.MacroEvent {
	return models.MacroEvent{Event: "FOMC Rate Decision", Country: "US", Time: clock().Add(offset), Importance: importance}
}

func TestOverlayRiskOffBlocksOnHighSeverityMacro(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})
	company := &fakeCompany{}
	runner := newRunner(h, &fakeMacro{events: []models.MacroEvent{fomc(24*time.Hour, 3)}}, company,
		WithDefaultSymbols([]string{"AAPL", "MSFT"}))

	r, err := runner.Run(context.Background(), models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}})
	require.NoError(t, err)

	ov := r.EventOverlay
	require.NotNil(t, ov)
	assert.False(t, ov.AllowNewPositions)
	assert.True(t, ov.TightenStops)
	assert.InDelta(t, 0.35, ov.RiskMultiplier, 1e-9)
	assert.Equal(t, models.RegimeRiskOff, ov.RegimePolicy.Name)
	assert.Equal(t, models.OverlayWindows{MacroWindowDays: 3, CompanyWindowDays: 7}, ov.Windows)
	assert.Equal(t, "2025-03-10", ov.WindowStart)
	assert.Equal(t, "2025-03-17", ov.WindowEnd)
	assert.Equal(t, []string{"AAPL", "MSFT"}, company.seenSymbols)

	assert.Equal(t, ov.EventOverlayDecision, h.metrics.decisions["AAPL"])
	require.Len(t, h.store.saved, 1)
	assert.NotNil(t, h.store.saved[0].EventOverlay)
}

func TestOverlayQuietWindow(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})
	runner := newRunner(h, &fakeMacro{}, &fakeCompany{})

	r, err := runner.Build(context.Background(), models.OverlayRequest{
		RunRequest:  models.RunRequest{Ticker: "AAPL"},
		Symbols:     []string{"NVDA"},
		WindowStart: "2025-03-01",
		WindowEnd:   "2025-03-31",
	})
	require.NoError(t, err)

	ov := r.EventOverlay
	assert.True(t, ov.AllowNewPositions)
	assert.False(t, ov.TightenStops)
	assert.InDelta(t, 0.50, ov.RiskMultiplier, 1e-9)
	assert.Contains(t, ov.Notes, "No macro events in 3d window.")
	assert.Contains(t, ov.Notes, "No company events in 7d window.")
	assert.Equal(t, "2025-03-01", ov.WindowStart)
	assert.Equal(t, "2025-03-31", ov.WindowEnd)
	assert.Empty(t, h.store.saved)
}

func TestOverlayImportanceFilter(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})
	runner := newRunner(h, &fakeMacro{events: []models.MacroEvent{fomc(time.Hour, 3)}}, &fakeCompany{})

	r, err := runner.Build(context.Background(), models.OverlayRequest{
		RunRequest: models.RunRequest{Ticker: "AAPL"},
		Importance: 1,
	})
	require.NoError(t, err)
	assert.True(t, r.EventOverlay.AllowNewPositions)
	assert.Contains(t, r.EventOverlay.Notes, "No macro events")
}

func TestOverlayConfigurationErrorsBeforeFetching(t *testing.T) {
	cases := []struct {
		name    string
		mode    string
		k       int
		macro   *fakeMacro
		req     models.OverlayRequest
		missing bool
	}{
		{name: "missing calendars", mode: ModeStrict, k: 2, missing: true,
			req: models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}}},
		{name: "importance out of range", mode: ModeStrict, k: 2, macro: &fakeMacro{},
			req: models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}, Importance: 4}},
		{name: "no scheme for k", mode: ModePermissive, k: 4, macro: &fakeMacro{},
			req: models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}}},
		{name: "inverted window", mode: ModeStrict, k: 2, macro: &fakeMacro{},
			req: models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}, WindowStart: "2025-03-10", WindowEnd: "2025-03-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(tc.mode, tc.k, 400, fakeNews{})
			var runner *OverlayRunner
			if tc.missing {
				runner = NewOverlayRunner(h.pipeline, nil, nil, nil, h.metrics, nil)
			} else {
				runner = newRunner(h, tc.macro, &fakeCompany{})
			}

			_, err := runner.Run(context.Background(), tc.req)

			assert.True(t, errs.IsKind(err, errs.KindConfiguration), "got %v", err)
			assert.Zero(t, h.source.total())
		})
	}
}

func TestOverlayCalendarFailureIsFatal(t *testing.T) {
	h := newHarness(ModeStrict, 2, 400, fakeNews{summary: models.EmptyNewsSummary()})
	runner := newRunner(h, &fakeMacro{}, &fakeCompany{err: errs.UpstreamFetch("fmp", errors.New("503"))})

	_, err := runner.Run(context.Background(), models.OverlayRequest{RunRequest: models.RunRequest{Ticker: "AAPL"}})

	assert.True(t, errs.IsKind(err, errs.KindUpstreamFetch))
	assert.Contains(t, err.Error(), "earnings calendar")
	assert.Empty(t, h.store.saved)
}

func TestOverlayMapsCachedReportWithoutPolicy(t *testing.T) {
	runner := &OverlayRunner{}
	r := &models.Report{Regime: 0, RegimeProbs: map[string]float64{"p_regime_0": 0.7, "p_regime_1": 0.2, "p_regime_2": 0.1}}

	st := runner.regimeState(r, 3)

	assert.Equal(t, models.RegimeRiskOn, st.Name)
	assert.InDelta(t, 0.7, st.Confidence, 1e-12)
	require.NotNil(t, st.RegimeID)
	assert.Equal(t, 0, *st.RegimeID)
}
