package overlay

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"RegimeNews/internal/domain/models"
	"RegimeNews/pkg/util"
)

// Clock returns the evaluation instant.
type Clock func() time.Time

// Engine is the portfolio-level risk governor. Decide is a pure function of
// its inputs, the configuration and the clock reading.
type Engine struct {
	cfg Config
	now Clock
}

type Option func(*Engine)

// WithClock overrides the evaluation clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.now = c }
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

type timed interface {
	EventTime() time.Time
}

// Window keeps events with now <= t <= now+days, sorted ascending.
func Window[E timed](events []E, now time.Time, days int) []E {
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	out := make([]E, 0, len(events))
	for _, ev := range events {
		t := ev.EventTime()
		if t.IsZero() || t.Before(now) || t.After(end) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventTime().Before(out[j].EventTime()) })
	return out
}

// Severity scores a macro event in [0,1].
func (e *Engine) Severity(ev models.MacroEvent) float64 {
	sev, ok := importanceSeverity[ev.Importance]
	if !ok {
		sev = unknownImportanceSeverity
	}
	if containsAny(strings.ToUpper(ev.Event), e.cfg.HighSeverityKeywords) {
		sev += KeywordBump
		if sev > 1.0 {
			sev = 1.0
		}
	}
	return sev
}

// TightenStops reports whether any event of importance >= 2 names a
// rate/inflation/payroll catalyst.
func (e *Engine) TightenStops(events []models.MacroEvent) bool {
	for _, ev := range events {
		if ev.Importance < 2 {
			continue
		}
		if containsAny(strings.ToUpper(ev.Event), e.cfg.TightenStopKeywords) {
			return true
		}
	}
	return false
}

func (e *Engine) Decide(
	regime models.RegimeState,
	macro []models.MacroEvent,
	company []models.CompanyEvent,
	symbols []string,
) models.EventOverlayDecision {
	cfg := e.cfg
	now := e.now()

	mult, ok := cfg.BaseRiskMultiplier[regime.Name]
	if !ok {
		mult = cfg.DefaultMultiplier
	}
	allowNew := true
	tighten := false
	notes := []string{
		fmt.Sprintf("Regime=%s conf=%.2f base_mult=%.2f", regime.Name, regime.Confidence, mult),
	}

	upcomingMacro := Window(macro, now, cfg.MacroWindowDays)
	upcomingCompany := Window(company, now, cfg.CompanyWindowDays)

	if len(upcomingMacro) > 0 {
		worst := upcomingMacro[0]
		worstSev := e.Severity(worst)
		for _, ev := range upcomingMacro[1:] {
			if s := e.Severity(ev); s > worstSev {
				worst, worstSev = ev, s
			}
		}
		notes = append(notes, fmt.Sprintf("Macro(%dd) n=%d worst='%s' imp=%d sev=%.2f",
			cfg.MacroWindowDays, len(upcomingMacro), worst.Event, worst.Importance, worstSev))

		tighten = e.TightenStops(upcomingMacro)
		if tighten {
			notes = append(notes, "Tighten stops: major macro catalyst in window.")
		}

		switch {
		case regime.Name == models.RegimeRiskOff && worstSev >= HighSeverity:
			allowNew = false
			mult *= riskOffMacroCut
			notes = append(notes, "Risk-off + high-severity macro -> block new positions; reduce risk.")
		case regime.Name == models.RegimeTransition && worstSev >= HighSeverity:
			allowNew = false
			mult *= transitionMacroCut
			notes = append(notes, "Transition + high-severity macro -> block new positions; defensive posture.")
		case worstSev >= VeryHighSeverity:
			mult *= veryHighMacroCut
			notes = append(notes, "Very high macro severity -> reduce risk multiplier.")
		}
	} else {
		notes = append(notes, fmt.Sprintf("No macro events in %dd window.", cfg.MacroWindowDays))
	}

	symset := util.SymbolSet(symbols)
	if len(upcomingCompany) > 0 {
		var relevant, earnings []models.CompanyEvent
		for _, ev := range upcomingCompany {
			if symset != nil {
				if _, ok := symset[ev.Symbol]; !ok {
					continue
				}
			}
			relevant = append(relevant, ev)
			if ev.Type == models.EventEarnings {
				earnings = append(earnings, ev)
			}
		}

		if len(earnings) > 0 {
			notes = append(notes, fmt.Sprintf("Earnings(%dd) n=%d impacted=%s",
				cfg.CompanyWindowDays, len(earnings), impactedList(earnings)))

			switch regime.Name {
			case models.RegimeLateCycle, models.RegimeTransition:
				mult *= earningsModerateCut
				notes = append(notes, "Late-cycle/Transition + earnings -> reduce portfolio risk modestly.")
			case models.RegimeRiskOff:
				mult *= earningsRiskOffCut
				notes = append(notes, "Risk-off + earnings -> reduce portfolio risk.")
			}
		} else {
			notes = append(notes, fmt.Sprintf("Company events(%dd) n=%d (no earnings).",
				cfg.CompanyWindowDays, len(relevant)))
		}
	} else {
		notes = append(notes, fmt.Sprintf("No company events in %dd window.", cfg.CompanyWindowDays))
	}

	if regime.Confidence < LowConfidence {
		mult *= lowConfidenceCut
		notes = append(notes, "Low regime confidence -> reduce risk modestly.")
	}

	return models.EventOverlayDecision{
		AllowNewPositions: allowNew,
		RiskMultiplier:    clamp(mult, MinMultiplier, MaxMultiplier),
		TightenStops:      tighten,
		Notes:             strings.Join(notes, " | "),
	}
}

// impactedList renders the sorted unique symbols, at most twelve, as
// ['A', 'B'] with a trailing ... when truncated.
func impactedList(events []models.CompanyEvent) string {
	seen := make(map[string]struct{}, len(events))
	var syms []string
	for _, ev := range events {
		if _, ok := seen[ev.Symbol]; ok {
			continue
		}
		seen[ev.Symbol] = struct{}{}
		syms = append(syms, ev.Symbol)
	}
	sort.Strings(syms)

	suffix := ""
	if len(syms) > maxImpactedListed {
		syms = syms[:maxImpactedListed]
		suffix = "..."
	}
	quoted := make([]string, len(syms))
	for i, s := range syms {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]" + suffix
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
