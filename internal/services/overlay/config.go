package overlay

import "RegimeNews/internal/domain/models"

// Config holds the overlay windows, per-regime base multipliers and macro
// keyword sets. The two keyword sets are matched independently.
type Config struct {
	MacroWindowDays      int
	CompanyWindowDays    int
	BaseRiskMultiplier   map[models.RegimeName]float64
	DefaultMultiplier    float64
	HighSeverityKeywords []string
	TightenStopKeywords  []string
}

func DefaultConfig() Config {
	return Config{
		MacroWindowDays:   3,
		CompanyWindowDays: 7,
		BaseRiskMultiplier: map[models.RegimeName]float64{
			models.RegimeRiskOn:     1.00,
			models.RegimeLateCycle:  0.85,
			models.RegimeTransition: 0.70,
			models.RegimeRiskOff:    0.50,
		},
		DefaultMultiplier: 0.75,
		HighSeverityKeywords: []string{
			"FOMC", "FED", "RATE", "INTEREST",
			"CPI", "INFLATION",
			"NFP", "NONFARM", "JOBS", "UNEMPLOYMENT",
			"GDP",
		},
		TightenStopKeywords: []string{"FOMC", "FED", "RATE", "CPI", "INFLATION", "NFP", "NONFARM"},
	}
}

// Multiplier bounds and rule constants.
const (
	MinMultiplier = 0.10
	MaxMultiplier = 1.25

	HighSeverity     = 0.70
	VeryHighSeverity = 0.85
	KeywordBump      = 0.15
	LowConfidence    = 0.55

	riskOffMacroCut     = 0.70
	transitionMacroCut  = 0.80
	veryHighMacroCut    = 0.85
	earningsModerateCut = 0.90
	earningsRiskOffCut  = 0.85
	lowConfidenceCut    = 0.92

	maxImpactedListed = 12
)

var importanceSeverity = map[int]float64{1: 0.25, 2: 0.55, 3: 0.85}

const unknownImportanceSeverity = 0.35
