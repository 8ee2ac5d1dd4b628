package models

// EventOverlayDecision is the portfolio-level risk verdict.
type EventOverlayDecision struct {
	AllowNewPositions bool    `json:"allow_new_positions"`
	RiskMultiplier    float64 `json:"risk_multiplier"`
	TightenStops      bool    `json:"tighten_stops"`
	Notes             string  `json:"notes"`
}

type OverlayWindows struct {
	MacroWindowDays   int `json:"macro_window_days"`
	CompanyWindowDays int `json:"company_window_days"`
}

// EventOverlay is the report section attached by the overlay runner.
type EventOverlay struct {
	EventOverlayDecision
	RegimePolicy RegimeState    `json:"regime_policy"`
	Windows      OverlayWindows `json:"windows"`
	WindowStart  string         `json:"asof_overlay_window_start"`
	WindowEnd    string         `json:"asof_overlay_window_end"`
}
