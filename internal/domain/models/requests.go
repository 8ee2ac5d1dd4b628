package models

// RunRequest is the body of POST /run and of Kafka run requests.
type RunRequest struct {
	Ticker   string `json:"ticker" validate:"required,max=16"`
	Start    string `json:"start" default:"2015-01-01" validate:"datetime=2006-01-02"`
	End      string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Offline  bool   `json:"offline"`
	NRegimes int    `json:"n_regimes" validate:"omitempty,gte=1,lte=8"`
}

// OverlayRequest runs the pipeline and attaches the event overlay.
type OverlayRequest struct {
	RunRequest
	Symbols     []string `json:"portfolio_symbols" validate:"omitempty,max=200,dive,required"`
	WindowStart string   `json:"window_start" validate:"omitempty,datetime=2006-01-02"`
	WindowEnd   string   `json:"window_end" validate:"omitempty,datetime=2006-01-02"`
	Importance  int      `json:"macro_importance" validate:"omitempty,gte=1,lte=3"`
}
