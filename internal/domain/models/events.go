package models

import "time"

// CompanyEventType enumerates the company calendar feeds.
type CompanyEventType string

const (
	EventEarnings  CompanyEventType = "earnings"
	EventDividends CompanyEventType = "dividends"
	EventSplits    CompanyEventType = "splits"
	EventIPO       CompanyEventType = "ipo"
)

// MacroEvent is a normalized economic-calendar release.
type MacroEvent struct {
	Event      string    `json:"event"`
	Country    string    `json:"country"`
	Category   string    `json:"category"`
	Time       time.Time `json:"datetime_utc"`
	Importance int       `json:"importance"`
	Actual     *float64  `json:"actual,omitempty"`
	Forecast   *float64  `json:"forecast,omitempty"`
	Previous   *float64  `json:"previous,omitempty"`
	Source     string    `json:"source,omitempty"`
	URL        string    `json:"url,omitempty"`
}

func (e MacroEvent) EventTime() time.Time { return e.Time }

// CompanyEvent is a normalized company calendar entry. Meta keeps the raw
// provider row.
type CompanyEvent struct {
	Symbol string                 `json:"symbol"`
	Type   CompanyEventType       `json:"event_type"`
	Time   time.Time              `json:"datetime_utc"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

func (e CompanyEvent) EventTime() time.Time { return e.Time }
