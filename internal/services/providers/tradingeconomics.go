package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/repository"
	xhttp "RegimeNews/pkg/http"
	"RegimeNews/pkg/util"
)

const (
	teName              = "tradingeconomics"
	DefaultTEBaseURL    = "https://api.tradingeconomics.com"
	defaultTEImportance = 1
)

// TradingEconomics reads the all-country economic calendar.
type TradingEconomics struct {
	httpBase
	apiKey     string
	importance int
}

var _ repository.MacroCalendar = (*TradingEconomics)(nil)

// NewTradingEconomics validates the key and the importance filter. An
// importance of 0 means unfiltered.
func NewTradingEconomics(client *xhttp.Client, baseURL, apiKey string, importance int) (*TradingEconomics, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errs.Configuration("providers.tradingeconomics", "missing TRADINGECONOMICS_API_KEY")
	}
	if importance != 0 && (importance < 1 || importance > 3) {
		return nil, errs.Configurationf("providers.tradingeconomics", "importance must be 1, 2, or 3, got %d", importance)
	}
	if baseURL == "" {
		baseURL = DefaultTEBaseURL
	}
	return &TradingEconomics{
		httpBase:   newHTTPBase(teName, baseURL, client),
		apiKey:     apiKey,
		importance: importance,
	}, nil
}

// WithImportance returns a copy filtered to one importance level.
func (c *TradingEconomics) WithImportance(importance int) (*TradingEconomics, error) {
	if importance < 1 || importance > 3 {
		return nil, errs.Configurationf("providers.tradingeconomics", "importance must be 1, 2, or 3, got %d", importance)
	}
	cp := *c
	cp.importance = importance
	return &cp, nil
}

func (c *TradingEconomics) MacroEvents(ctx context.Context, start, end time.Time) ([]models.MacroEvent, error) {
	path := fmt.Sprintf("/calendar/country/All/%s/%s", util.FormatDate(start), util.FormatDate(end))
	params := map[string][]string{"c": {c.apiKey}}
	if c.importance != 0 {
		params["importance"] = []string{fmt.Sprint(c.importance)}
	}

	rows, err := c.getList(ctx, "calendar", path, params)
	if err != nil {
		return nil, err
	}

	out := make([]models.MacroEvent, 0, len(rows))
	for _, r := range rows {
		t, err := util.ParseEventTime(firstString(r, "Date", "date"))
		if err != nil {
			continue
		}
		imp := defaultTEImportance
		if v := firstTruthy(r, "Importance", "importance"); v != nil {
			n, ok := intValue(v)
			if !ok {
				continue
			}
			imp = n
		}
		if imp < 1 || imp > 3 {
			imp = defaultTEImportance
		}
		out = append(out, models.MacroEvent{
			Event:      firstString(r, "Event", "event"),
			Country:    firstString(r, "Country", "country"),
			Category:   firstString(r, "Category", "category"),
			Time:       t,
			Importance: imp,
			Actual:     floatField(r, "Actual", "actual"),
			Forecast:   floatField(r, "Forecast", "forecast"),
			Previous:   floatField(r, "Previous", "previous"),
			Source:     firstString(r, "Source"),
			URL:        firstString(r, "URL"),
		})
	}
	return out, nil
}
