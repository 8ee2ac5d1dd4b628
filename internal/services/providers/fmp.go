package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/repository"
	xhttp "RegimeNews/pkg/http"
	"RegimeNews/pkg/util"
)

const (
	fmpName           = "fmp"
	DefaultFMPBaseURL = "https://financialmodelingprep.com/stable"
	defaultMacroImp   = 2
)

// FMP talks to the Financial Modeling Prep stable endpoints.
type FMP struct {
	httpBase
	apiKey string
}

var (
	_ repository.PriceSource     = (*FMP)(nil)
	_ repository.MacroCalendar   = (*FMP)(nil)
	_ repository.CompanyCalendar = (*FMP)(nil)
)

// NewFMP requires a non-empty API key.
func NewFMP(client *xhttp.Client, baseURL, apiKey string) (*FMP, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errs.Configuration("providers.fmp", "missing FMP_API_KEY")
	}
	if baseURL == "" {
		baseURL = DefaultFMPBaseURL
	}
	return &FMP{httpBase: newHTTPBase(fmpName, baseURL, client), apiKey: apiKey}, nil
}

func (f *FMP) params(extra map[string][]string) map[string][]string {
	p := map[string][]string{"apikey": {f.apiKey}}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

// FetchDaily loads end-of-day history. A zero from or to is left open.
func (f *FMP) FetchDaily(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	ticker = util.NormalizeSymbol(ticker)
	q := map[string][]string{"symbol": {ticker}}
	if !from.IsZero() {
		q["from"] = []string{util.FormatDate(from)}
	}
	if !to.IsZero() {
		q["to"] = []string{util.FormatDate(to)}
	}

	rows, err := f.getList(ctx, "prices", "/historical-price-eod/full", f.params(q))
	if err != nil {
		return models.PriceSeries{}, err
	}
	if len(rows) == 0 {
		return models.PriceSeries{}, errs.UpstreamFetch("fmp.prices", fmt.Errorf("no price data returned for %s", ticker))
	}

	series := models.PriceSeries{Ticker: ticker, Bars: make([]models.PriceBar, 0, len(rows))}
	for _, r := range rows {
		r = lowerKeys(r)
		if _, ok := r["date"]; !ok {
			return models.PriceSeries{}, errs.UpstreamFetch("fmp.prices", errors.New("unexpected response: missing 'date'"))
		}
		date, err := util.ParseEventTime(stringify(r["date"]))
		if err != nil {
			continue
		}
		adj, ok := floatValue(r["adjclose"])
		if !ok {
			adj, ok = floatValue(r["adj_close"])
		}
		if !ok {
			adj, ok = floatValue(r["close"])
		}
		if !ok {
			continue
		}
		volume, _ := floatValue(r["volume"])
		series.Bars = append(series.Bars, models.PriceBar{
			Date:     util.StartOfDay(date),
			Ticker:   ticker,
			AdjClose: adj,
			Volume:   volume,
		})
	}
	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	return series, nil
}

func (f *FMP) Earnings(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error) {
	rows, err := f.getList(ctx, "earnings", "/earnings-calendar", f.params(dateParams(start, end)))
	if err != nil {
		return nil, err
	}
	return normalizeCompany(rows, models.EventEarnings, symbols, "date", "earningsDate", "reportedDate"), nil
}

func (f *FMP) Dividends(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error) {
	rows, err := f.getList(ctx, "dividends", "/dividends-calendar", f.params(dateParams(start, end)))
	if err != nil {
		return nil, err
	}
	return normalizeCompany(rows, models.EventDividends, symbols, "date", "paymentDate", "recordDate", "declarationDate"), nil
}

func (f *FMP) Splits(ctx context.Context, start, end time.Time, symbols []string) ([]models.CompanyEvent, error) {
	rows, err := f.getList(ctx, "splits", "/splits-calendar", f.params(dateParams(start, end)))
	if err != nil {
		return nil, err
	}
	return normalizeCompany(rows, models.EventSplits, symbols, "date", "splitDate"), nil
}

// IPOs is never symbol-filtered; rows without a symbol are labelled "IPO".
func (f *FMP) IPOs(ctx context.Context, start, end time.Time) ([]models.CompanyEvent, error) {
	rows, err := f.getList(ctx, "ipos", "/ipos-calendar", f.params(dateParams(start, end)))
	if err != nil {
		return nil, err
	}
	out := make([]models.CompanyEvent, 0, len(rows))
	for _, r := range rows {
		t, ok := firstTime(r, "date", "ipoDate")
		if !ok {
			continue
		}
		sym := util.NormalizeSymbol(firstString(r, "symbol", "ticker"))
		if sym == "" {
			sym = "IPO"
		}
		out = append(out, models.CompanyEvent{Symbol: sym, Type: models.EventIPO, Time: t, Meta: r})
	}
	return out, nil
}

// MacroEvents reads the economic calendar and keeps rows whose time falls on
// the calendar days [start, end], ordered by time.
func (f *FMP) MacroEvents(ctx context.Context, start, end time.Time) ([]models.MacroEvent, error) {
	rows, err := f.getList(ctx, "macro", "/economic-calendar", f.params(dateParams(start, end)))
	if err != nil {
		return nil, err
	}
	lo, hi := util.StartOfDay(start), util.EndOfDay(end)

	out := make([]models.MacroEvent, 0, len(rows))
	for _, r := range rows {
		t, err := util.ParseEventTime(stringify(firstTruthy(r, "date", "Date", "datetime", "time")))
		if err != nil {
			continue
		}
		if t.Before(lo) || t.After(hi) {
			continue
		}
		imp := defaultMacroImp
		if v := firstTruthy(r, "importance", "Importance"); v != nil {
			if n, ok := intValue(v); ok {
				imp = n
			}
		}
		out = append(out, models.MacroEvent{
			Event:      firstString(r, "event", "Event", "name"),
			Country:    firstString(r, "country", "Country"),
			Category:   firstString(r, "category", "Category", "type"),
			Time:       t,
			Importance: clampImportance(imp),
			Actual:     floatField(r, "actual", "Actual"),
			Forecast:   floatField(r, "forecast", "Forecast"),
			Previous:   floatField(r, "previous", "Previous"),
			Source:     "FMP",
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func normalizeCompany(rows []row, typ models.CompanyEventType, symbols []string, dateKeys ...string) []models.CompanyEvent {
	filter := util.SymbolSet(symbols)
	out := make([]models.CompanyEvent, 0, len(rows))
	for _, r := range rows {
		sym := util.NormalizeSymbol(firstString(r, "symbol"))
		if filter != nil {
			if _, ok := filter[sym]; !ok {
				continue
			}
		}
		t, ok := firstTime(r, dateKeys...)
		if !ok {
			continue
		}
		out = append(out, models.CompanyEvent{Symbol: sym, Type: typ, Time: t, Meta: r})
	}
	return out
}

// firstTime parses the first non-empty key that holds a valid timestamp.
func firstTime(r row, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s := stringify(r[k])
		if s == "" {
			continue
		}
		if t, err := util.ParseEventTime(s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clampImportance(n int) int {
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

func lowerKeys(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
