package usecase

import (
	"context"
	"time"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/util"
)

// PriceLoader reads daily history through the on-disk cache. source and
// archive may be nil.
type PriceLoader struct {
	source  domrepo.PriceSource
	cache   domrepo.PriceCache
	archive domrepo.PriceArchive
	l       *applogger.Logger
}

func NewPriceLoader(source domrepo.PriceSource, cache domrepo.PriceCache, archive domrepo.PriceArchive, l *applogger.Logger) *PriceLoader {
	if l == nil {
		l = applogger.Nop()
	}
	return &PriceLoader{source: source, cache: cache, archive: archive, l: l.Component("price_loader")}
}

// Load returns history for ticker. Offline runs and runs without a
// configured source fall back to the cached series; online runs refresh the
// cache and archive what they fetched.
func (p *PriceLoader) Load(ctx context.Context, ticker string, from, to time.Time, offline bool) (models.PriceSeries, error) {
	ticker = util.NormalizeSymbol(ticker)

	cached, hit, err := p.cache.Get(ctx, ticker)
	if err != nil {
		p.l.Warn("price cache read failed", applogger.String("ticker", ticker), applogger.Error(err))
		hit = false
	}

	if offline {
		if !hit {
			return models.PriceSeries{}, errs.Configurationf("price load", "offline mode but no cached prices for %s", ticker)
		}
		return cached, nil
	}
	if p.source == nil {
		if hit {
			return cached, nil
		}
		return models.PriceSeries{}, errs.Configuration("price load", "missing FMP_API_KEY and no cached prices for "+ticker)
	}

	series, err := p.source.FetchDaily(ctx, ticker, from, to)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if len(series.Bars) == 0 {
		return models.PriceSeries{}, errs.InsufficientData("price load "+ticker, 0, 1)
	}

	if err := p.cache.Put(ctx, series); err != nil {
		p.l.Warn("price cache write failed", applogger.String("ticker", ticker), applogger.Error(err))
	}
	if p.archive != nil {
		if err := p.archive.StorePrices(ctx, series); err != nil {
			p.l.Warn("price archive failed", applogger.String("ticker", ticker), applogger.Error(err))
		}
	}
	p.l.Debug("prices fetched", applogger.String("ticker", ticker), applogger.Int("rows", len(series.Bars)))
	return series, nil
}
