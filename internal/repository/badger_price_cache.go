package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"RegimeNews/internal/domain/models"
	domrepo "RegimeNews/internal/domain/repository"
	"RegimeNews/pkg/util"

	"github.com/dgraph-io/badger/v4"
)

const priceKeyPrefix = "prices:eod:"

// BadgerPriceCache stores one JSON-encoded series per symbol.
type BadgerPriceCache struct {
	db *badger.DB
}

var _ domrepo.PriceCache = (*BadgerPriceCache)(nil)

// OpenBadgerPriceCache opens (or creates) the cache under dir. An empty dir
// keeps the cache in memory.
func OpenBadgerPriceCache(dir string) (*BadgerPriceCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open price cache: %w", err)
	}
	return &BadgerPriceCache{db: db}, nil
}

func priceKey(ticker string) []byte {
	return []byte(priceKeyPrefix + util.NormalizeSymbol(ticker))
}

// Get reports ok=false when the symbol has never been cached.
func (c *BadgerPriceCache) Get(ctx context.Context, ticker string) (models.PriceSeries, bool, error) {
	var series models.PriceSeries
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(priceKey(ticker))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &series)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.PriceSeries{}, false, nil
	}
	if err != nil {
		return models.PriceSeries{}, false, fmt.Errorf("read price cache: %w", err)
	}
	return series, true, nil
}

// Put replaces the cached series for the symbol.
func (c *BadgerPriceCache) Put(ctx context.Context, series models.PriceSeries) error {
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal price series: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(priceKey(series.Ticker), data)
	})
}

func (c *BadgerPriceCache) Close() error {
	return c.db.Close()
}
