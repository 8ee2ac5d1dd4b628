package clickhouse

import "fmt"

// SchemaStatements returns the DDL for the price archive and report store.
func SchemaStatements(database string) []string {
	if database == "" {
		database = "regime_news"
	}
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.daily_prices (
            ticker     LowCardinality(String),
            date       Date,
            adj_close  Float64,
            volume     Float64,
            fetched_at DateTime64(3, 'UTC') DEFAULT now64(3)
        )
        ENGINE = ReplacingMergeTree(fetched_at)
        ORDER BY (ticker, date)`, database),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s.reports (
            run_id            UUID,
            ticker            LowCardinality(String),
            asof              Date,
            mode              LowCardinality(String),
            regime            Int32,
            regime_name       LowCardinality(String),
            confidence        Float64,
            allow_new         Nullable(UInt8),
            risk_multiplier   Nullable(Float64),
            tighten_stops     Nullable(UInt8),
            n_rows_used       UInt32,
            payload           String,
            created_at        DateTime64(3, 'UTC')
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(created_at)
        ORDER BY (ticker, created_at)`, database),
	}
}
