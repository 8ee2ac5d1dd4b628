package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeStrict     = "strict"
	ModePermissive = "permissive"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimitPerMin int           `yaml:"rate_limit_per_min"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Pipeline struct {
		Mode         string        `yaml:"mode"`
		NRegimes     int           `yaml:"n_regimes"`
		MarketTicker string        `yaml:"market_ticker"`
		StartDate    string        `yaml:"start_date"`
		RandomSeed   int64         `yaml:"random_seed"`
		Restarts     int           `yaml:"restarts"`
		Horizons     []int         `yaml:"horizons"`
		ReportTTL    time.Duration `yaml:"report_ttl"`
	} `yaml:"pipeline"`
	Overlay struct {
		MacroWindowDays   int      `yaml:"macro_window_days"`
		CompanyWindowDays int      `yaml:"company_window_days"`
		LookaheadDays     int      `yaml:"lookahead_days"`
		MacroSource       string   `yaml:"macro_source"`
		PortfolioSymbols  []string `yaml:"portfolio_symbols"`
		Schedule          string   `yaml:"schedule"`
		Watchlist         []string `yaml:"watchlist"`
	} `yaml:"overlay"`
	Providers struct {
		SecretsFile string `yaml:"secrets_file"`
		FMP         struct {
			BaseURL    string        `yaml:"base_url"`
			Timeout    time.Duration `yaml:"timeout"`
			RatePerMin int           `yaml:"rate_per_min"`
		} `yaml:"fmp"`
		TradingEconomics struct {
			BaseURL    string        `yaml:"base_url"`
			Timeout    time.Duration `yaml:"timeout"`
			RatePerMin int           `yaml:"rate_per_min"`
			Importance int           `yaml:"importance"`
		} `yaml:"tradingeconomics"`
		News struct {
			FeedURL      string        `yaml:"feed_url"`
			Timeout      time.Duration `yaml:"timeout"`
			LookbackDays int           `yaml:"lookback_days"`
			MaxItems     int           `yaml:"max_items"`
		} `yaml:"news"`
	} `yaml:"providers"`
	PriceCache struct {
		Dir string `yaml:"dir"`
	} `yaml:"price_cache"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		ReportsTopic string   `yaml:"reports_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled       bool          `yaml:"enabled"`
			RequestsTopic string        `yaml:"requests_topic"`
			GroupID       string        `yaml:"group_id"`
			Workers       int           `yaml:"workers"`
			BufferSize    int           `yaml:"buffer_size"`
			RetryMax      int           `yaml:"retry_max"`
			BackoffMin    time.Duration `yaml:"backoff_min"`
			BackoffMax    time.Duration `yaml:"backoff_max"`
			DLQTopic      string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PIPELINE_MODE"); v != "" {
		c.Pipeline.Mode = v
	}
	if v := os.Getenv("N_REGIMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.NRegimes = n
		}
	}
	if v := os.Getenv("MARKET_TICKER"); v != "" {
		c.Pipeline.MarketTicker = v
	}
	if v := os.Getenv("PORTFOLIO_SYMBOLS"); v != "" {
		c.Overlay.PortfolioSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("PRICE_CACHE_DIR"); v != "" {
		c.PriceCache.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Pipeline.Mode == "" {
		c.Pipeline.Mode = ModeStrict
	}
	if c.Pipeline.NRegimes == 0 {
		c.Pipeline.NRegimes = 3
	}
	if c.Pipeline.MarketTicker == "" {
		c.Pipeline.MarketTicker = "SPY"
	}
	if c.Pipeline.StartDate == "" {
		c.Pipeline.StartDate = "2015-01-01"
	}
	if c.Pipeline.RandomSeed == 0 {
		c.Pipeline.RandomSeed = 7
	}
	if c.Pipeline.Restarts == 0 {
		c.Pipeline.Restarts = 10
	}
	if len(c.Pipeline.Horizons) == 0 {
		c.Pipeline.Horizons = []int{5, 20}
	}
	if c.Overlay.MacroWindowDays == 0 {
		c.Overlay.MacroWindowDays = 3
	}
	if c.Overlay.CompanyWindowDays == 0 {
		c.Overlay.CompanyWindowDays = 7
	}
	if c.Overlay.LookaheadDays == 0 {
		c.Overlay.LookaheadDays = 7
	}
	if c.Overlay.MacroSource == "" {
		c.Overlay.MacroSource = "fmp"
	}
	if c.Providers.FMP.BaseURL == "" {
		c.Providers.FMP.BaseURL = "https://financialmodelingprep.com/stable"
	}
	if c.Providers.FMP.Timeout == 0 {
		c.Providers.FMP.Timeout = 20 * time.Second
	}
	if c.Providers.FMP.RatePerMin == 0 {
		c.Providers.FMP.RatePerMin = 300
	}
	if c.Providers.TradingEconomics.BaseURL == "" {
		c.Providers.TradingEconomics.BaseURL = "https://api.tradingeconomics.com"
	}
	if c.Providers.TradingEconomics.Timeout == 0 {
		c.Providers.TradingEconomics.Timeout = 20 * time.Second
	}
	if c.Providers.TradingEconomics.RatePerMin == 0 {
		c.Providers.TradingEconomics.RatePerMin = 60
	}
	if c.Providers.News.FeedURL == "" {
		c.Providers.News.FeedURL = "https://news.google.com/rss/search"
	}
	if c.Providers.News.Timeout == 0 {
		c.Providers.News.Timeout = 15 * time.Second
	}
	if c.Providers.News.LookbackDays == 0 {
		c.Providers.News.LookbackDays = 7
	}
	if c.Providers.News.MaxItems == 0 {
		c.Providers.News.MaxItems = 50
	}
	if c.PriceCache.Dir == "" {
		c.PriceCache.Dir = "data/cache/prices"
	}
	if c.Kafka.ReportsTopic == "" {
		c.Kafka.ReportsTopic = "regime.reports"
	}
	if c.Kafka.Consumer.RequestsTopic == "" {
		c.Kafka.Consumer.RequestsTopic = "regime.requests"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "regime-news"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Pipeline.Mode {
	case ModeStrict:
		if c.Pipeline.NRegimes != 2 && c.Pipeline.NRegimes != 3 {
			return fmt.Errorf("pipeline.n_regimes must be 2 or 3 in strict mode, got %d", c.Pipeline.NRegimes)
		}
	case ModePermissive:
		if c.Pipeline.NRegimes < 1 {
			return fmt.Errorf("pipeline.n_regimes must be positive, got %d", c.Pipeline.NRegimes)
		}
	default:
		return fmt.Errorf("pipeline.mode must be '%s' or '%s', got '%s'", ModeStrict, ModePermissive, c.Pipeline.Mode)
	}
	for _, h := range c.Pipeline.Horizons {
		if h < 1 {
			return fmt.Errorf("pipeline.horizons must be positive, got %d", h)
		}
	}
	if c.Overlay.MacroWindowDays < 0 || c.Overlay.CompanyWindowDays < 0 {
		return fmt.Errorf("overlay windows cannot be negative")
	}
	if c.Overlay.MacroSource != "fmp" && c.Overlay.MacroSource != "tradingeconomics" {
		return fmt.Errorf("overlay.macro_source must be 'fmp' or 'tradingeconomics', got '%s'", c.Overlay.MacroSource)
	}
	if imp := c.Providers.TradingEconomics.Importance; imp != 0 && (imp < 1 || imp > 3) {
		return fmt.Errorf("providers.tradingeconomics.importance must be 1, 2 or 3, got %d", imp)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
