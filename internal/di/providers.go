package di

import (
	"context"
	"fmt"
	"time"

	"RegimeNews/internal/domain/repository"
	"RegimeNews/internal/handler/api"
	"RegimeNews/internal/handler/ws"
	internalrepo "RegimeNews/internal/repository"
	svcmetrics "RegimeNews/internal/service/metrics"
	"RegimeNews/internal/service/ratelimit"
	"RegimeNews/internal/services/news"
	"RegimeNews/internal/services/overlay"
	"RegimeNews/internal/services/providers"
	"RegimeNews/internal/services/regime"
	"RegimeNews/internal/usecase"
	"RegimeNews/pkg/cache"
	pkgch "RegimeNews/pkg/clickhouse"
	"RegimeNews/pkg/config"
	xhttp "RegimeNews/pkg/http"
	pkgkafka "RegimeNews/pkg/kafka"
	applogger "RegimeNews/pkg/logger"
	"RegimeNews/pkg/metrics"
	"RegimeNews/pkg/server"
)

// Runners is what the CLI needs: the pipeline and the overlay runner.
type Runners struct {
	Pipeline *usecase.Pipeline
	Overlay  *usecase.OverlayRunner
}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideSecrets reads provider credentials once at startup.
func ProvideSecrets(cfg *config.Config) (config.Secrets, error) {
	return config.LoadSecrets(cfg.Providers.SecretsFile)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	svcmetrics.Register()
	return metrics.New(nil)
}

// ProvideFMP returns nil when no API key is configured; the price loader
// then serves cached prices only.
func ProvideFMP(cfg *config.Config, secrets config.Secrets, l *applogger.Logger) *providers.FMP {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.FMP.Timeout),
		xhttp.WithRatePerMinute(cfg.Providers.FMP.RatePerMin),
		xhttp.WithBreaker("fmp"),
	)
	fmp, err := providers.NewFMP(client, cfg.Providers.FMP.BaseURL, secrets.FMPAPIKey)
	if err != nil {
		l.Warn("fmp disabled", applogger.Error(err))
		return nil
	}
	return fmp
}

func ProvidePriceSource(fmp *providers.FMP) repository.PriceSource {
	if fmp == nil {
		return nil
	}
	return fmp
}

func ProvideCompanyCalendar(fmp *providers.FMP) repository.CompanyCalendar {
	if fmp == nil {
		return nil
	}
	return fmp
}

// ProvideMacroCalendar picks the configured macro source. A source without
// credentials yields nil.
func ProvideMacroCalendar(cfg *config.Config, secrets config.Secrets, fmp *providers.FMP, l *applogger.Logger) (repository.MacroCalendar, error) {
	if cfg.Overlay.MacroSource != "tradingeconomics" {
		if fmp == nil {
			return nil, nil
		}
		return fmp, nil
	}
	if secrets.TradingEconomicsAPIKey == "" {
		l.Warn("tradingeconomics disabled: missing TRADINGECONOMICS_API_KEY")
		return nil, nil
	}
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.TradingEconomics.Timeout),
		xhttp.WithRatePerMinute(cfg.Providers.TradingEconomics.RatePerMin),
		xhttp.WithBreaker("tradingeconomics"),
	)
	te, err := providers.NewTradingEconomics(client, cfg.Providers.TradingEconomics.BaseURL,
		secrets.TradingEconomicsAPIKey, cfg.Providers.TradingEconomics.Importance)
	if err != nil {
		return nil, err
	}
	return te, nil
}

func ProvideNewsService(cfg *config.Config) *news.Service {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Providers.News.Timeout), xhttp.WithBreaker("google_news"))
	feed := news.NewRSSFeed(client, news.RSSConfig{
		FeedURL:      cfg.Providers.News.FeedURL,
		LookbackDays: cfg.Providers.News.LookbackDays,
		MaxItems:     cfg.Providers.News.MaxItems,
	}, nil)
	return news.NewService(feed)
}

// ProvidePriceCache opens the on-disk price cache.
func ProvidePriceCache(cfg *config.Config, l *applogger.Logger) (repository.PriceCache, func(), error) {
	c, err := internalrepo.OpenBadgerPriceCache(cfg.PriceCache.Dir)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := c.Close(); err != nil {
			l.Warn("price cache close error", applogger.Error(err))
		}
	}
	return c, cleanup, nil
}

// ProvideClickHouseClient connects and creates the schema. It returns nil
// when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.SchemaStatements(client.Database())...); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

func ProvidePriceArchive(ch *pkgch.Client, l *applogger.Logger) repository.PriceArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHPriceStore(ch, l)
}

func ProvideReportStore(ch *pkgch.Client, l *applogger.Logger) repository.ReportStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHReportStore(ch, l)
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
}

// ProvideReportCache layers an in-process cache over Redis when Redis is
// enabled, and uses the in-process layer alone otherwise.
func ProvideReportCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var remote cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		remote = rc
	}
	lc := cache.NewLayeredCache(remote, cache.WithLayeredMemoryTTL(cfg.Pipeline.ReportTTL))
	cleanup := func() {
		if err := lc.Close(); err != nil {
			l.Warn("report cache close error", applogger.Error(err))
		}
	}
	return lc, cleanup, nil
}

func ProvideStreamHandler(l *applogger.Logger) *ws.StreamHandler {
	return ws.NewStreamHandler(l)
}

func ProvidePriceLoader(source repository.PriceSource, pc repository.PriceCache, archive repository.PriceArchive, l *applogger.Logger) *usecase.PriceLoader {
	return usecase.NewPriceLoader(source, pc, archive, l)
}

func ProvideFitter(cfg *config.Config) *regime.Fitter {
	return regime.NewFitter(regime.Config{
		Restarts: cfg.Pipeline.Restarts,
		Seed:     cfg.Pipeline.RandomSeed,
	})
}

func ProvidePipeline(
	cfg *config.Config,
	loader *usecase.PriceLoader,
	newsSvc *news.Service,
	fitter *regime.Fitter,
	m repository.Metrics,
	l *applogger.Logger,
	reportCache cache.Service,
	store repository.ReportStore,
	pub repository.Publisher,
	stream *ws.StreamHandler,
) *usecase.Pipeline {
	opts := []usecase.PipelineOption{
		usecase.WithReportCache(reportCache),
		usecase.WithBroadcaster(stream),
	}
	if store != nil {
		opts = append(opts, usecase.WithReportStore(store))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewPipeline(usecase.PipelineConfig{
		Mode:         cfg.Pipeline.Mode,
		NRegimes:     cfg.Pipeline.NRegimes,
		MarketTicker: cfg.Pipeline.MarketTicker,
		Horizons:     cfg.Pipeline.Horizons,
		ReportTTL:    cfg.Pipeline.ReportTTL,
	}, loader, newsSvc, fitter, m, l, opts...)
}

func ProvideOverlayEngine(cfg *config.Config) *overlay.Engine {
	oc := overlay.DefaultConfig()
	oc.MacroWindowDays = cfg.Overlay.MacroWindowDays
	oc.CompanyWindowDays = cfg.Overlay.CompanyWindowDays
	return overlay.NewEngine(oc)
}

func ProvideOverlayRunner(
	cfg *config.Config,
	p *usecase.Pipeline,
	macro repository.MacroCalendar,
	company repository.CompanyCalendar,
	engine *overlay.Engine,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.OverlayRunner {
	return usecase.NewOverlayRunner(p, macro, company, engine, m, l,
		usecase.WithDefaultSymbols(cfg.Overlay.PortfolioSymbols),
		usecase.WithLookahead(cfg.Overlay.LookaheadDays),
	)
}

func ProvideRunners(p *usecase.Pipeline, o *usecase.OverlayRunner) *Runners {
	return &Runners{Pipeline: p, Overlay: o}
}

// ProvideKafkaConsumer returns nil unless the request consumer is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook{})
	return consumer, nil
}

func ProvideKafkaRunHandler(cfg *config.Config, p *usecase.Pipeline, o *usecase.OverlayRunner, m repository.Metrics, l *applogger.Logger) *usecase.KafkaRunHandler {
	return usecase.NewKafkaRunHandler(cfg.Kafka.Consumer.RequestsTopic, p, o, m, l)
}

func ProvideScheduler(cfg *config.Config, o *usecase.OverlayRunner, p *usecase.Pipeline, l *applogger.Logger) *usecase.Scheduler {
	return usecase.NewScheduler(cfg.Overlay.Schedule, cfg.Overlay.Watchlist, cfg.Overlay.PortfolioSymbols, o, p, l)
}

func ProvidePipelineHandler(cfg *config.Config, p *usecase.Pipeline, o *usecase.OverlayRunner, l *applogger.Logger) *api.PipelineHandler {
	var rl *ratelimit.Limiter
	if cfg.Server.RateLimitPerMin > 0 {
		rl = ratelimit.New(cfg.Server.RateLimitPerMin, cfg.Server.RateLimitPerMin/4+1, 10*time.Minute)
	}
	return api.NewPipelineHandler(p, o, rl, l)
}

// ProvideApp assembles the long-running service.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.PipelineHandler,
	stream *ws.StreamHandler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRunHandler,
	scheduler *usecase.Scheduler,
) *server.App {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	httpServer := xhttp.NewServer([]xhttp.Handler{h, stream},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
	return server.New(cfg, l, httpServer, stream, consumer, kh, scheduler)
}
