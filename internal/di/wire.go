//go:build wireinject
// +build wireinject

package di

import (
	"RegimeNews/pkg/config"
	"RegimeNews/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideSecrets,
	ProvideMetrics,

	// Providers
	ProvideFMP,
	ProvidePriceSource,
	ProvideCompanyCalendar,
	ProvideMacroCalendar,
	ProvideNewsService,

	// Storage and delivery
	ProvidePriceCache,
	ProvideClickHouseClient,
	ProvidePriceArchive,
	ProvideReportStore,
	ProvideKafkaProducer,
	ProvideReportPublisher,
	ProvideReportCache,
	ProvideStreamHandler,

	// Use cases
	ProvidePriceLoader,
	ProvideFitter,
	ProvidePipeline,
	ProvideOverlayEngine,
	ProvideOverlayRunner,
)

// InitializeApp wires the long-running service.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideKafkaConsumer,
		ProvideKafkaRunHandler,
		ProvideScheduler,
		ProvidePipelineHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeRunners wires the pipeline and overlay runner for one-shot CLI use.
func InitializeRunners(cfg *config.Config) (*Runners, func(), error) {
	wire.Build(coreSet, ProvideRunners)
	return nil, nil, nil
}
