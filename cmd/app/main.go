package main

import (
	"flag"
	"log"
	"os"

	"RegimeNews/internal/di"
	"RegimeNews/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s n_regimes=%d", cfg.Environment, cfg.Pipeline.Mode, cfg.Pipeline.NRegimes)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	if cfg.ClickHouse.Enabled {
		log.Printf("clickhouse: schema ready db=%s", cfg.ClickHouse.Database)
	}
	if cfg.Kafka.Enabled {
		log.Printf("kafka: brokers=%v reports_topic=%s", cfg.Kafka.Brokers, cfg.Kafka.ReportsTopic)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
