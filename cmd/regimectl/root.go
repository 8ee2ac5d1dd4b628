package main

import (
	"context"
	"encoding/json"
	"io"

	"RegimeNews/internal/di"
	"RegimeNews/pkg/config"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	strict     bool
	nRegimes   int
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "regimectl",
		Short:         "Market regime, news and event overlay reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "config/config.yaml", "config file path")
	root.PersistentFlags().BoolVar(&g.strict, "strict", false, "strict mode: 2 or 3 regimes and fit diagnostics")
	root.AddCommand(runCmd(g), overlayCmd(g))
	return root
}

// loadConfig applies the CLI mode on top of the file config. Permissive mode
// is the CLI default.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Pipeline.Mode = config.ModePermissive
	if g.strict {
		cfg.Pipeline.Mode = config.ModeStrict
	}
	if g.nRegimes > 0 {
		cfg.Pipeline.NRegimes = g.nRegimes
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// one-shot runs never consume requests
	cfg.Kafka.Consumer.Enabled = false
	return cfg, nil
}

func (g *globalFlags) runners() (*di.Runners, func(), error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return di.InitializeRunners(cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
