package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Secrets holds provider credentials. It is built once at startup and handed
// to each provider client; nothing reads credentials from the process
// environment after that.
type Secrets struct {
	FMPAPIKey              string `envconfig:"FMP_API_KEY" toml:"fmp_api_key"`
	TradingEconomicsAPIKey string `envconfig:"TRADINGECONOMICS_API_KEY" toml:"tradingeconomics_api_key"`
}

// LoadSecrets reads credentials from the environment first and falls back to
// the TOML file at path for any value left empty. A missing file is not an
// error.
func LoadSecrets(path string) (Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return Secrets{}, fmt.Errorf("load secrets from env: %w", err)
	}
	s.trim()
	if path == "" || (s.FMPAPIKey != "" && s.TradingEconomicsAPIKey != "") {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Secrets{}, fmt.Errorf("read secrets file: %w", err)
	}

	var file Secrets
	if err := toml.Unmarshal(b, &file); err != nil {
		return Secrets{}, fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	file.trim()
	if s.FMPAPIKey == "" {
		s.FMPAPIKey = file.FMPAPIKey
	}
	if s.TradingEconomicsAPIKey == "" {
		s.TradingEconomicsAPIKey = file.TradingEconomicsAPIKey
	}
	return s, nil
}

func (s *Secrets) trim() {
	s.FMPAPIKey = strings.TrimSpace(s.FMPAPIKey)
	s.TradingEconomicsAPIKey = strings.TrimSpace(s.TradingEconomicsAPIKey)
}
