package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AssetEntry describes one registered collateral asset in the configuration
// file. InitialPrice seeds the manual feed in 8-decimal feed units when the
// daemon runs without a live feed.
type AssetEntry struct {
	Symbol       string `toml:"Symbol"`
	Decimals     uint8  `toml:"Decimals"`
	InitialPrice string `toml:"InitialPrice"`
}

// Config captures the runtime configuration for the synth module.
type Config struct {
	MaxQuoteAgeSeconds int64        `toml:"MaxQuoteAgeSeconds"`
	Paused             bool         `toml:"Paused"`
	Assets             []AssetEntry `toml:"assets"`
}

// Normalise applies defaults and canonical casing to the configuration.
func (c Config) Normalise() Config {
	cfg := Config{
		MaxQuoteAgeSeconds: c.MaxQuoteAgeSeconds,
		Paused:             c.Paused,
		Assets:             append([]AssetEntry{}, c.Assets...),
	}
	if cfg.MaxQuoteAgeSeconds <= 0 {
		cfg.MaxQuoteAgeSeconds = int64(DefaultMaxQuoteAge / time.Second)
	}
	for i := range cfg.Assets {
		cfg.Assets[i].Symbol = normalizeSymbol(cfg.Assets[i].Symbol)
		if cfg.Assets[i].Decimals == 0 {
			cfg.Assets[i].Decimals = 18
		}
	}
	return cfg
}

// Validate rejects empty or duplicate registry entries.
func (c Config) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("synth config: at least one collateral asset required")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for i, asset := range c.Assets {
		symbol := normalizeSymbol(asset.Symbol)
		if symbol == "" {
			return fmt.Errorf("synth config: empty asset symbol at index %d", i)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("synth config: duplicate asset %s", symbol)
		}
		seen[symbol] = struct{}{}
		if strings.TrimSpace(asset.InitialPrice) == "" {
			return fmt.Errorf("synth config: asset %s missing initial price", symbol)
		}
	}
	return nil
}

// MaxQuoteAge returns the staleness window as a duration.
func (c Config) MaxQuoteAge() time.Duration {
	if c.MaxQuoteAgeSeconds <= 0 {
		return DefaultMaxQuoteAge
	}
	return time.Duration(c.MaxQuoteAgeSeconds) * time.Second
}

// LoadConfig reads and validates the TOML module configuration.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("synth config: decode %s: %w", path, err)
	}
	cfg = cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
