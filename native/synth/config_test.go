package synth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synth.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
MaxQuoteAgeSeconds = 7200
Paused = false

[[assets]]
Symbol = "eth"
Decimals = 18
InitialPrice = "200000000000"

[[assets]]
Symbol = "BTC"
InitialPrice = "4000000000000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MaxQuoteAge() != 2*time.Hour {
		t.Fatalf("unexpected quote age: %s", cfg.MaxQuoteAge())
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("unexpected asset count: %d", len(cfg.Assets))
	}
	if cfg.Assets[0].Symbol != "ETH" {
		t.Fatalf("symbol not normalised: %q", cfg.Assets[0].Symbol)
	}
	if cfg.Assets[1].Decimals != 18 {
		t.Fatalf("decimals default not applied: %d", cfg.Assets[1].Decimals)
	}
}

func TestLoadConfigDefaultsQuoteAge(t *testing.T) {
	path := writeConfig(t, `
[[assets]]
Symbol = "ETH"
InitialPrice = "200000000000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MaxQuoteAge() != DefaultMaxQuoteAge {
		t.Fatalf("expected default quote age, got %s", cfg.MaxQuoteAge())
	}
}

func TestLoadConfigRejectsDuplicateAsset(t *testing.T) {
	path := writeConfig(t, `
[[assets]]
Symbol = "ETH"
InitialPrice = "200000000000"

[[assets]]
Symbol = "eth"
InitialPrice = "200000000000"
`)
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate asset error, got %v", err)
	}
}

func TestLoadConfigRejectsEmptyRegistry(t *testing.T) {
	path := writeConfig(t, `MaxQuoteAgeSeconds = 60`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for empty registry")
	}
}

func TestLoadConfigRejectsMissingPrice(t *testing.T) {
	path := writeConfig(t, `
[[assets]]
Symbol = "ETH"
`)
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "initial price") {
		t.Fatalf("expected missing price error, got %v", err)
	}
}
