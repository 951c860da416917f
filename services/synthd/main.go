package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"synthvault/native/synth"
	"synthvault/native/token"
	"synthvault/observability/logging"
	telemetry "synthvault/observability/otel"
	"synthvault/services/synthd/config"
	"synthvault/services/synthd/server"
	"synthvault/services/synthd/storage"
)

// custodyAccount is the protocol account that holds deposited collateral and
// transiently holds synthetic tokens during burns.
var custodyAccount = common.BytesToAddress([]byte("synthvault/custody"))

type staticPauses struct {
	paused bool
}

func (p staticPauses) IsPaused(string) bool { return p.paused }

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/synthd/config.yaml", "path to synthd config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	env := cfg.Environment
	if env == "" {
		env = strings.TrimSpace(os.Getenv("SYNTHVAULT_ENV"))
	}
	logger := logging.Setup("synthd", env, logging.Options{
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	otlpEndpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	otlpHeaders := telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	if cfg.Telemetry.Metrics || cfg.Telemetry.Traces {
		shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
			ServiceName: "synthd",
			Environment: env,
			Endpoint:    otlpEndpoint,
			Insecure:    insecure,
			Headers:     otlpHeaders,
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
		})
		if err != nil {
			log.Fatalf("init telemetry: %v", err)
		}
		defer func() {
			_ = shutdownTelemetry(context.Background())
		}()
	}

	moduleCfg, err := synth.LoadConfig(cfg.ModuleConfig)
	if err != nil {
		log.Fatalf("load module config: %v", err)
	}

	engine, susd, err := buildEngine(moduleCfg)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("open audit storage: %v", err)
	}
	defer store.Close()
	engine.SetEmitter(storage.NewRecorder(store, logger))

	auth, err := server.NewAuthenticator(cfg.Auth.APITokens, logger)
	if err != nil {
		log.Fatalf("configure auth: %v", err)
	}
	srv, err := server.New(server.Config{ListenAddress: cfg.ListenAddress}, engine, store, auth, logger)
	if err != nil {
		log.Fatalf("configure server: %v", err)
	}
	srv.SetDebtSupplyFn(susd.TotalSupply)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting synthd",
		"listen", cfg.ListenAddress,
		"assets", engine.RegisteredAssets(),
		"max_quote_age", moduleCfg.MaxQuoteAge().String(),
		"paused", moduleCfg.Paused,
	)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("run server: %v", err)
	}
	logger.Info("synthd stopped")
}

// buildEngine assembles the issuance engine from the module configuration:
// one balance ledger and one manual feed per registered collateral asset,
// plus the synthetic token ledger.
func buildEngine(cfg synth.Config) (*synth.Engine, *token.Ledger, error) {
	symbols := make([]string, 0, len(cfg.Assets))
	feeds := make([]synth.PriceFeed, 0, len(cfg.Assets))
	tokens := make([]synth.AssetToken, 0, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		price, ok := new(big.Int).SetString(strings.TrimSpace(asset.InitialPrice), 10)
		if !ok || price.Sign() <= 0 {
			return nil, nil, fmt.Errorf("asset %s: invalid initial price %q", asset.Symbol, asset.InitialPrice)
		}
		symbols = append(symbols, asset.Symbol)
		feeds = append(feeds, synth.NewManualFeed(price, time.Now().UTC()))
		tokens = append(tokens, token.NewLedger(asset.Symbol, custodyAccount))
	}

	susd := token.NewLedger("SUSD", custodyAccount)
	engine, err := synth.NewEngine(custodyAccount, susd, symbols, feeds, tokens, cfg.MaxQuoteAge())
	if err != nil {
		return nil, nil, err
	}
	engine.SetState(synth.NewMemoryState())
	engine.SetPauses(staticPauses{paused: cfg.Paused})
	return engine, susd, nil
}
