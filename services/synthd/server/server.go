package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"synthvault/native/synth"
	"synthvault/observability/metrics"
	"synthvault/services/synthd/storage"
)

// Config defines HTTP server parameters.
type Config struct {
	ListenAddress string
}

// Server exposes the issuance engine over an authenticated HTTP API.
type Server struct {
	cfg        Config
	engine     *synth.Engine
	store      *storage.Storage
	auth       *Authenticator
	logger     *slog.Logger
	metrics    *metrics.APIMetrics
	engMtx     *metrics.SynthMetrics
	debtSupply func() *big.Int
}

// New constructs the API server over the engine and the audit store.
func New(cfg Config, engine *synth.Engine, store *storage.Storage, auth *Authenticator, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if auth == nil {
		return nil, fmt.Errorf("authenticator required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		auth:    auth,
		logger:  logger,
		metrics: metrics.API(),
		engMtx:  metrics.Synth(),
	}, nil
}

// SetDebtSupplyFn wires the aggregate synthetic supply reader used to publish
// the open-debt gauge after debt-changing operations.
func (s *Server) SetDebtSupplyFn(fn func() *big.Int) {
	if s == nil {
		return
	}
	s.debtSupply = fn
}

func (s *Server) publishOpenDebt() {
	if s == nil || s.debtSupply == nil {
		return
	}
	supply := s.debtSupply()
	if supply == nil {
		return
	}
	value, _ := new(big.Float).SetInt(supply).Float64()
	s.engMtx.SetOpenDebt(value)
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Method(http.MethodGet, "/healthz", otelhttp.NewHandler(http.HandlerFunc(s.handleHealthz), "synthd.healthz"))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/assets", s.handleAssets)
		r.Get("/positions/{address}", s.handlePosition)
		r.Get("/health/{address}", s.handleHealth)
		r.Get("/value", s.handleValue)
		r.Get("/convert", s.handleConvert)
		r.Get("/events", s.handleEvents)
		r.Post("/positions/deposit", s.handleDeposit)
		r.Post("/positions/mint", s.handleMint)
		r.Post("/positions/redeem", s.handleRedeem)
		r.Post("/positions/burn", s.handleBurn)
		r.Post("/positions/deposit-and-mint", s.handleDepositAndMint)
		r.Post("/positions/redeem-for-burn", s.handleRedeemForBurn)
		r.Post("/liquidations", s.handleLiquidate)
	})
	return otelhttp.NewHandler(r, "synthd.api")
}

// Run starts the HTTP server and blocks until context cancellation.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server not configured")
	}
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("synthd listening", "addr", s.cfg.ListenAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		s.metrics.Observe(route, recorder.status, time.Since(start))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
