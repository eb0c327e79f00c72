// Package canceler implements app.Runner for the canceler process: one
// pkg/canceler engine per configured destination chain, re-validating
// pending withdrawals against that chain's guard pipeline and registries,
// plus a minimal health/metrics HTTP server, following the same shape as
// pkg/app/operator's Server.
package canceler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chainsafe/watchtower-bridge/pkg/app/bootstrap"
	"github.com/chainsafe/watchtower-bridge/pkg/app/httpserver"
	cengine "github.com/chainsafe/watchtower-bridge/pkg/canceler"
	"github.com/chainsafe/watchtower-bridge/pkg/config"
	"github.com/chainsafe/watchtower-bridge/pkg/pgutil"
	"github.com/chainsafe/watchtower-bridge/pkg/store"
)

const (
	defaultGracefulShutdownTimeout = 30 * time.Second
	defaultHTTPMiddlewareTimeout   = 60 * time.Second
	defaultHTTPReadTimeout         = 15 * time.Second
	defaultHTTPWriteTimeout        = 15 * time.Second
	defaultHTTPIdleTimeout         = 60 * time.Second
)

// Server holds configuration for the canceler process.
type Server struct {
	cfg *config.WatchtowerConfig
}

// NewServer initializes a new canceler Server.
func NewServer(cfg *config.WatchtowerConfig) *Server {
	return &Server{cfg: cfg}
}

// Run starts the canceler engine for the configured destination chain and
// the operational HTTP server. It blocks until an OS shutdown signal is
// received or a fatal component error occurs.
func (s *Server) Run() error {
	cfg := s.cfg
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting watchtower canceler")

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	st := store.NewStore(db)
	defer func() { _ = st.Close() }()

	chains, err := bootstrap.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("build chain adapters: %w", err)
	}

	destAdapter, ok := chains.Adapters[cfg.Canceler.DestChain]
	if !ok {
		return fmt.Errorf("canceler.dest_chain %q not present in configured chains", cfg.Canceler.DestChain)
	}
	destBridge := chains.Bridges[cfg.Canceler.DestChain]
	destGuards := chains.Guards[cfg.Canceler.DestChain]
	validator := cengine.NewGuardValidator(destBridge.Chains, destBridge.Tokens, destGuards, st)

	eng := cengine.New(cengine.Config{
		DestChainName: cfg.Canceler.DestChain,
		PollInterval:  cfg.Canceler.PollInterval,
		BatchLimit:    cfg.Canceler.BatchLimit,
	}, destAdapter, validator, st, logger)

	go func() {
		if err := eng.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("canceler engine stopped", zap.Error(err))
		}
	}()

	router := s.newRouter(logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  defaultHTTPReadTimeout,
		WriteTimeout: defaultHTTPWriteTimeout,
		IdleTimeout:  defaultHTTPIdleTimeout,
	}

	err = httpserver.ServeAndWait(ctx, logger, srv, defaultGracefulShutdownTimeout)
	eng.Stop()
	return err
}

func (s *Server) newRouter(logger *zap.Logger) http.Handler {
	cfg := s.cfg

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultHTTPMiddlewareTimeout))
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics enabled", zap.String("path", "/metrics"))
	}

	return r
}
