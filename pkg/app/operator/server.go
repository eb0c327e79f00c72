// Package operator implements app.Runner for the operator process: one
// observer per configured chain feeding pkg/store, one pkg/operator engine
// driving the configured destination chain's approve/execute lifecycle, and
// an operational HTTP server (health/ready/metrics plus the admin registry
// API), following the shape of the teacher's pkg/app/relayer/server.go.
package operator

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

	"github.com/chainsafe/watchtower-bridge/pkg/apiauth"
	"github.com/chainsafe/watchtower-bridge/pkg/app/bootstrap"
	"github.com/chainsafe/watchtower-bridge/pkg/app/httpserver"
	"github.com/chainsafe/watchtower-bridge/pkg/app/registryapi"
	"github.com/chainsafe/watchtower-bridge/pkg/config"
	"github.com/chainsafe/watchtower-bridge/pkg/observer"
	opengine "github.com/chainsafe/watchtower-bridge/pkg/operator"
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

// Server holds configuration for the operator process.
type Server struct {
	cfg *config.WatchtowerConfig
}

// NewServer initializes a new operator Server.
func NewServer(cfg *config.WatchtowerConfig) *Server {
	return &Server{cfg: cfg}
}

// Run starts every configured observer, the operator engine for the
// configured destination chain, and the operational HTTP server. It blocks
// until an OS shutdown signal is received or a fatal component error occurs.
func (s *Server) Run() error {
	cfg := s.cfg
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting watchtower operator")

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

	destAdapter, ok := chains.Adapters[cfg.Operator.DestChain]
	if !ok {
		return fmt.Errorf("operator.dest_chain %q not present in configured chains", cfg.Operator.DestChain)
	}

	op := opengine.New(opengine.Config{
		DestChainName:     cfg.Operator.DestChain,
		PollInterval:      cfg.Operator.PollInterval,
		ReconcileInterval: cfg.Operator.ReconcileInterval,
		BatchLimit:        cfg.Operator.BatchLimit,
		StuckAfter:        cfg.Operator.StuckAfter,
	}, destAdapter, st, logger)

	var observers []*observer.Observer
	for name, adapter := range chains.Adapters {
		obs := observer.New(observer.Config{
			ServiceName:  "operator-observer",
			PollInterval: cfg.Chains[name].PollInterval,
			BatchLimit:   cfg.Chains[name].BatchLimit,
		}, name, adapter, st, logger)
		observers = append(observers, obs)
		go func() {
			if err := obs.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("observer stopped", zap.String("chain", name), zap.Error(err))
			}
		}()
	}

	go func() {
		if err := op.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("operator engine stopped", zap.Error(err))
		}
	}()

	router := s.newRouter(chains, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  defaultHTTPReadTimeout,
		WriteTimeout: defaultHTTPWriteTimeout,
		IdleTimeout:  defaultHTTPIdleTimeout,
	}

	err = httpserver.ServeAndWait(ctx, logger, srv, defaultGracefulShutdownTimeout)
	for _, obs := range observers {
		obs.Stop()
	}
	op.Stop()
	return err
}

func (s *Server) newRouter(chains *bootstrap.ChainSet, logger *zap.Logger) http.Handler {
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
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics enabled", zap.String("path", "/metrics"))
	}

	secret := []byte(os.Getenv(cfg.Auth.SigningSecretEnv))
	validator := apiauth.NewValidator(secret, cfg.Auth.Issuer)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(validator.RequireRole("admin"))
		registryapi.Routes(r, registryapi.Chains(chains.Bridges), logger)
	})

	return r
}
