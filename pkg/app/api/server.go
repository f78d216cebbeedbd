// Package api implements app.Runner for the governance backend process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/dao-governance/pkg/app/http"
	"github.com/chainsafe/dao-governance/pkg/auth"
	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/ethereum"
	"github.com/chainsafe/dao-governance/pkg/explorer"
	"github.com/chainsafe/dao-governance/pkg/governance"
	"github.com/chainsafe/dao-governance/pkg/govstore"
	"github.com/chainsafe/dao-governance/pkg/indexer"
	"github.com/chainsafe/dao-governance/pkg/ipfs"
	"github.com/chainsafe/dao-governance/pkg/pgutil"
	proposalservice "github.com/chainsafe/dao-governance/pkg/proposal/service"
	"github.com/chainsafe/dao-governance/pkg/realtime"
	treasuryservice "github.com/chainsafe/dao-governance/pkg/treasury/service"
	"github.com/chainsafe/dao-governance/pkg/voting"
	votingservice "github.com/chainsafe/dao-governance/pkg/voting/service"
)

// Server holds cfg to init the governance backend.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

type readiness interface {
	IsReady() bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

// services groups the HTTP-facing components built by Run.
type services struct {
	proposals proposalservice.Service
	votes     votingservice.Service
	treasury  treasuryservice.Service
	hub       *realtime.Hub
	engine    readiness
	store     pinger
}

// Run connects to the database and the chain, starts the indexer engine and
// the notification hub, then serves the REST and websocket API until an OS
// shutdown signal is received.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting DAO governance backend")

	rules, err := governance.NewRules(cfg.Governance.QuorumVotes, cfg.Governance.ExecutionDelay, cfg.Governance.GracePeriod)
	if err != nil {
		return fmt.Errorf("invalid governance rules: %w", err)
	}
	threshold, err := governance.ParseAmount(cfg.Governance.ProposalThreshold)
	if err != nil {
		return fmt.Errorf("invalid proposal threshold: %w", err)
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store, err := govstore.NewCachedStore(govstore.NewStore(db), cfg.Governance.CacheSize)
	if err != nil {
		return err
	}

	client, err := ethereum.NewClient(&cfg.Ethereum, logger, ethereum.WithTimestampCacheSize(cfg.Indexer.TimestampCache))
	if err != nil {
		return fmt.Errorf("create ethereum client: %w", err)
	}
	defer client.Close()

	hub := realtime.NewHub(&cfg.Realtime, logger.Named("realtime"))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	decoder := indexer.NewDecoder(client.DAO(), client.Treasury(), client.Token(), client, logger.Named("decoder"))
	engine, err := indexer.NewEngine(cfg, client, decoder, client.DAO(), store, hub, logger.Named("engine"))
	if err != nil {
		return fmt.Errorf("create indexer engine: %w", err)
	}
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start indexer engine: %w", err)
	}
	// Keep this defer as a safety net.
	defer engine.Stop()

	power := voting.NewPowerCalculator(client.Token(), store)

	proposalService := proposalservice.NewService(
		store,
		client,
		power,
		ipfs.NewClient(&cfg.IPFS),
		client.DAO(),
		rules,
		threshold,
		logger,
	)
	votingService := votingservice.NewService(store, power, client.DAO(), rules, logger)
	treasuryService := treasuryservice.NewService(
		store,
		explorer.NewClient(&cfg.Explorer),
		common.HexToAddress(cfg.Ethereum.TreasuryAddress),
		logger,
	)

	router := s.setupRouter(&services{
		proposals: proposalservice.NewLog(proposalService, logger),
		votes:     votingservice.NewLog(votingService, logger),
		treasury:  treasuryservice.NewLog(treasuryService, logger),
		hub:       hub,
		engine:    engine,
		store:     store,
	}, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred DB/client closes kick in.
	stop()
	engine.Stop()
	<-hubDone

	return err
}

func (s *Server) setupRouter(svc *services, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness: 503 until the startup backfill returned
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !svc.engine.IsReady() || svc.store.Ping(r.Context()) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Websocket connections outlive the request timeout
	r.Get("/ws", realtime.Handler(svc.hub, realtime.Upgrader(s.cfg.Server.AllowedOrigins)))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(apphttp.RateLimit(s.cfg.Server.RateLimitPerSec, s.cfg.Server.RateLimitBurst, logger))
		r.Use(auth.SignatureMiddleware(s.cfg.Server.RequireSignatures, logger))
		r.MethodNotAllowed(apphttp.MethodNotAllowed)

		proposalservice.RegisterRoutes(r, svc.proposals, logger)
		votingservice.RegisterRoutes(r, svc.votes, logger)
		treasuryservice.RegisterRoutes(r, svc.treasury, logger)
	})

	return r
}
