package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agegate/internal/account/handler"
	"agegate/internal/account/lockout"
	accountmetrics "agegate/internal/account/metrics"
	"agegate/internal/account/service"
	userstore "agegate/internal/account/store/user"
	"agegate/internal/agepolicy"
	"agegate/internal/platform/config"
	"agegate/internal/platform/httpserver"
	"agegate/internal/platform/logger"
	"agegate/internal/platform/middleware"
	platformredis "agegate/internal/platform/redis"
	"agegate/internal/token"
	"agegate/pkg/platform/audit"
	auditmemory "agegate/pkg/platform/audit/store/memory"
	auditpostgres "agegate/pkg/platform/audit/store/postgres"
	auditworker "agegate/pkg/platform/audit/worker"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.EphemeralSigningKey {
		log.Warn("JWT_SIGNING_KEY not set, generated an ephemeral key; issued tokens will not survive a restart")
	}

	requirement, err := agepolicy.NewRequirement(cfg.MinimumAge)
	if err != nil {
		log.Error("invalid minimum age", "error", err)
		os.Exit(1)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var users service.UserStore = userstore.New()
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		users = userstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	}

	lockoutStore, closeLockouts, err := buildLockoutStore(cfg)
	if err != nil {
		log.Error("failed to open lockout store", "error", err)
		os.Exit(1)
	}
	defer closeLockouts()

	lockouts, err := lockout.New(lockoutStore, lockout.WithLogger(log))
	if err != nil {
		log.Error("failed to build lockout service", "error", err)
		os.Exit(1)
	}

	recorder := audit.NewRecorder(256, log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := auditworker.New(auditStore, recorder.Inbox(), log, auditworker.WithConcurrency(2))
	go func() {
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	metrics := accountmetrics.New()
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	accounts := service.New(users, tokens,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithLockout(lockouts),
		service.WithAudit(recorder),
	)

	accountHandler := handler.New(accounts, agepolicy.NewEnforcer(requirement), log, metrics, recorder)

	router := chi.NewRouter()
	router.Use(middleware.RequestTime)
	router.Use(middleware.RequestID)
	router.Use(middleware.Device)
	accountHandler.Register(router, middleware.RequireAuth(tokens, log))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting agegate", "addr", cfg.Addr, "minimum_age", cfg.MinimumAge)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// openDatabase connects to Postgres when DATABASE_URL is set. A nil return
// with nil error means the in-memory stores should be used instead.
func openDatabase(cfg config.Server) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// buildLockoutStore uses Redis when configured so lockout state survives
// restarts and is shared across replicas.
func buildLockoutStore(cfg config.Server) (lockout.Store, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return lockout.NewInMemoryStore(), func() {}, nil
	}
	return lockout.NewRedisStore(client.Client), func() { _ = client.Close() }, nil
}
