package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/tally/backend/internal/application/ledger"
	"github.com/tally/backend/internal/infrastructure/config"
	"github.com/tally/backend/internal/infrastructure/lock"
	"github.com/tally/backend/internal/infrastructure/logger"
	"github.com/tally/backend/internal/infrastructure/persistence"
	"github.com/tally/backend/internal/infrastructure/scheduler"
	"github.com/tally/backend/internal/interfaces/http/handler"
	"github.com/tally/backend/internal/interfaces/http/middleware"
	"github.com/tally/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Tally Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLevel := gormlogger.Silent
	if cfg.Database.LogQueries {
		gormLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLevel)
	if err != nil {
		log.Fatal("Failed to open ledger store", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing ledger store", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate ledger schema", zap.Error(err))
	}
	log.Info("Ledger store ready", zap.String("path", cfg.Database.Path))

	// Wire the engine: one store, one lock table, one mutating service,
	// read-side components subscribed to its mutation feed.
	store := persistence.NewLedgerStore(db.DB)
	locks := lock.NewKeyedMutex()

	service := ledgerapp.NewService(store, locks, log)
	accounts := ledgerapp.NewAccountService(store, log)
	queries := ledgerapp.NewQueryService(store)
	verifier := ledgerapp.NewVerifier(store, locks, log)
	aggregator := ledgerapp.NewAggregator(store)
	snapshots := ledgerapp.NewSnapshotService(store, service, log)
	service.Subscribe(aggregator)
	verifier.Subscribe(aggregator)

	// Repair any drift left behind by a previous unclean shutdown.
	if repaired, err := verifier.VerifyAll(context.Background()); err != nil {
		log.Error("Startup balance verification failed", zap.Error(err))
	} else if repaired > 0 {
		log.Warn("Startup balance verification repaired accounts", zap.Int("repaired", repaired))
	}

	var sweeper *scheduler.Sweeper
	if cfg.Verify.Enabled {
		sweeper = scheduler.NewSweeper(
			scheduler.SweeperConfig{Interval: cfg.Verify.Interval},
			verifier.VerifyAll,
			log.Named("verify-sweep"),
		)
		if err := sweeper.Start(context.Background()); err != nil {
			log.Error("Failed to start verification sweeper", zap.Error(err))
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)
	middleware.SetupValidator()

	router.NewRouter(engine).
		Register(handler.NewLedgerHandler(accounts, service, queries, verifier, aggregator, snapshots)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sweeper != nil {
		if err := sweeper.Stop(ctx); err != nil {
			log.Error("Failed to stop verification sweeper", zap.Error(err))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
