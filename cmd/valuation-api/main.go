package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/alerts"
	"github.com/trogers1052/portfolio-valuation/internal/api"
	"github.com/trogers1052/portfolio-valuation/internal/cache"
	"github.com/trogers1052/portfolio-valuation/internal/config"
	"github.com/trogers1052/portfolio-valuation/internal/database"
	"github.com/trogers1052/portfolio-valuation/internal/kafka"
	"github.com/trogers1052/portfolio-valuation/internal/logger"
	"github.com/trogers1052/portfolio-valuation/internal/quotes"
	"github.com/trogers1052/portfolio-valuation/internal/service"
	"github.com/trogers1052/portfolio-valuation/internal/valuation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.Must(cfg.Log.Env, cfg.Log.Level)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		log.Info("Database migrations applied")
	}

	resultCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	quoteOpts := []quotes.ClientOption{
		quotes.WithTimeout(cfg.Quotes.GetTimeout()),
		quotes.WithRateLimit(cfg.Quotes.RateLimit),
		quotes.WithLogger(log.Named("quotes")),
	}
	source := &quotes.Router{
		Stocks: quotes.NewStockClient(cfg.Quotes.StockBaseURL, quoteOpts...),
		Crypto: quotes.NewCryptoClient(cfg.Quotes.CryptoBaseURL, cfg.Quotes.CryptoAPIKey, quoteOpts...),
	}

	aggregator := valuation.NewAggregator(db, source, log.Named("valuation"))
	svc := service.New(aggregator, db, resultCache, cfg.Cache.GetTTL(), log.Named("service"))

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.JobsTopic)
	defer producer.Close()
	enqueuer := alerts.NewEnqueuer(db, producer, cfg.Alerts.BatchSize, log.Named("alerts"))

	handler := api.NewHandler(svc, enqueuer, producer, db, log.Named("api"))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
	}()

	log.Info("Valuation API listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
	log.Info("Valuation API stopped")
}

// newCache connects to redis when configured and falls back to an
// in-process store otherwise
func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Store, func()) {
	if !cfg.Redis.Enabled() {
		log.Info("Redis not configured, using in-memory result cache")
		return cache.NewMemoryStore(), func() {}
	}

	store, err := cache.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory result cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		return cache.NewMemoryStore(), func() {}
	}
	return store, func() { store.Close() }
}
