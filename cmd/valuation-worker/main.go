package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/alerts"
	"github.com/trogers1052/portfolio-valuation/internal/config"
	"github.com/trogers1052/portfolio-valuation/internal/database"
	"github.com/trogers1052/portfolio-valuation/internal/kafka"
	"github.com/trogers1052/portfolio-valuation/internal/logger"
	"github.com/trogers1052/portfolio-valuation/internal/models"
	"github.com/trogers1052/portfolio-valuation/internal/notify"
	"github.com/trogers1052/portfolio-valuation/internal/quotes"
	"github.com/trogers1052/portfolio-valuation/internal/scheduler"
	"github.com/trogers1052/portfolio-valuation/internal/snapshot"
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
	}

	quoteOpts := []quotes.ClientOption{
		quotes.WithTimeout(cfg.Quotes.GetTimeout()),
		quotes.WithRateLimit(cfg.Quotes.RateLimit),
		quotes.WithLogger(log.Named("quotes")),
	}
	source := &quotes.Router{
		Stocks: quotes.NewStockClient(cfg.Quotes.StockBaseURL, quoteOpts...),
		Crypto: quotes.NewCryptoClient(cfg.Quotes.CryptoBaseURL, cfg.Quotes.CryptoAPIKey, quoteOpts...),
	}

	dispatcher := newDispatcher(cfg.Notify, db, log)
	evaluator := alerts.NewEvaluator(db, source, dispatcher, log.Named("alerts"))

	aggregator := valuation.NewAggregator(db, source, log.Named("valuation"))
	snapshotter := snapshot.New(aggregator, db, cfg.Snapshot.Concurrency, log.Named("snapshot"))

	consumer := kafka.NewJobConsumer(kafka.ConsumerConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.JobsTopic,
		GroupID:      cfg.Kafka.GroupID,
		Workers:      cfg.Kafka.Workers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.GetRetryBackoff(),
	}, log.Named("consumer"))
	consumer.Handle(models.JobEvaluateAlerts, evaluator.HandleJob)
	consumer.Handle(models.JobSnapshotDailyBalances, snapshotter.HandleJob)

	var wg sync.WaitGroup

	if cfg.Snapshot.SchedulerEnabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.JobsTopic)
		defer producer.Close()

		hour, minute := cfg.Snapshot.SnapshotClock()
		sched := scheduler.New(
			alerts.NewEnqueuer(db, producer, cfg.Alerts.BatchSize, log.Named("alerts")),
			producer,
			scheduler.Config{
				AlertInterval:  cfg.Alerts.GetInterval(),
				SnapshotHour:   hour,
				SnapshotMinute: minute,
			},
			log.Named("scheduler"),
		)
		safeGo(&wg, log, "scheduler", func() error { return sched.Run(ctx) })
	}

	safeGo(&wg, log, "consumer", func() error { return consumer.Start(ctx) })

	log.Info("Valuation worker started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.JobsTopic),
		zap.Bool("scheduler", cfg.Snapshot.SchedulerEnabled),
	)

	<-ctx.Done()
	log.Info("Shutting down worker")
	wg.Wait()
	log.Info("Valuation worker stopped")
}

// safeGo runs fn on its own goroutine and turns a panic into a logged error
func safeGo(wg *sync.WaitGroup, log *zap.Logger, name string, fn func() error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("Goroutine panicked",
					zap.String("goroutine", name),
					zap.Error(fmt.Errorf("panic: %v", r)),
					zap.Stack("stack"),
				)
			}
		}()
		if err := fn(); err != nil {
			log.Error("Goroutine exited with error", zap.String("goroutine", name), zap.Error(err))
		}
	}()
}

// newDispatcher wires only the transports that have credentials
func newDispatcher(cfg config.NotifyConfig, users notify.UserLookup, log *zap.Logger) *notify.Dispatcher {
	var email, sms notify.Sender
	if cfg.SMTPHost != "" && cfg.EmailFrom != "" {
		email = notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		log.Warn("SMTP not configured, email alerts will fail delivery")
	}
	if cfg.TwilioSID != "" && cfg.TwilioToken != "" && cfg.SMSFrom != "" {
		sms = notify.NewSMSSender(cfg.TwilioBaseURL, cfg.TwilioSID, cfg.TwilioToken, cfg.SMSFrom)
	} else {
		log.Warn("Twilio not configured, SMS alerts will fail delivery")
	}
	return notify.NewDispatcher(users, email, sms, log.Named("notify"))
}
