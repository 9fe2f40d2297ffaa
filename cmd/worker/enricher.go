package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/config"
	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/kafka"
	"github.com/jmehdipour/billing-sync/internal/logger"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/worker"
)

var enricherCmd = &cobra.Command{
	Use:   "enricher",
	Short: "Consume enrichment tasks and copy billing details to customers and profiles",
	RunE:  runEnricher,
}

func runEnricher(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is empty")
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// 2) primary store
	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return err
	}
	conn, err := db.NewConnection(dialect, cfg.Database.DSN, db.PoolOpts{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		PingTimeout:     cfg.Database.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("%s connect: %w", dialect, err)
	}
	defer conn.Close()

	// 3) billing provider
	if cfg.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secret_key is not set")
	}
	bc := billing.NewStripeClient(billing.StripeOpts{
		SecretKey:     cfg.Stripe.SecretKey,
		Timeout:       time.Duration(cfg.Stripe.TimeoutMs) * time.Millisecond,
		FailThreshold: cfg.Stripe.Breaker.FailThreshold,
		OpenFor:       time.Duration(cfg.Stripe.Breaker.OpenForMs) * time.Millisecond,
	}, log)

	// 4) kafka consumer
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "billsync-enricher"
	}
	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Enrichment.Topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	gw := repository.NewGateway(conn, dialect)
	w := worker.NewEnricherKafka(consumer, enrichment.NewEnricher(gw.Users, bc, log), log)
	if cfg.Enrichment.Workers > 0 {
		w.Workers = cfg.Enrichment.Workers
	}

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("enricher started",
		zap.String("topic", cfg.Enrichment.Topic),
		zap.String("group", groupID),
		zap.Int("workers", w.Workers))

	return w.Run(ctx)
}
