package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/auth"
	"github.com/jmehdipour/billing-sync/internal/db"
	httpSrv "github.com/jmehdipour/billing-sync/internal/http"
	"github.com/jmehdipour/billing-sync/internal/kafka"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/catalog"
	"github.com/jmehdipour/billing-sync/internal/service/customer"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/service/subscription"
	"github.com/jmehdipour/billing-sync/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, conn, dialect, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer conn.Close()

		redisClient, err := db.NewRedisClient(redisOpts(cfg.Redis))
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		} else {
			log.Warn("redis not configured: catalog cache and rate limiting disabled")
		}

		var deliveries repository.DeliveriesRepository
		if cfg.ClickHouse.DSN != "" {
			chDB, err := db.NewClickHouseConnection(cfg.ClickHouse.DSN, poolOpts(cfg.ClickHouse))
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() { _ = chDB.Close() }()

			repo := repository.NewCHDeliveriesRepository(chDB)
			if err := repo.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("clickhouse schema: %w", err)
			}
			deliveries = repo
		}

		bc, err := newBillingClient(cfg, log)
		if err != nil {
			return err
		}

		secrets := cfg.WebhookSecrets()
		if len(secrets) == 0 {
			log.Warn("no webhook signing secret configured: every delivery will be rejected")
		}

		// persistence gateway + services
		gw := repository.NewGateway(conn, dialect)
		cache := repository.NewCatalogCache(redisClient, cfg.Catalog.CacheTTL)
		syncer := catalog.NewSynchronizer(gw.Products, gw.Prices, cache, log)
		resolver := customer.NewResolver(gw.Customers, bc, log)
		enricher := enrichment.NewEnricher(gw.Users, bc, log)

		var (
			publisher enrichment.Publisher
			inline    *enrichment.InlinePublisher
		)
		switch cfg.Enrichment.Mode {
		case "kafka":
			if len(cfg.Kafka.Brokers) == 0 {
				return fmt.Errorf("enrichment.mode=kafka requires kafka.brokers")
			}
			producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Enrichment.Topic)
			defer func() { _ = producer.Close() }()
			publisher = enrichment.NewKafkaPublisher(producer)
		case "inline", "":
			inline = enrichment.NewInlinePublisher(enricher, 30*time.Second, log)
			publisher = inline
		default:
			return fmt.Errorf("unknown enrichment.mode %q", cfg.Enrichment.Mode)
		}

		reconciler := subscription.NewReconciler(gw.Customers, gw.Subscriptions, bc, publisher, log)
		router := webhook.NewRouter(syncer, reconciler, log)
		ingress := webhook.NewIngress(secrets, router, log)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.MustRegister(reg)

		server := httpSrv.NewServer(cfg, log, httpSrv.Deps{
			Ingress:    ingress,
			Catalog:    syncer,
			Customers:  resolver,
			Sessions:   bc,
			Deliveries: deliveries,
			Redis:      redisClient,
			Verifier:   auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience),
			Registry:   reg,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		if inline != nil {
			inline.Wait()
		}

		return nil
	},
}
