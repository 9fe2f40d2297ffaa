package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/catalog"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Copy every product and price from the billing provider into the local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, conn, dialect, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer conn.Close()

		bc, err := newBillingClient(cfg, log)
		if err != nil {
			return err
		}

		redisClient, err := db.NewRedisClient(redisOpts(cfg.Redis))
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		}

		gw := repository.NewGateway(conn, dialect)
		syncer := catalog.NewSynchronizer(gw.Products, gw.Prices, repository.NewCatalogCache(redisClient, cfg.Catalog.CacheTTL), log)

		stats, err := syncer.Backfill(cmd.Context(), bc)
		if err != nil {
			return fmt.Errorf("backfill: %w", err)
		}
		log.Info("backfill complete", zap.Int64("products", stats.Products), zap.Int64("prices", stats.Prices))
		return nil
	},
}
