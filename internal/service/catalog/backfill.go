package catalog

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

// Lister pages through the provider catalog.
type Lister interface {
	ListProducts(ctx context.Context, fn func(billing.Product) error) error
	ListPrices(ctx context.Context, fn func(billing.Price) error) error
}

type BackfillStats struct {
	Products int64
	Prices   int64
}

// Backfill copies the whole provider catalog into the local store. Products
// and prices are listed concurrently; prices do not wait for their products.
// The first failure cancels the other listing.
func (s *Synchronizer) Backfill(ctx context.Context, src Lister) (BackfillStats, error) {
	var products, prices atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := src.ListProducts(gctx, func(p billing.Product) error {
			if err := s.upsertProduct(gctx, p); err != nil {
				return err
			}
			products.Add(1)
			return nil
		})
		return classifyListErr("catalog.backfill_products", err)
	})
	g.Go(func() error {
		err := src.ListPrices(gctx, func(p billing.Price) error {
			if err := s.upsertPrice(gctx, p); err != nil {
				return err
			}
			prices.Add(1)
			return nil
		})
		return classifyListErr("catalog.backfill_prices", err)
	})
	err := g.Wait()

	stats := BackfillStats{Products: products.Load(), Prices: prices.Load()}
	if stats.Products > 0 || stats.Prices > 0 {
		s.invalidate(ctx)
	}
	s.log.Info("catalog backfill finished",
		zap.Int64("products", stats.Products), zap.Int64("prices", stats.Prices), zap.Error(err))
	return stats, err
}

// classifyListErr keeps persistence errors raised by the callback and marks
// everything else as an upstream failure.
func classifyListErr(op string, err error) error {
	if err == nil || syncerr.KindOf(err) != syncerr.KindUnknown {
		return err
	}
	return syncerr.Upstream(op, err)
}
