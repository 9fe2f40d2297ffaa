// Package catalog keeps local products and prices in step with the provider.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

type Synchronizer struct {
	products repository.ProductsRepository
	prices   repository.PricesRepository
	cache    repository.CatalogCache
	log      *zap.Logger
}

func NewSynchronizer(
	products repository.ProductsRepository,
	prices repository.PricesRepository,
	cache repository.CatalogCache,
	log *zap.Logger,
) *Synchronizer {
	return &Synchronizer{products: products, prices: prices, cache: cache, log: log}
}

// UpsertProduct writes the product as delivered. Last write wins.
func (s *Synchronizer) UpsertProduct(ctx context.Context, p billing.Product) error {
	if err := s.upsertProduct(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpsertPrice writes the price even when its product has not been seen yet.
func (s *Synchronizer) UpsertPrice(ctx context.Context, p billing.Price) error {
	if err := s.upsertPrice(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Synchronizer) upsertProduct(ctx context.Context, p billing.Product) error {
	if err := s.products.Upsert(ctx, ProductRecord(p)); err != nil {
		return syncerr.Persistence("catalog.upsert_product", err)
	}
	metrics.UpsertsTotal.WithLabelValues("product").Inc()
	s.log.Info("product upserted", zap.String("product_id", p.ID))
	return nil
}

func (s *Synchronizer) upsertPrice(ctx context.Context, p billing.Price) error {
	if err := s.prices.Upsert(ctx, PriceRecord(p)); err != nil {
		return syncerr.Persistence("catalog.upsert_price", err)
	}
	metrics.UpsertsTotal.WithLabelValues("price").Inc()
	s.log.Info("price upserted", zap.String("price_id", p.ID), zap.String("product_id", p.ProductID))
	return nil
}

// ActiveCatalog serves the active products with their prices, through the cache.
func (s *Synchronizer) ActiveCatalog(ctx context.Context) ([]model.ProductWithPrices, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.log.Warn("catalog cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	out, err := s.products.ListActiveWithPrices(ctx)
	if err != nil {
		return nil, syncerr.Persistence("catalog.list", err)
	}
	if err := s.cache.Set(ctx, out); err != nil {
		s.log.Warn("catalog cache write failed", zap.Error(err))
	}
	return out, nil
}

func (s *Synchronizer) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

// ProductRecord maps the provider product to its row: absent optional fields
// become NULL and only the first image is kept.
func ProductRecord(p billing.Product) model.Product {
	rec := model.Product{
		ID:          p.ID,
		Active:      p.Active,
		Name:        p.Name,
		Description: p.Description,
		Metadata:    model.Metadata(p.Metadata),
	}
	if len(p.Images) > 0 {
		img := p.Images[0]
		rec.Image = &img
	}
	return rec
}

// PriceRecord maps the provider price to its row. The nickname is stored as
// the description.
func PriceRecord(p billing.Price) model.Price {
	rec := model.Price{
		ID:          p.ID,
		ProductID:   p.ProductID,
		Active:      p.Active,
		Description: p.Nickname,
		UnitAmount:  p.UnitAmount,
		Currency:    p.Currency,
		Type:        model.PriceType(p.Type),
		Metadata:    model.Metadata(p.Metadata),
	}
	if r := p.Recurring; r != nil {
		interval, count := r.Interval, r.IntervalCount
		rec.Interval = &interval
		rec.IntervalCount = &count
		rec.TrialPeriodDays = r.TrialPeriodDays
	}
	return rec
}
