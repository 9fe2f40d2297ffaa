package repository

import (
	"context"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

// PricesRepository writes prices without checking that the product exists;
// price events may arrive before their product.
type PricesRepository interface {
	Upsert(ctx context.Context, p model.Price) error
	Get(ctx context.Context, id string) (*model.Price, error)
}

type pricesRepo struct {
	db     *sqlx.DB
	upsert string
}

var priceColumns = []string{
	"id", "product_id", "active", "description", "unit_amount", "currency", "type",
	"recurring_interval", "interval_count", "trial_period_days", "metadata",
}

func NewPricesRepository(conn *sqlx.DB, d db.Dialect) PricesRepository {
	return &pricesRepo{db: conn, upsert: upsertQuery(d, "prices", priceColumns)}
}

func (r *pricesRepo) Upsert(ctx context.Context, p model.Price) error {
	_, err := r.db.NamedExecContext(ctx, r.upsert, p)
	return err
}

func (r *pricesRepo) Get(ctx context.Context, id string) (*model.Price, error) {
	var out []model.Price
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, product_id, active, description, unit_amount, currency, type,
		       recurring_interval, interval_count, trial_period_days, metadata
		  FROM prices
		 WHERE id = ?
	`), id); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}
