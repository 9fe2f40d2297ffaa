package repository

import (
	"context"
	"sort"
	"strconv"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type ProductsRepository interface {
	Upsert(ctx context.Context, p model.Product) error
	Get(ctx context.Context, id string) (*model.Product, error)
	// ListActiveWithPrices returns active products, each with its active
	// prices, ordered by metadata "index" then name.
	ListActiveWithPrices(ctx context.Context) ([]model.ProductWithPrices, error)
}

type productsRepo struct {
	db     *sqlx.DB
	upsert string
}

var productColumns = []string{"id", "active", "name", "description", "image", "metadata"}

func NewProductsRepository(conn *sqlx.DB, d db.Dialect) ProductsRepository {
	return &productsRepo{db: conn, upsert: upsertQuery(d, "products", productColumns)}
}

func (r *productsRepo) Upsert(ctx context.Context, p model.Product) error {
	_, err := r.db.NamedExecContext(ctx, r.upsert, p)
	return err
}

func (r *productsRepo) Get(ctx context.Context, id string) (*model.Product, error) {
	var out []model.Product
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, active, name, description, image, metadata
		  FROM products
		 WHERE id = ?
	`), id); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r *productsRepo) ListActiveWithPrices(ctx context.Context) ([]model.ProductWithPrices, error) {
	var products []model.Product
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(`
		SELECT id, active, name, description, image, metadata
		  FROM products
		 WHERE active = ?
	`), true); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []model.ProductWithPrices{}, nil
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	q, args, err := sqlx.In(`
		SELECT id, product_id, active, description, unit_amount, currency, type,
		       recurring_interval, interval_count, trial_period_days, metadata
		  FROM prices
		 WHERE active = ? AND product_id IN (?)
	`, true, ids)
	if err != nil {
		return nil, err
	}
	var prices []model.Price
	if err := r.db.SelectContext(ctx, &prices, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}

	byProduct := make(map[string][]model.Price, len(products))
	for _, p := range prices {
		byProduct[p.ProductID] = append(byProduct[p.ProductID], p)
	}

	out := make([]model.ProductWithPrices, len(products))
	for i, p := range products {
		ps := byProduct[p.ID]
		sort.SliceStable(ps, func(a, b int) bool { return amount(ps[a]) < amount(ps[b]) })
		if ps == nil {
			ps = []model.Price{}
		}
		out[i] = model.ProductWithPrices{Product: p, Prices: ps}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ia, ib := sortIndex(out[a].Metadata), sortIndex(out[b].Metadata)
		if ia != ib {
			return ia < ib
		}
		return out[a].Name < out[b].Name
	})
	return out, nil
}

func amount(p model.Price) int64 {
	if p.UnitAmount == nil {
		return 0
	}
	return *p.UnitAmount
}

// sortIndex reads metadata["index"]; products without one sort last.
func sortIndex(m model.Metadata) int {
	if v, err := strconv.Atoi(m["index"]); err == nil {
		return v
	}
	return int(^uint(0) >> 1)
}
