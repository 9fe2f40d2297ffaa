package repository

import (
	"context"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type SubscriptionsRepository interface {
	Upsert(ctx context.Context, s model.Subscription) error
	Get(ctx context.Context, id string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]model.Subscription, error)
}

type subscriptionsRepo struct {
	db     *sqlx.DB
	upsert string
}

var subscriptionColumns = []string{
	"id", "user_id", "status", "metadata", "price_id", "quantity", "cancel_at_period_end",
	"created", "current_period_start", "current_period_end",
	"ended_at", "cancel_at", "canceled_at", "trial_start", "trial_end",
}

const selectSubscription = `
	SELECT id, user_id, status, metadata, price_id, quantity, cancel_at_period_end,
	       created, current_period_start, current_period_end,
	       ended_at, cancel_at, canceled_at, trial_start, trial_end
	  FROM subscriptions
`

func NewSubscriptionsRepository(conn *sqlx.DB, d db.Dialect) SubscriptionsRepository {
	return &subscriptionsRepo{db: conn, upsert: upsertQuery(d, "subscriptions", subscriptionColumns)}
}

func (r *subscriptionsRepo) Upsert(ctx context.Context, s model.Subscription) error {
	_, err := r.db.NamedExecContext(ctx, r.upsert, s)
	return err
}

func (r *subscriptionsRepo) Get(ctx context.Context, id string) (*model.Subscription, error) {
	var out []model.Subscription
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(selectSubscription+` WHERE id = ?`), id); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r *subscriptionsRepo) ListByUser(ctx context.Context, userID string) ([]model.Subscription, error) {
	var out []model.Subscription
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(selectSubscription+` WHERE user_id = ? ORDER BY created DESC`), userID)
	return out, err
}
