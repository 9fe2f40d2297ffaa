package repository

import (
	"context"

	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

// UsersRepository touches only the billing columns of the profile row; the
// rest of the row belongs to the auth subsystem.
type UsersRepository interface {
	UpdateBilling(ctx context.Context, p model.BillingProfile) error
	GetBilling(ctx context.Context, userID string) (*model.BillingProfile, error)
}

type usersRepo struct {
	db     *sqlx.DB
	upsert string
}

func NewUsersRepository(conn *sqlx.DB, d db.Dialect) UsersRepository {
	return &usersRepo{
		db:     conn,
		upsert: upsertQuery(d, "users", []string{"id", "billing_address", "payment_method"}),
	}
}

func (r *usersRepo) UpdateBilling(ctx context.Context, p model.BillingProfile) error {
	_, err := r.db.NamedExecContext(ctx, r.upsert, p)
	return err
}

func (r *usersRepo) GetBilling(ctx context.Context, userID string) (*model.BillingProfile, error) {
	var out []model.BillingProfile
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT id, billing_address, payment_method FROM users WHERE id = ?
	`), userID); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}
