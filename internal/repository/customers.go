package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type CustomersRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Customer, error)
	GetByStripeID(ctx context.Context, stripeCustomerID string) (*model.Customer, error)
	// Insert fails with ErrDuplicate when the user already has a mapping.
	Insert(ctx context.Context, c model.Customer) error
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) GetByUserID(ctx context.Context, userID string) (*model.Customer, error) {
	return r.getBy(ctx, "id", userID)
}

func (r *CustomersRepositoryImpl) GetByStripeID(ctx context.Context, stripeCustomerID string) (*model.Customer, error) {
	return r.getBy(ctx, "stripe_customer_id", stripeCustomerID)
}

func (r *CustomersRepositoryImpl) getBy(ctx context.Context, col, val string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`
		SELECT id, stripe_customer_id
		  FROM customers
		 WHERE `+col+` = ? LIMIT 1
	`), val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomersRepositoryImpl) Insert(ctx context.Context, c model.Customer) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO customers (id, stripe_customer_id) VALUES (?, ?)
	`), c.UserID, c.StripeCustomerID)
	return mapWriteErr(err)
}
