// Package customer maps internal user ids to billing provider customers.
package customer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

type Resolver struct {
	customers repository.CustomersRepository
	billing   billing.Client
	log       *zap.Logger
}

func NewResolver(customers repository.CustomersRepository, bc billing.Client, log *zap.Logger) *Resolver {
	return &Resolver{customers: customers, billing: bc, log: log}
}

// Resolve returns the provider customer id for userID, creating the provider
// customer and the mapping on first use. The primary key on the mapping is
// the only arbiter between concurrent first calls: the loser re-reads the
// winner's row.
func (r *Resolver) Resolve(ctx context.Context, userID, email string) (string, error) {
	const op = "customer.resolve"

	c, err := r.customers.GetByUserID(ctx, userID)
	if err == nil {
		return c.StripeCustomerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", syncerr.Persistence(op, err)
	}

	stripeID, err := r.billing.CreateCustomer(ctx, userID, email)
	if err != nil {
		return "", syncerr.Upstream(op, err)
	}

	err = r.customers.Insert(ctx, model.Customer{UserID: userID, StripeCustomerID: stripeID})
	switch {
	case err == nil:
		metrics.UpsertsTotal.WithLabelValues("customer").Inc()
		r.log.Info("customer created", zap.String("user_id", userID), zap.String("stripe_customer_id", stripeID))
		return stripeID, nil

	case errors.Is(err, repository.ErrDuplicate):
		existing, gerr := r.customers.GetByUserID(ctx, userID)
		if gerr != nil {
			return "", syncerr.Persistence(op, gerr)
		}
		// the provider customer we just created stays unreferenced
		r.log.Warn("concurrent customer creation, using existing mapping",
			zap.String("user_id", userID),
			zap.String("stripe_customer_id", existing.StripeCustomerID),
			zap.String("orphaned_stripe_customer_id", stripeID),
		)
		return existing.StripeCustomerID, nil

	default:
		return "", syncerr.Persistence(op, err)
	}
}

// UserID maps a provider customer id back to the internal user id.
// repository.ErrNotFound is returned unwrapped so callers can classify it.
func (r *Resolver) UserID(ctx context.Context, stripeCustomerID string) (string, error) {
	c, err := r.customers.GetByStripeID(ctx, stripeCustomerID)
	if err != nil {
		return "", err
	}
	return c.UserID, nil
}
