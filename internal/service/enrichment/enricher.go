// Package enrichment copies billing details from a new subscription's default
// payment method onto the provider customer and the user profile. It runs
// after the subscription commit and never affects it.
package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

type Task struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id"`
	SubscriptionID string                `json:"subscription_id"`
	CustomerID     string                `json:"customer_id"`
	PaymentMethod  billing.PaymentMethod `json:"payment_method"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Publisher hands a task to whatever runs it.
type Publisher interface {
	Publish(ctx context.Context, t Task) error
}

type Enricher struct {
	users   repository.UsersRepository
	billing billing.Client
	log     *zap.Logger
}

func NewEnricher(users repository.UsersRepository, bc billing.Client, log *zap.Logger) *Enricher {
	return &Enricher{users: users, billing: bc, log: log}
}

// Apply reports whether anything was written. Incomplete billing details are
// a no-op.
func (e *Enricher) Apply(ctx context.Context, t Task) (bool, error) {
	const op = "enrichment.apply"

	bd := t.PaymentMethod.BillingDetails
	if !bd.Complete() {
		metrics.EnrichmentTotal.WithLabelValues("skipped").Inc()
		e.log.Debug("enrichment skipped: incomplete billing details",
			zap.String("task_id", t.ID), zap.String("subscription_id", t.SubscriptionID))
		return false, nil
	}

	if err := e.billing.UpdateCustomerBilling(ctx, t.CustomerID, bd); err != nil {
		metrics.EnrichmentTotal.WithLabelValues("failed").Inc()
		return false, syncerr.Upstream(op, err)
	}

	addr, err := json.Marshal(bd.Address)
	if err != nil {
		metrics.EnrichmentTotal.WithLabelValues("failed").Inc()
		return false, syncerr.Decode(op, err)
	}
	if err := e.users.UpdateBilling(ctx, model.BillingProfile{
		UserID:         t.UserID,
		BillingAddress: model.JSONDoc(addr),
		PaymentMethod:  model.JSONDoc(t.PaymentMethod.Details),
	}); err != nil {
		metrics.EnrichmentTotal.WithLabelValues("failed").Inc()
		return false, syncerr.Persistence(op, err)
	}

	metrics.EnrichmentTotal.WithLabelValues("applied").Inc()
	e.log.Info("billing details copied",
		zap.String("task_id", t.ID),
		zap.String("user_id", t.UserID),
		zap.String("customer_id", t.CustomerID),
	)
	return true, nil
}
