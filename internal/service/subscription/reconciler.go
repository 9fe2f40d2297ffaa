// Package subscription reconciles local subscription rows against the
// provider's current state.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
	"github.com/jmehdipour/billing-sync/internal/util"
)

type Reconciler struct {
	customers     repository.CustomersRepository
	subscriptions repository.SubscriptionsRepository
	billing       billing.Client
	enrich        enrichment.Publisher
	log           *zap.Logger
}

func NewReconciler(
	customers repository.CustomersRepository,
	subscriptions repository.SubscriptionsRepository,
	bc billing.Client,
	enrich enrichment.Publisher,
	log *zap.Logger,
) *Reconciler {
	return &Reconciler{
		customers:     customers,
		subscriptions: subscriptions,
		billing:       bc,
		enrich:        enrich,
		log:           log,
	}
}

// Reconcile re-fetches the subscription from the provider and overwrites the
// local row. The provider's status is taken as is; no transition checks.
// For a new subscription with a default payment method, an enrichment task
// is published after the row is committed.
func (r *Reconciler) Reconcile(ctx context.Context, subscriptionID, customerID string, isNew bool) error {
	const op = "subscription.reconcile"

	c, err := r.customers.GetByStripeID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return syncerr.UnknownCustomer(op, fmt.Errorf("no mapping for customer %s", customerID))
	}
	if err != nil {
		return syncerr.Persistence(op, err)
	}

	sub, err := r.billing.RetrieveSubscription(ctx, subscriptionID)
	if err != nil {
		return syncerr.Upstream(op, err)
	}

	rec := Record(sub, c.UserID)
	if !rec.Status.Valid() {
		r.log.Warn("unrecognised subscription status stored as-is",
			zap.String("subscription_id", sub.ID), zap.String("status", sub.Status))
	}
	if err := r.subscriptions.Upsert(ctx, rec); err != nil {
		return syncerr.Persistence(op, err)
	}
	metrics.UpsertsTotal.WithLabelValues("subscription").Inc()
	r.log.Info("subscription upserted",
		zap.String("subscription_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.String("status", rec.Status.String()),
	)

	if isNew && sub.DefaultPaymentMethod != nil {
		r.publishEnrichment(ctx, c, sub)
	}
	return nil
}

// publishEnrichment never fails the reconciliation; the row is already committed.
func (r *Reconciler) publishEnrichment(ctx context.Context, c *model.Customer, sub *billing.Subscription) {
	task := enrichment.Task{
		ID:             util.NewID(),
		UserID:         c.UserID,
		SubscriptionID: sub.ID,
		CustomerID:     c.StripeCustomerID,
		PaymentMethod:  *sub.DefaultPaymentMethod,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.enrich.Publish(ctx, task); err != nil {
		metrics.EnrichmentTotal.WithLabelValues("publish_failed").Inc()
		r.log.Error("enrichment publish failed",
			zap.String("subscription_id", sub.ID),
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
	}
}

// Record converts the provider subscription into its row.
func Record(s *billing.Subscription, userID string) model.Subscription {
	md := model.Metadata(s.Metadata)
	if md == nil {
		md = model.Metadata{}
	}
	return model.Subscription{
		ID:                 s.ID,
		UserID:             userID,
		Status:             model.SubscriptionStatus(s.Status),
		Metadata:           md,
		PriceID:            s.PriceID,
		Quantity:           s.Quantity,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Created:            util.FromUnix(s.Created),
		CurrentPeriodStart: util.FromUnix(s.CurrentPeriodStart),
		CurrentPeriodEnd:   util.FromUnix(s.CurrentPeriodEnd),
		EndedAt:            util.FromUnixPtr(s.EndedAt),
		CancelAt:           util.FromUnixPtr(s.CancelAt),
		CanceledAt:         util.FromUnixPtr(s.CanceledAt),
		TrialStart:         util.FromUnixPtr(s.TrialStart),
		TrialEnd:           util.FromUnixPtr(s.TrialEnd),
	}
}
