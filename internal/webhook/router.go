package webhook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

type CatalogSyncer interface {
	UpsertProduct(ctx context.Context, p billing.Product) error
	UpsertPrice(ctx context.Context, p billing.Price) error
}

type SubscriptionReconciler interface {
	Reconcile(ctx context.Context, subscriptionID, customerID string, isNew bool) error
}

type handlerFunc func(ctx context.Context, ev Event) (model.DeliveryOutcome, error)

// Router is the dispatch table from event type to synchronizer.
type Router struct {
	catalog CatalogSyncer
	subs    SubscriptionReconciler
	log     *zap.Logger
	routes  map[string]handlerFunc
}

func NewRouter(catalog CatalogSyncer, subs SubscriptionReconciler, log *zap.Logger) *Router {
	r := &Router{catalog: catalog, subs: subs, log: log}
	r.routes = map[string]handlerFunc{
		ProductCreated:      r.product,
		ProductUpdated:      r.product,
		PriceCreated:        r.price,
		PriceUpdated:        r.price,
		CheckoutCompleted:   r.checkoutCompleted,
		SubscriptionCreated: r.subscriptionChanged,
		SubscriptionUpdated: r.subscriptionChanged,
		SubscriptionDeleted: r.subscriptionChanged,
	}
	return r
}

// Dispatch fails with an unhandled-event error when a relevant type has no
// route; that means the relevant set and this table have drifted apart.
func (r *Router) Dispatch(ctx context.Context, ev Event) (model.DeliveryOutcome, error) {
	h, ok := r.routes[ev.Type]
	if !ok {
		r.log.Error("relevant event without handler", zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))
		return model.OutcomeFailed, syncerr.UnhandledEvent("webhook.dispatch", fmt.Errorf("no handler for %s", ev.Type))
	}
	return h(ctx, ev)
}

// Routes lists the event types with a handler.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for t := range r.routes {
		out = append(out, t)
	}
	return out
}

func (r *Router) product(ctx context.Context, ev Event) (model.DeliveryOutcome, error) {
	p, err := decodeProduct(ev.Object)
	if err != nil {
		return model.OutcomeFailed, syncerr.Decode("webhook.product", err)
	}
	if err := r.catalog.UpsertProduct(ctx, p); err != nil {
		return model.OutcomeFailed, err
	}
	return model.OutcomeProcessed, nil
}

func (r *Router) price(ctx context.Context, ev Event) (model.DeliveryOutcome, error) {
	p, err := decodePrice(ev.Object)
	if err != nil {
		return model.OutcomeFailed, syncerr.Decode("webhook.price", err)
	}
	if err := r.catalog.UpsertPrice(ctx, p); err != nil {
		return model.OutcomeFailed, err
	}
	return model.OutcomeProcessed, nil
}

// checkoutCompleted reconciles only subscription-mode sessions.
func (r *Router) checkoutCompleted(ctx context.Context, ev Event) (model.DeliveryOutcome, error) {
	s, err := decodeCheckoutSession(ev.Object)
	if err != nil {
		return model.OutcomeFailed, syncerr.Decode("webhook.checkout", err)
	}
	if s.Mode != "subscription" {
		r.log.Debug("checkout session not in subscription mode",
			zap.String("event_id", ev.ID), zap.String("session_id", s.ID), zap.String("mode", s.Mode))
		return model.OutcomeIgnored, nil
	}
	if err := r.subs.Reconcile(ctx, string(s.Subscription), string(s.Customer), true); err != nil {
		return model.OutcomeFailed, err
	}
	return model.OutcomeProcessed, nil
}

func (r *Router) subscriptionChanged(ctx context.Context, ev Event) (model.DeliveryOutcome, error) {
	s, err := decodeSubscriptionRef(ev.Object)
	if err != nil {
		return model.OutcomeFailed, syncerr.Decode("webhook.subscription", err)
	}
	isNew := ev.Type == SubscriptionCreated
	if err := r.subs.Reconcile(ctx, s.ID, string(s.Customer), isNew); err != nil {
		return model.OutcomeFailed, err
	}
	return model.OutcomeProcessed, nil
}
