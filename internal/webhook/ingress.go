// Package webhook verifies, decodes and routes billing provider events.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

const (
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	PriceCreated        = "price.created"
	PriceUpdated        = "price.updated"
	CheckoutCompleted   = "checkout.session.completed"
	SubscriptionCreated = "customer.subscription.created"
	SubscriptionUpdated = "customer.subscription.updated"
	SubscriptionDeleted = "customer.subscription.deleted"
)

// relevantEvents is the set of event types acted on; everything else is
// acknowledged without side effects.
var relevantEvents = map[string]struct{}{
	ProductCreated:      {},
	ProductUpdated:      {},
	PriceCreated:        {},
	PriceUpdated:        {},
	CheckoutCompleted:   {},
	SubscriptionCreated: {},
	SubscriptionUpdated: {},
	SubscriptionDeleted: {},
}

func IsRelevant(eventType string) bool {
	_, ok := relevantEvents[eventType]
	return ok
}

// Event is the verified envelope. Object is the raw "data.object".
type Event struct {
	ID       string
	Type     string
	Livemode bool
	Object   json.RawMessage
}

// Dispatcher routes a relevant event to its synchronizer.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) (model.DeliveryOutcome, error)
}

type Ingress struct {
	secrets []string
	router  Dispatcher
	log     *zap.Logger
}

// NewIngress takes the active signing secrets; a delivery is authentic if it
// validates against any of them.
func NewIngress(secrets []string, router Dispatcher, log *zap.Logger) *Ingress {
	return &Ingress{secrets: secrets, router: router, log: log}
}

type Result struct {
	Event   Event
	Outcome model.DeliveryOutcome
}

// Handle runs one delivery: verify, decode, filter, dispatch. Nothing is
// written unless verification succeeds.
func (in *Ingress) Handle(ctx context.Context, payload []byte, sigHeader string) (Result, error) {
	ev, err := in.Verify(payload, sigHeader)
	if err != nil {
		return Result{Outcome: model.OutcomeRejected}, err
	}

	if !IsRelevant(ev.Type) {
		in.log.Debug("ignoring event", zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))
		return Result{Event: ev, Outcome: model.OutcomeIgnored}, nil
	}

	outcome, err := in.router.Dispatch(ctx, ev)
	if err != nil {
		return Result{Event: ev, Outcome: model.OutcomeFailed}, err
	}
	return Result{Event: ev, Outcome: outcome}, nil
}

// Verify checks the signature against each secret and decodes the envelope.
func (in *Ingress) Verify(payload []byte, sigHeader string) (Event, error) {
	const op = "webhook.verify"

	if sigHeader == "" {
		return Event{}, syncerr.Authentication(op, errors.New("missing signature header"))
	}
	if len(in.secrets) == 0 {
		return Event{}, syncerr.Authentication(op, errors.New("no signing secret configured"))
	}

	var lastErr error
	for _, secret := range in.secrets {
		se, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err == nil {
			return envelope(se)
		}
		if !isSignatureError(err) {
			return Event{}, syncerr.Decode(op, err)
		}
		lastErr = err
	}
	return Event{}, syncerr.Authentication(op, lastErr)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrTooOld)
}

func envelope(se stripe.Event) (Event, error) {
	ev := Event{ID: se.ID, Type: string(se.Type), Livemode: se.Livemode}
	if se.Data != nil {
		ev.Object = se.Data.Raw
	}
	if ev.ID == "" || ev.Type == "" || len(ev.Object) == 0 || string(ev.Object) == "null" {
		return Event{}, syncerr.Decode("webhook.decode", fmt.Errorf("incomplete event envelope %q", ev.ID))
	}
	return ev, nil
}
