// Package billing is the boundary to the external billing provider.
package billing

import (
	"context"
	"errors"
)

// ErrBreakerOpen is returned without calling the provider while the breaker is open.
var ErrBreakerOpen = errors.New("billing provider unavailable: circuit open")

//go:generate mockgen -destination=mock/client.go -package=mock . Client

type Client interface {
	// CreateCustomer creates a provider customer tagged with the internal user id.
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
	// RetrieveSubscription fetches a subscription with its default payment method expanded.
	RetrieveSubscription(ctx context.Context, id string) (*Subscription, error)
	UpdateCustomerBilling(ctx context.Context, customerID string, d BillingDetails) error
	// CreateCheckoutSession returns the session id.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	// CreatePortalSession returns the portal URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ListProducts(ctx context.Context, fn func(Product) error) error
	ListPrices(ctx context.Context, fn func(Price) error) error
}
