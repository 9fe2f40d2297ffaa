package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/metrics"
)

type StripeOpts struct {
	SecretKey     string
	Timeout       time.Duration
	FailThreshold int
	OpenFor       time.Duration
	// BaseURL overrides the API endpoint; tests point it at a local server.
	BaseURL string
}

// StripeClient implements Client on top of stripe-go. Every call goes
// through a MicroBreaker so a provider outage fails fast.
type StripeClient struct {
	sc  *stripe.Client
	br  *MicroBreaker
	log *zap.Logger
}

var _ Client = (*StripeClient)(nil)

func NewStripeClient(opts StripeOpts, log *zap.Logger) *StripeClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: opts.Timeout},
		LeveledLogger:     log.Named("stripe").Sugar(),
		MaxNetworkRetries: stripe.Int64(1),
	}
	if opts.BaseURL != "" {
		cfg.URL = stripe.String(opts.BaseURL)
	}

	return &StripeClient{
		sc:  stripe.NewClient(opts.SecretKey, stripe.WithBackends(stripe.NewBackendsWithConfig(cfg))),
		br:  NewMicroBreaker(opts.FailThreshold, opts.OpenFor),
		log: log,
	}
}

func (c *StripeClient) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerCreateParams{}
	params.AddMetadata("supabaseUUID", userID)
	if email != "" {
		params.Email = stripe.String(email)
	}

	var id string
	err := c.call("create_customer", func() error {
		cust, err := c.sc.V1Customers.Create(ctx, params)
		if err != nil {
			return err
		}
		id = cust.ID
		return nil
	})
	return id, err
}

func (c *StripeClient) RetrieveSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionRetrieveParams{}
	params.AddExpand("default_payment_method")

	var out *Subscription
	err := c.call("retrieve_subscription", func() error {
		s, err := c.sc.V1Subscriptions.Retrieve(ctx, id, params)
		if err != nil {
			return err
		}
		out = subscriptionFromStripe(s)
		return nil
	})
	return out, err
}

func (c *StripeClient) UpdateCustomerBilling(ctx context.Context, customerID string, d BillingDetails) error {
	params := &stripe.CustomerUpdateParams{
		Name:  stripe.String(d.Name),
		Phone: stripe.String(d.Phone),
	}
	if a := d.Address; a != nil {
		params.Address = &stripe.AddressParams{
			City:       stripe.String(a.City),
			Country:    stripe.String(a.Country),
			Line1:      stripe.String(a.Line1),
			Line2:      stripe.String(a.Line2),
			PostalCode: stripe.String(a.PostalCode),
			State:      stripe.String(a.State),
		}
	}

	return c.call("update_customer", func() error {
		_, err := c.sc.V1Customers.Update(ctx, customerID, params)
		return err
	})
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Customer:                 stripe.String(p.CustomerID),
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(p.PriceID),
			Quantity: stripe.Int64(p.Quantity),
		}},
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: p.Metadata,
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}

	var id string
	err := c.call("create_checkout_session", func() error {
		s, err := c.sc.V1CheckoutSessions.Create(ctx, params)
		if err != nil {
			return err
		}
		id = s.ID
		return nil
	})
	return id, err
}

func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	var url string
	err := c.call("create_portal_session", func() error {
		s, err := c.sc.V1BillingPortalSessions.Create(ctx, params)
		if err != nil {
			return err
		}
		url = s.URL
		return nil
	})
	return url, err
}

func (c *StripeClient) ListProducts(ctx context.Context, fn func(Product) error) error {
	params := &stripe.ProductListParams{ListParams: stripe.ListParams{Limit: stripe.Int64(100)}}
	return c.call("list_products", func() error {
		for p, err := range c.sc.V1Products.List(ctx, params) {
			if err != nil {
				return err
			}
			if err := fn(productFromStripe(p)); err != nil {
				return callbackError{err}
			}
		}
		return nil
	})
}

func (c *StripeClient) ListPrices(ctx context.Context, fn func(Price) error) error {
	params := &stripe.PriceListParams{ListParams: stripe.ListParams{Limit: stripe.Int64(100)}}
	return c.call("list_prices", func() error {
		for p, err := range c.sc.V1Prices.List(ctx, params) {
			if err != nil {
				return err
			}
			if err := fn(priceFromStripe(p)); err != nil {
				return callbackError{err}
			}
		}
		return nil
	})
}

func (c *StripeClient) call(op string, fn func() error) error {
	err := c.br.Do(fn, providerFault)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrBreakerOpen):
		outcome = "breaker_open"
		c.log.Warn("billing call short-circuited", zap.String("op", op))
	case err != nil:
		outcome = "error"
	}
	metrics.BillingCallsTotal.WithLabelValues(op, outcome).Inc()

	var cbErr callbackError
	if errors.As(err, &cbErr) {
		return cbErr.err
	}
	return err
}

// callbackError marks a failure of the caller's per-item callback during a listing.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }
func (e callbackError) Unwrap() error { return e.err }

// providerFault reports whether err says the provider is unhealthy. Request
// errors (4xx except 429) and callback failures are the caller's problem.
func providerFault(err error) bool {
	var cbErr callbackError
	if errors.As(err, &cbErr) {
		return false
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		code := se.HTTPStatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

func subscriptionFromStripe(s *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		Metadata:          s.Metadata,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CancelAt:          s.CancelAt,
		CanceledAt:        s.CanceledAt,
		Created:           s.Created,
		EndedAt:           s.EndedAt,
		TrialStart:        s.TrialStart,
		TrialEnd:          s.TrialEnd,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	// period bounds, price and quantity live on the items
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0] != nil {
		item := s.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		out.Quantity = item.Quantity
		out.CurrentPeriodStart = item.CurrentPeriodStart
		out.CurrentPeriodEnd = item.CurrentPeriodEnd
	}
	if s.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethod = paymentMethodFromStripe(s.DefaultPaymentMethod)
	}
	return out
}

func paymentMethodFromStripe(pm *stripe.PaymentMethod) *PaymentMethod {
	out := &PaymentMethod{ID: pm.ID, Type: string(pm.Type)}
	if bd := pm.BillingDetails; bd != nil {
		out.BillingDetails = BillingDetails{Name: bd.Name, Phone: bd.Phone, Email: bd.Email}
		if a := bd.Address; a != nil {
			out.BillingDetails.Address = &Address{
				City:       a.City,
				Country:    a.Country,
				Line1:      a.Line1,
				Line2:      a.Line2,
				PostalCode: a.PostalCode,
				State:      a.State,
			}
		}
	}
	out.Details = typeDetails(pm)
	return out
}

// typeDetails extracts the object keyed by the payment method's type.
func typeDetails(pm *stripe.PaymentMethod) json.RawMessage {
	raw, err := json.Marshal(pm)
	if err != nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	d := fields[string(pm.Type)]
	if len(d) == 0 || string(d) == "null" {
		return nil
	}
	return d
}

func productFromStripe(p *stripe.Product) Product {
	out := Product{
		ID:       p.ID,
		Active:   p.Active,
		Name:     p.Name,
		Images:   p.Images,
		Metadata: p.Metadata,
	}
	if p.Description != "" {
		out.Description = stripe.String(p.Description)
	}
	return out
}

func priceFromStripe(p *stripe.Price) Price {
	out := Price{
		ID:            p.ID,
		Active:        p.Active,
		Currency:      string(p.Currency),
		Type:          string(p.Type),
		BillingScheme: string(p.BillingScheme),
		Metadata:      p.Metadata,
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
	}
	if p.Nickname != "" {
		out.Nickname = stripe.String(p.Nickname)
	}
	if p.BillingScheme != stripe.PriceBillingSchemeTiered {
		out.UnitAmount = stripe.Int64(p.UnitAmount)
	}
	if r := p.Recurring; r != nil {
		out.Recurring = &Recurring{
			Interval:      string(r.Interval),
			IntervalCount: r.IntervalCount,
		}
		if r.TrialPeriodDays > 0 {
			out.Recurring.TrialPeriodDays = stripe.Int64(r.TrialPeriodDays)
		}
	}
	return out
}
