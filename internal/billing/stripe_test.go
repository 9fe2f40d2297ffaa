package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

func TestSubscriptionFromStripe(t *testing.T) {
	s := &stripe.Subscription{
		ID:                "sub_1",
		Status:            stripe.SubscriptionStatusTrialing,
		Metadata:          map[string]string{"plan": "pro"},
		CancelAtPeriodEnd: true,
		Created:           1697408000,
		TrialEnd:          1700000000,
		Customer:          &stripe.Customer{ID: "cus_1"},
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price:              &stripe.Price{ID: "price_1"},
			Quantity:           3,
			CurrentPeriodStart: 1697408000,
			CurrentPeriodEnd:   1700000000,
		}}},
		DefaultPaymentMethod: &stripe.PaymentMethod{
			ID:   "pm_1",
			Type: stripe.PaymentMethodTypeCard,
			BillingDetails: &stripe.PaymentMethodBillingDetails{
				Name:    "Ada",
				Phone:   "+4930",
				Address: &stripe.Address{City: "Berlin", Country: "DE"},
			},
			Card: &stripe.PaymentMethodCard{Brand: "visa", Last4: "4242"},
		},
	}

	got := subscriptionFromStripe(s)
	assert.Equal(t, "sub_1", got.ID)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "trialing", got.Status)
	assert.Equal(t, "price_1", got.PriceID)
	assert.Equal(t, int64(3), got.Quantity)
	assert.Equal(t, int64(1700000000), got.CurrentPeriodEnd)
	assert.Equal(t, int64(1700000000), got.TrialEnd)
	assert.Zero(t, got.CanceledAt)

	require.NotNil(t, got.DefaultPaymentMethod)
	pm := got.DefaultPaymentMethod
	assert.Equal(t, "card", pm.Type)
	assert.True(t, pm.BillingDetails.Complete())
	assert.Equal(t, "Berlin", pm.BillingDetails.Address.City)
	assert.Contains(t, string(pm.Details), `"last4":"4242"`)
}

func TestSubscriptionFromStripe_NoItems(t *testing.T) {
	got := subscriptionFromStripe(&stripe.Subscription{ID: "sub_2", Status: stripe.SubscriptionStatusActive})
	assert.Empty(t, got.PriceID)
	assert.Zero(t, got.CurrentPeriodEnd)
	assert.Nil(t, got.DefaultPaymentMethod)
}

func TestPriceFromStripe(t *testing.T) {
	flat := priceFromStripe(&stripe.Price{
		ID:            "price_1",
		Product:       &stripe.Product{ID: "prod_1"},
		Active:        true,
		Currency:      stripe.CurrencyUSD,
		Type:          stripe.PriceTypeRecurring,
		BillingScheme: stripe.PriceBillingSchemePerUnit,
		UnitAmount:    1500,
		Nickname:      "Monthly",
		Recurring:     &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 1},
	})
	assert.Equal(t, "prod_1", flat.ProductID)
	require.NotNil(t, flat.UnitAmount)
	assert.Equal(t, int64(1500), *flat.UnitAmount)
	assert.Equal(t, "Monthly", *flat.Nickname)
	assert.Equal(t, "month", flat.Recurring.Interval)
	assert.Nil(t, flat.Recurring.TrialPeriodDays)

	tiered := priceFromStripe(&stripe.Price{ID: "price_2", BillingScheme: stripe.PriceBillingSchemeTiered})
	assert.Nil(t, tiered.UnitAmount)
	assert.Nil(t, tiered.Nickname)
	assert.Nil(t, tiered.Recurring)
}

func TestProductFromStripe(t *testing.T) {
	p := productFromStripe(&stripe.Product{ID: "prod_1", Name: "Pro", Images: []string{"a.png", "b.png"}})
	assert.Nil(t, p.Description)
	assert.Equal(t, []string{"a.png", "b.png"}, p.Images)
}

func TestProviderFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", errors.New("dial tcp: timeout"), true},
		{"server", &stripe.Error{HTTPStatusCode: http.StatusBadGateway}, true},
		{"rate limited", &stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"not found", &stripe.Error{HTTPStatusCode: http.StatusNotFound}, false},
		{"bad request", &stripe.Error{HTTPStatusCode: http.StatusBadRequest}, false},
		{"callback", callbackError{errors.New("db down")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, providerFault(tt.err))
		})
	}
}

func TestStripeClient_CreateCustomer(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/customers" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		gotForm = map[string]string{
			"email":                  r.PostForm.Get("email"),
			"metadata[supabaseUUID]": r.PostForm.Get("metadata[supabaseUUID]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_test","object":"customer"}`))
	}))
	defer srv.Close()

	c := NewStripeClient(StripeOpts{SecretKey: "sk_test_x", BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())

	id, err := c.CreateCustomer(context.Background(), "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_test", id)
	assert.Equal(t, "ada@example.com", gotForm["email"])
	assert.Equal(t, "user-1", gotForm["metadata[supabaseUUID]"])
}
