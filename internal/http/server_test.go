package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/auth"
	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/config"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
	"github.com/jmehdipour/billing-sync/internal/webhook"
)

const jwtSecret = "jwt-secret"

type fakeIngress struct {
	res webhook.Result
	err error
	got []byte
	sig string
}

func (f *fakeIngress) Handle(_ context.Context, payload []byte, sig string) (webhook.Result, error) {
	f.got, f.sig = payload, sig
	return f.res, f.err
}

type fakeResolver struct {
	customerID string
	err        error
	calls      []string
}

func (f *fakeResolver) Resolve(_ context.Context, userID, _ string) (string, error) {
	f.calls = append(f.calls, userID)
	return f.customerID, f.err
}

type fakeSessions struct {
	checkout  billing.CheckoutParams
	portalFor string
	returnURL string
	err       error
}

func (f *fakeSessions) CreateCheckoutSession(_ context.Context, p billing.CheckoutParams) (string, error) {
	f.checkout = p
	return "cs_test_1", f.err
}

func (f *fakeSessions) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	f.portalFor, f.returnURL = customerID, returnURL
	return "https://billing.example.com/session/1", f.err
}

type fakeCatalog struct{ products []model.ProductWithPrices }

func (f fakeCatalog) ActiveCatalog(context.Context) ([]model.ProductWithPrices, error) {
	return f.products, nil
}

type fakeDeliveries struct {
	inserted []model.Delivery
	filter   repository.DeliveryFilter
}

func (f *fakeDeliveries) EnsureSchema(context.Context) error { return nil }
func (f *fakeDeliveries) Insert(_ context.Context, d model.Delivery) error {
	f.inserted = append(f.inserted, d)
	return nil
}
func (f *fakeDeliveries) List(_ context.Context, flt repository.DeliveryFilter) ([]model.Delivery, error) {
	f.filter = flt
	return f.inserted, nil
}

type fixture struct {
	h          http.Handler
	ingress    *fakeIngress
	resolver   *fakeResolver
	sessions   *fakeSessions
	deliveries *fakeDeliveries
}

func setup(t *testing.T) fixture {
	t.Helper()
	cfg := config.Config{}
	cfg.Site.URL = "app.example.com"
	cfg.Admin.Keys = []string{"admin-key"}
	cfg.HTTP.BodyLimit = "1M"

	f := fixture{
		ingress:    &fakeIngress{},
		resolver:   &fakeResolver{customerID: "cus_1"},
		sessions:   &fakeSessions{},
		deliveries: &fakeDeliveries{},
	}
	srv := NewServer(cfg, zap.NewNop(), Deps{
		Ingress:    f.ingress,
		Catalog:    fakeCatalog{products: []model.ProductWithPrices{{Product: model.Product{ID: "prod_1", Name: "Pro", Active: true}}}},
		Customers:  f.resolver,
		Sessions:   f.sessions,
		Deliveries: f.deliveries,
		Verifier:   auth.NewVerifier(jwtSecret, "authenticated"),
		Registry:   prometheus.NewRegistry(),
	})
	f.h = srv.Handler()
	return f
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_Responses(t *testing.T) {
	ev := webhook.Event{ID: "evt_1", Type: webhook.SubscriptionUpdated}

	tests := []struct {
		name    string
		res     webhook.Result
		err     error
		status  int
		body    string
		outcome model.DeliveryOutcome
	}{
		{
			name:    "processed",
			res:     webhook.Result{Event: ev, Outcome: model.OutcomeProcessed},
			status:  http.StatusOK,
			body:    `{"received":true}`,
			outcome: model.OutcomeProcessed,
		},
		{
			name:    "ignored",
			res:     webhook.Result{Event: webhook.Event{ID: "evt_2", Type: "invoice.paid"}, Outcome: model.OutcomeIgnored},
			status:  http.StatusOK,
			body:    `{"received":true}`,
			outcome: model.OutcomeIgnored,
		},
		{
			name:    "bad signature",
			res:     webhook.Result{Outcome: model.OutcomeRejected},
			err:     syncerr.Authentication("webhook.verify", errors.New("no valid signature")),
			status:  http.StatusBadRequest,
			body:    "Webhook Error: ",
			outcome: model.OutcomeRejected,
		},
		{
			name:    "handler failed",
			res:     webhook.Result{Event: ev, Outcome: model.OutcomeFailed},
			err:     syncerr.Upstream("subscription.reconcile", errors.New("503")),
			status:  http.StatusBadRequest,
			body:    handlerFailedMsg,
			outcome: model.OutcomeFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.ingress.res, f.ingress.err = tt.res, tt.err

			rec := do(f.h, http.MethodPost, "/api/webhooks", `{"id":"evt"}`, map[string]string{signatureHeader: "t=1,v1=abc"})

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, strings.TrimSpace(rec.Body.String()), tt.body)
			assert.Equal(t, `{"id":"evt"}`, string(f.ingress.got))
			assert.Equal(t, "t=1,v1=abc", f.ingress.sig)

			require.Len(t, f.deliveries.inserted, 1)
			d := f.deliveries.inserted[0]
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.res.Event.ID, d.EventID)
			assert.NotEmpty(t, d.ID)
			assert.Equal(t, tt.err != nil, d.Error != "")
		})
	}
}

func TestCheckoutSession(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodPost, "/api/create-checkout-session",
		`{"price":{"id":"price_1"},"metadata":{"plan":"pro"}}`,
		map[string]string{"Authorization": bearer(t, "user-1")})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cs_test_1", body["sessionId"])

	assert.Equal(t, []string{"user-1"}, f.resolver.calls)
	assert.Equal(t, billing.CheckoutParams{
		CustomerID: "cus_1",
		PriceID:    "price_1",
		Quantity:   1,
		Metadata:   map[string]string{"plan": "pro"},
		SuccessURL: "https://app.example.com/account",
		CancelURL:  "https://app.example.com/",
	}, f.sessions.checkout)
}

func TestCheckoutSession_PriceIDFormAndDefaults(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodPost, "/api/create-checkout-session", `{"price_id":"price_2","quantity":3}`,
		map[string]string{"Authorization": bearer(t, "user-2")})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "price_2", f.sessions.checkout.PriceID)
	assert.EqualValues(t, 3, f.sessions.checkout.Quantity)
	assert.Equal(t, map[string]string{}, f.sessions.checkout.Metadata)
}

func TestCheckoutSession_Failures(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		f := setup(t)
		rec := do(f.h, http.MethodPost, "/api/create-checkout-session", `{"price_id":"price_1"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.resolver.calls)
	})

	t.Run("missing price", func(t *testing.T) {
		f := setup(t)
		rec := do(f.h, http.MethodPost, "/api/create-checkout-session", `{}`,
			map[string]string{"Authorization": bearer(t, "user-1")})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, internalErrorMsg, rec.Body.String())
	})

	t.Run("resolver fails", func(t *testing.T) {
		f := setup(t)
		f.resolver.err = syncerr.Persistence("customer.resolve", errors.New("db down"))
		rec := do(f.h, http.MethodPost, "/api/create-checkout-session", `{"price_id":"price_1"}`,
			map[string]string{"Authorization": bearer(t, "user-1")})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, internalErrorMsg, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "db down")
	})

	t.Run("provider fails", func(t *testing.T) {
		f := setup(t)
		f.sessions.err = errors.New("card_declined")
		rec := do(f.h, http.MethodPost, "/api/create-checkout-session", `{"price_id":"price_1"}`,
			map[string]string{"Authorization": bearer(t, "user-1")})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPortalLink(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodPost, "/api/create-portal-link", "", map[string]string{"Authorization": bearer(t, "user-1")})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://billing.example.com/session/1", body["url"])
	assert.Equal(t, "cus_1", f.sessions.portalFor)
	assert.Equal(t, "https://app.example.com/account", f.sessions.returnURL)
}

func TestPortalLink_NoCustomer(t *testing.T) {
	f := setup(t)
	f.resolver.customerID = ""

	rec := do(f.h, http.MethodPost, "/api/create-portal-link", "", map[string]string{"Authorization": bearer(t, "user-1")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, f.sessions.portalFor)
}

func TestListProducts(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodGet, "/v1/products", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count    int                       `json:"count"`
		Products []model.ProductWithPrices `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "prod_1", body.Products[0].ID)
}

func TestAdminDeliveries(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodGet, "/v1/admin/deliveries?outcome=failed&limit=10", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(f.h, http.MethodGet, "/v1/admin/deliveries", "", map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(f.h, http.MethodGet, "/v1/admin/deliveries?outcome=bogus", "", map[string]string{"X-Admin-Key": "admin-key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(f.h, http.MethodGet, "/v1/admin/deliveries?outcome=failed&event_type=price.updated&limit=10&offset=5", "",
		map[string]string{"X-Admin-Key": "admin-key"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.DeliveryFilter{
		EventType: "price.updated",
		Outcome:   model.OutcomeFailed,
		Limit:     10,
		Offset:    5,
	}, f.deliveries.filter)
}

func TestHealthAndMetrics(t *testing.T) {
	f := setup(t)

	rec := do(f.h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(f.h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
