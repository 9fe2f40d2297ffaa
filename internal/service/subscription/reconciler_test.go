package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/billing/mock"
	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/db/dbtest"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/service/subscription"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []enrichment.Task
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, t enrichment.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
	return p.err
}

type fixture struct {
	r   *subscription.Reconciler
	bc  *mock.MockClient
	gw  *repository.Gateway
	pub *recordingPublisher
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	bc := mock.NewMockClient(ctrl)
	gw := repository.NewGateway(dbtest.NewSQLite(t), db.SQLite)
	pub := &recordingPublisher{}
	r := subscription.NewReconciler(gw.Customers, gw.Subscriptions, bc, pub, zap.NewNop())

	require.NoError(t, gw.Customers.Insert(context.Background(), model.Customer{UserID: "user-1", StripeCustomerID: "cus_1"}))
	return fixture{r: r, bc: bc, gw: gw, pub: pub}
}

func providerSub() *billing.Subscription {
	return &billing.Subscription{
		ID:                 "sub_1",
		CustomerID:         "cus_1",
		Status:             "active",
		Metadata:           map[string]string{"source": "checkout"},
		PriceID:            "price_1",
		Quantity:           1,
		Created:            1697408000,
		CurrentPeriodStart: 1697408000,
		CurrentPeriodEnd:   1700000000,
	}
}

func TestReconcile_ConvertsTimestamps(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(providerSub(), nil)

	require.NoError(t, f.r.Reconcile(ctx, "sub_1", "cus_1", false))

	got, err := f.gw.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, model.SubscriptionActive, got.Status)
	assert.Equal(t, "2023-11-14T22:13:20Z", got.CurrentPeriodEnd.UTC().Format(time.RFC3339))
	assert.Nil(t, got.CanceledAt)
	assert.Nil(t, got.TrialEnd)
	assert.Equal(t, model.Metadata{"source": "checkout"}, got.Metadata)
}

func TestReconcile_IdempotentRedelivery(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(providerSub(), nil).Times(2)

	require.NoError(t, f.r.Reconcile(ctx, "sub_1", "cus_1", false))
	first, err := f.gw.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)

	require.NoError(t, f.r.Reconcile(ctx, "sub_1", "cus_1", false))
	rows, err := f.gw.Subscriptions.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	second := rows[0]
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PriceID, second.PriceID)
	assert.True(t, first.CurrentPeriodEnd.Equal(second.CurrentPeriodEnd))
	assert.True(t, first.Created.Equal(second.Created))
}

func TestReconcile_AcceptsProviderStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	canceled := providerSub()
	canceled.Status = "canceled"
	canceled.CanceledAt = 1700000100
	canceled.EndedAt = 1700000100

	active := providerSub()

	// a terminal status followed by an older "active" view: the provider wins every time
	gomock.InOrder(
		f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(canceled, nil),
		f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(active, nil),
	)

	require.NoError(t, f.r.Reconcile(ctx, "sub_1", "cus_1", false))
	got, err := f.gw.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionCanceled, got.Status)
	require.NotNil(t, got.EndedAt)

	require.NoError(t, f.r.Reconcile(ctx, "sub_1", "cus_1", false))
	got, err = f.gw.Subscriptions.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, got.Status)
	assert.Nil(t, got.EndedAt)
}

func TestReconcile_UnknownCustomer(t *testing.T) {
	f := setup(t)

	err := f.r.Reconcile(context.Background(), "sub_1", "cus_unknown", true)
	require.Error(t, err)
	assert.Equal(t, syncerr.KindUnknownCustomer, syncerr.KindOf(err))
	assert.False(t, syncerr.Retryable(err))
}

func TestReconcile_UpstreamFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(nil, errors.New("timeout"))

	err := f.r.Reconcile(ctx, "sub_1", "cus_1", true)
	require.Error(t, err)
	assert.Equal(t, syncerr.KindUpstream, syncerr.KindOf(err))
	assert.True(t, syncerr.Retryable(err))

	_, err = f.gw.Subscriptions.Get(ctx, "sub_1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcile_EnrichmentOnlyForNewWithPaymentMethod(t *testing.T) {
	pm := &billing.PaymentMethod{ID: "pm_1", Type: "card"}

	tests := []struct {
		name   string
		isNew  bool
		pm     *billing.PaymentMethod
		expect int
	}{
		{"new with payment method", true, pm, 1},
		{"new without payment method", true, nil, 0},
		{"update with payment method", false, pm, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			s := providerSub()
			s.DefaultPaymentMethod = tt.pm
			f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(s, nil)

			require.NoError(t, f.r.Reconcile(context.Background(), "sub_1", "cus_1", tt.isNew))
			require.Len(t, f.pub.tasks, tt.expect)
			if tt.expect == 1 {
				task := f.pub.tasks[0]
				assert.Equal(t, "user-1", task.UserID)
				assert.Equal(t, "cus_1", task.CustomerID)
				assert.Equal(t, "sub_1", task.SubscriptionID)
				assert.NotEmpty(t, task.ID)
			}
		})
	}
}

func TestReconcile_PublishFailureDoesNotFail(t *testing.T) {
	f := setup(t)
	f.pub.err = errors.New("broker unavailable")

	s := providerSub()
	s.DefaultPaymentMethod = &billing.PaymentMethod{ID: "pm_1", Type: "card"}
	f.bc.EXPECT().RetrieveSubscription(gomock.Any(), "sub_1").Return(s, nil)

	require.NoError(t, f.r.Reconcile(context.Background(), "sub_1", "cus_1", true))

	_, err := f.gw.Subscriptions.Get(context.Background(), "sub_1")
	assert.NoError(t, err)
}

func TestRecord_OptionalTimestamps(t *testing.T) {
	s := providerSub()
	s.TrialStart = 1697408000
	s.TrialEnd = 1698012800
	s.Metadata = nil

	rec := subscription.Record(s, "user-1")
	require.NotNil(t, rec.TrialStart)
	require.NotNil(t, rec.TrialEnd)
	assert.Equal(t, time.Unix(1698012800, 0).UTC(), *rec.TrialEnd)
	assert.Nil(t, rec.CancelAt)
	assert.Nil(t, rec.EndedAt)
	assert.NotNil(t, rec.Metadata)
}
