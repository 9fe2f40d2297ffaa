package enrichment_test

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

func completeTask() enrichment.Task {
	return enrichment.Task{
		ID:             "task-1",
		UserID:         "user-1",
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
		PaymentMethod: billing.PaymentMethod{
			ID:   "pm_1",
			Type: "card",
			BillingDetails: billing.BillingDetails{
				Name:    "Ada Lovelace",
				Phone:   "+4930123",
				Address: &billing.Address{Line1: "Main St 1", City: "Berlin", Country: "DE", PostalCode: "10115"},
			},
			Details: json.RawMessage(`{"brand":"visa","last4":"4242"}`),
		},
	}
}

func setup(t *testing.T) (*enrichment.Enricher, *mock.MockClient, *repository.Gateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	bc := mock.NewMockClient(ctrl)
	gw := repository.NewGateway(dbtest.NewSQLite(t), db.SQLite)
	return enrichment.NewEnricher(gw.Users, bc, zap.NewNop()), bc, gw
}

func TestApply_CopiesDetails(t *testing.T) {
	e, bc, gw := setup(t)
	ctx := context.Background()
	task := completeTask()

	bc.EXPECT().UpdateCustomerBilling(gomock.Any(), "cus_1", task.PaymentMethod.BillingDetails).Return(nil)

	applied, err := e.Apply(ctx, task)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := gw.Users.GetBilling(ctx, "user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Berlin","country":"DE","line1":"Main St 1","line2":"","postal_code":"10115","state":""}`,
		string(got.BillingAddress))
	assert.JSONEq(t, `{"brand":"visa","last4":"4242"}`, string(got.PaymentMethod))
}

func TestApply_IncompleteDetailsIsNoop(t *testing.T) {
	e, _, gw := setup(t)
	ctx := context.Background()

	task := completeTask()
	task.PaymentMethod.BillingDetails.Phone = ""

	applied, err := e.Apply(ctx, task)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = gw.Users.GetBilling(ctx, "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApply_ProviderFailure(t *testing.T) {
	e, bc, gw := setup(t)
	ctx := context.Background()

	bc.EXPECT().UpdateCustomerBilling(gomock.Any(), "cus_1", gomock.Any()).Return(errors.New("503"))

	_, err := e.Apply(ctx, completeTask())
	require.Error(t, err)
	assert.Equal(t, syncerr.KindUpstream, syncerr.KindOf(err))

	_, err = gw.Users.GetBilling(ctx, "user-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInlinePublisher_RunsDetached(t *testing.T) {
	e, bc, gw := setup(t)
	p := enrichment.NewInlinePublisher(e, time.Second, zap.NewNop())

	bc.EXPECT().UpdateCustomerBilling(gomock.Any(), "cus_1", gomock.Any()).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Publish(ctx, completeTask()))
	cancel() // the request finishing must not abort the task
	p.Wait()

	_, err := gw.Users.GetBilling(context.Background(), "user-1")
	assert.NoError(t, err)
}

type captureProducer struct {
	key   string
	value []byte
}

func (c *captureProducer) Publish(_ context.Context, key string, value []byte) error {
	c.key, c.value = key, value
	return nil
}

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	prod := &captureProducer{}
	p := enrichment.NewKafkaPublisher(prod)

	task := completeTask()
	require.NoError(t, p.Publish(context.Background(), task))
	assert.Equal(t, "user-1", prod.key)

	got, err := enrichment.DecodeTask(prod.value)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.PaymentMethod.BillingDetails, got.PaymentMethod.BillingDetails)
	assert.JSONEq(t, string(task.PaymentMethod.Details), string(got.PaymentMethod.Details))
}

func TestDecodeTask_Rejects(t *testing.T) {
	_, err := enrichment.DecodeTask([]byte(`not json`))
	assert.Error(t, err)
	_, err = enrichment.DecodeTask([]byte(`{"id":"t"}`))
	assert.Error(t, err)
}
