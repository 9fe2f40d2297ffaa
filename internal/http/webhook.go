package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmehdipour/billing-sync/internal/repository"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
	"github.com/jmehdipour/billing-sync/internal/util"
	"github.com/jmehdipour/billing-sync/internal/webhook"
)

const (
	signatureHeader  = "Stripe-Signature"
	handlerFailedMsg = `Webhook error: "Webhook handler failed. View logs."`
)

// Ingress is the webhook pipeline behind POST /api/webhooks.
type Ingress interface {
	Handle(ctx context.Context, payload []byte, sigHeader string) (webhook.Result, error)
}

func webhookHandler(in Ingress, deliveries repository.DeliveriesRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		payload, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		}

		res, err := in.Handle(c.Request().Context(), payload, c.Request().Header.Get(signatureHeader))

		eventType := res.Event.Type
		if eventType == "" {
			eventType = "unknown"
		}
		elapsed := time.Since(start)
		metrics.WebhookEventsTotal.WithLabelValues(eventType, res.Outcome.String()).Inc()
		metrics.WebhookDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("event_id", res.Event.ID),
			zap.String("event_type", eventType),
			zap.String("outcome", res.Outcome.String()),
			zap.Duration("took", elapsed),
		}
		recordDelivery(c.Request().Context(), deliveries, res, err, start, elapsed, log)

		switch {
		case err == nil:
			log.Info("webhook handled", fields...)
			return c.JSON(http.StatusOK, map[string]bool{"received": true})
		case res.Outcome == model.OutcomeRejected:
			log.Warn("webhook rejected", append(fields, zap.Error(err))...)
			return c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
		default:
			log.Error("webhook handler failed", append(fields,
				zap.String("kind", syncerr.KindOf(err).String()),
				zap.Bool("retryable", syncerr.Retryable(err)),
				zap.Error(err))...)
			return c.String(http.StatusBadRequest, handlerFailedMsg)
		}
	}
}

// recordDelivery appends to the audit log when one is configured. Failures
// are logged only.
func recordDelivery(ctx context.Context, deliveries repository.DeliveriesRepository, res webhook.Result,
	herr error, received time.Time, took time.Duration, log *zap.Logger) {
	if deliveries == nil {
		return
	}
	d := model.Delivery{
		ID:         util.NewIDAt(received),
		EventID:    res.Event.ID,
		EventType:  res.Event.Type,
		Outcome:    res.Outcome,
		DurationMs: took.Milliseconds(),
		ReceivedAt: received.UTC(),
	}
	if herr != nil {
		d.Error = herr.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := deliveries.Insert(ctx, d); err != nil {
		log.Warn("delivery log write failed", zap.String("event_id", d.EventID), zap.Error(err))
	}
}
