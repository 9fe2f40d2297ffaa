package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billsync_webhook_events_total",
			Help: "Webhook deliveries by event type and outcome",
		},
		[]string{"event_type", "outcome"}, // processed|ignored|rejected|failed
	)

	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billsync_webhook_duration_seconds",
			Help:    "Webhook handling latency by event type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	UpsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billsync_upserts_total",
			Help: "Local upserts by entity",
		},
		[]string{"entity"}, // product|price|subscription|customer
	)

	EnrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billsync_enrichment_total",
			Help: "Billing detail enrichment tasks by outcome",
		},
		[]string{"outcome"}, // applied|skipped|failed|publish_failed|commit_failed
	)

	BillingCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billsync_billing_calls_total",
			Help: "Billing provider API calls by operation and outcome",
		},
		[]string{"op", "outcome"}, // ok|error|breaker_open
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		WebhookEventsTotal,
		WebhookDuration,
		UpsertsTotal,
		EnrichmentTotal,
		BillingCallsTotal,
	)
}
