package model

import "time"

type DeliveryOutcome string

const (
	OutcomeProcessed DeliveryOutcome = "processed"
	OutcomeIgnored   DeliveryOutcome = "ignored"
	OutcomeRejected  DeliveryOutcome = "rejected"
	OutcomeFailed    DeliveryOutcome = "failed"
)

func (o DeliveryOutcome) String() string { return string(o) }

func (o DeliveryOutcome) Valid() bool {
	return o == OutcomeProcessed || o == OutcomeIgnored || o == OutcomeRejected || o == OutcomeFailed
}

// Delivery is one webhook delivery as recorded in the analytics store.
type Delivery struct {
	ID         string          `db:"id"          json:"id"`
	EventID    string          `db:"event_id"    json:"event_id"`
	EventType  string          `db:"event_type"  json:"event_type"`
	Outcome    DeliveryOutcome `db:"outcome"     json:"outcome"`
	Error      string          `db:"error"       json:"error,omitempty"`
	DurationMs int64           `db:"duration_ms" json:"duration_ms"`
	ReceivedAt time.Time       `db:"received_at" json:"received_at"`
}
