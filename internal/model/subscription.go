package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionTrialing          SubscriptionStatus = "trialing"
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
	SubscriptionUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionPaused            SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string { return string(s) }

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled,
		SubscriptionUnpaid, SubscriptionIncomplete, SubscriptionIncompleteExpired, SubscriptionPaused:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is expected from the provider.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionCanceled || s == SubscriptionIncompleteExpired
}

// Subscription is the local copy of the provider's subscription. Cancellation
// is a status change; rows are never deleted.
type Subscription struct {
	ID                 string             `db:"id"                   json:"id"`
	UserID             string             `db:"user_id"              json:"user_id"`
	Status             SubscriptionStatus `db:"status"               json:"status"`
	Metadata           Metadata           `db:"metadata"             json:"metadata"`
	PriceID            string             `db:"price_id"             json:"price_id"`
	Quantity           int64              `db:"quantity"             json:"quantity"`
	CancelAtPeriodEnd  bool               `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	Created            time.Time          `db:"created"              json:"created"`
	CurrentPeriodStart time.Time          `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `db:"current_period_end"   json:"current_period_end"`
	EndedAt            *time.Time         `db:"ended_at"             json:"ended_at"`
	CancelAt           *time.Time         `db:"cancel_at"            json:"cancel_at"`
	CanceledAt         *time.Time         `db:"canceled_at"          json:"canceled_at"`
	TrialStart         *time.Time         `db:"trial_start"          json:"trial_start"`
	TrialEnd           *time.Time         `db:"trial_end"            json:"trial_end"`
}
