package model

// Customer maps an internal user id to its billing provider customer id.
// Exactly one row per user; rows are never deleted here.
type Customer struct {
	UserID           string `db:"id"`
	StripeCustomerID string `db:"stripe_customer_id"`
}
