package model

// BillingProfile holds the billing columns of a user's profile row.
type BillingProfile struct {
	UserID         string  `db:"id"`
	BillingAddress JSONDoc `db:"billing_address"`
	PaymentMethod  JSONDoc `db:"payment_method"`
}
