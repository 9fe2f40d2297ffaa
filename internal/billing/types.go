package billing

import (
	"encoding/json"
	"fmt"
)

// Product is the provider's product as delivered in webhooks and listings.
type Product struct {
	ID          string            `json:"id"`
	Active      bool              `json:"active"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Images      []string          `json:"images"`
	Metadata    map[string]string `json:"metadata"`
}

type Recurring struct {
	Interval        string `json:"interval"`
	IntervalCount   int64  `json:"interval_count"`
	TrialPeriodDays *int64 `json:"trial_period_days"`
}

// Price is the provider's price. UnitAmount is nil for tiered pricing.
type Price struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"-"`
	Active        bool              `json:"active"`
	Nickname      *string           `json:"nickname"`
	UnitAmount    *int64            `json:"unit_amount"`
	Currency      string            `json:"currency"`
	Type          string            `json:"type"`
	BillingScheme string            `json:"billing_scheme"`
	Recurring     *Recurring        `json:"recurring"`
	Metadata      map[string]string `json:"metadata"`
}

// UnmarshalJSON accepts "product" either as an id or as an expanded object.
func (p *Price) UnmarshalJSON(b []byte) error {
	type plain Price
	aux := struct {
		*plain
		Product json.RawMessage `json:"product"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	p.ProductID = ""
	if len(aux.Product) == 0 || string(aux.Product) == "null" {
		return nil
	}
	if aux.Product[0] == '"' {
		return json.Unmarshal(aux.Product, &p.ProductID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(aux.Product, &obj); err != nil {
		return fmt.Errorf("price product: %w", err)
	}
	p.ProductID = obj.ID
	return nil
}

type Address struct {
	City       string `json:"city"`
	Country    string `json:"country"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state"`
}

// Empty reports whether the provider sent an address object with no content.
func (a *Address) Empty() bool {
	return a == nil || (a.Line1 == "" && a.Line2 == "" && a.City == "" &&
		a.PostalCode == "" && a.State == "" && a.Country == "")
}

type BillingDetails struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Email   string   `json:"email"`
	Address *Address `json:"address"`
}

// Complete reports whether name, phone and address are all present.
func (d BillingDetails) Complete() bool {
	return d.Name != "" && d.Phone != "" && !d.Address.Empty()
}

// PaymentMethod is the subscription's default payment method. Details holds
// the type-specific object (the "card" object for a card, and so on).
type PaymentMethod struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	BillingDetails BillingDetails  `json:"billing_details"`
	Details        json.RawMessage `json:"details,omitempty"`
}

// Subscription is the authoritative provider state. Timestamps are epoch
// seconds; zero means absent.
type Subscription struct {
	ID                   string
	CustomerID           string
	Status               string
	Metadata             map[string]string
	PriceID              string
	Quantity             int64
	CancelAtPeriodEnd    bool
	CancelAt             int64
	CanceledAt           int64
	Created              int64
	CurrentPeriodStart   int64
	CurrentPeriodEnd     int64
	EndedAt              int64
	TrialStart           int64
	TrialEnd             int64
	DefaultPaymentMethod *PaymentMethod
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}
