package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/model"
)

// expandableID accepts either an id string or an expanded object with an id.
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

type checkoutSession struct {
	ID           string       `json:"id"`
	Mode         string       `json:"mode"`
	Subscription expandableID `json:"subscription"`
	Customer     expandableID `json:"customer"`
}

type subscriptionRef struct {
	ID       string       `json:"id"`
	Customer expandableID `json:"customer"`
}

func decodeProduct(raw json.RawMessage) (billing.Product, error) {
	var p billing.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	if p.ID == "" {
		return p, fmt.Errorf("product without id")
	}
	return p, nil
}

func decodePrice(raw json.RawMessage) (billing.Price, error) {
	var p billing.Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	if p.ID == "" {
		return p, fmt.Errorf("price without id")
	}
	if !model.PriceType(p.Type).Valid() {
		return p, fmt.Errorf("price %s: unknown type %q", p.ID, p.Type)
	}
	return p, nil
}

func decodeCheckoutSession(raw json.RawMessage) (checkoutSession, error) {
	var s checkoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, err
	}
	if s.ID == "" {
		return s, fmt.Errorf("checkout session without id")
	}
	if s.Mode == "subscription" && (s.Subscription == "" || s.Customer == "") {
		return s, fmt.Errorf("checkout session %s: subscription mode without subscription or customer", s.ID)
	}
	return s, nil
}

func decodeSubscriptionRef(raw json.RawMessage) (subscriptionRef, error) {
	var s subscriptionRef
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, err
	}
	if s.ID == "" || s.Customer == "" {
		return s, fmt.Errorf("subscription without id or customer")
	}
	return s, nil
}
