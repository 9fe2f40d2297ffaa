package model

type PriceType string

const (
	PriceTypeOneTime   PriceType = "one_time"
	PriceTypeRecurring PriceType = "recurring"
)

func (t PriceType) Valid() bool {
	return t == PriceTypeOneTime || t == PriceTypeRecurring
}

// Price references its product by id only; the product row may not exist yet.
type Price struct {
	ID              string    `db:"id"                 json:"id"`
	ProductID       string    `db:"product_id"         json:"product_id"`
	Active          bool      `db:"active"             json:"active"`
	Description     *string   `db:"description"        json:"description"`
	UnitAmount      *int64    `db:"unit_amount"        json:"unit_amount"`
	Currency        string    `db:"currency"           json:"currency"`
	Type            PriceType `db:"type"               json:"type"`
	Interval        *string   `db:"recurring_interval" json:"interval"`
	IntervalCount   *int64    `db:"interval_count"     json:"interval_count"`
	TrialPeriodDays *int64    `db:"trial_period_days"  json:"trial_period_days"`
	Metadata        Metadata  `db:"metadata"           json:"metadata"`
}
