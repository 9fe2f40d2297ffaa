package model

type Product struct {
	ID          string   `db:"id"          json:"id"`
	Active      bool     `db:"active"      json:"active"`
	Name        string   `db:"name"        json:"name"`
	Description *string  `db:"description" json:"description"`
	Image       *string  `db:"image"       json:"image"`
	Metadata    Metadata `db:"metadata"    json:"metadata"`
}

// ProductWithPrices is the catalog read model served to clients.
type ProductWithPrices struct {
	Product
	Prices []Price `json:"prices"`
}
