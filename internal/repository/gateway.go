package repository

import (
	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmoiron/sqlx"
)

// Gateway is the persistence gateway: one instance per process, handed to
// every component that reads or writes billing state.
type Gateway struct {
	Customers     CustomersRepository
	Products      ProductsRepository
	Prices        PricesRepository
	Subscriptions SubscriptionsRepository
	Users         UsersRepository
}

func NewGateway(conn *sqlx.DB, d db.Dialect) *Gateway {
	return &Gateway{
		Customers:     NewCustomersRepository(conn),
		Products:      NewProductsRepository(conn, d),
		Prices:        NewPricesRepository(conn, d),
		Subscriptions: NewSubscriptionsRepository(conn, d),
		Users:         NewUsersRepository(conn, d),
	}
}
