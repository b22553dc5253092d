package db

import (
	"github.com/Ishimwe-William/irembopay-gateway/models"
)

// Store is the order-state capability surface the gateway relies on. All
// durable payment state lives in the host order store; nothing is cached
// in memory across requests.
type Store interface {
	CreateOrder(order models.Order) error
	GetOrder(orderID string) (*models.Order, error)
	GetOrderByInvoiceNumber(invoiceNumber string) (*models.Order, error)

	GetOrderMeta(orderID string, key string) (string, error)
	SetOrderMeta(orderID string, key string, value string) error

	// MarkPaid transitions the order to PAID and reports whether this call
	// performed the transition. A false return means the order was already
	// paid, which callers must treat as a benign no-op.
	MarkPaid(orderID string) (bool, error)

	PutUniqueUserData(userData models.User) error
	GetUserData(login string) (models.User, error)

	Close() error
}
