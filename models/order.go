package models

import (
	"time"
)

type OrderStatus string

const (
	OrderNew  OrderStatus = "NEW"
	OrderPaid OrderStatus = "PAID"
)

// Metadata keys written by the gateway into the order's metadata bag.
// Keys are namespaced so they never collide with host-system metadata.
const (
	MetaInvoiceNumber    = "_irembopay_invoice_number"
	MetaExpiryAt         = "_irembopay_expiry_at"
	MetaPaymentMethod    = "_irembopay_payment_method"
	MetaPaymentReference = "_irembopay_payment_reference"
	MetaPaidAt           = "_irembopay_paid_at"
	MetaCurrency         = "_irembopay_currency"
	MetaAmount           = "_irembopay_amount"
	MetaStatus           = "_irembopay_status"
	MetaGatewayResponse  = "_irembopay_gateway_response"
	MetaTransactionID    = "_irembopay_transaction_id"
)

type Order struct {
	ID           string      `json:"id"`
	Number       string      `json:"number"`
	TotalAmount  int64       `json:"total_amount"`
	Currency     string      `json:"currency"`
	BillingEmail string      `json:"billing_email"`
	BillingPhone string      `json:"billing_phone"`
	BillingName  string      `json:"billing_name"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

type User struct {
	UUID     string `json:"uuid,omitempty"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
