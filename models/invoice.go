package models

type InvoiceStatus string

func (s InvoiceStatus) String() string {
	return string(s)
}

// Provider-reported invoice statuses. EXPIRED is inferred locally from the
// stored expiry timestamp and is never sent by the provider.
const (
	InvoiceNew     InvoiceStatus = "NEW"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceFailed  InvoiceStatus = "FAILED"
	InvoiceExpired InvoiceStatus = "EXPIRED"
)

type PaymentItem struct {
	Code       string `json:"code"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unitAmount"`
}

type InvoiceCustomer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

type InvoiceRequest struct {
	TransactionID            string          `json:"transactionId"`
	PaymentAccountIdentifier string          `json:"paymentAccountIdentifier"`
	PaymentItems             []PaymentItem   `json:"paymentItems"`
	Description              string          `json:"description"`
	ExpiryAt                 string          `json:"expiryAt"`
	Language                 string          `json:"language"`
	Customer                 InvoiceCustomer `json:"customer"`
}

type InvoiceData struct {
	InvoiceNumber    string        `json:"invoiceNumber"`
	PaymentLinkURL   string        `json:"paymentLinkUrl,omitempty"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency,omitempty"`
	PaymentStatus    InvoiceStatus `json:"paymentStatus"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	PaymentMethod    string        `json:"paymentMethod,omitempty"`
	PaidAt           string        `json:"paidAt,omitempty"`
}

type InvoiceResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    InvoiceData `json:"data"`
}

// WebhookNotification is the envelope the provider posts on invoice state
// changes. Amount arrives as a string here, unlike the invoice API.
type WebhookNotification struct {
	Success bool        `json:"success"`
	Data    WebhookData `json:"data"`
}

type WebhookData struct {
	InvoiceNumber    string        `json:"invoiceNumber"`
	PaymentStatus    InvoiceStatus `json:"paymentStatus"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	PaymentMethod    string        `json:"paymentMethod,omitempty"`
	PaidAt           string        `json:"paidAt,omitempty"`
	Currency         string        `json:"currency,omitempty"`
	Amount           string        `json:"amount,omitempty"`
}
