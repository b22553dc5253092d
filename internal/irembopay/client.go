package irembopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Ishimwe-William/irembopay-gateway/config"
	"github.com/Ishimwe-William/irembopay-gateway/models"
	"go.uber.org/zap"
)

const (
	productionBaseURL = "https://api.irembopay.com"
	sandboxBaseURL    = "https://api.sandbox.irembopay.com"

	apiVersion = "2"
)

// APIError is a provider-reported failure (HTTP status >= 400). Transport
// failures are returned as plain wrapped errors instead.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("irembopay api error (status %d): %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	Config  *config.Config
	Logger  *zap.SugaredLogger

	httpClient *http.Client
}

func NewClient(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	baseURL := productionBaseURL
	if cfg.TestMode {
		baseURL = sandboxBaseURL
	}

	return &Client{
		BaseURL:    baseURL,
		Config:     cfg,
		Logger:     logger,
		httpClient: &http.Client{Timeout: cfg.ProviderRequestTimeout},
	}
}

// CreateInvoice registers a new invoice for the order with the provider.
// The expiryAt sent here is advisory only; the locally stored expiry is
// authoritative for reuse decisions.
func (c *Client) CreateInvoice(ctx context.Context, order *models.Order) (*models.InvoiceData, error) {
	reqBody := models.InvoiceRequest{
		TransactionID:            order.Number,
		PaymentAccountIdentifier: c.Config.PaymentAccount,
		PaymentItems: []models.PaymentItem{
			{
				Code:       c.Config.ProductCode,
				Quantity:   1,
				UnitAmount: order.TotalAmount,
			},
		},
		Description: fmt.Sprintf("Order %s on %s", order.Number, c.Config.SiteName),
		ExpiryAt:    time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05Z"),
		Language:    "EN",
		Customer: models.InvoiceCustomer{
			Email:       order.BillingEmail,
			PhoneNumber: order.BillingPhone,
			Name:        order.BillingName,
		},
	}

	return c.makeRequest(ctx, http.MethodPost, "/payments/invoices", &reqBody)
}

// GetInvoice fetches the provider's current view of an invoice.
func (c *Client) GetInvoice(ctx context.Context, invoiceNumber string) (*models.InvoiceData, error) {
	return c.makeRequest(ctx, http.MethodGet, "/payments/invoices/"+invoiceNumber, nil)
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body *models.InvoiceRequest) (*models.InvoiceData, error) {
	url := c.BaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("irembopay-secretkey", c.Config.SecretKey)
	req.Header.Set("X-API-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var envelope models.InvoiceResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode >= http.StatusBadRequest {
		message := "Unknown error occurred"
		if decodeErr == nil && envelope.Message != "" {
			message = envelope.Message
		}
		c.Logger.Errorw("provider api error", "status", resp.StatusCode, "message", message)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if envelope.Data.InvoiceNumber == "" {
		return nil, fmt.Errorf("provider response missing invoice number")
	}

	return &envelope.Data, nil
}
