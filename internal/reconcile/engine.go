package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/Ishimwe-William/irembopay-gateway/config"
	"github.com/Ishimwe-William/irembopay-gateway/internal/db"
	"github.com/Ishimwe-William/irembopay-gateway/models"
	"go.uber.org/zap"
)

// Provider is the slice of the invoice API the engine needs.
type Provider interface {
	CreateInvoice(ctx context.Context, order *models.Order) (*models.InvoiceData, error)
	GetInvoice(ctx context.Context, invoiceNumber string) (*models.InvoiceData, error)
}

// Engine reconciles local order state with provider-reported invoice state.
// It is stateless between calls; all durable state lives in the order store.
type Engine struct {
	Store    db.Store
	Provider Provider
	Config   *config.Config
	Logger   *zap.SugaredLogger
}

func NewEngine(store db.Store, provider Provider, cfg *config.Config, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		Store:    store,
		Provider: provider,
		Config:   cfg,
		Logger:   logger,
	}
}

// EnsurePayableInvoice returns an invoice the customer can pay right now,
// reusing the stored one when it is still valid. An invoice is reused only
// if it is locally unexpired, the provider still reports it as NEW, and its
// amount matches the current order total. Anything else gets a replacement,
// which overwrites the stored invoice number and recomputes expiry. A
// provider lookup failure fails the whole operation instead of proceeding
// with a possibly-stale invoice.
func (e *Engine) EnsurePayableInvoice(ctx context.Context, order *models.Order) (*models.InvoiceData, error) {
	invoiceNumber, err := e.Store.GetOrderMeta(order.ID, models.MetaInvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice number: %w", err)
	}

	if invoiceNumber == "" {
		return e.createAndStamp(ctx, order)
	}

	expired, err := e.isLocallyExpired(order.ID)
	if err != nil {
		return nil, err
	}
	if expired {
		e.Logger.Infow("stored invoice expired locally, creating replacement",
			"order", order.Number, "invoice", invoiceNumber)
		return e.createAndStamp(ctx, order)
	}

	remote, err := e.Provider.GetInvoice(ctx, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to revalidate invoice %s: %w", invoiceNumber, err)
	}

	if remote.PaymentStatus != models.InvoiceNew || remote.Amount != order.TotalAmount {
		e.Logger.Infow("stored invoice no longer payable, creating replacement",
			"order", order.Number, "invoice", invoiceNumber,
			"remoteStatus", remote.PaymentStatus, "remoteAmount", remote.Amount, "orderTotal", order.TotalAmount)
		return e.createAndStamp(ctx, order)
	}

	return remote, nil
}

func (e *Engine) isLocallyExpired(orderID string) (bool, error) {
	expiryRaw, err := e.Store.GetOrderMeta(orderID, models.MetaExpiryAt)
	if err != nil {
		return false, fmt.Errorf("failed to read invoice expiry: %w", err)
	}
	if expiryRaw == "" {
		return true, nil
	}

	expiryAt, err := time.Parse(time.RFC3339, expiryRaw)
	if err != nil {
		// Unparseable expiry counts as expired so checkout can recover.
		e.Logger.Warnw("unparseable stored expiry", "orderID", orderID, "value", expiryRaw)
		return true, nil
	}

	return time.Now().After(expiryAt), nil
}

// createAndStamp creates a fresh provider invoice and overwrites the
// stored invoice number and expiry. The previous invoice, if any, is simply
// abandoned on the provider side; no cancellation call exists or is needed.
func (e *Engine) createAndStamp(ctx context.Context, order *models.Order) (*models.InvoiceData, error) {
	invoice, err := e.Provider.CreateInvoice(ctx, order)
	if err != nil {
		return nil, err
	}

	expiryAt := e.computeExpiry(order)

	if err = e.Store.SetOrderMeta(order.ID, models.MetaInvoiceNumber, invoice.InvoiceNumber); err != nil {
		return nil, fmt.Errorf("failed to store invoice number: %w", err)
	}
	if err = e.Store.SetOrderMeta(order.ID, models.MetaExpiryAt, expiryAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("failed to store invoice expiry: %w", err)
	}
	if err = e.Store.SetOrderMeta(order.ID, models.MetaTransactionID, order.Number); err != nil {
		return nil, fmt.Errorf("failed to store transaction id: %w", err)
	}

	e.Logger.Infow("created invoice", "order", order.Number,
		"invoice", invoice.InvoiceNumber, "expiryAt", expiryAt)

	return invoice, nil
}

// computeExpiry anchors the expiry window to the order's creation time.
// Orders with no creation timestamp fall back to the current time rather
// than failing the checkout.
func (e *Engine) computeExpiry(order *models.Order) time.Time {
	window := time.Duration(e.Config.ExpiryHours) * time.Hour
	if order.CreatedAt.IsZero() {
		return time.Now().UTC().Add(window)
	}
	return order.CreatedAt.UTC().Add(window)
}

// ApplyPaymentOutcome applies a provider-reported invoice outcome to the
// matching order. Unknown invoice numbers are acknowledged as no-ops so the
// provider does not retry; a PAID outcome completes the order exactly once,
// and every other status is recorded in the log without touching order state.
func (e *Engine) ApplyPaymentOutcome(ctx context.Context, n *models.WebhookNotification, raw []byte) error {
	order, err := e.Store.GetOrderByInvoiceNumber(n.Data.InvoiceNumber)
	if err != nil {
		return fmt.Errorf("failed to look up order for invoice %s: %w", n.Data.InvoiceNumber, err)
	}
	if order == nil {
		e.Logger.Infow("webhook for unknown invoice, ignoring", "invoice", n.Data.InvoiceNumber)
		return nil
	}

	if !n.Success || n.Data.PaymentStatus != models.InvoicePaid {
		e.Logger.Infow("webhook received with non-paid status",
			"order", order.Number, "invoice", n.Data.InvoiceNumber, "status", n.Data.PaymentStatus)
		return nil
	}

	transitioned, err := e.Store.MarkPaid(order.ID)
	if err != nil {
		return fmt.Errorf("failed to complete payment for order %s: %w", order.Number, err)
	}
	if !transitioned {
		e.Logger.Infow("order already paid, ignoring duplicate webhook",
			"order", order.Number, "invoice", n.Data.InvoiceNumber)
		return nil
	}

	e.stampPaymentMeta(order.ID, n, raw)

	e.Logger.Infow("payment completed", "order", order.Number,
		"invoice", n.Data.InvoiceNumber, "reference", n.Data.PaymentReference)

	return nil
}

// stampPaymentMeta copies the provider's payment fields into the order's
// metadata. Failures here are logged, not returned: the payment itself is
// already committed and must not be reported as failed to the provider.
func (e *Engine) stampPaymentMeta(orderID string, n *models.WebhookNotification, raw []byte) {
	fields := map[string]string{
		models.MetaPaymentMethod:    n.Data.PaymentMethod,
		models.MetaPaymentReference: n.Data.PaymentReference,
		models.MetaPaidAt:           n.Data.PaidAt,
		models.MetaCurrency:         n.Data.Currency,
		models.MetaAmount:           n.Data.Amount,
		models.MetaStatus:           models.InvoicePaid.String(),
		models.MetaGatewayResponse:  string(raw),
	}

	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := e.Store.SetOrderMeta(orderID, key, value); err != nil {
			e.Logger.Warnw("failed to store payment metadata", "orderID", orderID, "key", key, "error", err)
		}
	}
}
