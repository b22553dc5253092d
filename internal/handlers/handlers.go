package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ishimwe-William/irembopay-gateway/config"
	"github.com/Ishimwe-William/irembopay-gateway/internal/auth"
	"github.com/Ishimwe-William/irembopay-gateway/internal/db"
	"github.com/Ishimwe-William/irembopay-gateway/internal/irembopay"
	"github.com/Ishimwe-William/irembopay-gateway/internal/reconcile"
	"github.com/Ishimwe-William/irembopay-gateway/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	productionWidgetURL = "https://dashboard.irembopay.com/assets/payment/inline.js"
	sandboxWidgetURL    = "https://dashboard.sandbox.irembopay.com/assets/payment/inline.js"
)

type Handler struct {
	Database db.Store
	Engine   *reconcile.Engine
	Config   *config.Config
	Logger   *zap.SugaredLogger
}

type checkoutResponse struct {
	Result   string `json:"result"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Webhook ingests a provider notification. It always produces a response:
// 401 on signature or replay failure, 400 on a malformed envelope, and 200
// "OK" otherwise, including when no order matches the invoice, so the
// provider never retries on a benign mismatch.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Errorw("failed to read webhook body", "error", err)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	header := r.Header.Get(irembopay.SignatureHeader)
	if err = irembopay.VerifySignature(body, header, h.Config.SecretKey, time.Now()); err != nil {
		if errors.Is(err, irembopay.ErrStaleTimestamp) {
			h.Logger.Warnw("webhook rejected: timestamp too old or invalid")
			http.Error(w, "Timestamp too old or invalid", http.StatusUnauthorized)
			return
		}
		h.Logger.Warnw("webhook rejected: invalid signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var notification models.WebhookNotification
	if err = json.Unmarshal(body, &notification); err != nil || notification.Data.InvoiceNumber == "" {
		h.Logger.Errorw("webhook rejected: invalid payload structure", "error", err)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if err = h.Engine.ApplyPaymentOutcome(r.Context(), &notification, body); err != nil {
		// Acknowledged anyway: an unhandled failure would make the provider
		// retry indefinitely against the same persistent fault.
		h.Logger.Errorw("failed to apply payment outcome", "invoice", notification.Data.InvoiceNumber, "error", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Pay starts or resumes checkout for an order and returns the redirect
// target for the payment page. Repeat calls reuse the stored invoice when
// it is still payable.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Enabled {
		h.writeCheckoutFailure(w, http.StatusServiceUnavailable, "IremboPay payments are disabled.")
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.Database.GetOrder(orderID)
	if err != nil {
		h.Logger.Errorw("order not found for checkout", "orderID", orderID, "error", err)
		h.writeCheckoutFailure(w, http.StatusNotFound, "Order not found.")
		return
	}

	invoice, err := h.Engine.EnsurePayableInvoice(r.Context(), order)
	if err != nil {
		h.Logger.Errorw("could not obtain payable invoice", "order", order.Number, "error", err)
		message := "Unknown error"
		var apiErr *irembopay.APIError
		if errors.As(err, &apiErr) {
			message = apiErr.Message
		}
		h.writeCheckoutFailure(w, http.StatusBadGateway, "Could not create IremboPay invoice: "+message)
		return
	}

	resp := checkoutResponse{
		Result:   "success",
		Redirect: fmt.Sprintf("/api/orders/%s/receipt", order.ID),
	}
	if invoice.PaymentLinkURL != "" {
		resp.Redirect = invoice.PaymentLinkURL
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeCheckoutFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checkoutResponse{Result: "failure", Message: message})
}

type receiptResponse struct {
	WidgetURL     string `json:"widget_url"`
	PublicKey     string `json:"public_key"`
	InvoiceNumber string `json:"invoice_number"`
	Locale        string `json:"locale"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

// Receipt returns the configuration the frontend needs to launch the
// embedded payment widget for an order's current invoice.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	invoiceNumber, err := h.Database.GetOrderMeta(orderID, models.MetaInvoiceNumber)
	if err != nil {
		h.Logger.Errorw("failed to read invoice number", "orderID", orderID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if invoiceNumber == "" || h.Config.PublicKey == "" {
		http.Error(w, "Payment session error. Please try again.", http.StatusConflict)
		return
	}

	widgetURL := productionWidgetURL
	if h.Config.TestMode {
		widgetURL = sandboxWidgetURL
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(receiptResponse{
		WidgetURL:     widgetURL,
		PublicKey:     h.Config.PublicKey,
		InvoiceNumber: invoiceNumber,
		Locale:        "EN",
		Title:         h.Config.Title,
		Description:   h.Config.Description,
	})
}

// CreateOrder registers an order on behalf of the host system.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var order models.Order

	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		h.Logger.Error("error decoding order", zap.Error(err))
		http.Error(w, "error decoding order", http.StatusBadRequest)
		return
	}

	if order.Number == "" || order.TotalAmount <= 0 {
		http.Error(w, "order number and positive total are required", http.StatusBadRequest)
		return
	}

	order.ID = uuid.New().String()
	order.Status = models.OrderNew
	order.CreatedAt = time.Now().UTC()

	if err := h.Database.CreateOrder(order); err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			http.Error(w, "order already exists", http.StatusConflict)
			return
		}
		h.Logger.Error("error when trying to put order to database", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var credentials models.Credentials
	var userData models.User

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.Logger.Error("error reading decoded credentials", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), 14)
	if err != nil {
		h.Logger.Info("password encryption error", zap.Error(err))
		http.Error(w, "internal error", http.StatusBadRequest)
		return
	}

	userData.Login = credentials.Login
	userData.Password = string(passwordBytes)
	userData.UUID = uuid.New().String()

	if err = h.Database.PutUniqueUserData(userData); err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			h.Logger.Debug("duplicate key value violates unique constraint", zap.Error(err))
			http.Error(w, "login already exists", http.StatusConflict)
			return
		}
		h.Logger.Error("error when trying to put credentials to database", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.BuildJWT(userData.UUID, h.Config.JWTSecret)
	if err != nil {
		h.Logger.Error("error building JWT", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials models.Credentials

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		h.Logger.Error("error reading decoded credentials", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userData, err := h.Database.GetUserData(credentials.Login)
	if err != nil {
		if strings.Contains(err.Error(), "no rows in result set") {
			h.Logger.Error("login does not exist", zap.Error(err))
			http.Error(w, "login does not exist", http.StatusUnauthorized)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(userData.Password), []byte(credentials.Password))
	if err != nil {
		h.Logger.Error("invalid login or password", zap.Error(err))
		http.Error(w, "invalid login or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.BuildJWT(userData.UUID, h.Config.JWTSecret)
	if err != nil {
		h.Logger.Error("error building JWT", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	w.WriteHeader(http.StatusOK)
}

type paymentDetailsResponse struct {
	OrderNumber string            `json:"order_number"`
	OrderStatus string            `json:"order_status"`
	TotalAmount int64             `json:"total_amount"`
	Currency    string            `json:"currency"`
	Payment     map[string]string `json:"payment"`
}

// PaymentDetails exposes the gateway's stored payment metadata for an order
// to the admin UI: invoice number, payment method, reference, amounts,
// expiry and the raw gateway response.
func (h *Handler) PaymentDetails(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.Database.GetOrder(orderID)
	if err != nil {
		h.Logger.Errorw("order not found", "orderID", orderID, "error", err)
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	keys := []string{
		models.MetaInvoiceNumber,
		models.MetaPaymentMethod,
		models.MetaPaymentReference,
		models.MetaTransactionID,
		models.MetaPaidAt,
		models.MetaCurrency,
		models.MetaAmount,
		models.MetaStatus,
		models.MetaExpiryAt,
		models.MetaGatewayResponse,
	}

	payment := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := h.Database.GetOrderMeta(orderID, key)
		if err != nil {
			h.Logger.Errorw("failed to read order meta", "orderID", orderID, "key", key, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if value != "" {
			payment[strings.TrimPrefix(key, "_irembopay_")] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(paymentDetailsResponse{
		OrderNumber: order.Number,
		OrderStatus: string(order.Status),
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Payment:     payment,
	})
}

type settingsResponse struct {
	Enabled        bool   `json:"enabled"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	TestMode       bool   `json:"test_mode"`
	SecretKey      string `json:"secret_key"`
	PublicKey      string `json:"public_key"`
	PaymentAccount string `json:"payment_account"`
	ProductCode    string `json:"product_code"`
	ExpiryHours    int    `json:"expiry_hours"`
}

// Settings returns the gateway configuration with keys masked.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settingsResponse{
		Enabled:        h.Config.Enabled,
		Title:          h.Config.Title,
		Description:    h.Config.Description,
		TestMode:       h.Config.TestMode,
		SecretKey:      maskKey(h.Config.SecretKey),
		PublicKey:      maskKey(h.Config.PublicKey),
		PaymentAccount: h.Config.PaymentAccount,
		ProductCode:    h.Config.ProductCode,
		ExpiryHours:    h.Config.ExpiryHours,
	})
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
