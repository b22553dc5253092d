package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/Ishimwe-William/irembopay-gateway/config"
	_ "github.com/Ishimwe-William/irembopay-gateway/internal/db/migrations"
	"github.com/Ishimwe-William/irembopay-gateway/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Manager struct {
	Db *sql.DB
}

func NewManager(cfg *config.Config) (*Manager, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &Manager{
		Db: db,
	}

	if err = goose.Up(db, "./internal/db/migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	return manager, nil
}

func (m *Manager) CreateOrder(order models.Order) error {
	_, err := m.Db.Exec(`
        INSERT INTO orders (id, order_number, total_amount, currency, billing_email, billing_phone, billing_name, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, order.ID, order.Number, order.TotalAmount, order.Currency,
		order.BillingEmail, order.BillingPhone, order.BillingName, order.Status)
	if err != nil {
		return fmt.Errorf("failed to insert order: %v", err)
	}

	return nil
}

func (m *Manager) GetOrder(orderID string) (*models.Order, error) {
	var order models.Order

	err := m.Db.QueryRow(`
		SELECT id, order_number, total_amount, currency, billing_email, billing_phone, billing_name, status, created_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&order.ID, &order.Number, &order.TotalAmount, &order.Currency,
		&order.BillingEmail, &order.BillingPhone, &order.BillingName, &order.Status, &order.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// GetOrderByInvoiceNumber resolves the order whose metadata currently holds
// the given invoice number. Returns (nil, nil) when no order matches, which
// webhook processing treats as a benign no-op rather than an error.
func (m *Manager) GetOrderByInvoiceNumber(invoiceNumber string) (*models.Order, error) {
	var order models.Order

	err := m.Db.QueryRow(`
		SELECT o.id, o.order_number, o.total_amount, o.currency, o.billing_email, o.billing_phone, o.billing_name, o.status, o.created_at
		FROM orders o
		JOIN order_meta om ON om.order_id = o.id
		WHERE om.meta_key = $1 AND om.meta_value = $2
		LIMIT 1
	`, models.MetaInvoiceNumber, invoiceNumber).Scan(&order.ID, &order.Number, &order.TotalAmount, &order.Currency,
		&order.BillingEmail, &order.BillingPhone, &order.BillingName, &order.Status, &order.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by invoice number: %w", err)
	}

	return &order, nil
}

// GetOrderMeta returns the stored value or "" when the key is absent.
func (m *Manager) GetOrderMeta(orderID string, key string) (string, error) {
	var value string

	err := m.Db.QueryRow(`
		SELECT meta_value
		FROM order_meta
		WHERE order_id = $1 AND meta_key = $2
	`, orderID, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get order meta: %w", err)
	}

	return value, nil
}

func (m *Manager) SetOrderMeta(orderID string, key string, value string) error {
	_, err := m.Db.Exec(`
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value
	`, orderID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set order meta: %v", err)
	}

	return nil
}

// MarkPaid is the exactly-once guard for payment completion. The status
// predicate makes the transition conditional, so replayed webhooks and
// concurrent deliveries cannot complete the same order twice.
func (m *Manager) MarkPaid(orderID string) (bool, error) {
	result, err := m.Db.Exec(`
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status <> $1
	`, models.OrderPaid, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %v", err)
	}

	return affected > 0, nil
}

func (m *Manager) PutUniqueUserData(user models.User) error {
	_, err := m.Db.Exec(`
        INSERT INTO users (uuid, login, password)
        VALUES ($1, $2, $3)
    `, user.UUID, user.Login, user.Password)
	if err != nil {
		return fmt.Errorf("failed to insert user data: %v", err)
	}

	return nil
}

func (m *Manager) GetUserData(login string) (models.User, error) {
	var user models.User

	err := m.Db.QueryRow(`
		SELECT uuid, login, password
		FROM users
		WHERE login = $1
	`, login).Scan(&user.UUID, &user.Login, &user.Password)

	if err != nil {
		return user, fmt.Errorf("failed to get user data: %v", err)
	}

	return user, nil
}

func (m *Manager) Close() error {
	return m.Db.Close()
}
