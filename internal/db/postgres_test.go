package db

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Ishimwe-William/irembopay-gateway/models"
	"github.com/stretchr/testify/assert"
)

func newMockManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	mockdb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockdb.Close() })
	return &Manager{Db: mockdb}, mock
}

func TestMarkPaid(t *testing.T) {
	t.Run("TransitionFires", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectExec(`UPDATE orders`).
			WithArgs(models.OrderPaid, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		transitioned, err := manager.MarkPaid("order-1")
		assert.NoError(t, err)
		assert.True(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyPaidIsNoOp", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectExec(`UPDATE orders`).
			WithArgs(models.OrderPaid, "order-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		transitioned, err := manager.MarkPaid("order-1")
		assert.NoError(t, err)
		assert.False(t, transitioned)
	})
}

func TestGetOrderByInvoiceNumber(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Found", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectQuery(`SELECT o.id`).
			WithArgs(models.MetaInvoiceNumber, "880123456789").
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "total_amount", "currency",
				"billing_email", "billing_phone", "billing_name", "status", "created_at"}).
				AddRow("order-1", "1042", 5000, "RWF", "a@b.c", "0788123456", "Jane", models.OrderNew, createdAt))

		order, err := manager.GetOrderByInvoiceNumber("880123456789")
		assert.NoError(t, err)
		assert.Equal(t, "order-1", order.ID)
		assert.Equal(t, int64(5000), order.TotalAmount)
	})

	t.Run("NoMatchIsNilNotError", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectQuery(`SELECT o.id`).
			WithArgs(models.MetaInvoiceNumber, "880000000000").
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "total_amount", "currency",
				"billing_email", "billing_phone", "billing_name", "status", "created_at"}))

		order, err := manager.GetOrderByInvoiceNumber("880000000000")
		assert.NoError(t, err)
		assert.Nil(t, order)
	})
}

func TestOrderMeta(t *testing.T) {
	t.Run("AbsentKeyIsEmptyString", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectQuery(`SELECT meta_value`).
			WithArgs("order-1", models.MetaInvoiceNumber).
			WillReturnRows(sqlmock.NewRows([]string{"meta_value"}))

		value, err := manager.GetOrderMeta("order-1", models.MetaInvoiceNumber)
		assert.NoError(t, err)
		assert.Equal(t, "", value)
	})

	t.Run("SetUpserts", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectExec(`INSERT INTO order_meta`).
			WithArgs("order-1", models.MetaInvoiceNumber, "880123456789").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := manager.SetOrderMeta("order-1", models.MetaInvoiceNumber, "880123456789")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetReturnsStoredValue", func(t *testing.T) {
		manager, mock := newMockManager(t)

		mock.ExpectQuery(`SELECT meta_value`).
			WithArgs("order-1", models.MetaExpiryAt).
			WillReturnRows(sqlmock.NewRows([]string{"meta_value"}).AddRow("2025-03-02T10:00:00Z"))

		value, err := manager.GetOrderMeta("order-1", models.MetaExpiryAt)
		assert.NoError(t, err)
		assert.Equal(t, "2025-03-02T10:00:00Z", value)
	})
}
