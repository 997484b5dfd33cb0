package workflow_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	config.SetDB(db)
	models.MigrateTable()
	return db
}

type fixture struct {
	db       *gorm.DB
	customer *models.Customer
	invoice  *models.Invoice
}

func newFixture(t *testing.T, invoiceTotal string) *fixture {
	t.Helper()

	db := setupTestDB(t)

	customer := models.Customer{Name: "Fixture Co", Email: fmt.Sprintf("fixture-%d@test.local", time.Now().UnixNano())}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	invoice := models.Invoice{
		InvoiceNumber:    fmt.Sprintf("INV-%d", time.Now().UnixNano()),
		CustomerId:       customer.ID,
		TotalAmount:      mustDecimal(t, invoiceTotal),
		PaidAmount:       decimal.Zero,
		RemainingBalance: mustDecimal(t, invoiceTotal),
		DueDate:          time.Now().AddDate(0, 1, 0),
		Status:           models.InvoiceStatusAwaitingPayment,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	return &fixture{db: db, customer: &customer, invoice: &invoice}
}

func (f *fixture) submitPayment(t *testing.T, amount string) *models.Payment {
	t.Helper()

	payment, err := models.SubmitPayment(context.Background(), f.customer.ID, &models.NewPayment{
		InvoiceId:     f.invoice.ID,
		Amount:        mustDecimal(t, amount),
		PaymentMethod: models.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("SubmitPayment: %v", err)
	}
	return payment
}

func (f *fixture) reloadInvoice(t *testing.T) *models.Invoice {
	t.Helper()

	var invoice models.Invoice
	if err := f.db.First(&invoice, f.invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	return &invoice
}

func (f *fixture) reloadPayment(t *testing.T, id int) *models.Payment {
	t.Helper()

	var payment models.Payment
	if err := f.db.First(&payment, id).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	return &payment
}

func (f *fixture) countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}
