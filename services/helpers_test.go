package services

import (
	"context"
	"io"
	"testing"
	"time"

	"werkstatt-backend/database"
	"werkstatt-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testClock = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	db     *gorm.DB
	ctx    context.Context
	tenant string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &fixture{
		svc:    New(db, Options{Logger: log, PhoneRegion: "US", Clock: func() time.Time { return testClock }}),
		db:     db,
		ctx:    context.Background(),
		tenant: uuid.NewString(),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func (f *fixture) technician(t *testing.T, name string) uint {
	t.Helper()
	tech := models.Technician{TenantID: f.tenant, Name: name, Active: true}
	require.NoError(t, f.db.Create(&tech).Error)
	return tech.ID
}

func customer(contact string) CustomerInput {
	return CustomerInput{Name: "Ada Lovelace", Contact: contact}
}

func (f *fixture) inquiry(t *testing.T) *models.Inquiry {
	t.Helper()
	inq, err := f.svc.CreateInquiry(f.ctx, f.tenant, CreateInquiryInput{
		Customer: customer("+1 650-253-0000"),
		Items:    []InquiryItemInput{{ProductName: "Laptop", ProblemDescription: "no power"}},
	})
	require.NoError(t, err)
	return inq
}

// doneInquiry walks a new inquiry to Done with a technician assigned.
func (f *fixture) doneInquiry(t *testing.T) *models.Inquiry {
	t.Helper()
	inq := f.inquiry(t)
	_, err := f.svc.AssignTechnician(f.ctx, f.tenant, inq.ID, f.technician(t, "Grace"))
	require.NoError(t, err)
	inq, err = f.svc.MarkInquiryDone(f.ctx, f.tenant, inq.ID)
	require.NoError(t, err)
	return inq
}

func (f *fixture) repairQuotation(t *testing.T, lines ...LineInput) *models.Quotation {
	t.Helper()
	inq := f.doneInquiry(t)
	if len(lines) == 0 {
		lines = []LineInput{{Product: "Motherboard", Quantity: 1, UnitPrice: dec("180.00")}}
	}
	q, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{InquiryID: &inq.ID, Items: lines})
	require.NoError(t, err)
	return q
}

func (f *fixture) moveQuotation(t *testing.T, id uint, steps ...models.QuotationStatus) *models.Quotation {
	t.Helper()
	var q *models.Quotation
	for _, st := range steps {
		var err error
		q, err = f.svc.ChangeQuotationStatus(f.ctx, f.tenant, id, st)
		require.NoError(t, err, "to %s", st)
	}
	return q
}

func (f *fixture) directInvoice(t *testing.T) *models.Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoice(f.ctx, f.tenant, CreateInvoiceInput{
		SourceType: models.SourceDirect,
		Customer:   &CustomerInput{Name: "Walk-in", Contact: "+1 650-253-0001"},
		Items: []LineInput{
			{Product: "Battery", Quantity: 2, UnitPrice: dec("100.00")},
			{Product: "Labour", Quantity: 1, UnitPrice: dec("50.00")},
		},
	})
	require.NoError(t, err)
	return inv
}

// requireLedger checks the ledger invariant alongside the expected values.
func requireLedger(t *testing.T, inv *models.Invoice, grand, paid string, status models.InvoiceStatus) {
	t.Helper()
	requireDecimal(t, grand, inv.GrandTotal, "grand_total")
	requireDecimal(t, grand, inv.Subtotal, "subtotal")
	requireDecimal(t, paid, inv.AmountPaid, "amount_paid")
	requireDecimal(t, dec(grand).Sub(dec(paid)).String(), inv.AmountDue, "amount_due")
	require.Equal(t, status, inv.Status)
}
