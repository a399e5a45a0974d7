package services

import (
	"testing"

	"werkstatt-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNormalQuotation(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{
		Customer: &CustomerInput{Name: "Bob", Contact: "+1 650-253-0002"},
		Items: []LineInput{
			{Product: "Screen", Quantity: 2, UnitPrice: dec("75.50")},
			{Product: "Cable", Quantity: 3, UnitPrice: dec("4.99"), Warranty: "6 months"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.QuotationTypeNormal, q.Type)
	assert.Equal(t, models.QuotationDraft, q.Status)
	assert.Nil(t, q.InquiryID)
	assert.Equal(t, "QT-001-OCT-26", q.Code)
	requireDecimal(t, "165.97", q.TotalAmount, "total_amount")
	require.Len(t, q.Items, 2)
	requireDecimal(t, "14.97", q.Items[1].LineTotal, "line_total")
}

func TestCreateQuotationRequiresCustomerOrInquiry(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{
		Customer: &CustomerInput{Contact: "+1 650-253-0002"},
		Items:    []LineInput{{Product: "Screen", Quantity: 0, UnitPrice: dec("1")}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateRepairQuotation(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)

	assert.Equal(t, models.QuotationTypeRepair, q.Type)
	require.NotNil(t, q.InquiryID)
	requireDecimal(t, "180", q.TotalAmount, "total_amount")

	inq, err := f.svc.GetInquiry(f.ctx, f.tenant, *q.InquiryID)
	require.NoError(t, err)
	assert.Equal(t, inq.CustomerID, q.CustomerID)
}

func TestRepairQuotationNeedsDoneInquiry(t *testing.T) {
	f := newFixture(t)
	inq := f.inquiry(t)

	_, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{InquiryID: &inq.ID})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	missing := uint(4242)
	_, err = f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{InquiryID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptingRepairQuotationOpensOneRepair(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)
	inq, err := f.svc.GetInquiry(f.ctx, f.tenant, *q.InquiryID)
	require.NoError(t, err)

	f.moveQuotation(t, q.ID, models.QuotationSent, models.QuotationAccepted)

	r, err := f.svc.RepairForQuotation(f.ctx, f.tenant, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RepairPending, r.Status)
	assert.Equal(t, inq.ID, r.InquiryID)
	assert.Equal(t, q.CustomerID, r.CustomerID)
	assert.Equal(t, inq.TechnicianID, r.TechnicianID)
	assert.Equal(t, "RP-001-OCT-26", r.Code)

	_, err = f.svc.ChangeQuotationStatus(f.ctx, f.tenant, q.ID, models.QuotationAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var repairs int64
	require.NoError(t, f.db.Model(&models.Repair{}).Where("quotation_id = ?", q.ID).Count(&repairs).Error)
	assert.Equal(t, int64(1), repairs)
}

func TestAcceptingNormalQuotationOpensNoRepair(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{
		Customer: &CustomerInput{Contact: "+1 650-253-0002"},
		Items:    []LineInput{{Product: "Mouse", Quantity: 1, UnitPrice: dec("20")}},
	})
	require.NoError(t, err)
	f.moveQuotation(t, q.ID, models.QuotationSent, models.QuotationAccepted)

	_, err = f.svc.RepairForQuotation(f.ctx, f.tenant, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailedRepairCreationRollsBackAcceptance(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)
	f.moveQuotation(t, q.ID, models.QuotationSent)

	// a repair already pointing at the quotation makes the insert violate the unique index
	require.NoError(t, f.db.Create(&models.Repair{
		TenantID: f.tenant, Serial: 99, Code: "RP-099-OCT-26", QuotationID: q.ID,
		InquiryID: *q.InquiryID, CustomerID: q.CustomerID, Status: models.RepairPending,
	}).Error)

	_, err := f.svc.ChangeQuotationStatus(f.ctx, f.tenant, q.ID, models.QuotationAccepted)
	require.Error(t, err)

	got, err := f.svc.GetQuotation(f.ctx, f.tenant, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuotationSent, got.Status)
}

func TestQuotationStatusRejectsUnknownAndIllegal(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)

	_, err := f.svc.ChangeQuotationStatus(f.ctx, f.tenant, q.ID, models.QuotationStatus("Archived"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ChangeQuotationStatus(f.ctx, f.tenant, q.ID, models.QuotationAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQuotationEditsOnlyInDraftOrRejected(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)
	line := LineInput{Product: "Fan", Quantity: 2, UnitPrice: dec("10")}

	q, err := f.svc.AddQuotationItem(f.ctx, f.tenant, q.ID, line)
	require.NoError(t, err)
	requireDecimal(t, "200", q.TotalAmount, "after add")

	f.moveQuotation(t, q.ID, models.QuotationSent)
	_, err = f.svc.AddQuotationItem(f.ctx, f.tenant, q.ID, line)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	f.moveQuotation(t, q.ID, models.QuotationRejected)
	fan := q.Items[len(q.Items)-1]
	q, err = f.svc.UpdateQuotationItem(f.ctx, f.tenant, q.ID, fan.ID, LineInput{Product: "Fan", Quantity: 1, UnitPrice: dec("12.5")})
	require.NoError(t, err)
	requireDecimal(t, "192.5", q.TotalAmount, "after update")

	q, err = f.svc.DeleteQuotationItem(f.ctx, f.tenant, q.ID, fan.ID)
	require.NoError(t, err)
	requireDecimal(t, "180", q.TotalAmount, "after delete")

	_, err = f.svc.DeleteQuotationItem(f.ctx, f.tenant, q.ID, fan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateQuotationReplacesItemsAndNotes(t *testing.T) {
	f := newFixture(t)
	q := f.repairQuotation(t)
	notes := "customer supplies the case"
	items := []LineInput{
		{Product: "Keyboard", Quantity: 1, UnitPrice: dec("45")},
		{Product: "Keycaps", Quantity: 4, UnitPrice: dec("2.25")},
	}

	q, err := f.svc.UpdateQuotation(f.ctx, f.tenant, q.ID, UpdateQuotationInput{Notes: &notes, Items: &items})
	require.NoError(t, err)
	assert.Equal(t, notes, q.Notes)
	assert.Len(t, q.Items, 2)
	requireDecimal(t, "54", q.TotalAmount, "total_amount")
}

func TestDeleteQuotation(t *testing.T) {
	f := newFixture(t)
	draft := f.repairQuotation(t)
	require.NoError(t, f.svc.DeleteQuotation(f.ctx, f.tenant, draft.ID))
	_, err := f.svc.GetQuotation(f.ctx, f.tenant, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	accepted := f.repairQuotation(t)
	f.moveQuotation(t, accepted.ID, models.QuotationSent, models.QuotationAccepted)
	err = f.svc.DeleteQuotation(f.ctx, f.tenant, accepted.ID)
	assert.ErrorIs(t, err, ErrPreconditionFailed, "a quotation with a repair is kept")
}

func TestDeleteInvoicedQuotationIsRefused(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.CreateQuotation(f.ctx, f.tenant, CreateQuotationInput{
		Customer: &CustomerInput{Contact: "+1 650-253-0002"},
		Items:    []LineInput{{Product: "Mouse", Quantity: 1, UnitPrice: dec("20")}},
	})
	require.NoError(t, err)
	f.moveQuotation(t, q.ID, models.QuotationSent, models.QuotationAccepted)
	_, err = f.svc.CreateInvoice(f.ctx, f.tenant, CreateInvoiceInput{SourceType: models.SourceQuotation, SourceID: &q.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteQuotation(f.ctx, f.tenant, q.ID), ErrPreconditionFailed)
}
