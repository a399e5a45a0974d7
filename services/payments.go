package services

import (
	"context"
	"strings"
	"time"

	"werkstatt-backend/models"
	"werkstatt-backend/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AddPaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=32"`
	PaidAt    *time.Time      `json:"paid_at"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// AddPayment records a payment against an ISSUED or PARTIALLY_PAID invoice and moves the
// invoice to PAID or PARTIALLY_PAID. Payments beyond amount_due are refused with ErrOverPayment.
func (s *Service) AddPayment(ctx context.Context, tenantID string, invoiceID uint, in AddPaymentInput) (*models.Payment, *models.Invoice, error) {
	utils.NormalizeDTO(&in)
	if !in.Amount.IsPositive() {
		return nil, nil, validationf("payment amount must be positive")
	}

	var pay models.Payment
	err := s.inTx(ctx, "AddPayment", tenantID, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := lockRow(tx, tenantID, &inv, invoiceID, "invoice"); err != nil {
			return err
		}
		if inv.Status == models.InvoiceDraft || inv.Status == models.InvoiceCancelled {
			return preconditionf("invoice %s is %s and does not accept payments", inv.Code, inv.Status)
		}
		// a PAID invoice has nothing due, so any further amount is reported as over-payment
		paid := inv.AmountPaid.Add(in.Amount)
		if paid.GreaterThan(inv.GrandTotal) {
			return &OverPaymentError{Attempted: in.Amount, AmountDue: inv.AmountDue}
		}
		if !inv.Status.AcceptsPayments() {
			return preconditionf("invoice %s is %s and does not accept payments", inv.Code, inv.Status)
		}

		paidAt := s.now()
		if in.PaidAt != nil && !in.PaidAt.IsZero() {
			paidAt = *in.PaidAt
		}
		pay = models.Payment{
			TenantID:  tenantID,
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			Method:    strings.ToLower(in.Method),
			Reference: in.Reference,
			Notes:     in.Notes,
			PaidAt:    paidAt,
		}
		if err := tx.Create(&pay).Error; err != nil {
			return err
		}

		applyPaid(&inv, paid)
		if err := saveLedger(tx, &inv); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"invoice":   inv.Code,
			"amount":    in.Amount.StringFixed(2),
			"status":    inv.Status,
		}).Info("payment applied")
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	inv, err := s.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return &pay, inv, nil
}

// DeletePayment reverses a payment. amount_paid is recomputed from the remaining payments,
// so the result equals replaying them from zero.
func (s *Service) DeletePayment(ctx context.Context, tenantID string, paymentID uint) (*models.Invoice, error) {
	var invoiceID uint
	err := s.inTx(ctx, "DeletePayment", tenantID, func(tx *gorm.DB) error {
		var pay models.Payment
		if err := findRow(tx, tenantID, &pay, paymentID, "payment"); err != nil {
			return err
		}
		invoiceID = pay.InvoiceID

		var inv models.Invoice
		if err := lockRow(tx, tenantID, &inv, pay.InvoiceID, "invoice"); err != nil {
			return err
		}
		if err := tx.Delete(&pay).Error; err != nil {
			return err
		}
		paid, err := sumColumn(tx, &models.Payment{}, "amount", "invoice_id = ?", inv.ID)
		if err != nil {
			return err
		}
		applyPaid(&inv, paid)
		if err := saveLedger(tx, &inv); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"invoice":   inv.Code,
			"amount":    pay.Amount.StringFixed(2),
			"status":    inv.Status,
		}).Info("payment reversed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, tenantID, invoiceID)
}

func (s *Service) ListPayments(ctx context.Context, tenantID string, invoiceID uint) ([]models.Payment, error) {
	var out []models.Payment
	err := s.inTx(ctx, "ListPayments", tenantID, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := findRow(tx.Select("id"), tenantID, &inv, invoiceID, "invoice"); err != nil {
			return err
		}
		return tx.Scopes(ofTenant(tenantID)).Where("invoice_id = ?", invoiceID).
			Order("paid_at, id").Find(&out).Error
	})
	return out, err
}
