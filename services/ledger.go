package services

import (
	"fmt"
	"strings"

	"werkstatt-backend/models"
	"werkstatt-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineInput is one quotation or invoice line as submitted by a client.
type LineInput struct {
	Product     string           `json:"product" validate:"required,max=255"`
	Description string           `json:"description"`
	Warranty    string           `json:"warranty"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	SupplierID  *uint            `json:"supplier_id"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
}

func (l *LineInput) validate(i int) error {
	utils.NormalizeDTO(l)
	switch {
	case strings.TrimSpace(l.Product) == "":
		return validationf("items[%d]: product is required", i)
	case l.Quantity <= 0:
		return validationf("items[%d]: quantity must be positive", i)
	case l.UnitPrice.IsNegative():
		return validationf("items[%d]: unit_price must not be negative", i)
	case l.CostPrice != nil && l.CostPrice.IsNegative():
		return validationf("items[%d]: cost_price must not be negative", i)
	}
	return nil
}

func validateLines(lines []LineInput) error {
	for i := range lines {
		if err := lines[i].validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (l LineInput) quotationItem(quotationID uint) models.QuotationItem {
	return models.QuotationItem{
		QuotationID: quotationID,
		Product:     l.Product,
		Description: l.Description,
		Warranty:    l.Warranty,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		LineTotal:   utils.LineTotal(l.Quantity, l.UnitPrice),
	}
}

func (l LineInput) invoiceItem(invoiceID uint) models.InvoiceItem {
	item := models.InvoiceItem{
		InvoiceID:   invoiceID,
		Product:     l.Product,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		LineTotal:   utils.LineTotal(l.Quantity, l.UnitPrice),
		SupplierID:  l.SupplierID,
	}
	if l.CostPrice != nil {
		cost := utils.Round2(*l.CostPrice)
		item.CostPrice = &cost
	}
	return item
}

func invoiceItemFromQuotation(qi models.QuotationItem) models.InvoiceItem {
	desc := qi.Description
	if qi.Warranty != "" {
		desc = strings.TrimSpace(desc + " (warranty: " + qi.Warranty + ")")
	}
	return models.InvoiceItem{
		Product:     qi.Product,
		Description: desc,
		Quantity:    qi.Quantity,
		UnitPrice:   qi.UnitPrice,
		LineTotal:   utils.LineTotal(qi.Quantity, qi.UnitPrice),
	}
}

// paymentStatus derives the ledger status from the amount paid. It is the single rule used
// after adding and after deleting payments, so replaying the payment set gives the same result.
func paymentStatus(paid, grandTotal decimal.Decimal) models.InvoiceStatus {
	switch {
	case paid.Sign() <= 0:
		return models.InvoiceIssued
	case paid.GreaterThanOrEqual(grandTotal):
		return models.InvoicePaid
	default:
		return models.InvoicePartiallyPaid
	}
}

// applyTotals sets subtotal, grand_total and amount_due for a new grand total, keeping amount_paid.
func applyTotals(inv *models.Invoice, grandTotal decimal.Decimal) error {
	grandTotal = utils.Round2(grandTotal)
	if grandTotal.LessThan(inv.AmountPaid) {
		return preconditionf("grand total %s would fall below amount paid %s",
			grandTotal.StringFixed(2), inv.AmountPaid.StringFixed(2))
	}
	inv.Subtotal = grandTotal
	inv.GrandTotal = grandTotal
	inv.AmountDue = grandTotal.Sub(inv.AmountPaid)
	return nil
}

func applyPaid(inv *models.Invoice, paid decimal.Decimal) {
	inv.AmountPaid = utils.Round2(paid)
	inv.AmountDue = inv.GrandTotal.Sub(inv.AmountPaid)
	inv.Status = paymentStatus(inv.AmountPaid, inv.GrandTotal)
}

func sumColumn(tx *gorm.DB, model any, column, where string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(model).
		Where(where, args...).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", column)).
		Row().Scan(&total)
	return utils.Round2(total), err
}

func saveLedger(tx *gorm.DB, inv *models.Invoice) error {
	return tx.Model(inv).Updates(map[string]any{
		"subtotal":    inv.Subtotal,
		"grand_total": inv.GrandTotal,
		"amount_paid": inv.AmountPaid,
		"amount_due":  inv.AmountDue,
		"status":      inv.Status,
	}).Error
}
