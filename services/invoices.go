package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"werkstatt-backend/models"
	"werkstatt-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateInvoiceInput struct {
	SourceType  models.InvoiceSource     `json:"source_type" validate:"required"`
	SourceID    *uint                    `json:"source_id"`
	Customer    *CustomerInput           `json:"customer"`
	Items       []LineInput              `json:"items" validate:"dive"`
	InvoiceDate *time.Time               `json:"invoice_date"`
	Notes       string                   `json:"notes"`
	BillTo      *models.CustomerSnapshot `json:"bill_to"`
	ShipTo      *models.CustomerSnapshot `json:"ship_to"`
}

// InvoiceHeaderPatch holds the plain header columns; nil fields are left unchanged.
// The code keeps the month and year it was rendered with at creation, whatever invoice_date becomes later.
type InvoiceHeaderPatch struct {
	InvoiceDate *time.Time `json:"invoice_date"`
	Notes       *string    `json:"notes"`
}

type UpdateInvoiceInput struct {
	InvoiceHeaderPatch
	BillTo *models.CustomerSnapshot `json:"bill_to"`
	ShipTo *models.CustomerSnapshot `json:"ship_to"`
	Items  *[]LineInput             `json:"items"`
}

func (s *Service) CreateInvoice(ctx context.Context, tenantID string, in CreateInvoiceInput) (*models.Invoice, error) {
	if !in.SourceType.Valid() {
		return nil, validationf("unknown source_type %q", in.SourceType)
	}
	if in.SourceType == models.SourceDirect {
		if len(in.Items) == 0 {
			return nil, validationf("a direct invoice needs at least one item")
		}
		if in.Customer == nil || strings.TrimSpace(in.Customer.Contact) == "" {
			return nil, validationf("a direct invoice needs a customer contact")
		}
		if err := validateLines(in.Items); err != nil {
			return nil, err
		}
	} else if in.SourceID == nil {
		return nil, validationf("source_id is required for %s invoices", in.SourceType)
	}

	var id uint
	err := s.inTx(ctx, "CreateInvoice", tenantID, func(tx *gorm.DB) error {
		var (
			customer *models.Customer
			items    []models.InvoiceItem
			err      error
		)
		switch in.SourceType {
		case models.SourceDirect:
			customer, err = s.resolveCustomer(tx, tenantID, *in.Customer)
			if err != nil {
				return err
			}
			for _, l := range in.Items {
				items = append(items, l.invoiceItem(0))
			}
		case models.SourceQuotation:
			q, err := acceptedQuotation(tx, tenantID, *in.SourceID)
			if err != nil {
				return err
			}
			if err := requireWorkNotInvoiced(tx, tenantID, q); err != nil {
				return err
			}
			customer, items, err = quotationBilling(tx, tenantID, q)
			if err != nil {
				return err
			}
		case models.SourceRepair:
			var r models.Repair
			if err := findRow(tx, tenantID, &r, *in.SourceID, "repair"); err != nil {
				return err
			}
			if r.Status != models.RepairCompleted {
				return preconditionf("repair %s is %s, expected %s", r.Code, r.Status, models.RepairCompleted)
			}
			q, err := acceptedQuotation(tx, tenantID, r.QuotationID)
			if errors.Is(err, ErrNotFound) {
				return preconditionf("repair %s has no quotation", r.Code)
			}
			if err != nil {
				return err
			}
			if err := requireWorkNotInvoiced(tx, tenantID, q); err != nil {
				return err
			}
			customer, items, err = quotationBilling(tx, tenantID, q)
			if err != nil {
				return err
			}
		}

		invoiceDate := s.now()
		if in.InvoiceDate != nil && !in.InvoiceDate.IsZero() {
			invoiceDate = *in.InvoiceDate
		}
		serial, err := s.nextSerial(tx, tenantID, models.FamilyInvoice)
		if err != nil {
			return err
		}

		billTo := customer.Snapshot()
		if in.BillTo != nil {
			billTo = *in.BillTo
		}
		shipTo := billTo
		if in.ShipTo != nil {
			shipTo = *in.ShipTo
		}

		lineTotals := make([]decimal.Decimal, 0, len(items))
		for _, it := range items {
			lineTotals = append(lineTotals, it.LineTotal)
		}

		inv := models.Invoice{
			TenantID:    tenantID,
			Serial:      serial,
			Code:        models.FamilyInvoice.Render(serial, invoiceDate),
			InvoiceDate: invoiceDate,
			SourceType:  in.SourceType,
			CustomerID:  customer.ID,
			BillTo:      datatypes.NewJSONType(billTo),
			ShipTo:      datatypes.NewJSONType(shipTo),
			Notes:       strings.TrimSpace(in.Notes),
			AmountPaid:  decimal.Zero,
			Status:      models.InvoiceDraft,
			Items:       items,
		}
		if in.SourceType != models.SourceDirect {
			inv.SourceID = in.SourceID
		}
		if err := applyTotals(&inv, utils.Sum(lineTotals...)); err != nil {
			return err
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		id = inv.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, tenantID, id)
}

func acceptedQuotation(tx *gorm.DB, tenantID string, id uint) (*models.Quotation, error) {
	var q models.Quotation
	if err := findRow(tx.Preload("Items", orderByID), tenantID, &q, id, "quotation"); err != nil {
		return nil, err
	}
	if q.Status != models.QuotationAccepted {
		return nil, preconditionf("quotation %s is %s, expected %s", q.Code, q.Status, models.QuotationAccepted)
	}
	return &q, nil
}

func quotationBilling(tx *gorm.DB, tenantID string, q *models.Quotation) (*models.Customer, []models.InvoiceItem, error) {
	var cust models.Customer
	if err := findRow(tx, tenantID, &cust, q.CustomerID, "customer"); err != nil {
		return nil, nil, err
	}
	items := make([]models.InvoiceItem, 0, len(q.Items))
	for _, qi := range q.Items {
		items = append(items, invoiceItemFromQuotation(qi))
	}
	return &cust, items, nil
}

// requireWorkNotInvoiced allows one live invoice for the work priced by q: a repair quotation may be
// billed either directly or through the repair it opened, never both.
func requireWorkNotInvoiced(tx *gorm.DB, tenantID string, q *models.Quotation) error {
	if err := requireNotInvoiced(tx, tenantID, models.SourceQuotation, q.ID, q.Code); err != nil {
		return err
	}
	if q.Type != models.QuotationTypeRepair {
		return nil
	}
	var r models.Repair
	err := tx.Scopes(ofTenant(tenantID)).Select("id", "code").Where("quotation_id = ?", q.ID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return requireNotInvoiced(tx, tenantID, models.SourceRepair, r.ID, q.Code)
}

// requireNotInvoiced allows one live invoice per source document; cancelled invoices do not count.
func requireNotInvoiced(tx *gorm.DB, tenantID string, source models.InvoiceSource, sourceID uint, code string) error {
	var n int64
	if err := tx.Model(&models.Invoice{}).Scopes(ofTenant(tenantID)).
		Where("source_type = ? AND source_id = ? AND status <> ?", source, sourceID, models.InvoiceCancelled).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return preconditionf("%s has already been invoiced", code)
	}
	return nil
}

// ChangeInvoiceStatus applies a requested edge; PARTIALLY_PAID and PAID are reachable only through payments.
func (s *Service) ChangeInvoiceStatus(ctx context.Context, tenantID string, id uint, to models.InvoiceStatus) (*models.Invoice, error) {
	if !to.Valid() {
		return nil, validationf("unknown invoice status %q", to)
	}
	err := s.inTx(ctx, "ChangeInvoiceStatus", tenantID, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := lockRow(tx, tenantID, &inv, id, "invoice"); err != nil {
			return err
		}
		if err := inv.Transition(to); err != nil {
			return err
		}
		// an invoice with nothing due could never reach PAID
		if to == models.InvoiceIssued && !inv.GrandTotal.IsPositive() {
			return preconditionf("invoice %s has nothing to bill", inv.Code)
		}
		return tx.Model(&inv).Update("status", inv.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, tenantID, id)
}

func (s *Service) UpdateInvoice(ctx context.Context, tenantID string, id uint, in UpdateInvoiceInput) (*models.Invoice, error) {
	if in.Items != nil {
		if len(*in.Items) == 0 {
			return nil, validationf("a direct invoice needs at least one item")
		}
		if err := validateLines(*in.Items); err != nil {
			return nil, err
		}
	}
	utils.NormalizePtrDTO(&in.InvoiceHeaderPatch)

	return s.editInvoice(ctx, "UpdateInvoice", tenantID, id, func(tx *gorm.DB, inv *models.Invoice) error {
		updates := utils.UpdatesFromPtrDTO(&in.InvoiceHeaderPatch, nil)
		if in.BillTo != nil {
			updates["bill_to"] = datatypes.NewJSONType(*in.BillTo)
		}
		if in.ShipTo != nil {
			updates["ship_to"] = datatypes.NewJSONType(*in.ShipTo)
		}
		if len(updates) > 0 {
			if err := tx.Model(inv).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Items == nil {
			return nil
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		for _, l := range *in.Items {
			item := l.invoiceItem(inv.ID)
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) AddInvoiceItem(ctx context.Context, tenantID string, id uint, line LineInput) (*models.Invoice, error) {
	if err := line.validate(0); err != nil {
		return nil, err
	}
	return s.editInvoice(ctx, "AddInvoiceItem", tenantID, id, func(tx *gorm.DB, inv *models.Invoice) error {
		item := line.invoiceItem(inv.ID)
		return tx.Create(&item).Error
	})
}

func (s *Service) UpdateInvoiceItem(ctx context.Context, tenantID string, id, itemID uint, line LineInput) (*models.Invoice, error) {
	if err := line.validate(0); err != nil {
		return nil, err
	}
	return s.editInvoice(ctx, "UpdateInvoiceItem", tenantID, id, func(tx *gorm.DB, inv *models.Invoice) error {
		item, err := invoiceItemOf(tx, inv.ID, itemID)
		if err != nil {
			return err
		}
		next := line.invoiceItem(inv.ID)
		next.ID = item.ID
		return tx.Save(&next).Error
	})
}

func (s *Service) DeleteInvoiceItem(ctx context.Context, tenantID string, id, itemID uint) (*models.Invoice, error) {
	return s.editInvoice(ctx, "DeleteInvoiceItem", tenantID, id, func(tx *gorm.DB, inv *models.Invoice) error {
		item, err := invoiceItemOf(tx, inv.ID, itemID)
		if err != nil {
			return err
		}
		var remaining int64
		if err := tx.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining <= 1 {
			return preconditionf("invoice %s must keep at least one item", inv.Code)
		}
		return tx.Delete(item).Error
	})
}

// RecalculateInvoice recomputes the ledger totals from the stored items; on unchanged
// data it is a no-op.
func (s *Service) RecalculateInvoice(ctx context.Context, tenantID string, id uint) (*models.Invoice, error) {
	err := s.inTx(ctx, "RecalculateInvoice", tenantID, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := lockRow(tx, tenantID, &inv, id, "invoice"); err != nil {
			return err
		}
		return recomputeInvoice(tx, &inv)
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, tenantID, id)
}

// editInvoice locks an editable invoice, applies edit and recomputes the ledger from the stored items.
func (s *Service) editInvoice(ctx context.Context, op, tenantID string, id uint, edit func(*gorm.DB, *models.Invoice) error) (*models.Invoice, error) {
	err := s.inTx(ctx, op, tenantID, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := lockRow(tx, tenantID, &inv, id, "invoice"); err != nil {
			return err
		}
		if !inv.Editable() {
			return preconditionf("invoice %s is a %s invoice in %s; only DIRECT invoices in DRAFT can be edited",
				inv.Code, inv.SourceType, inv.Status)
		}
		if err := edit(tx, &inv); err != nil {
			return err
		}
		return recomputeInvoice(tx, &inv)
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, tenantID, id)
}

func recomputeInvoice(tx *gorm.DB, inv *models.Invoice) error {
	total, err := sumColumn(tx, &models.InvoiceItem{}, "line_total", "invoice_id = ? AND deleted_at IS NULL", inv.ID)
	if err != nil {
		return err
	}
	if err := applyTotals(inv, total); err != nil {
		return err
	}
	return saveLedger(tx, inv)
}

func invoiceItemOf(tx *gorm.DB, invoiceID, itemID uint) (*models.InvoiceItem, error) {
	var item models.InvoiceItem
	err := tx.Where("invoice_id = ?", invoiceID).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("invoice item")
	}
	return &item, err
}

func (s *Service) GetInvoice(ctx context.Context, tenantID string, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.inTx(ctx, "GetInvoice", tenantID, func(tx *gorm.DB) error {
		db := tx.Preload("Items", orderByID).
			Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at, id") }).
			Preload("Customer")
		return findRow(db, tenantID, &inv, id, "invoice")
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, tenantID string, opts ListOptions) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.inTx(ctx, "ListInvoices", tenantID, func(tx *gorm.DB) error {
		db := tx.Scopes(ofTenant(tenantID))
		if opts.Source != "" {
			db = db.Where("source_type = ?", opts.Source)
		}
		return opts.page(db).Preload("Customer").Find(&out).Error
	})
	return out, err
}
