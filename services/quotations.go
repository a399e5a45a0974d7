package services

import (
	"context"
	"errors"

	"werkstatt-backend/models"
	"werkstatt-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateQuotationInput: with InquiryID the quotation is a Repair quotation for that
// inquiry's customer; without, Customer is resolved and the quotation is Normal.
type CreateQuotationInput struct {
	InquiryID *uint          `json:"inquiry_id"`
	Customer  *CustomerInput `json:"customer"`
	Notes     string         `json:"notes"`
	Items     []LineInput    `json:"items" validate:"dive"`
}

type UpdateQuotationInput struct {
	Notes *string      `json:"notes"`
	Items *[]LineInput `json:"items"`
}

func (s *Service) CreateQuotation(ctx context.Context, tenantID string, in CreateQuotationInput) (*models.Quotation, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}
	if in.InquiryID == nil && in.Customer == nil {
		return nil, validationf("either inquiry_id or customer is required")
	}

	var id uint
	err := s.inTx(ctx, "CreateQuotation", tenantID, func(tx *gorm.DB) error {
		q := models.Quotation{
			TenantID: tenantID,
			Type:     models.QuotationTypeNormal,
			Status:   models.QuotationDraft,
			Notes:    in.Notes,
		}
		if in.InquiryID != nil {
			var inq models.Inquiry
			if err := findRow(tx, tenantID, &inq, *in.InquiryID, "inquiry"); err != nil {
				return err
			}
			if inq.Status != models.InquiryDone {
				return preconditionf("inquiry %s is %s, expected %s", inq.Code, inq.Status, models.InquiryDone)
			}
			q.InquiryID = &inq.ID
			q.CustomerID = inq.CustomerID
			q.Type = models.QuotationTypeRepair
		} else {
			cust, err := s.resolveCustomer(tx, tenantID, *in.Customer)
			if err != nil {
				return err
			}
			q.CustomerID = cust.ID
		}

		serial, err := s.nextSerial(tx, tenantID, models.FamilyQuotation)
		if err != nil {
			return err
		}
		q.Serial = serial
		q.Code = models.FamilyQuotation.Render(serial, s.now())

		totals := make([]decimal.Decimal, 0, len(in.Items))
		for _, l := range in.Items {
			item := l.quotationItem(0)
			q.Items = append(q.Items, item)
			totals = append(totals, item.LineTotal)
		}
		q.TotalAmount = utils.Sum(totals...)

		if err := tx.Create(&q).Error; err != nil {
			return err
		}
		id = q.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuotation(ctx, tenantID, id)
}

// ChangeQuotationStatus applies one edge of the quotation table. Accepting a Repair
// quotation opens its repair in the same transaction.
func (s *Service) ChangeQuotationStatus(ctx context.Context, tenantID string, id uint, to models.QuotationStatus) (*models.Quotation, error) {
	if !to.Valid() {
		return nil, validationf("unknown quotation status %q", to)
	}
	err := s.inTx(ctx, "ChangeQuotationStatus", tenantID, func(tx *gorm.DB) error {
		var q models.Quotation
		if err := lockRow(tx, tenantID, &q, id, "quotation"); err != nil {
			return err
		}

		var technicianID *uint
		if q.InquiryID != nil {
			var inq models.Inquiry
			err := findRow(tx, tenantID, &inq, *q.InquiryID, "inquiry")
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			technicianID = inq.TechnicianID
		}

		tr, err := q.Transition(to, technicianID)
		if err != nil {
			return err
		}
		if err := tx.Model(&q).Update("status", q.Status).Error; err != nil {
			return err
		}
		if tr.CreateRepair != nil {
			return s.openRepair(tx, tenantID, *tr.CreateRepair)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuotation(ctx, tenantID, id)
}

func (s *Service) UpdateQuotation(ctx context.Context, tenantID string, id uint, in UpdateQuotationInput) (*models.Quotation, error) {
	if in.Items != nil {
		if err := validateLines(*in.Items); err != nil {
			return nil, err
		}
	}
	return s.editQuotation(ctx, "UpdateQuotation", tenantID, id, func(tx *gorm.DB, q *models.Quotation) error {
		if in.Notes != nil {
			if err := tx.Model(q).Update("notes", *in.Notes).Error; err != nil {
				return err
			}
		}
		if in.Items == nil {
			return nil
		}
		if err := tx.Where("quotation_id = ?", q.ID).Delete(&models.QuotationItem{}).Error; err != nil {
			return err
		}
		for _, l := range *in.Items {
			item := l.quotationItem(q.ID)
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) AddQuotationItem(ctx context.Context, tenantID string, id uint, line LineInput) (*models.Quotation, error) {
	if err := line.validate(0); err != nil {
		return nil, err
	}
	return s.editQuotation(ctx, "AddQuotationItem", tenantID, id, func(tx *gorm.DB, q *models.Quotation) error {
		item := line.quotationItem(q.ID)
		return tx.Create(&item).Error
	})
}

func (s *Service) UpdateQuotationItem(ctx context.Context, tenantID string, id, itemID uint, line LineInput) (*models.Quotation, error) {
	if err := line.validate(0); err != nil {
		return nil, err
	}
	return s.editQuotation(ctx, "UpdateQuotationItem", tenantID, id, func(tx *gorm.DB, q *models.Quotation) error {
		item, err := quotationItemOf(tx, q.ID, itemID)
		if err != nil {
			return err
		}
		next := line.quotationItem(q.ID)
		next.ID = item.ID
		return tx.Save(&next).Error
	})
}

func (s *Service) DeleteQuotationItem(ctx context.Context, tenantID string, id, itemID uint) (*models.Quotation, error) {
	return s.editQuotation(ctx, "DeleteQuotationItem", tenantID, id, func(tx *gorm.DB, q *models.Quotation) error {
		item, err := quotationItemOf(tx, q.ID, itemID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

// editQuotation locks an editable quotation, applies edit and recomputes total_amount from the stored items.
func (s *Service) editQuotation(ctx context.Context, op, tenantID string, id uint, edit func(*gorm.DB, *models.Quotation) error) (*models.Quotation, error) {
	err := s.inTx(ctx, op, tenantID, func(tx *gorm.DB) error {
		var q models.Quotation
		if err := lockRow(tx, tenantID, &q, id, "quotation"); err != nil {
			return err
		}
		if !q.Status.Editable() {
			return preconditionf("quotation %s is %s; only Draft or Rejected quotations can be edited", q.Code, q.Status)
		}
		if err := edit(tx, &q); err != nil {
			return err
		}
		return recomputeQuotation(tx, &q)
	})
	if err != nil {
		return nil, err
	}
	return s.GetQuotation(ctx, tenantID, id)
}

func recomputeQuotation(tx *gorm.DB, q *models.Quotation) error {
	total, err := sumColumn(tx, &models.QuotationItem{}, "line_total", "quotation_id = ?", q.ID)
	if err != nil {
		return err
	}
	q.TotalAmount = total
	return tx.Model(q).Update("total_amount", total).Error
}

func quotationItemOf(tx *gorm.DB, quotationID, itemID uint) (*models.QuotationItem, error) {
	var item models.QuotationItem
	err := tx.Where("quotation_id = ?", quotationID).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("quotation item")
	}
	return &item, err
}

// DeleteQuotation removes a quotation and its items. Quotations that already produced a
// repair or an invoice are kept so those documents stay traceable.
func (s *Service) DeleteQuotation(ctx context.Context, tenantID string, id uint) error {
	return s.inTx(ctx, "DeleteQuotation", tenantID, func(tx *gorm.DB) error {
		var q models.Quotation
		if err := lockRow(tx, tenantID, &q, id, "quotation"); err != nil {
			return err
		}
		var repairs, invoices int64
		if err := tx.Model(&models.Repair{}).Scopes(ofTenant(tenantID)).
			Where("quotation_id = ?", id).Count(&repairs).Error; err != nil {
			return err
		}
		if repairs > 0 {
			return preconditionf("quotation %s has a repair", q.Code)
		}
		if err := tx.Model(&models.Invoice{}).Scopes(ofTenant(tenantID)).
			Where("source_type = ? AND source_id = ?", models.SourceQuotation, id).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return preconditionf("quotation %s has been invoiced", q.Code)
		}
		if err := tx.Where("quotation_id = ?", id).Delete(&models.QuotationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
}

func (s *Service) GetQuotation(ctx context.Context, tenantID string, id uint) (*models.Quotation, error) {
	var q models.Quotation
	err := s.inTx(ctx, "GetQuotation", tenantID, func(tx *gorm.DB) error {
		db := tx.Preload("Items", orderByID).Preload("Customer")
		return findRow(db, tenantID, &q, id, "quotation")
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Service) ListQuotations(ctx context.Context, tenantID string, opts ListOptions) ([]models.Quotation, error) {
	var out []models.Quotation
	err := s.inTx(ctx, "ListQuotations", tenantID, func(tx *gorm.DB) error {
		return opts.page(tx.Scopes(ofTenant(tenantID))).Preload("Customer").Find(&out).Error
	})
	return out, err
}
