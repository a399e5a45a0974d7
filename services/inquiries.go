package services

import (
	"context"
	"strings"

	"werkstatt-backend/models"

	"gorm.io/gorm"
)

type InquiryItemInput struct {
	ProductName        string `json:"product_name" validate:"required,max=255"`
	ProblemDescription string `json:"problem_description"`
	Accessories        string `json:"accessories"`
}

type CreateInquiryInput struct {
	Customer CustomerInput      `json:"customer"`
	Notes    string             `json:"notes"`
	Items    []InquiryItemInput `json:"items" validate:"required,min=1,dive"`
}

func (s *Service) CreateInquiry(ctx context.Context, tenantID string, in CreateInquiryInput) (*models.Inquiry, error) {
	if len(in.Items) == 0 {
		return nil, validationf("an inquiry needs at least one item")
	}
	items := make([]models.InquiryItem, 0, len(in.Items))
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductName) == "" {
			return nil, validationf("items[%d]: product_name is required", i)
		}
		items = append(items, models.InquiryItem{
			ProductName:        strings.TrimSpace(it.ProductName),
			ProblemDescription: strings.TrimSpace(it.ProblemDescription),
			Accessories:        strings.TrimSpace(it.Accessories),
		})
	}

	var id uint
	err := s.inTx(ctx, "CreateInquiry", tenantID, func(tx *gorm.DB) error {
		cust, err := s.resolveCustomer(tx, tenantID, in.Customer)
		if err != nil {
			return err
		}
		serial, err := s.nextSerial(tx, tenantID, models.FamilyInquiry)
		if err != nil {
			return err
		}
		inq := models.Inquiry{
			TenantID:   tenantID,
			Serial:     serial,
			Code:       models.FamilyInquiry.Render(serial, s.now()),
			CustomerID: cust.ID,
			Status:     models.InquiryPending,
			Notes:      strings.TrimSpace(in.Notes),
			Items:      items,
		}
		if err := tx.Create(&inq).Error; err != nil {
			return err
		}
		id = inq.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInquiry(ctx, tenantID, id)
}

func (s *Service) AssignTechnician(ctx context.Context, tenantID string, id, technicianID uint) (*models.Inquiry, error) {
	return s.changeInquiry(ctx, "AssignTechnician", tenantID, id, func(tx *gorm.DB, inq *models.Inquiry) error {
		if err := inq.AssignTechnician(technicianID); err != nil {
			return err
		}
		return requireTechnician(tx, tenantID, technicianID)
	})
}

func (s *Service) UpdateTechnician(ctx context.Context, tenantID string, id, technicianID uint) (*models.Inquiry, error) {
	return s.changeInquiry(ctx, "UpdateTechnician", tenantID, id, func(tx *gorm.DB, inq *models.Inquiry) error {
		if err := inq.ReassignTechnician(technicianID); err != nil {
			return err
		}
		return requireTechnician(tx, tenantID, technicianID)
	})
}

func (s *Service) MarkInquiryDone(ctx context.Context, tenantID string, id uint) (*models.Inquiry, error) {
	return s.changeInquiry(ctx, "MarkInquiryDone", tenantID, id, func(_ *gorm.DB, inq *models.Inquiry) error {
		return inq.Transition(models.InquiryDone)
	})
}

func (s *Service) CancelInquiry(ctx context.Context, tenantID string, id uint) (*models.Inquiry, error) {
	return s.changeInquiry(ctx, "CancelInquiry", tenantID, id, func(_ *gorm.DB, inq *models.Inquiry) error {
		return inq.Transition(models.InquiryCancelled)
	})
}

// changeInquiry locks the inquiry, lets apply mutate it and persists status and technician.
func (s *Service) changeInquiry(ctx context.Context, op, tenantID string, id uint, apply func(*gorm.DB, *models.Inquiry) error) (*models.Inquiry, error) {
	err := s.inTx(ctx, op, tenantID, func(tx *gorm.DB) error {
		var inq models.Inquiry
		if err := lockRow(tx, tenantID, &inq, id, "inquiry"); err != nil {
			return err
		}
		if err := apply(tx, &inq); err != nil {
			return err
		}
		return tx.Model(&inq).Updates(map[string]any{
			"status":        inq.Status,
			"technician_id": inq.TechnicianID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetInquiry(ctx, tenantID, id)
}

// DeleteInquiry removes the inquiry and its items unless a quotation was raised from it.
func (s *Service) DeleteInquiry(ctx context.Context, tenantID string, id uint) error {
	return s.inTx(ctx, "DeleteInquiry", tenantID, func(tx *gorm.DB) error {
		var inq models.Inquiry
		if err := lockRow(tx, tenantID, &inq, id, "inquiry"); err != nil {
			return err
		}
		var refs int64
		if err := tx.Model(&models.Quotation{}).Scopes(ofTenant(tenantID)).
			Where("inquiry_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return preconditionf("inquiry %s is referenced by %d quotation(s)", inq.Code, refs)
		}
		if err := tx.Where("inquiry_id = ?", id).Delete(&models.InquiryItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inq).Error
	})
}

func (s *Service) GetInquiry(ctx context.Context, tenantID string, id uint) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := s.inTx(ctx, "GetInquiry", tenantID, func(tx *gorm.DB) error {
		return findRow(tx.Preload("Items", orderByID).Preload("Customer").Preload("Technician"), tenantID, &inq, id, "inquiry")
	})
	if err != nil {
		return nil, err
	}
	return &inq, nil
}

func (s *Service) ListInquiries(ctx context.Context, tenantID string, opts ListOptions) ([]models.Inquiry, error) {
	var out []models.Inquiry
	err := s.inTx(ctx, "ListInquiries", tenantID, func(tx *gorm.DB) error {
		return opts.page(tx.Scopes(ofTenant(tenantID))).Preload("Customer").Find(&out).Error
	})
	return out, err
}
