package services

import (
	"context"
	"errors"

	"werkstatt-backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// openRepair executes the CreateRepair side effect of an accepted repair quotation.
// repairs.quotation_id is unique, so a second repair for the same quotation cannot commit.
func (s *Service) openRepair(tx *gorm.DB, tenantID string, cmd models.CreateRepair) error {
	serial, err := s.nextSerial(tx, tenantID, models.FamilyRepair)
	if err != nil {
		return err
	}
	r := models.Repair{
		TenantID:     tenantID,
		Serial:       serial,
		Code:         models.FamilyRepair.Render(serial, s.now()),
		QuotationID:  cmd.QuotationID,
		InquiryID:    cmd.InquiryID,
		CustomerID:   cmd.CustomerID,
		TechnicianID: cmd.TechnicianID,
		Status:       models.RepairPending,
	}
	if err := tx.Create(&r).Error; err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"quotation_id": cmd.QuotationID,
		"repair":       r.Code,
	}).Info("repair opened for accepted quotation")
	return nil
}

func (s *Service) ChangeRepairStatus(ctx context.Context, tenantID string, id uint, to models.RepairStatus) (*models.Repair, error) {
	if !to.Valid() {
		return nil, validationf("unknown repair status %q", to)
	}
	err := s.inTx(ctx, "ChangeRepairStatus", tenantID, func(tx *gorm.DB) error {
		var r models.Repair
		if err := lockRow(tx, tenantID, &r, id, "repair"); err != nil {
			return err
		}
		if err := r.Transition(to); err != nil {
			return err
		}
		return tx.Model(&r).Update("status", r.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetRepair(ctx, tenantID, id)
}

func (s *Service) GetRepair(ctx context.Context, tenantID string, id uint) (*models.Repair, error) {
	var r models.Repair
	err := s.inTx(ctx, "GetRepair", tenantID, func(tx *gorm.DB) error {
		return findRow(tx.Preload("Quotation.Items", orderByID), tenantID, &r, id, "repair")
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RepairForQuotation returns the repair opened by an accepted repair quotation.
func (s *Service) RepairForQuotation(ctx context.Context, tenantID string, quotationID uint) (*models.Repair, error) {
	var r models.Repair
	err := s.inTx(ctx, "RepairForQuotation", tenantID, func(tx *gorm.DB) error {
		err := tx.Scopes(ofTenant(tenantID)).Where("quotation_id = ?", quotationID).First(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("repair")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) ListRepairs(ctx context.Context, tenantID string, opts ListOptions) ([]models.Repair, error) {
	var out []models.Repair
	err := s.inTx(ctx, "ListRepairs", tenantID, func(tx *gorm.DB) error {
		return opts.page(tx.Scopes(ofTenant(tenantID))).Find(&out).Error
	})
	return out, err
}
