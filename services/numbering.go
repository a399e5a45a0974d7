package services

import (
	"context"
	"fmt"

	"werkstatt-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NextSerial issues the next serial of family for tenant in its own transaction.
// Document creation calls nextSerial inside the creating transaction instead.
func (s *Service) NextSerial(ctx context.Context, tenantID string, family models.Family) (int64, error) {
	var serial int64
	err := s.inTx(ctx, "NextSerial", tenantID, func(tx *gorm.DB) error {
		var err error
		serial, err = s.nextSerial(tx, tenantID, family)
		return err
	})
	return serial, err
}

// nextSerial locks the (tenant, family) sequence row until the caller's transaction ends,
// so concurrent creators queue here and a rolled-back transaction consumes nothing.
// The serial is the larger of the counter and the family table's MAX(serial), plus one.
func (s *Service) nextSerial(tx *gorm.DB, tenantID string, family models.Family) (int64, error) {
	if !family.Valid() {
		return 0, fmt.Errorf("unknown document family %q", family)
	}

	seed := models.DocumentSequence{TenantID: tenantID, Family: family}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("seed %s sequence: %w", family, err)
	}

	var seq models.DocumentSequence
	if err := forUpdate(tx).
		Where("tenant_id = ? AND family = ?", tenantID, family).
		First(&seq).Error; err != nil {
		return 0, fmt.Errorf("lock %s sequence: %w", family, err)
	}

	var maxSerial int64
	if err := tx.Table(family.Table()).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(serial), 0)").
		Row().Scan(&maxSerial); err != nil {
		return 0, fmt.Errorf("read %s max serial: %w", family, err)
	}

	next := max(seq.LastSerial, maxSerial) + 1
	if err := tx.Model(&seq).Update("last_serial", next).Error; err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", family, err)
	}
	return next, nil
}
