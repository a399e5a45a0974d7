package services

import (
	"context"
	"errors"

	"werkstatt-backend/models"
	"werkstatt-backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerInput identifies a customer by contact; the other fields are used only on creation.
type CustomerInput struct {
	Name    string `json:"name" validate:"max=255"`
	Contact string `json:"contact" validate:"required,max=64"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// resolveCustomer returns the tenant's customer with the normalised contact, creating it when absent.
func (s *Service) resolveCustomer(tx *gorm.DB, tenantID string, in CustomerInput) (*models.Customer, error) {
	utils.NormalizeDTO(&in)
	contact := utils.NormalizeContact(in.Contact, s.region)
	if contact == "" {
		return nil, validationf("customer contact is required")
	}
	name := in.Name
	if name == "" {
		name = contact
	}

	candidate := models.Customer{
		TenantID: tenantID,
		Name:     name,
		Contact:  contact,
		Email:    in.Email,
		Address:  in.Address,
	}
	// a concurrent resolver may insert the same contact first; its row wins
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, err
	}

	var cust models.Customer
	if err := tx.Scopes(ofTenant(tenantID)).Where("contact = ?", contact).First(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

func (s *Service) ListCustomers(ctx context.Context, tenantID string, opts ListOptions) ([]models.Customer, error) {
	var out []models.Customer
	err := s.inTx(ctx, "ListCustomers", tenantID, func(tx *gorm.DB) error {
		opts.Status = ""
		return opts.page(tx.Scopes(ofTenant(tenantID))).Find(&out).Error
	})
	return out, err
}

func (s *Service) GetCustomer(ctx context.Context, tenantID string, id uint) (*models.Customer, error) {
	var cust models.Customer
	err := s.inTx(ctx, "GetCustomer", tenantID, func(tx *gorm.DB) error {
		return findRow(tx, tenantID, &cust, id, "customer")
	})
	if err != nil {
		return nil, err
	}
	return &cust, nil
}

func requireTechnician(tx *gorm.DB, tenantID string, id uint) error {
	var tech models.Technician
	err := tx.Scopes(ofTenant(tenantID)).Select("id").First(&tech, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("technician")
	}
	return err
}

func (s *Service) ListSuppliers(ctx context.Context, tenantID string, opts ListOptions) ([]models.Supplier, error) {
	var out []models.Supplier
	err := s.inTx(ctx, "ListSuppliers", tenantID, func(tx *gorm.DB) error {
		opts.Status = ""
		return opts.page(tx.Scopes(ofTenant(tenantID))).Find(&out).Error
	})
	return out, err
}

// ListTechnicians returns the tenant's technicians; activeOnly hides deactivated ones.
func (s *Service) ListTechnicians(ctx context.Context, tenantID string, activeOnly bool) ([]models.Technician, error) {
	var out []models.Technician
	err := s.inTx(ctx, "ListTechnicians", tenantID, func(tx *gorm.DB) error {
		db := tx.Scopes(ofTenant(tenantID), orderByID)
		if activeOnly {
			db = db.Where("active = ?", true)
		}
		return db.Find(&out).Error
	})
	return out, err
}
