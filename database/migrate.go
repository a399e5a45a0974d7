package database

import (
	"fmt"

	"werkstatt-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - on postgres: CHECK constraints backing the ledger invariants
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Customer{},
			&models.Technician{},
			&models.Supplier{},
			&models.Inquiry{},
			&models.InquiryItem{},
			&models.Quotation{},
			&models.QuotationItem{},
			&models.Repair{},
			&models.Invoice{},
			&models.InvoiceItem{},
			&models.Payment{},
			&models.DocumentSequence{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		if tx.Dialector.Name() != "postgres" {
			return nil
		}

		checks := []struct{ table, name, expr string }{
			{"payments", "chk_payments_amount_pos", "amount > 0"},
			{"invoice_items", "chk_invoice_items_quantity_pos", "quantity > 0"},
			{"invoice_items", "chk_invoice_items_unit_price_nonneg", "unit_price >= 0"},
			{"quotation_items", "chk_quotation_items_quantity_pos", "quantity > 0"},
			{"quotation_items", "chk_quotation_items_unit_price_nonneg", "unit_price >= 0"},
			{"invoices", "chk_invoices_paid_range", "amount_paid >= 0 AND amount_paid <= grand_total"},
			{"invoices", "chk_invoices_due", "amount_due = grand_total - amount_paid"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, c.table, c.name, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on %s: %w", c.name, err)
			}
		}
		return nil
	})
}
