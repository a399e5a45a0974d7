package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an amount recorded against an issued invoice. Deleting one reverses it.
type Payment struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	TenantID  string          `json:"-" gorm:"size:64;not null;index"`
	InvoiceID uint            `json:"invoice_id" gorm:"not null;index:idx_payments_invoice_paid_at,priority:1"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Method    string          `json:"method" gorm:"size:32"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
	PaidAt    time.Time       `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time       `json:"created_at"`
}
