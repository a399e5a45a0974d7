package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceIssued        InvoiceStatus = "ISSUED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
)

// PARTIALLY_PAID and PAID have no requestable edges; only the payment ledger moves into or out of them.
var invoiceTransitions = transitions[InvoiceStatus]{
	InvoiceDraft:         {InvoiceIssued, InvoiceCancelled},
	InvoiceIssued:        {InvoiceDraft, InvoiceCancelled},
	InvoicePartiallyPaid: {},
	InvoicePaid:          {},
	InvoiceCancelled:     {},
}

func (s InvoiceStatus) Valid() bool { return invoiceTransitions.known(s) }

func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return invoiceTransitions.allows(s, next)
}

// AcceptsPayments is false for DRAFT, CANCELLED and PAID.
func (s InvoiceStatus) AcceptsPayments() bool {
	return s == InvoiceIssued || s == InvoicePartiallyPaid
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return statusValue(invoiceTransitions, "invoice", s)
}

func (s *InvoiceStatus) Scan(src any) error {
	return scanStatus(invoiceTransitions, "invoice", s, src)
}

type InvoiceSource string

const (
	SourceDirect    InvoiceSource = "DIRECT"
	SourceQuotation InvoiceSource = "QUOTATION"
	SourceRepair    InvoiceSource = "REPAIR"
)

func (s InvoiceSource) Valid() bool {
	switch s {
	case SourceDirect, SourceQuotation, SourceRepair:
		return true
	}
	return false
}

// CustomerSnapshot is the bill-to / ship-to party frozen at invoice creation.
type CustomerSnapshot struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Invoice holds the payment ledger: subtotal = grand_total = Σ line totals,
// amount_due = grand_total - amount_paid.
type Invoice struct {
	ID          uint                                 `json:"id" gorm:"primaryKey"`
	TenantID    string                               `json:"-" gorm:"size:64;not null;index;uniqueIndex:idx_invoices_tenant_serial,priority:1;uniqueIndex:idx_invoices_tenant_code,priority:1"`
	Serial      int64                                `json:"serial" gorm:"not null;uniqueIndex:idx_invoices_tenant_serial,priority:2"`
	Code        string                               `json:"code" gorm:"size:32;not null;uniqueIndex:idx_invoices_tenant_code,priority:2"`
	InvoiceDate time.Time                            `json:"invoice_date" gorm:"not null"`
	SourceType  InvoiceSource                        `json:"source_type" gorm:"type:varchar(16);not null;index:idx_invoices_source,priority:1"`
	SourceID    *uint                                `json:"source_id" gorm:"index:idx_invoices_source,priority:2"`
	CustomerID  uint                                 `json:"customer_id" gorm:"not null;index"`
	Customer    *Customer                            `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	BillTo      datatypes.JSONType[CustomerSnapshot] `json:"bill_to"`
	ShipTo      datatypes.JSONType[CustomerSnapshot] `json:"ship_to"`
	Notes       string                               `json:"notes"`
	Subtotal    decimal.Decimal                      `json:"subtotal" gorm:"type:numeric(12,2);not null;default:0"`
	GrandTotal  decimal.Decimal                      `json:"grand_total" gorm:"type:numeric(12,2);not null;default:0"`
	AmountPaid  decimal.Decimal                      `json:"amount_paid" gorm:"type:numeric(12,2);not null;default:0"`
	AmountDue   decimal.Decimal                      `json:"amount_due" gorm:"type:numeric(12,2);not null;default:0"`
	Status      InvoiceStatus                        `json:"status" gorm:"type:varchar(32);not null;index"`
	Items       []InvoiceItem                        `json:"items" gorm:"foreignKey:InvoiceID"`
	Payments    []Payment                            `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
	CreatedAt   time.Time                            `json:"created_at"`
	UpdatedAt   time.Time                            `json:"updated_at"`
}

// Transition covers requested status changes only.
func (inv *Invoice) Transition(to InvoiceStatus) error {
	if err := invoiceTransitions.check("invoice", inv.Status, to); err != nil {
		return err
	}
	inv.Status = to
	return nil
}

// Editable is true only for DIRECT invoices still in DRAFT.
func (inv *Invoice) Editable() bool {
	return inv.SourceType == SourceDirect && inv.Status == InvoiceDraft
}

type InvoiceItem struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	InvoiceID   uint             `json:"-" gorm:"index"`
	Product     string           `json:"product" gorm:"not null"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal  `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal  `json:"line_total" gorm:"type:numeric(12,2);not null"`
	SupplierID  *uint            `json:"supplier_id" gorm:"index"`
	CostPrice   *decimal.Decimal `json:"cost_price" gorm:"type:numeric(12,2)"`
	DeletedAt   gorm.DeletedAt   `json:"-" gorm:"index"`
}
