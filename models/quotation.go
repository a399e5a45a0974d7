package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

type QuotationStatus string

const (
	QuotationDraft     QuotationStatus = "Draft"
	QuotationSent      QuotationStatus = "Sent"
	QuotationAccepted  QuotationStatus = "Accepted"
	QuotationRejected  QuotationStatus = "Rejected"
	QuotationCancelled QuotationStatus = "Cancelled"
)

var quotationTransitions = transitions[QuotationStatus]{
	QuotationDraft:     {QuotationSent, QuotationCancelled},
	QuotationSent:      {QuotationAccepted, QuotationRejected, QuotationCancelled},
	QuotationRejected:  {QuotationSent, QuotationCancelled},
	QuotationAccepted:  {},
	QuotationCancelled: {},
}

func (s QuotationStatus) Valid() bool { return quotationTransitions.known(s) }

func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	return quotationTransitions.allows(s, next)
}

// Editable reports whether notes and items may change in this status.
func (s QuotationStatus) Editable() bool {
	return s == QuotationDraft || s == QuotationRejected
}

func (s QuotationStatus) Value() (driver.Value, error) {
	return statusValue(quotationTransitions, "quotation", s)
}

func (s *QuotationStatus) Scan(src any) error {
	return scanStatus(quotationTransitions, "quotation", s, src)
}

type QuotationType string

const (
	QuotationTypeRepair QuotationType = "Repair"
	QuotationTypeNormal QuotationType = "Normal"
)

type Quotation struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TenantID    string          `json:"-" gorm:"size:64;not null;index;uniqueIndex:idx_quotations_tenant_serial,priority:1;uniqueIndex:idx_quotations_tenant_code,priority:1"`
	Serial      int64           `json:"serial" gorm:"not null;uniqueIndex:idx_quotations_tenant_serial,priority:2"`
	Code        string          `json:"code" gorm:"size:32;not null;uniqueIndex:idx_quotations_tenant_code,priority:2"`
	CustomerID  uint            `json:"customer_id" gorm:"not null;index"`
	Customer    *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	InquiryID   *uint           `json:"inquiry_id" gorm:"index"`
	Type        QuotationType   `json:"type" gorm:"type:varchar(16);not null"`
	Status      QuotationStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Notes       string          `json:"notes"`
	Items       []QuotationItem `json:"items" gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type QuotationItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	QuotationID uint            `json:"-" gorm:"index"`
	Product     string          `json:"product" gorm:"not null"`
	Description string          `json:"description"`
	Warranty    string          `json:"warranty"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric(12,2);not null"`
}

// CreateRepair asks the caller to open the repair job for an accepted repair quotation.
type CreateRepair struct {
	QuotationID  uint
	InquiryID    uint
	CustomerID   uint
	TechnicianID *uint
}

// QuotationTransition is the outcome of a legal status change: the new status plus
// the side effects that must commit in the same transaction.
type QuotationTransition struct {
	From         QuotationStatus
	To           QuotationStatus
	CreateRepair *CreateRepair
}

// Transition applies the edge to q and returns the side effects it implies.
// technicianID is the technician of the originating inquiry, if any.
func (q *Quotation) Transition(to QuotationStatus, technicianID *uint) (QuotationTransition, error) {
	if err := quotationTransitions.check("quotation", q.Status, to); err != nil {
		return QuotationTransition{}, err
	}
	out := QuotationTransition{From: q.Status, To: to}
	if to == QuotationAccepted && q.Type == QuotationTypeRepair && q.InquiryID != nil {
		out.CreateRepair = &CreateRepair{
			QuotationID:  q.ID,
			InquiryID:    *q.InquiryID,
			CustomerID:   q.CustomerID,
			TechnicianID: technicianID,
		}
	}
	q.Status = to
	return out, nil
}
