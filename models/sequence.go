package models

import (
	"fmt"
	"strings"
	"time"
)

// Family is a numbered document kind. Serials are independent per (tenant, family).
type Family string

const (
	FamilyInquiry   Family = "inquiry"
	FamilyQuotation Family = "quotation"
	FamilyRepair    Family = "repair"
	FamilyInvoice   Family = "invoice"
)

var familyPrefixes = map[Family]string{
	FamilyInquiry:   "INQ",
	FamilyQuotation: "QT",
	FamilyRepair:    "RP",
	FamilyInvoice:   "INV",
}

func (f Family) Prefix() string { return familyPrefixes[f] }

func (f Family) Valid() bool {
	_, ok := familyPrefixes[f]
	return ok
}

// Table is the table holding the family's serial column.
func (f Family) Table() string {
	switch f {
	case FamilyInquiry:
		return "inquiries"
	case FamilyQuotation:
		return "quotations"
	case FamilyRepair:
		return "repairs"
	case FamilyInvoice:
		return "invoices"
	}
	return ""
}

// Render formats a display code, e.g. INV-007-OCT-26. Codes are never parsed back.
func (f Family) Render(serial int64, at time.Time) string {
	return fmt.Sprintf("%s-%03d-%s-%02d", f.Prefix(), serial, strings.ToUpper(at.Format("Jan")), at.Year()%100)
}

// DocumentSequence is the per-(tenant, family) counter row; locking it serializes numbering.
type DocumentSequence struct {
	ID         uint   `gorm:"primaryKey"`
	TenantID   string `gorm:"size:64;not null;uniqueIndex:idx_document_sequences_tenant_family,priority:1"`
	Family     Family `gorm:"size:16;not null;uniqueIndex:idx_document_sequences_tenant_family,priority:2"`
	LastSerial int64  `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}
