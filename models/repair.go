package models

import (
	"database/sql/driver"
	"time"
)

type RepairStatus string

const (
	RepairPending    RepairStatus = "Pending"
	RepairInProgress RepairStatus = "In Progress"
	RepairCompleted  RepairStatus = "Completed"
	RepairDelivered  RepairStatus = "Delivered"
	RepairCancelled  RepairStatus = "Cancelled"
)

var repairTransitions = transitions[RepairStatus]{
	RepairPending:    {RepairInProgress, RepairCancelled},
	RepairInProgress: {RepairCompleted, RepairCancelled},
	RepairCompleted:  {RepairDelivered},
	RepairDelivered:  {},
	RepairCancelled:  {},
}

func (s RepairStatus) Valid() bool { return repairTransitions.known(s) }

func (s RepairStatus) CanTransitionTo(next RepairStatus) bool {
	return repairTransitions.allows(s, next)
}

func (s RepairStatus) Value() (driver.Value, error) {
	return statusValue(repairTransitions, "repair", s)
}

func (s *RepairStatus) Scan(src any) error {
	return scanStatus(repairTransitions, "repair", s, src)
}

// Repair is the work order spawned by an accepted repair quotation. Never deleted.
type Repair struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	TenantID     string       `json:"-" gorm:"size:64;not null;index;uniqueIndex:idx_repairs_tenant_serial,priority:1;uniqueIndex:idx_repairs_tenant_code,priority:1"`
	Serial       int64        `json:"serial" gorm:"not null;uniqueIndex:idx_repairs_tenant_serial,priority:2"`
	Code         string       `json:"code" gorm:"size:32;not null;uniqueIndex:idx_repairs_tenant_code,priority:2"`
	QuotationID  uint         `json:"quotation_id" gorm:"not null;uniqueIndex"`
	Quotation    *Quotation   `json:"quotation,omitempty" gorm:"foreignKey:QuotationID"`
	InquiryID    uint         `json:"inquiry_id" gorm:"not null;index"`
	CustomerID   uint         `json:"customer_id" gorm:"not null;index"`
	TechnicianID *uint        `json:"technician_id" gorm:"index"`
	Status       RepairStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (r *Repair) Transition(to RepairStatus) error {
	if err := repairTransitions.check("repair", r.Status, to); err != nil {
		return err
	}
	r.Status = to
	return nil
}
