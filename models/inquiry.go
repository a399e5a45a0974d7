package models

import (
	"database/sql/driver"
	"time"
)

type InquiryStatus string

const (
	InquiryPending            InquiryStatus = "Pending"
	InquiryTechnicianAssigned InquiryStatus = "Technician Assigned"
	InquiryDone               InquiryStatus = "Done"
	InquiryCancelled          InquiryStatus = "Cancelled"
)

var inquiryTransitions = transitions[InquiryStatus]{
	InquiryPending:            {InquiryTechnicianAssigned, InquiryCancelled},
	InquiryTechnicianAssigned: {InquiryDone, InquiryCancelled},
	InquiryDone:               {},
	InquiryCancelled:          {},
}

func (s InquiryStatus) Valid() bool { return inquiryTransitions.known(s) }

func (s InquiryStatus) CanTransitionTo(next InquiryStatus) bool {
	return inquiryTransitions.allows(s, next)
}

func (s InquiryStatus) Value() (driver.Value, error) {
	return statusValue(inquiryTransitions, "inquiry", s)
}

func (s *InquiryStatus) Scan(src any) error {
	return scanStatus(inquiryTransitions, "inquiry", s, src)
}

// Inquiry is the intake record of a customer's device problem.
type Inquiry struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	TenantID     string        `json:"-" gorm:"size:64;not null;index;uniqueIndex:idx_inquiries_tenant_serial,priority:1;uniqueIndex:idx_inquiries_tenant_code,priority:1"`
	Serial       int64         `json:"serial" gorm:"not null;uniqueIndex:idx_inquiries_tenant_serial,priority:2"`
	Code         string        `json:"code" gorm:"size:32;not null;uniqueIndex:idx_inquiries_tenant_code,priority:2"`
	CustomerID   uint          `json:"customer_id" gorm:"not null;index"`
	Customer     *Customer     `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	TechnicianID *uint         `json:"technician_id" gorm:"index"`
	Technician   *Technician   `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	Status       InquiryStatus `json:"status" gorm:"type:varchar(32);not null;index"`
	Notes        string        `json:"notes"`
	Items        []InquiryItem `json:"items" gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Transition validates the edge and applies it in memory.
func (i *Inquiry) Transition(to InquiryStatus) error {
	if err := inquiryTransitions.check("inquiry", i.Status, to); err != nil {
		return err
	}
	i.Status = to
	return nil
}

type InquiryItem struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	InquiryID          uint   `json:"-" gorm:"index"`
	ProductName        string `json:"product_name" gorm:"not null"`
	ProblemDescription string `json:"problem_description"`
	Accessories        string `json:"accessories"`
}

// AssignTechnician moves a pending inquiry to Technician Assigned.
func (i *Inquiry) AssignTechnician(technicianID uint) error {
	if err := i.Transition(InquiryTechnicianAssigned); err != nil {
		return err
	}
	i.TechnicianID = &technicianID
	return nil
}

// ReassignTechnician swaps the technician without changing status.
func (i *Inquiry) ReassignTechnician(technicianID uint) error {
	if i.Status != InquiryTechnicianAssigned {
		return &TransitionError{Entity: "inquiry", Current: string(i.Status), Target: string(InquiryTechnicianAssigned)}
	}
	i.TechnicianID = &technicianID
	return nil
}
