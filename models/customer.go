package models

import "time"

// Customer is resolved by contact; one row per (tenant, contact).
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  string    `json:"-" gorm:"size:64;not null;uniqueIndex:idx_customers_tenant_contact,priority:1"`
	Name      string    `json:"name" gorm:"not null"`
	Contact   string    `json:"contact" gorm:"size:64;not null;uniqueIndex:idx_customers_tenant_contact,priority:2"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot freezes the customer's billing identity.
func (c Customer) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{Name: c.Name, Contact: c.Contact, Email: c.Email, Address: c.Address}
}
