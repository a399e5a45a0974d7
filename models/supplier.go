package models

// Supplier and Technician are master data maintained elsewhere; this service only reads them.
type Supplier struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	TenantID    string `json:"-" gorm:"size:64;not null;index"`
	CompanyName string `json:"company_name" gorm:"not null"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type Technician struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID string `json:"-" gorm:"size:64;not null;index"`
	Name     string `json:"name" gorm:"not null"`
	Phone    string `json:"phone"`
	Active   bool   `json:"active" gorm:"not null;default:true"`
}
