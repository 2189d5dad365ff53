package models

import (
	"github.com/google/uuid"
)

// VendorProfile holds business metadata for a vendor account. Exactly one
// per account; removed together with the account.
type VendorProfile struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	BusinessName string    `json:"business_name"`
	ContactName  string    `json:"contact_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	FoodTypes    string    `json:"food_types"`
	Description  string    `json:"description"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
}

// SupplierProfile holds business metadata for a supplier account.
type SupplierProfile struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	BusinessName string    `json:"business_name"`
	ContactName  string    `json:"contact_name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	Categories   string    `json:"categories"`
	PaymentTerms string    `json:"payment_terms"`
	Description  string    `json:"description"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
}
