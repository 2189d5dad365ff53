package models

import (
	"github.com/google/uuid"
)

// Rating ties one rater to one catalog supplier. The composite unique index
// enforces at most one record per (supplier, user) pair; repeat submissions
// update in place.
type Rating struct {
	BaseModel
	SupplierID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_ratings_supplier_user" json:"supplier_id"`
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_ratings_supplier_user" json:"user_id"`
	UserName   string    `json:"user_name"`
	Score      int       `json:"score"`
	Review     string    `json:"review"`
}
