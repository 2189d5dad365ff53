package models

import (
	"github.com/google/uuid"
)

// Unit is the measurement unit a product is sold in.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitGram  Unit = "g"
	UnitLiter Unit = "l"
	UnitMl    Unit = "ml"
	UnitPiece Unit = "piece"
	UnitDozen Unit = "dozen"
	UnitPack  Unit = "pack"
)

// ParseUnit validates a raw unit string against the closed set.
func ParseUnit(value string) (Unit, bool) {
	switch Unit(value) {
	case UnitKg, UnitGram, UnitLiter, UnitMl, UnitPiece, UnitDozen, UnitPack:
		return Unit(value), true
	}
	return "", false
}

// Product is a sellable item owned by a supplier account.
type Product struct {
	BaseModel
	SupplierID  uuid.UUID `gorm:"type:uuid;index" json:"supplier_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Unit        Unit      `json:"unit"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Available   bool      `json:"available"`
	Image       string    `json:"image"`
}
