package models

import (
	"github.com/google/uuid"
)

// Food is a reference catalog entry vendors browse for sourcing ideas.
type Food struct {
	BaseModel
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Origin        string `json:"origin"`
	Image         string `json:"image"`
	TrendingScore int    `gorm:"index" json:"trending_score"`

	Recipes []Recipe `json:"recipes,omitempty"`
}

// Recipe belongs to a food entry.
type Recipe struct {
	BaseModel
	FoodID       uuid.UUID `gorm:"type:uuid;index" json:"food_id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	PrepMinutes  int       `json:"prep_minutes"`
}
