package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DietaryType string

const (
	DietaryVegetarian DietaryType = "vegetarian"
	DietaryVegan      DietaryType = "vegan"
	DietaryGlutenFree DietaryType = "gluten_free"
	DietaryDairyFree  DietaryType = "dairy_free"
	DietaryHalal      DietaryType = "halal"
	DietaryKosher     DietaryType = "kosher"
	DietaryNutAllergy DietaryType = "nut_allergy"
	DietaryOther      DietaryType = "other"
)

func (d DietaryType) Valid() bool {
	switch d {
	case DietaryVegetarian, DietaryVegan, DietaryGlutenFree, DietaryDairyFree,
		DietaryHalal, DietaryKosher, DietaryNutAllergy, DietaryOther:
		return true
	}
	return false
}

// DietaryOption is one dietary requirement row for a guest. Each RSVP
// submission replaces the guest's full set, it never merges.
type DietaryOption struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	GuestID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"guest_id"`
	RequirementType DietaryType `gorm:"not null;size:20" json:"requirement_type"`
	Notes           string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (d *DietaryOption) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Request structs
type DietaryRequirement struct {
	RequirementType DietaryType `json:"requirement_type" binding:"required"`
	Notes           string      `json:"notes,omitempty"`
}

func (d DietaryRequirement) Validate() error {
	if !d.RequirementType.Valid() {
		return fmt.Errorf("unknown dietary requirement type %q", d.RequirementType)
	}
	if d.RequirementType == DietaryOther && d.Notes == "" {
		return fmt.Errorf("dietary requirement %q needs notes", DietaryOther)
	}
	return nil
}
