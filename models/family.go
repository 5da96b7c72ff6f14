package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Family groups household guests so one member can answer for everyone.
type Family struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	Members   []Guest   `gorm:"foreignKey:FamilyID" json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateFamilyRequest struct {
	Name string `json:"name"`
}

// Response structs
type FamilyResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

func (f *Family) ToResponse() FamilyResponse {
	return FamilyResponse{ID: f.ID, Name: f.Name}
}
