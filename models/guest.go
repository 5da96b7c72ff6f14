package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GuestType string

const (
	GuestTypeAdult GuestType = "adult"
	GuestTypeChild GuestType = "child"
)

type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
	LanguageNL Language = "nl"
)

func (l Language) Valid() bool {
	return l == LanguageEN || l == LanguageES || l == LanguageNL
}

// Guest is one invited person. Children never have a User or an independent
// RSVP link; plus-ones point back at the guest who brought them.
type Guest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	FirstName string     `gorm:"not null;size:255;index" json:"first_name"`
	LastName  string     `gorm:"not null;size:255;index" json:"last_name"`
	Phone     string     `gorm:"size:50" json:"phone,omitempty"`
	GuestType GuestType  `gorm:"not null;default:adult;size:10" json:"guest_type"`

	FamilyID *uuid.UUID `gorm:"type:uuid;index" json:"family_id,omitempty"`
	Family   *Family    `gorm:"foreignKey:FamilyID" json:"family,omitempty"`

	// PlusOneOfID points at the guest who brought this guest as their plus-one.
	// BringAPlusOneID points the other way, at the plus-one this guest brings.
	// The pair must stay consistent: Guest[BringAPlusOneID].PlusOneOfID == ID.
	PlusOneOfID     *uuid.UUID `gorm:"type:uuid" json:"plus_one_of_id,omitempty"`
	BringAPlusOneID *uuid.UUID `gorm:"type:uuid" json:"bring_a_plus_one_id,omitempty"`

	Notes             string    `gorm:"type:text" json:"notes,omitempty"`
	Allergies         string    `gorm:"type:text" json:"allergies,omitempty"`
	PreferredLanguage Language  `gorm:"not null;default:en;size:5" json:"preferred_language"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsPlusOne is derived from the relationship, never stored as its own flag.
func (g *Guest) IsPlusOne() bool {
	return g.PlusOneOfID != nil
}

func (g *Guest) FullName() string {
	name := strings.TrimSpace(g.FirstName + " " + g.LastName)
	if name == "" {
		return "Guest"
	}
	return name
}

// Request structs
type CreateGuestRequest struct {
	Email             string   `json:"email" binding:"required,email"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Phone             string   `json:"phone"`
	Notes             string   `json:"notes"`
	FamilyID          string   `json:"family_id"`
	SendEmail         *bool    `json:"send_email"`
	PreferredLanguage Language `json:"preferred_language"`
}

type CreateChildGuestRequest struct {
	FamilyID  string `json:"family_id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
}

type RequestInvitationRequest struct {
	Email     string    `json:"email" binding:"required,email"`
	FirstName string    `json:"first_name" binding:"required"`
	LastName  string    `json:"last_name" binding:"required"`
	Language  *Language `json:"language"`
}

// Response structs
type RSVPDetails struct {
	Status RSVPStatus `json:"status"`
	Token  string     `json:"token"`
	Link   string     `json:"link"`
}

type GuestResponse struct {
	ID          uuid.UUID   `json:"id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       string      `json:"phone,omitempty"`
	Email       string      `json:"email,omitempty"`
	GuestType   GuestType   `json:"guest_type"`
	FamilyID    *uuid.UUID  `json:"family_id,omitempty"`
	PlusOneOfID *uuid.UUID  `json:"plus_one_of_id,omitempty"`
	RSVP        RSVPDetails `json:"rsvp"`
}

type GuestListResponse struct {
	Guests []GuestResponse `json:"guests"`
	Total  int64           `json:"total"`
}
