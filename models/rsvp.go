package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPConfirmed RSVPStatus = "confirmed"
	RSVPDeclined  RSVPStatus = "declined"
)

// RSVPInfo holds the invitation state for exactly one guest. Child guests get
// a row with empty token and link since they answer through their family.
type RSVPInfo struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GuestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"guest_id"`

	Status RSVPStatus `gorm:"not null;default:pending;size:10" json:"status"`
	Active bool       `gorm:"not null;default:true" json:"active"`

	// RSVPToken is globally unique for adults (partial index in database
	// setup); the empty child token is excluded from the constraint.
	RSVPToken string `gorm:"not null;size:36;index" json:"rsvp_token"`
	RSVPLink  string `gorm:"not null;size:255" json:"rsvp_link"`

	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	EmailSentOn *time.Time `json:"email_sent_on,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *RSVPInfo) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Request structs.
//
// The wire shape still accepts the legacy top-level dietary_requirements and
// allergies fields next to the newer nested guest_info form. Normalize folds
// both into one canonical RSVPSubmission so the services only ever see a
// single shape.

type GuestInfoSubmit struct {
	FirstName string               `json:"first_name" binding:"required"`
	LastName  string               `json:"last_name" binding:"required"`
	Phone     *string              `json:"phone"`
	Allergies *string              `json:"allergies"`
	Dietary   []DietaryRequirement `json:"dietary_requirements"`
}

type PlusOneSubmit struct {
	Email     string               `json:"email" binding:"required,email"`
	FirstName string               `json:"first_name" binding:"required"`
	LastName  string               `json:"last_name" binding:"required"`
	Allergies *string              `json:"allergies"`
	Dietary   []DietaryRequirement `json:"dietary_requirements"`
}

// FamilyMemberSubmit deliberately has no plus-one field: family members can
// never bring one, the schema itself enforces it.
type FamilyMemberSubmit struct {
	Attending bool                 `json:"attending"`
	GuestInfo *GuestInfoSubmit     `json:"guest_info"`
	Dietary   []DietaryRequirement `json:"dietary_requirements"`
	Allergies *string              `json:"allergies"`
}

type RSVPSubmitRequest struct {
	Attending      bool                          `json:"attending"`
	PlusOneDetails *PlusOneSubmit                `json:"plus_one_details"`
	GuestInfo      *GuestInfoSubmit              `json:"guest_info"`
	Dietary        []DietaryRequirement          `json:"dietary_requirements"`
	Allergies      *string                       `json:"allergies"`
	FamilyMembers  map[string]FamilyMemberSubmit `json:"family_member_updates"`
}

// Canonical internal shape after normalization.

type GuestUpdate struct {
	Attending bool
	FirstName *string
	LastName  *string
	Phone     *string
	// Allergies distinguishes "not provided" (nil, preserve the stored value)
	// from "provided as empty" (clear it).
	Allergies *string
	Dietary   []DietaryRequirement
}

type RSVPSubmission struct {
	Primary       GuestUpdate
	PlusOne       *PlusOneSubmit
	FamilyMembers map[uuid.UUID]GuestUpdate
}

func validateDietary(reqs []DietaryRequirement) error {
	for _, d := range reqs {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func normalizeUpdate(attending bool, info *GuestInfoSubmit, dietary []DietaryRequirement, allergies *string) (GuestUpdate, error) {
	upd := GuestUpdate{
		Attending: attending,
		Dietary:   dietary,
		Allergies: allergies,
	}
	if info != nil {
		upd.FirstName = &info.FirstName
		upd.LastName = &info.LastName
		upd.Phone = info.Phone
		if info.Allergies != nil {
			upd.Allergies = info.Allergies
		}
		if len(info.Dietary) > 0 {
			upd.Dietary = info.Dietary
		}
	}
	if err := validateDietary(upd.Dietary); err != nil {
		return GuestUpdate{}, err
	}
	return upd, nil
}

// Normalize folds the legacy and nested request forms into the canonical
// submission and validates everything that can be checked without the
// database.
func (r *RSVPSubmitRequest) Normalize() (*RSVPSubmission, error) {
	primary, err := normalizeUpdate(r.Attending, r.GuestInfo, r.Dietary, r.Allergies)
	if err != nil {
		return nil, err
	}

	sub := &RSVPSubmission{
		Primary:       primary,
		PlusOne:       r.PlusOneDetails,
		FamilyMembers: make(map[uuid.UUID]GuestUpdate, len(r.FamilyMembers)),
	}

	if sub.PlusOne != nil {
		if err := validateDietary(sub.PlusOne.Dietary); err != nil {
			return nil, err
		}
	}

	for rawID, member := range r.FamilyMembers {
		guestID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid family member id %q", rawID)
		}
		upd, err := normalizeUpdate(member.Attending, member.GuestInfo, member.Dietary, member.Allergies)
		if err != nil {
			return nil, err
		}
		sub.FamilyMembers[guestID] = upd
	}

	return sub, nil
}

// Response structs
type RSVPSubmitResponse struct {
	Message   string     `json:"message"`
	Attending bool       `json:"attending"`
	Status    RSVPStatus `json:"status"`
}
