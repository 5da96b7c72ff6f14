package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedding-backend/database"
	"wedding-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const prefillTTL = 5 * time.Minute

// RSVPPrefill is the read-model payload used to render the RSVP form before a
// submission. It is cached briefly in redis and dropped on every submit.
type RSVPPrefill struct {
	Token             string                      `json:"token"`
	Status            models.RSVPStatus           `json:"status"`
	Active            bool                        `json:"active"`
	FirstName         string                      `json:"first_name"`
	LastName          string                      `json:"last_name"`
	Phone             string                      `json:"phone,omitempty"`
	Allergies         string                      `json:"allergies,omitempty"`
	PreferredLanguage models.Language             `json:"preferred_language"`
	IsPlusOne         bool                        `json:"is_plus_one"`
	Dietary           []models.DietaryRequirement `json:"dietary_requirements"`
	PlusOne           *PrefillMember              `json:"plus_one,omitempty"`
	FamilyMembers     []PrefillMember             `json:"family_members,omitempty"`
}

type PrefillMember struct {
	ID        uuid.UUID                   `json:"id"`
	FirstName string                      `json:"first_name"`
	LastName  string                      `json:"last_name"`
	Email     string                      `json:"email,omitempty"`
	GuestType models.GuestType            `json:"guest_type"`
	Status    models.RSVPStatus           `json:"status"`
	Allergies string                      `json:"allergies,omitempty"`
	Dietary   []models.DietaryRequirement `json:"dietary_requirements"`
}

// GetRSVPPrefill resolves the prefill data for a token, serving from cache
// when possible.
func GetRSVPPrefill(db *gorm.DB, token string) (*RSVPPrefill, error) {
	if cached := prefillFromCache(token); cached != nil {
		return cached, nil
	}

	var rsvp models.RSVPInfo
	if err := db.Where("rsvp_token = ? AND rsvp_token <> ''", token).First(&rsvp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve RSVP token: %w", err)
	}

	var guest models.Guest
	if err := db.Where("id = ?", rsvp.GuestID).First(&guest).Error; err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	prefill := &RSVPPrefill{
		Token:             rsvp.RSVPToken,
		Status:            rsvp.Status,
		Active:            rsvp.Active,
		FirstName:         guest.FirstName,
		LastName:          guest.LastName,
		Phone:             guest.Phone,
		Allergies:         guest.Allergies,
		PreferredLanguage: guest.PreferredLanguage,
		IsPlusOne:         guest.IsPlusOne(),
	}

	dietary, err := dietaryForGuest(db, guest.ID)
	if err != nil {
		return nil, err
	}
	prefill.Dietary = dietary

	if guest.BringAPlusOneID != nil {
		member, err := prefillMember(db, *guest.BringAPlusOneID)
		if err != nil {
			return nil, err
		}
		prefill.PlusOne = member
	}

	if guest.FamilyID != nil {
		var members []models.Guest
		if err := db.Where("family_id = ? AND id <> ?", *guest.FamilyID, guest.ID).
			Order("created_at").Find(&members).Error; err != nil {
			return nil, fmt.Errorf("failed to load family members: %w", err)
		}
		for _, m := range members {
			member, err := prefillMember(db, m.ID)
			if err != nil {
				return nil, err
			}
			prefill.FamilyMembers = append(prefill.FamilyMembers, *member)
		}
	}

	cachePrefill(token, prefill)
	return prefill, nil
}

func prefillMember(db *gorm.DB, guestID uuid.UUID) (*PrefillMember, error) {
	var guest models.Guest
	if err := db.Where("id = ?", guestID).First(&guest).Error; err != nil {
		return nil, fmt.Errorf("failed to load guest %s: %w", guestID, err)
	}

	member := &PrefillMember{
		ID:        guest.ID,
		FirstName: guest.FirstName,
		LastName:  guest.LastName,
		GuestType: guest.GuestType,
		Status:    models.RSVPPending,
		Allergies: guest.Allergies,
	}

	// A companion's email is immutable once established, so the form has to
	// show which address the plus-one is pinned to.
	if guest.IsPlusOne() {
		email, err := UserEmail(db, guest.UserID)
		if err != nil {
			return nil, err
		}
		member.Email = email
	}

	var rsvp models.RSVPInfo
	if err := db.Where("guest_id = ?", guest.ID).First(&rsvp).Error; err == nil {
		member.Status = rsvp.Status
	}

	dietary, err := dietaryForGuest(db, guest.ID)
	if err != nil {
		return nil, err
	}
	member.Dietary = dietary
	return member, nil
}

func dietaryForGuest(db *gorm.DB, guestID uuid.UUID) ([]models.DietaryRequirement, error) {
	var options []models.DietaryOption
	if err := db.Where("guest_id = ?", guestID).Order("created_at").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to load dietary options: %w", err)
	}
	reqs := make([]models.DietaryRequirement, 0, len(options))
	for _, opt := range options {
		reqs = append(reqs, models.DietaryRequirement{
			RequirementType: opt.RequirementType,
			Notes:           opt.Notes,
		})
	}
	return reqs, nil
}

func prefillKey(token string) string {
	return "rsvp:prefill:" + token
}

func prefillFromCache(token string) *RSVPPrefill {
	if database.Redis == nil {
		return nil
	}
	raw, err := database.Redis.Get(context.Background(), prefillKey(token)).Bytes()
	if err != nil {
		return nil
	}
	var prefill RSVPPrefill
	if err := json.Unmarshal(raw, &prefill); err != nil {
		return nil
	}
	return &prefill
}

func cachePrefill(token string, prefill *RSVPPrefill) {
	if database.Redis == nil {
		return
	}
	raw, err := json.Marshal(prefill)
	if err != nil {
		return
	}
	if err := database.Redis.Set(context.Background(), prefillKey(token), raw, prefillTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to cache RSVP prefill")
	}
}

// InvalidatePrefill drops the cached prefill after a submission so the next
// form render sees the committed state.
func InvalidatePrefill(token string) {
	if database.Redis == nil {
		return
	}
	if err := database.Redis.Del(context.Background(), prefillKey(token)).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate RSVP prefill cache")
	}
}
