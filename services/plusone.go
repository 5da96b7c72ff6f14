package services

import (
	"errors"
	"fmt"

	"wedding-backend/models"
	"wedding-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePlusOne creates (or reuses) the companion guest for an original guest.
//
// It always runs inside the caller's transaction: in production it is only
// ever invoked from the RSVP submission, and the two must commit or abort as
// one unit. The relationship is depth-1 only (a plus-one can never bring a
// plus-one), and once a plus-one exists its email is immutable; repeated calls
// with the same email reuse the existing guest instead of duplicating it.
func CreatePlusOne(tx *gorm.DB, originalGuestID uuid.UUID, data models.PlusOneSubmit) (*models.GuestResponse, uuid.UUID, error) {
	var original models.Guest
	if err := tx.Where("id = ?", originalGuestID).First(&original).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, ErrGuestNotFound
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load original guest: %w", err)
	}

	if original.IsPlusOne() {
		return nil, uuid.Nil, ErrCannotAddPlusOne
	}

	// The email check has to run before identity resolution, otherwise a
	// rejected attempt would still create a stray account.
	if err := checkPlusOneEmailUnchanged(tx, &original, data.Email); err != nil {
		return nil, uuid.Nil, err
	}

	user, err := GetOrCreateUser(tx, data.Email)
	if err != nil {
		return nil, uuid.Nil, err
	}

	// Idempotent re-invocation: the account already has a guest, return it
	// untouched instead of creating a duplicate.
	var existing models.Guest
	err = tx.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		var rsvp models.RSVPInfo
		if err := tx.Where("guest_id = ?", existing.ID).First(&rsvp).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, uuid.Nil, fmt.Errorf("failed to load plus-one RSVP info: %w", err)
			}
			rsvp.Status = models.RSVPPending
		}
		return guestResponse(&existing, user.Email, &rsvp), existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, uuid.Nil, fmt.Errorf("failed to look up plus-one guest: %w", err)
	}

	guest := models.Guest{
		UserID:            &user.ID,
		FirstName:         data.FirstName,
		LastName:          data.LastName,
		GuestType:         models.GuestTypeAdult,
		PlusOneOfID:       &originalGuestID,
		PreferredLanguage: original.PreferredLanguage,
	}
	if data.Allergies != nil {
		guest.Allergies = *data.Allergies
	}
	if err := tx.Create(&guest).Error; err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to create plus-one guest: %w", err)
	}

	for _, req := range data.Dietary {
		option := models.DietaryOption{
			GuestID:         guest.ID,
			RequirementType: req.RequirementType,
			Notes:           req.Notes,
		}
		if err := tx.Create(&option).Error; err != nil {
			return nil, uuid.Nil, fmt.Errorf("failed to create dietary option: %w", err)
		}
	}

	token := utils.NewRSVPToken()
	rsvp := models.RSVPInfo{
		GuestID:   guest.ID,
		Status:    models.RSVPPending,
		Active:    true,
		RSVPToken: token,
		RSVPLink:  utils.BuildRSVPLink(original.PreferredLanguage, token, true),
	}
	if err := tx.Create(&rsvp).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, uuid.Nil, ErrConflict
		}
		return nil, uuid.Nil, fmt.Errorf("failed to create plus-one RSVP info: %w", err)
	}

	if err := tx.Model(&models.Guest{}).Where("id = ?", originalGuestID).
		Update("bring_a_plus_one_id", guest.ID).Error; err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to link plus-one to original guest: %w", err)
	}

	return guestResponse(&guest, user.Email, &rsvp), guest.ID, nil
}

// checkPlusOneEmailUnchanged rejects attempts to swap an established plus-one
// for somebody with a different email. Name and dietary details may still be
// refreshed through repeated calls with the same email.
func checkPlusOneEmailUnchanged(tx *gorm.DB, original *models.Guest, newEmail string) error {
	if original.BringAPlusOneID == nil {
		return nil
	}

	var plusOne models.Guest
	if err := tx.Where("id = ?", *original.BringAPlusOneID).First(&plusOne).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load existing plus-one: %w", err)
	}

	email, err := UserEmail(tx, plusOne.UserID)
	if err != nil {
		return err
	}
	if email != "" && email != normalizeEmail(newEmail) {
		return ErrCannotChangePlusOneEmail
	}
	return nil
}

func guestResponse(guest *models.Guest, email string, rsvp *models.RSVPInfo) *models.GuestResponse {
	return &models.GuestResponse{
		ID:          guest.ID,
		FirstName:   guest.FirstName,
		LastName:    guest.LastName,
		Phone:       guest.Phone,
		Email:       email,
		GuestType:   guest.GuestType,
		FamilyID:    guest.FamilyID,
		PlusOneOfID: guest.PlusOneOfID,
		RSVP: models.RSVPDetails{
			Status: rsvp.Status,
			Token:  rsvp.RSVPToken,
			Link:   rsvp.RSVPLink,
		},
	}
}
