package services

import (
	"errors"
	"fmt"
	"strings"

	"wedding-backend/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RSVPService is the transactional write model behind RSVP submissions.
type RSVPService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewRSVPService(db *gorm.DB, notifier Notifier) *RSVPService {
	return &RSVPService{db: db, notifier: notifier}
}

// Submit applies a full RSVP response in one transaction: the primary guest's
// status transition, dietary replacement and info updates, the optional
// plus-one creation, and the cascade over family members. Any structural
// failure rolls everything back; only the confirmation email is allowed to
// fail without affecting the result.
func (s *RSVPService) Submit(token string, sub *models.RSVPSubmission) (*models.RSVPSubmitResponse, error) {
	var (
		resp           *models.RSVPSubmitResponse
		confirmTo      string
		confirmName    string
		confirmLang    models.Language
		dietarySummary string
		staleTokens    = []string{token}
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Child guests carry an empty token, which must never resolve.
		var rsvp models.RSVPInfo
		if err := tx.Where("rsvp_token = ? AND rsvp_token <> ''", token).First(&rsvp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("failed to resolve RSVP token: %w", err)
		}

		var guest models.Guest
		if err := tx.Where("id = ?", rsvp.GuestID).First(&guest).Error; err != nil {
			return fmt.Errorf("failed to load guest for RSVP: %w", err)
		}

		if err := applyGuestUpdate(tx, &guest, &rsvp, sub.Primary); err != nil {
			return err
		}

		if !sub.Primary.Attending && guest.BringAPlusOneID != nil {
			// Declining drops the reference but never touches the plus-one's
			// own guest record.
			if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).
				Update("bring_a_plus_one_id", nil).Error; err != nil {
				return fmt.Errorf("failed to clear plus-one reference: %w", err)
			}
			guest.BringAPlusOneID = nil
		}

		if sub.Primary.Attending && sub.PlusOne != nil {
			companion, plusOneID, err := CreatePlusOne(tx, guest.ID, *sub.PlusOne)
			if err != nil {
				return err
			}
			// The subroutine links newly created plus-ones itself; on reuse the
			// pointer may be stale (re-confirming after a decline), so make it
			// visible either way. Reuse can also hand back a guest who belongs
			// to somebody else entirely; referencing them would break the
			// pointer pair, so only a guest linked back to this one is written.
			if companion.PlusOneOfID != nil && *companion.PlusOneOfID == guest.ID {
				if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).
					Update("bring_a_plus_one_id", plusOneID).Error; err != nil {
					return fmt.Errorf("failed to persist plus-one reference: %w", err)
				}
				guest.BringAPlusOneID = &plusOneID

				if sub.PlusOne.Allergies != nil {
					if err := tx.Model(&models.Guest{}).Where("id = ?", plusOneID).
						Update("allergies", *sub.PlusOne.Allergies).Error; err != nil {
						return fmt.Errorf("failed to update plus-one allergies: %w", err)
					}
				}
				if companion.RSVP.Token != "" {
					staleTokens = append(staleTokens, companion.RSVP.Token)
				}
			}
		}

		for memberID, update := range sub.FamilyMembers {
			var member models.Guest
			if err := tx.Where("id = ?", memberID).First(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrFamilyMemberNotFound
				}
				return fmt.Errorf("failed to load family member: %w", err)
			}
			var memberRSVP models.RSVPInfo
			if err := tx.Where("guest_id = ?", member.ID).First(&memberRSVP).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrFamilyMemberNotFound
				}
				return fmt.Errorf("failed to load family member RSVP info: %w", err)
			}
			if err := applyGuestUpdate(tx, &member, &memberRSVP, update); err != nil {
				return err
			}
			if memberRSVP.RSVPToken != "" {
				staleTokens = append(staleTokens, memberRSVP.RSVPToken)
			}
		}

		email, err := UserEmail(tx, guest.UserID)
		if err != nil {
			return err
		}
		confirmTo = email
		confirmName = guest.FullName()
		confirmLang = guest.PreferredLanguage
		dietarySummary = summarizeDietary(sub.Primary.Dietary)

		resp = &models.RSVPSubmitResponse{
			Message:   confirmationMessage(sub.Primary.Attending, guest.PreferredLanguage),
			Attending: sub.Primary.Attending,
			Status:    rsvp.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Every guest touched by this submission has a potentially cached form.
	for _, stale := range staleTokens {
		InvalidatePrefill(stale)
	}

	// Best effort only: a failed confirmation never fails the submission.
	if s.notifier != nil && confirmTo != "" {
		if err := s.notifier.SendConfirmation(confirmTo, confirmName, resp.Attending, dietarySummary, confirmLang); err != nil {
			log.Warn().Err(err).Str("email", confirmTo).Msg("Failed to send RSVP confirmation")
		}
		s.notifier.PushRSVPSubmitted(confirmName, resp.Attending)
	}

	return resp, nil
}

// applyGuestUpdate runs the shared per-guest submission steps: the status
// transition, the dietary replacement, and the guest-info overwrites. The same
// logic serves the primary guest and every cascaded family member.
func applyGuestUpdate(tx *gorm.DB, guest *models.Guest, rsvp *models.RSVPInfo, update models.GuestUpdate) error {
	if update.Attending {
		rsvp.Status = models.RSVPConfirmed
	} else {
		rsvp.Status = models.RSVPDeclined
	}
	if err := tx.Model(&models.RSVPInfo{}).Where("id = ?", rsvp.ID).
		Update("status", rsvp.Status).Error; err != nil {
		return fmt.Errorf("failed to update RSVP status: %w", err)
	}

	// Dietary options are a replacement set. A declining guest keeps no
	// active dietary rows at all.
	if err := tx.Where("guest_id = ?", guest.ID).Delete(&models.DietaryOption{}).Error; err != nil {
		return fmt.Errorf("failed to clear dietary options: %w", err)
	}
	if update.Attending {
		for _, req := range update.Dietary {
			option := models.DietaryOption{
				GuestID:         guest.ID,
				RequirementType: req.RequirementType,
				Notes:           req.Notes,
			}
			if err := tx.Create(&option).Error; err != nil {
				return fmt.Errorf("failed to create dietary option: %w", err)
			}
		}
	}

	fields := map[string]interface{}{}
	if update.FirstName != nil {
		fields["first_name"] = *update.FirstName
		guest.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		fields["last_name"] = *update.LastName
		guest.LastName = *update.LastName
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
		guest.Phone = *update.Phone
	}
	if update.Allergies != nil {
		fields["allergies"] = *update.Allergies
		guest.Allergies = *update.Allergies
	}
	if len(fields) > 0 {
		if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).Updates(fields).Error; err != nil {
			return fmt.Errorf("failed to update guest info: %w", err)
		}
	}
	return nil
}

func summarizeDietary(reqs []models.DietaryRequirement) string {
	if len(reqs) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(reqs))
	for _, req := range reqs {
		parts = append(parts, string(req.RequirementType))
	}
	return strings.Join(parts, ", ")
}

func confirmationMessage(attending bool, language models.Language) string {
	type messages struct{ confirmed, declined string }
	byLanguage := map[models.Language]messages{
		models.LanguageEN: {
			confirmed: "Thank you for confirming your attendance!",
			declined:  "We're sorry you can't make it. Your response has been recorded.",
		},
		models.LanguageES: {
			confirmed: "¡Gracias por confirmar tu asistencia!",
			declined:  "Sentimos que no puedas venir. Hemos registrado tu respuesta.",
		},
		models.LanguageNL: {
			confirmed: "Bedankt voor het bevestigen van je komst!",
			declined:  "Jammer dat je er niet bij kunt zijn. Je antwoord is opgeslagen.",
		},
	}
	msgs, ok := byLanguage[language]
	if !ok {
		msgs = byLanguage[models.LanguageEN]
	}
	if attending {
		return msgs.confirmed
	}
	return msgs.declined
}
