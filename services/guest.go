package services

import (
	"errors"
	"fmt"
	"time"

	"wedding-backend/config"
	"wedding-backend/models"
	"wedding-backend/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GuestService covers the guest creation flows: strict creation by an admin,
// the idempotent self-service invitation request, and child guests.
type GuestService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewGuestService(db *gorm.DB, notifier Notifier) *GuestService {
	return &GuestService{db: db, notifier: notifier}
}

// CreateGuest creates an adult guest with account and RSVP info. Unlike
// RequestInvitation this path is strict: an existing guest for the email is an
// error, not a resend.
func (s *GuestService) CreateGuest(req models.CreateGuestRequest) (*models.GuestResponse, error) {
	language := req.PreferredLanguage
	if !language.Valid() {
		language = models.LanguageEN
	}
	sendEmail := req.SendEmail == nil || *req.SendEmail

	var out *models.GuestResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := GetOrCreateUser(tx, req.Email)
		if err != nil {
			return err
		}

		var existing models.Guest
		err = tx.Where("user_id = ?", user.ID).First(&existing).Error
		if err == nil {
			return ErrGuestAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up guest: %w", err)
		}

		familyID, err := resolveFamily(tx, req.FamilyID)
		if err != nil {
			return err
		}

		guest := models.Guest{
			UserID:            &user.ID,
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Phone:             req.Phone,
			Notes:             req.Notes,
			GuestType:         models.GuestTypeAdult,
			FamilyID:          familyID,
			PreferredLanguage: language,
		}
		if err := tx.Create(&guest).Error; err != nil {
			return fmt.Errorf("failed to create guest: %w", err)
		}

		rsvp, err := createRSVPInfo(tx, guest.ID, language)
		if err != nil {
			return err
		}

		if sendEmail {
			s.sendInvitation(tx, user, &guest, rsvp)
		}

		out = guestResponse(&guest, user.Email, rsvp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestInvitation is the idempotent variant: repeated calls for the same
// email never duplicate the account or guest, they just resend the link. An
// explicitly supplied language updates the guest's preference; nil preserves.
func (s *GuestService) RequestInvitation(req models.RequestInvitationRequest) (string, error) {
	language := models.LanguageEN
	if req.Language != nil && req.Language.Valid() {
		language = *req.Language
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
		if err == nil {
			var guest models.Guest
			err = tx.Where("user_id = ?", user.ID).First(&guest).Error
			if err == nil {
				if req.Language != nil && req.Language.Valid() {
					if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).
						Update("preferred_language", *req.Language).Error; err != nil {
						return fmt.Errorf("failed to update preferred language: %w", err)
					}
					guest.PreferredLanguage = *req.Language
				}
				return s.resendInvitation(tx, &user, &guest)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up guest: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up user: %w", err)
		}

		created, err := GetOrCreateUser(tx, req.Email)
		if err != nil {
			return err
		}

		guest := models.Guest{
			UserID:            &created.ID,
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			GuestType:         models.GuestTypeAdult,
			PreferredLanguage: language,
		}
		if err := tx.Create(&guest).Error; err != nil {
			return fmt.Errorf("failed to create guest: %w", err)
		}

		rsvp, err := createRSVPInfo(tx, guest.ID, language)
		if err != nil {
			return err
		}

		s.sendInvitation(tx, created, &guest, rsvp)
		return nil
	})
	if err != nil {
		return "", err
	}
	return "Check your email for your invitation link", nil
}

// CreateChildGuest creates a child in an existing family. Children have no
// account and no independent invitation link.
func (s *GuestService) CreateChildGuest(req models.CreateChildGuestRequest) (*models.GuestResponse, error) {
	var out *models.GuestResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		familyID, err := resolveFamily(tx, req.FamilyID)
		if err != nil {
			return err
		}
		if familyID == nil {
			return ErrFamilyNotFound
		}

		guest := models.Guest{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			GuestType: models.GuestTypeChild,
			FamilyID:  familyID,
		}
		if err := tx.Create(&guest).Error; err != nil {
			return fmt.Errorf("failed to create child guest: %w", err)
		}

		rsvp := models.RSVPInfo{
			GuestID:   guest.ID,
			Status:    models.RSVPPending,
			Active:    true,
			RSVPToken: "",
			RSVPLink:  "",
		}
		if err := tx.Create(&rsvp).Error; err != nil {
			return fmt.Errorf("failed to create child RSVP info: %w", err)
		}

		out = guestResponse(&guest, "", &rsvp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListGuests returns the guest list for the admin overview, newest first,
// optionally narrowed to one RSVP status.
func (s *GuestService) ListGuests(status *models.RSVPStatus, skip, limit int) (*models.GuestListResponse, error) {
	query := s.db.Model(&models.Guest{})
	if status != nil {
		query = query.
			Joins("JOIN rsvp_infos ON rsvp_infos.guest_id = guests.id").
			Where("rsvp_infos.status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count guests: %w", err)
	}

	var guests []models.Guest
	if err := query.Order("guests.created_at desc").Offset(skip).Limit(limit).
		Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}

	out := &models.GuestListResponse{Guests: make([]models.GuestResponse, 0, len(guests)), Total: total}
	for i := range guests {
		guest := &guests[i]

		var rsvp models.RSVPInfo
		if err := s.db.Where("guest_id = ?", guest.ID).First(&rsvp).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to load RSVP info: %w", err)
			}
			rsvp.Status = models.RSVPPending
		}
		email, err := UserEmail(s.db, guest.UserID)
		if err != nil {
			return nil, err
		}
		out.Guests = append(out.Guests, *guestResponse(guest, email, &rsvp))
	}
	return out, nil
}

// resolveFamily validates an optional family reference; empty means none.
func resolveFamily(tx *gorm.DB, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	familyID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrFamilyNotFound
	}
	var family models.Family
	if err := tx.Where("id = ?", familyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("failed to look up family: %w", err)
	}
	return &familyID, nil
}

func createRSVPInfo(tx *gorm.DB, guestID uuid.UUID, language models.Language) (*models.RSVPInfo, error) {
	token := utils.NewRSVPToken()
	rsvp := models.RSVPInfo{
		GuestID:   guestID,
		Status:    models.RSVPPending,
		Active:    true,
		RSVPToken: token,
		RSVPLink:  utils.BuildRSVPLink(language, token, false),
	}
	if err := tx.Create(&rsvp).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create RSVP info: %w", err)
	}
	return &rsvp, nil
}

// sendInvitation dispatches the invitation email and records email_sent_on in
// the same transaction on success. Dispatch failure never fails the creation.
func (s *GuestService) sendInvitation(tx *gorm.DB, user *models.User, guest *models.Guest, rsvp *models.RSVPInfo) {
	if s.notifier == nil || user.Email == "" {
		return
	}

	err := s.notifier.SendInvitation(
		user.Email,
		guest.FullName(),
		config.AppConfig.EventDate,
		config.AppConfig.EventLocation,
		rsvp.RSVPLink,
		config.AppConfig.ResponseDeadline,
		guest.PreferredLanguage,
	)
	if err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Failed to send invitation")
		return
	}

	now := time.Now().UTC()
	if err := tx.Model(&models.RSVPInfo{}).Where("id = ?", rsvp.ID).
		Update("email_sent_on", now).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to record email_sent_on")
		return
	}
	rsvp.EmailSentOn = &now
}

func (s *GuestService) resendInvitation(tx *gorm.DB, user *models.User, guest *models.Guest) error {
	var rsvp models.RSVPInfo
	if err := tx.Where("guest_id = ?", guest.ID).First(&rsvp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load RSVP info: %w", err)
	}
	s.sendInvitation(tx, user, guest, &rsvp)
	return nil
}
