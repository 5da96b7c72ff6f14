package services

import (
	"errors"
	"fmt"
	"strings"

	"wedding-backend/config"
	"wedding-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetOrCreateUser resolves the account identity for an email, creating a
// passwordless user if none exists. It runs inside the caller's transaction;
// a lost race on the email unique index is reported as ErrConflict.
func GetOrCreateUser(tx *gorm.DB, email string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = models.User{Email: email, IsActive: true}
	if err := tx.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// EnsureAdmin promotes the configured admin account on startup so the couple
// can sign in to the management endpoints. Without credentials in the
// environment the admin surface simply stays locked.
func EnsureAdmin(db *gorm.DB) error {
	email := config.AppConfig.AdminEmail
	password := config.AppConfig.AdminPassword
	if email == "" || password == "" {
		log.Warn().Msg("Admin credentials not configured, admin endpoints stay locked")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	hashed := string(hash)

	return db.Transaction(func(tx *gorm.DB) error {
		user, err := GetOrCreateUser(tx, email)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{"password_hash": hashed, "is_admin": true}).Error; err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
		return nil
	})
}

// UserEmail resolves an account's email, empty when the guest has no account.
func UserEmail(tx *gorm.DB, userID *uuid.UUID) (string, error) {
	if userID == nil {
		return "", nil
	}
	var user models.User
	if err := tx.Where("id = ?", *userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	return user.Email, nil
}
