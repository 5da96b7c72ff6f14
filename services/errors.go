package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrInvalidToken             = errors.New("invalid RSVP token")
	ErrGuestNotFound            = errors.New("guest not found")
	ErrGuestAlreadyExists       = errors.New("a guest already exists for this email")
	ErrCannotAddPlusOne         = errors.New("a guest who is a plus-one cannot add their own plus-one")
	ErrCannotChangePlusOneEmail = errors.New("cannot change the email of a guest's plus-one")
	ErrFamilyMemberNotFound     = errors.New("family member not found")
	ErrFamilyNotFound           = errors.New("family not found")

	// ErrConflict surfaces a lost uniqueness race (account email, RSVP token)
	// as a retryable condition for the caller.
	ErrConflict = errors.New("conflicting concurrent write, please retry")
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
