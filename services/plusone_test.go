package services

import (
	"errors"
	"strings"
	"testing"

	"wedding-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestCreatePlusOne(t *testing.T) {
	db := newTestDB(t)
	original := seedGuest(t, db, "john@example.com", "token-john")

	data := models.PlusOneSubmit{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Smith",
		Allergies: strPtr("peanuts"),
		Dietary: []models.DietaryRequirement{
			{RequirementType: models.DietaryVegetarian},
		},
	}

	var (
		resp      *models.GuestResponse
		plusOneID uuid.UUID
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		resp, plusOneID, err = CreatePlusOne(tx, original.ID, data)
		return err
	})
	if err != nil {
		t.Fatalf("CreatePlusOne failed: %v", err)
	}

	if resp.Email != "jane@example.com" {
		t.Errorf("email = %q, want jane@example.com", resp.Email)
	}
	if resp.RSVP.Token == "" || resp.RSVP.Token == "token-john" {
		t.Errorf("plus-one token %q must be fresh and distinct", resp.RSVP.Token)
	}
	if !strings.Contains(resp.RSVP.Link, "&plus_one=true") {
		t.Errorf("plus-one link %q missing plus-one marker", resp.RSVP.Link)
	}
	if !strings.Contains(resp.RSVP.Link, "/en/rsvp/") {
		t.Errorf("plus-one link %q should inherit the original's language", resp.RSVP.Link)
	}

	plusOne := reloadGuest(t, db, plusOneID)
	if plusOne.PlusOneOfID == nil || *plusOne.PlusOneOfID != original.ID {
		t.Errorf("plus_one_of_id = %v, want %s", plusOne.PlusOneOfID, original.ID)
	}
	if plusOne.PreferredLanguage != models.LanguageEN {
		t.Errorf("preferred_language = %q, want inherited en", plusOne.PreferredLanguage)
	}
	if plusOne.Allergies != "peanuts" {
		t.Errorf("allergies = %q, want peanuts", plusOne.Allergies)
	}

	reloaded := reloadGuest(t, db, original.ID)
	if reloaded.BringAPlusOneID == nil || *reloaded.BringAPlusOneID != plusOneID {
		t.Errorf("bring_a_plus_one_id = %v, want %s", reloaded.BringAPlusOneID, plusOneID)
	}

	if got := dietaryTypes(t, db, plusOneID); len(got) != 1 || got[0] != models.DietaryVegetarian {
		t.Errorf("dietary = %v, want [vegetarian]", got)
	}
}

func TestCreatePlusOneIdempotent(t *testing.T) {
	db := newTestDB(t)
	original := seedGuest(t, db, "john@example.com", "token-john")

	data := models.PlusOneSubmit{Email: "jane@example.com", FirstName: "Jane", LastName: "Smith"}

	_, firstID, err := CreatePlusOne(db, original.ID, data)
	if err != nil {
		t.Fatalf("first CreatePlusOne failed: %v", err)
	}

	resp, secondID, err := CreatePlusOne(db, original.ID, data)
	if err != nil {
		t.Fatalf("second CreatePlusOne failed: %v", err)
	}
	if firstID != secondID {
		t.Errorf("repeated call returned %s, want %s", secondID, firstID)
	}
	if resp.ID != firstID {
		t.Errorf("response id = %s, want %s", resp.ID, firstID)
	}

	var count int64
	db.Model(&models.Guest{}).Where("plus_one_of_id = ?", original.ID).Count(&count)
	if count != 1 {
		t.Errorf("plus-one guest count = %d, want 1", count)
	}
}

func TestCreatePlusOneDepthLimit(t *testing.T) {
	db := newTestDB(t)
	original := seedGuest(t, db, "john@example.com", "token-john")

	_, plusOneID, err := CreatePlusOne(db, original.ID, models.PlusOneSubmit{
		Email: "jane@example.com", FirstName: "Jane", LastName: "Smith",
	})
	if err != nil {
		t.Fatalf("CreatePlusOne failed: %v", err)
	}

	// The plus-one now tries to bring their own plus-one.
	_, _, err = CreatePlusOne(db, plusOneID, models.PlusOneSubmit{
		Email: "third@example.com", FirstName: "Third", LastName: "Wheel",
	})
	if !errors.Is(err, ErrCannotAddPlusOne) {
		t.Fatalf("err = %v, want ErrCannotAddPlusOne", err)
	}
}

func TestCreatePlusOneEmailImmutable(t *testing.T) {
	db := newTestDB(t)
	original := seedGuest(t, db, "john@example.com", "token-john")

	_, _, err := CreatePlusOne(db, original.ID, models.PlusOneSubmit{
		Email: "jane@example.com", FirstName: "Jane", LastName: "Smith",
	})
	if err != nil {
		t.Fatalf("CreatePlusOne failed: %v", err)
	}

	_, _, err = CreatePlusOne(db, original.ID, models.PlusOneSubmit{
		Email: "other@example.com", FirstName: "Other", LastName: "Person",
	})
	if !errors.Is(err, ErrCannotChangePlusOneEmail) {
		t.Fatalf("err = %v, want ErrCannotChangePlusOneEmail", err)
	}

	// Same email with refreshed details is still allowed.
	_, _, err = CreatePlusOne(db, original.ID, models.PlusOneSubmit{
		Email: "jane@example.com", FirstName: "Janet", LastName: "Smith",
	})
	if err != nil {
		t.Fatalf("same-email re-invocation failed: %v", err)
	}
}

func TestCreatePlusOneOriginalMissing(t *testing.T) {
	db := newTestDB(t)

	_, _, err := CreatePlusOne(db, uuid.New(), models.PlusOneSubmit{
		Email: "jane@example.com", FirstName: "Jane", LastName: "Smith",
	})
	if !errors.Is(err, ErrGuestNotFound) {
		t.Fatalf("err = %v, want ErrGuestNotFound", err)
	}
}
