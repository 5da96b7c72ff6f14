package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNormalizeLegacyShape(t *testing.T) {
	allergies := "sesame"
	req := RSVPSubmitRequest{
		Attending: true,
		Dietary:   []DietaryRequirement{{RequirementType: DietaryVegan}},
		Allergies: &allergies,
	}

	sub, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !sub.Primary.Attending {
		t.Error("attending not carried over")
	}
	if sub.Primary.FirstName != nil || sub.Primary.LastName != nil {
		t.Error("legacy shape must not invent name updates")
	}
	if sub.Primary.Allergies == nil || *sub.Primary.Allergies != "sesame" {
		t.Errorf("allergies = %v, want sesame", sub.Primary.Allergies)
	}
	if len(sub.Primary.Dietary) != 1 || sub.Primary.Dietary[0].RequirementType != DietaryVegan {
		t.Errorf("dietary = %v, want [vegan]", sub.Primary.Dietary)
	}
}

func TestNormalizeGuestInfoPrecedence(t *testing.T) {
	nestedAllergies := "peanuts"
	topAllergies := "sesame"
	req := RSVPSubmitRequest{
		Attending: true,
		GuestInfo: &GuestInfoSubmit{
			FirstName: "Jane",
			LastName:  "Doe",
			Allergies: &nestedAllergies,
			Dietary:   []DietaryRequirement{{RequirementType: DietaryHalal}},
		},
		Dietary:   []DietaryRequirement{{RequirementType: DietaryVegan}},
		Allergies: &topAllergies,
	}

	sub, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if sub.Primary.FirstName == nil || *sub.Primary.FirstName != "Jane" {
		t.Errorf("first name = %v, want Jane", sub.Primary.FirstName)
	}
	if *sub.Primary.Allergies != "peanuts" {
		t.Errorf("allergies = %q, nested value must win", *sub.Primary.Allergies)
	}
	if len(sub.Primary.Dietary) != 1 || sub.Primary.Dietary[0].RequirementType != DietaryHalal {
		t.Errorf("dietary = %v, nested value must win", sub.Primary.Dietary)
	}
}

func TestNormalizeFamilyMembers(t *testing.T) {
	memberID := uuid.New()
	req := RSVPSubmitRequest{
		Attending: true,
		FamilyMembers: map[string]FamilyMemberSubmit{
			memberID.String(): {
				Attending: true,
				GuestInfo: &GuestInfoSubmit{FirstName: "Kid", LastName: "Doe"},
			},
		},
	}

	sub, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	upd, ok := sub.FamilyMembers[memberID]
	if !ok {
		t.Fatalf("member %s missing from normalized map", memberID)
	}
	if upd.FirstName == nil || *upd.FirstName != "Kid" {
		t.Errorf("member first name = %v, want Kid", upd.FirstName)
	}
}

func TestNormalizeBadFamilyMemberID(t *testing.T) {
	req := RSVPSubmitRequest{
		Attending: true,
		FamilyMembers: map[string]FamilyMemberSubmit{
			"not-a-uuid": {Attending: true},
		},
	}

	_, err := req.Normalize()
	if err == nil || !strings.Contains(err.Error(), "invalid family member id") {
		t.Fatalf("err = %v, want invalid family member id", err)
	}
}

func TestNormalizeRejectsOtherWithoutNotes(t *testing.T) {
	req := RSVPSubmitRequest{
		Attending: true,
		Dietary:   []DietaryRequirement{{RequirementType: DietaryOther}},
	}
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected validation error for other without notes")
	}

	req.Dietary[0].Notes = "low sodium"
	if _, err := req.Normalize(); err != nil {
		t.Fatalf("Normalize failed with notes present: %v", err)
	}

	req.Dietary[0].RequirementType = "camel_milk_only"
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected validation error for unknown requirement type")
	}
}

func TestNormalizePlusOneDietaryValidated(t *testing.T) {
	req := RSVPSubmitRequest{
		Attending: true,
		PlusOneDetails: &PlusOneSubmit{
			Email:     "p@x.com",
			FirstName: "P",
			LastName:  "Q",
			Dietary:   []DietaryRequirement{{RequirementType: DietaryOther}},
		},
	}
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected validation error for plus-one dietary")
	}
}
