package services

import (
	"errors"
	"strings"
	"testing"

	"wedding-backend/models"
)

func TestCreateGuest(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewGuestService(db, notifier)

	resp, err := svc.CreateGuest(models.CreateGuestRequest{
		Email:             "anna@example.com",
		FirstName:         "Anna",
		LastName:          "Lee",
		Phone:             "+31611112222",
		PreferredLanguage: models.LanguageES,
	})
	if err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}

	if resp.Email != "anna@example.com" || resp.GuestType != models.GuestTypeAdult {
		t.Errorf("resp = %+v, want adult anna@example.com", resp)
	}
	if resp.RSVP.Token == "" {
		t.Error("token must be generated")
	}
	if !strings.Contains(resp.RSVP.Link, "/es/rsvp/?token="+resp.RSVP.Token) {
		t.Errorf("link = %q, want language-prefixed token link", resp.RSVP.Link)
	}
	if strings.Contains(resp.RSVP.Link, "plus_one") {
		t.Errorf("link = %q, must not carry the plus-one marker", resp.RSVP.Link)
	}

	if len(notifier.invitations) != 1 || notifier.invitations[0] != "anna@example.com" {
		t.Errorf("invitations = %v, want one to anna@example.com", notifier.invitations)
	}
	if rsvpForGuest(t, db, resp.ID).EmailSentOn == nil {
		t.Error("email_sent_on not recorded after successful send")
	}
}

func TestCreateGuestDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, &fakeNotifier{})

	req := models.CreateGuestRequest{Email: "anna@example.com", FirstName: "Anna", LastName: "Lee"}
	if _, err := svc.CreateGuest(req); err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}

	_, err := svc.CreateGuest(req)
	if !errors.Is(err, ErrGuestAlreadyExists) {
		t.Fatalf("err = %v, want ErrGuestAlreadyExists", err)
	}

	var count int64
	db.Model(&models.Guest{}).Count(&count)
	if count != 1 {
		t.Errorf("guest count = %d, want 1", count)
	}
}

func TestCreateGuestSendFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, &fakeNotifier{failSend: true})

	resp, err := svc.CreateGuest(models.CreateGuestRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee",
	})
	if err != nil {
		t.Fatalf("CreateGuest must succeed when the email fails: %v", err)
	}
	if rsvpForGuest(t, db, resp.ID).EmailSentOn != nil {
		t.Error("email_sent_on must stay nil after a failed send")
	}
}

func TestCreateGuestWithoutEmailDispatch(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewGuestService(db, notifier)

	off := false
	resp, err := svc.CreateGuest(models.CreateGuestRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee", SendEmail: &off,
	})
	if err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}
	if len(notifier.invitations) != 0 {
		t.Errorf("invitations = %v, want none", notifier.invitations)
	}
	if rsvpForGuest(t, db, resp.ID).EmailSentOn != nil {
		t.Error("email_sent_on must stay nil when dispatch is disabled")
	}
}

func TestRequestInvitationIdempotent(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewGuestService(db, notifier)

	req := models.RequestInvitationRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee",
	}
	msg, err := svc.RequestInvitation(req)
	if err != nil {
		t.Fatalf("first RequestInvitation failed: %v", err)
	}
	if msg != "Check your email for your invitation link" {
		t.Errorf("message = %q", msg)
	}

	if _, err := svc.RequestInvitation(req); err != nil {
		t.Fatalf("second RequestInvitation failed: %v", err)
	}

	var guests int64
	db.Model(&models.Guest{}).Count(&guests)
	if guests != 1 {
		t.Errorf("guest count = %d, want 1", guests)
	}
	var users int64
	db.Model(&models.User{}).Count(&users)
	if users != 1 {
		t.Errorf("user count = %d, want 1", users)
	}
	if len(notifier.invitations) != 2 {
		t.Errorf("invitations = %d, want a resend on the repeat call", len(notifier.invitations))
	}
}

func TestRequestInvitationLanguage(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, &fakeNotifier{})

	nl := models.LanguageNL
	if _, err := svc.RequestInvitation(models.RequestInvitationRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee", Language: &nl,
	}); err != nil {
		t.Fatalf("RequestInvitation failed: %v", err)
	}

	var guest models.Guest
	if err := db.First(&guest).Error; err != nil {
		t.Fatalf("failed to load guest: %v", err)
	}
	if guest.PreferredLanguage != models.LanguageNL {
		t.Errorf("language = %q, want nl", guest.PreferredLanguage)
	}

	// No language in the repeat request: the stored preference survives.
	if _, err := svc.RequestInvitation(models.RequestInvitationRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee",
	}); err != nil {
		t.Fatalf("repeat RequestInvitation failed: %v", err)
	}
	if got := reloadGuest(t, db, guest.ID).PreferredLanguage; got != models.LanguageNL {
		t.Errorf("language = %q, want preserved nl", got)
	}

	// An explicit language on the repeat request updates it.
	es := models.LanguageES
	if _, err := svc.RequestInvitation(models.RequestInvitationRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee", Language: &es,
	}); err != nil {
		t.Fatalf("language-updating RequestInvitation failed: %v", err)
	}
	if got := reloadGuest(t, db, guest.ID).PreferredLanguage; got != models.LanguageES {
		t.Errorf("language = %q, want updated es", got)
	}
}

func TestCreateGuestInFamily(t *testing.T) {
	db := newTestDB(t)
	family := seedFamily(t, db, "Lee")
	svc := NewGuestService(db, &fakeNotifier{})

	resp, err := svc.CreateGuest(models.CreateGuestRequest{
		Email: "anna@example.com", FirstName: "Anna", LastName: "Lee",
		FamilyID: family.ID.String(),
	})
	if err != nil {
		t.Fatalf("CreateGuest failed: %v", err)
	}
	if resp.FamilyID == nil || *resp.FamilyID != family.ID {
		t.Errorf("family_id = %v, want %s", resp.FamilyID, family.ID)
	}

	_, err = svc.CreateGuest(models.CreateGuestRequest{
		Email: "ben@example.com", FirstName: "Ben", LastName: "Lee",
		FamilyID: "00000000-0000-0000-0000-000000000001",
	})
	if !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("err = %v, want ErrFamilyNotFound", err)
	}
	// The aborted creation must leave no guest or account behind.
	var users int64
	db.Model(&models.User{}).Where("email = ?", "ben@example.com").Count(&users)
	if users != 0 {
		t.Errorf("user rows for aborted creation = %d, want 0", users)
	}
}

func TestListGuests(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, &fakeNotifier{})

	for _, g := range []struct{ email, first string }{
		{"anna@example.com", "Anna"},
		{"ben@example.com", "Ben"},
		{"carol@example.com", "Carol"},
	} {
		if _, err := svc.CreateGuest(models.CreateGuestRequest{
			Email: g.email, FirstName: g.first, LastName: "Lee",
		}); err != nil {
			t.Fatalf("CreateGuest %s failed: %v", g.email, err)
		}
	}

	// Confirm one of them so the status filter has something to find.
	var annaGuest models.Guest
	if err := db.Joins("JOIN users ON users.id = guests.user_id").
		Where("users.email = ?", "anna@example.com").First(&annaGuest).Error; err != nil {
		t.Fatalf("failed to load anna: %v", err)
	}
	rsvpSvc := NewRSVPService(db, &fakeNotifier{})
	if _, err := submit(t, rsvpSvc, rsvpForGuest(t, db, annaGuest.ID).RSVPToken,
		models.RSVPSubmitRequest{Attending: true}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	list, err := svc.ListGuests(nil, 0, 100)
	if err != nil {
		t.Fatalf("ListGuests failed: %v", err)
	}
	if list.Total != 3 || len(list.Guests) != 3 {
		t.Fatalf("list = %d/%d, want 3 guests", len(list.Guests), list.Total)
	}
	if list.Guests[0].Email == "" {
		t.Error("listed guests must carry their account email")
	}

	confirmed := models.RSVPConfirmed
	list, err = svc.ListGuests(&confirmed, 0, 100)
	if err != nil {
		t.Fatalf("filtered ListGuests failed: %v", err)
	}
	if list.Total != 1 || len(list.Guests) != 1 {
		t.Fatalf("filtered list = %d/%d, want exactly anna", len(list.Guests), list.Total)
	}
	if list.Guests[0].ID != annaGuest.ID {
		t.Errorf("filtered guest = %s, want %s", list.Guests[0].ID, annaGuest.ID)
	}
	if list.Guests[0].RSVP.Status != models.RSVPConfirmed {
		t.Errorf("filtered status = %q, want confirmed", list.Guests[0].RSVP.Status)
	}

	// Pagination: total keeps the full count while the page shrinks.
	list, err = svc.ListGuests(nil, 1, 1)
	if err != nil {
		t.Fatalf("paginated ListGuests failed: %v", err)
	}
	if list.Total != 3 || len(list.Guests) != 1 {
		t.Errorf("page = %d/%d, want 1 of 3", len(list.Guests), list.Total)
	}
}

func TestCreateChildGuest(t *testing.T) {
	db := newTestDB(t)
	family := seedFamily(t, db, "Lee")
	svc := NewGuestService(db, &fakeNotifier{})

	resp, err := svc.CreateChildGuest(models.CreateChildGuestRequest{
		FamilyID: family.ID.String(), FirstName: "Milo", LastName: "Lee",
	})
	if err != nil {
		t.Fatalf("CreateChildGuest failed: %v", err)
	}

	if resp.GuestType != models.GuestTypeChild {
		t.Errorf("guest type = %q, want child", resp.GuestType)
	}
	if resp.RSVP.Token != "" || resp.RSVP.Link != "" {
		t.Errorf("child rsvp = %+v, want empty token and link", resp.RSVP)
	}
	child := reloadGuest(t, db, resp.ID)
	if child.UserID != nil {
		t.Error("child must not get an account")
	}
	if child.FamilyID == nil || *child.FamilyID != family.ID {
		t.Errorf("family_id = %v, want %s", child.FamilyID, family.ID)
	}

	// A second child with another empty token must not trip token uniqueness.
	if _, err := svc.CreateChildGuest(models.CreateChildGuestRequest{
		FamilyID: family.ID.String(), FirstName: "Noa", LastName: "Lee",
	}); err != nil {
		t.Fatalf("second CreateChildGuest failed: %v", err)
	}
}

func TestCreateChildGuestUnknownFamily(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, &fakeNotifier{})

	_, err := svc.CreateChildGuest(models.CreateChildGuestRequest{
		FamilyID: "00000000-0000-0000-0000-000000000001", FirstName: "Milo", LastName: "Lee",
	})
	if !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("err = %v, want ErrFamilyNotFound", err)
	}

	_, err = svc.CreateChildGuest(models.CreateChildGuestRequest{
		FamilyID: "not-a-uuid", FirstName: "Milo", LastName: "Lee",
	})
	if !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("err = %v, want ErrFamilyNotFound for malformed id", err)
	}
}
