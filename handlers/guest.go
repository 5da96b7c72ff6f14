package handlers

import (
	"net/http"
	"strconv"

	"wedding-backend/database"
	"wedding-backend/models"
	"wedding-backend/services"
	"wedding-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/admin/guests
func CreateGuest(c *gin.Context) {
	var req models.CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	service := services.NewGuestService(database.DB, services.GetNotificationService())
	guest, err := service.CreateGuest(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Guest created", guest)
}

// POST /api/admin/guests/child
func CreateChildGuest(c *gin.Context) {
	var req models.CreateChildGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	service := services.NewGuestService(database.DB, services.GetNotificationService())
	guest, err := service.CreateChildGuest(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Child guest created", guest)
}

// POST /api/request-invitation
func RequestInvitation(c *gin.Context) {
	var req models.RequestInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	service := services.NewGuestService(database.DB, services.GetNotificationService())
	message, err := service.RequestInvitation(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, nil)
}

// POST /api/admin/families
func CreateFamily(c *gin.Context) {
	var req models.CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	family := models.Family{Name: req.Name}
	if err := database.DB.Create(&family).Error; err != nil {
		utils.InternalError(c, "Failed to create family")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Family created", family.ToResponse())
}

// GET /api/admin/guests?status=&skip=&limit=
func ListGuests(c *gin.Context) {
	var status *models.RSVPStatus
	if raw := c.Query("status"); raw != "" {
		s := models.RSVPStatus(raw)
		if s != models.RSVPPending && s != models.RSVPConfirmed && s != models.RSVPDeclined {
			utils.BadRequest(c, "Unknown RSVP status "+raw)
			return
		}
		status = &s
	}

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		utils.BadRequest(c, "Invalid skip parameter")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		utils.BadRequest(c, "Invalid limit parameter")
		return
	}

	service := services.NewGuestService(database.DB, nil)
	list, err := service.ListGuests(status, skip, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", list)
}
