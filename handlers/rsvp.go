package handlers

import (
	"errors"
	"net/http"

	"wedding-backend/database"
	"wedding-backend/models"
	"wedding-backend/services"
	"wedding-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrGuestNotFound),
		errors.Is(err, services.ErrFamilyMemberNotFound),
		errors.Is(err, services.ErrFamilyNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrGuestAlreadyExists),
		errors.Is(err, services.ErrCannotAddPlusOne),
		errors.Is(err, services.ErrCannotChangePlusOneEmail):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Conflict(c, err.Error())
	default:
		utils.InternalError(c, "Something went wrong")
	}
}

// GET /api/rsvp?token=
func GetRSVP(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.BadRequest(c, "Missing RSVP token")
		return
	}

	prefill, err := services.GetRSVPPrefill(database.DB, token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", prefill)
}

// POST /api/rsvp?token=
func SubmitRSVP(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.BadRequest(c, "Missing RSVP token")
		return
	}

	var req models.RSVPSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	submission, err := req.Normalize()
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	service := services.NewRSVPService(database.DB, services.GetNotificationService())
	resp, err := service.Submit(token, submission)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp.Message, resp)
}
