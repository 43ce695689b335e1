package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetsync/meetsync-api/internal/models"
	"github.com/meetsync/meetsync-api/internal/service"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
	"github.com/meetsync/meetsync-api/pkg/response"
)

// MeetingHandler exposes the owner's meeting dashboard endpoints.
type MeetingHandler struct {
	meetings *service.MeetingService
	bookings *service.BookingService
	exports  *service.ExportService
}

// NewMeetingHandler creates a new handler. The export service may be nil
// when downloads are disabled.
func NewMeetingHandler(meetings *service.MeetingService, bookings *service.BookingService, exports *service.ExportService) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, bookings: bookings, exports: exports}
}

// List godoc
// @Summary List meetings across my calendars
// @Tags Meetings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	meetings, err := h.meetings.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, meetings, nil)
}

// ListByCalendar godoc
// @Summary List meetings on one calendar
// @Tags Meetings
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendars/{id}/meetings [get]
func (h *MeetingHandler) ListByCalendar(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	meetings, err := h.meetings.ListByCalendar(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, meetings, nil)
}

// Get godoc
// @Summary Get a meeting
// @Tags Meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	meeting, err := h.meetings.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, meeting, nil)
}

// UpdateStatus godoc
// @Summary Confirm or cancel a pending meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Param id path string true "Meeting ID"
// @Param payload body map[string]string true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meetings/{id}/status [patch]
func (h *MeetingHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Status models.MeetingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}

	meeting, err := h.bookings.TransitionStatus(c.Request.Context(), claims.UserID, c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, meeting, nil)
}

// Delete godoc
// @Summary Delete a meeting record
// @Tags Meetings
// @Param id path string true "Meeting ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /meetings/{id} [delete]
func (h *MeetingHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.meetings.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export my meetings
// @Tags Meetings
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {string} string "File download"
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /meetings/export [get]
func (h *MeetingHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.exports.ExportMeetings(c.Request.Context(), claims.UserID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
