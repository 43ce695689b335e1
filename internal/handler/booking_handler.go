package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meetsync/meetsync-api/internal/availability"
	"github.com/meetsync/meetsync-api/internal/service"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
	"github.com/meetsync/meetsync-api/pkg/response"
)

// BookingHandler exposes the unauthenticated visitor booking flow.
type BookingHandler struct {
	bookings  *service.BookingService
	calendars *service.CalendarService
	feed      *service.FeedService
}

func NewBookingHandler(bookings *service.BookingService, calendars *service.CalendarService, feed *service.FeedService) *BookingHandler {
	return &BookingHandler{bookings: bookings, calendars: calendars, feed: feed}
}

// GetCalendar godoc
// @Summary Get a public calendar
// @Tags Public
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/calendars/{id} [get]
func (h *BookingHandler) GetCalendar(c *gin.Context) {
	calendar, err := h.calendars.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}

// ListDates godoc
// @Summary List bookable dates
// @Description Dates with at least one open slot, scanning forward from the reference date
// @Tags Public
// @Produce json
// @Param id path string true "Calendar ID"
// @Param from query string false "Reference date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/calendars/{id}/dates [get]
func (h *BookingHandler) ListDates(c *gin.Context) {
	reference := time.Now().UTC()
	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(availability.DateLayout, from)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date, expected YYYY-MM-DD"))
			return
		}
		reference = parsed
	}

	dates, err := h.bookings.BookableDates(c.Request.Context(), c.Param("id"), reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dates, nil)
}

// ListSlots godoc
// @Summary List open slots on a date
// @Tags Public
// @Produce json
// @Param id path string true "Calendar ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/calendars/{id}/slots [get]
func (h *BookingHandler) ListSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	slots, err := h.bookings.SlotsForDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slots, nil)
}

// Submit godoc
// @Summary Book a slot
// @Description Validates the selected slot against current availability and creates a pending meeting
// @Tags Public
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param payload body service.SubmitBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /public/calendars/{id}/bookings [post]
func (h *BookingHandler) Submit(c *gin.Context) {
	var req service.SubmitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}

	meeting, err := h.bookings.SubmitBooking(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, meeting)
}

// Feed godoc
// @Summary Subscribe to a calendar's meetings as ICS
// @Tags Public
// @Produce text/calendar
// @Param id path string true "Calendar ID"
// @Success 200 {string} string "iCalendar document"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /public/calendars/{id}/feed.ics [get]
func (h *BookingHandler) Feed(c *gin.Context) {
	content, err := h.feed.CalendarFeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", content)
}
