package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetsync/meetsync-api/internal/service"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
	"github.com/meetsync/meetsync-api/pkg/response"
)

// AvailabilityHandler exposes owner availability rule management.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List availability rules for a calendar
// @Tags Availability
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendars/{id}/availabilities [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rules, err := h.service.List(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Add an availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param payload body service.CreateAvailabilityRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /calendars/{id}/availabilities [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	rule, err := h.service.Create(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, rule)
}

// Update godoc
// @Summary Replace an availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body service.CreateAvailabilityRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /availabilities/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	rule, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete an availability rule
// @Tags Availability
// @Param id path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /availabilities/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
