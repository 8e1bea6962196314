package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/dto"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type markingService interface {
	Open(ctx context.Context, req dto.OpenSessionRequest, claims *models.JWTClaims) (*dto.SessionView, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error)
	Toggle(ctx context.Context, id string, req dto.ToggleAbsenceRequest, claims *models.JWTClaims) (*dto.SessionView, error)
	MarkAll(ctx context.Context, id string, req dto.MarkAllRequest, claims *models.JWTClaims) (*dto.SessionView, error)
	Confirm(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error)
	Cancel(ctx context.Context, id string, claims *models.JWTClaims) (*dto.SessionView, error)
	Submit(ctx context.Context, id string, claims *models.JWTClaims) (*models.SubmissionResult, error)
}

// MarkingHandler exposes the roster marking workflow.
type MarkingHandler struct {
	service markingService
}

// NewMarkingHandler builds a marking handler.
func NewMarkingHandler(service markingService) *MarkingHandler {
	return &MarkingHandler{service: service}
}

// Open godoc
// @Summary Open a marking session for a class roster
// @Tags Marking
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Class and day"
// @Success 201 {object} response.Envelope
// @Router /marking/sessions [post]
func (h *MarkingHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	view, err := h.service.Open(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get a marking session
// @Tags Marking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /marking/sessions/{id} [get]
func (h *MarkingHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Toggle godoc
// @Summary Flag or clear one student
// @Tags Marking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ToggleAbsenceRequest true "Student"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /marking/sessions/{id}/toggle [post]
func (h *MarkingHandler) Toggle(c *gin.Context) {
	var req dto.ToggleAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	view, err := h.service.Toggle(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// MarkAll godoc
// @Summary Mark every student absent or present
// @Tags Marking
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MarkAllRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /marking/sessions/{id}/mark-all [post]
func (h *MarkingHandler) MarkAll(c *gin.Context) {
	var req dto.MarkAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark all payload"))
		return
	}
	view, err := h.service.MarkAll(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Confirm godoc
// @Summary Review the selection before submitting
// @Tags Marking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /marking/sessions/{id}/confirm [post]
func (h *MarkingHandler) Confirm(c *gin.Context) {
	view, err := h.service.Confirm(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Cancel godoc
// @Summary Leave review and keep editing
// @Tags Marking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /marking/sessions/{id}/cancel [post]
func (h *MarkingHandler) Cancel(c *gin.Context) {
	view, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Submit godoc
// @Summary Submit the confirmed roster
// @Tags Marking
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /marking/sessions/{id}/submit [post]
func (h *MarkingHandler) Submit(c *gin.Context) {
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
