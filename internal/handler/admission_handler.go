package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

type admissionService interface {
	List(ctx context.Context) ([]models.AdmissionSettings, error)
	Get(ctx context.Context, id string) (*models.AdmissionSettings, error)
	Create(ctx context.Context, req dto.AdmissionSettingsRequest) (*models.AdmissionSettings, error)
	Update(ctx context.Context, id string, req dto.AdmissionSettingsRequest) (*models.AdmissionSettings, error)
	SetActive(ctx context.Context, id string, active bool) (*models.AdmissionSettings, error)
	Delete(ctx context.Context, id string) error
}

// AdmissionHandler manages PPDB settings rows.
type AdmissionHandler struct {
	service admissionService
}

// NewAdmissionHandler constructs the handler.
func NewAdmissionHandler(svc admissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// List godoc
// @Summary List admission settings
// @Tags Admission
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/ppdb/settings [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get admission settings
// @Tags Admission
// @Produce json
// @Param id path string true "Settings ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/ppdb/settings/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Create godoc
// @Summary Create admission settings
// @Description New rows start inactive
// @Tags Admission
// @Accept json
// @Produce json
// @Param payload body dto.AdmissionSettingsRequest true "Settings payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/ppdb/settings [post]
func (h *AdmissionHandler) Create(c *gin.Context) {
	var req dto.AdmissionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Save admission settings
// @Tags Admission
// @Accept json
// @Produce json
// @Param id path string true "Settings ID"
// @Param payload body dto.AdmissionSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/ppdb/settings/{id} [put]
func (h *AdmissionHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AdmissionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Toggle godoc
// @Summary Open or close registration
// @Description Activating a row deactivates every other row
// @Tags Admission
// @Accept json
// @Produce json
// @Param id path string true "Settings ID"
// @Param payload body dto.ToggleAdmissionRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/ppdb/settings/{id}/toggle [patch]
func (h *AdmissionHandler) Toggle(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ToggleAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	item, err := h.service.SetActive(c.Request.Context(), id, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete admission settings
// @Tags Admission
// @Param id path string true "Settings ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /dashboard/ppdb/settings/{id} [delete]
func (h *AdmissionHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
