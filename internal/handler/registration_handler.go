package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/service"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

type registrationService interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Registration, error)
	Transition(ctx context.Context, actorID, id string, req dto.StatusTransitionRequest, ip, userAgent string) (*models.Registration, error)
	Export(ctx context.Context, filter models.RegistrationFilter, format string) (*service.RegistrationExport, error)
}

// RegistrationHandler exposes the admin view of PPDB registrations.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param academic_year query string false "Academic year"
// @Param school_id query string false "School ID"
// @Param search query string false "Name or number"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), registrationFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
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

// Transition godoc
// @Summary Change registration status
// @Description pending→verified/rejected/cancelled, verified→accepted/rejected/cancelled, accepted/rejected→cancelled
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.StatusTransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /dashboard/registrations/{id}/status [patch]
func (h *RegistrationHandler) Transition(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.StatusTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	item, err := h.service.Transition(c.Request.Context(), claims.UserID, id, req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Export godoc
// @Summary Export registrations
// @Tags Registrations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Comma separated statuses"
// @Param academic_year query string false "Academic year"
// @Param school_id query string false "School ID"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /dashboard/registrations/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), registrationFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

func registrationFilter(c *gin.Context) models.RegistrationFilter {
	filter := models.RegistrationFilter{
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
		SchoolID:     strings.TrimSpace(c.Query("school_id")),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 0),
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Statuses = append(filter.Statuses, models.RegistrationStatus(strings.ToLower(part)))
			}
		}
	}
	return filter
}
