package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, bool, error)
}

type auditLister interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error)
}

// DashboardHandler wires the dashboard summary and audit trail to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	audit   auditLister
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, audit auditLister) *DashboardHandler {
	return &DashboardHandler{service: service, audit: audit}
}

// Stats godoc
// @Summary Dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, cacheMeta(c, cacheHit, start))
}

// AuditLogs godoc
// @Summary List audit trail
// @Tags Dashboard
// @Produce json
// @Param resource query string false "Resource name"
// @Param user_id query string false "Actor"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dashboard/audit-logs [get]
func (h *DashboardHandler) AuditLogs(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter := models.AuditLogFilter{
		Resource: c.Query("resource"),
		UserID:   c.Query("user_id"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
	logs, pagination, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
