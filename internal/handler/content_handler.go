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

type schoolService interface {
	List(ctx context.Context, level string) ([]models.School, error)
	Get(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, req dto.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, id string, req dto.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, id string) error
}

type newsService interface {
	List(ctx context.Context, category string, page, size int) ([]models.News, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.News, error)
	Create(ctx context.Context, authorID string, req dto.NewsRequest) (*models.News, error)
	Update(ctx context.Context, id string, req dto.NewsRequest) (*models.News, error)
	TogglePublish(ctx context.Context, id string) (*models.News, error)
	Delete(ctx context.Context, id string) error
}

type galleryService interface {
	List(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, error)
	Get(ctx context.Context, id string) (*models.Gallery, error)
	Create(ctx context.Context, req dto.GalleryRequest) (*models.Gallery, error)
	Update(ctx context.Context, id string, req dto.GalleryRequest) (*models.Gallery, error)
	ToggleFeatured(ctx context.Context, id string) (*models.Gallery, error)
	Delete(ctx context.Context, id string) error
}

// SchoolHandler manages foundation schools from the dashboard.
type SchoolHandler struct {
	service schoolService
}

// NewSchoolHandler constructs the handler.
func NewSchoolHandler(svc schoolService) *SchoolHandler {
	return &SchoolHandler{service: svc}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Param category query string false "Level filter or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get school
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
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
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body dto.SchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req dto.SchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid school payload"))
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
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body dto.SchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid school payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete school
// @Tags Schools
// @Param id path string true "School ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /dashboard/schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
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

// NewsHandler manages news articles from the dashboard.
type NewsHandler struct {
	service newsService
}

// NewNewsHandler constructs the handler.
func NewNewsHandler(svc newsService) *NewsHandler {
	return &NewsHandler{service: svc}
}

// List godoc
// @Summary List news
// @Tags News
// @Produce json
// @Param category query string false "Category or all"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dashboard/news [get]
func (h *NewsHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), c.Query("category"), queryInt(c, "page", 1), queryInt(c, "page_size", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get news
// @Tags News
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/news/{id} [get]
func (h *NewsHandler) Get(c *gin.Context) {
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
// @Summary Create news
// @Tags News
// @Accept json
// @Produce json
// @Param payload body dto.NewsRequest true "News payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/news [post]
func (h *NewsHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid news payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update news
// @Tags News
// @Accept json
// @Produce json
// @Param id path string true "News ID"
// @Param payload body dto.NewsRequest true "News payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/news/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.NewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid news payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// TogglePublish godoc
// @Summary Flip the published flag
// @Tags News
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/news/{id}/publish [patch]
func (h *NewsHandler) TogglePublish(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.TogglePublish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete news
// @Tags News
// @Param id path string true "News ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /dashboard/news/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
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

// GalleryHandler manages gallery images from the dashboard.
type GalleryHandler struct {
	service galleryService
}

// NewGalleryHandler constructs the handler.
func NewGalleryHandler(svc galleryService) *GalleryHandler {
	return &GalleryHandler{service: svc}
}

// List godoc
// @Summary List gallery images
// @Tags Gallery
// @Produce json
// @Param category query string false "Category or all"
// @Success 200 {object} response.Envelope
// @Router /dashboard/gallery [get]
func (h *GalleryHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), models.GalleryFilter{Category: c.Query("category")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Get godoc
// @Summary Get gallery image
// @Tags Gallery
// @Produce json
// @Param id path string true "Gallery ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/gallery/{id} [get]
func (h *GalleryHandler) Get(c *gin.Context) {
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
// @Summary Create gallery image
// @Tags Gallery
// @Accept json
// @Produce json
// @Param payload body dto.GalleryRequest true "Gallery payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/gallery [post]
func (h *GalleryHandler) Create(c *gin.Context) {
	var req dto.GalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gallery payload"))
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
// @Summary Update gallery image
// @Tags Gallery
// @Accept json
// @Produce json
// @Param id path string true "Gallery ID"
// @Param payload body dto.GalleryRequest true "Gallery payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/gallery/{id} [put]
func (h *GalleryHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gallery payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// ToggleFeatured godoc
// @Summary Flip the featured flag
// @Tags Gallery
// @Produce json
// @Param id path string true "Gallery ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/gallery/{id}/featured [patch]
func (h *GalleryHandler) ToggleFeatured(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete gallery image
// @Tags Gallery
// @Param id path string true "Gallery ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /dashboard/gallery/{id} [delete]
func (h *GalleryHandler) Delete(c *gin.Context) {
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
