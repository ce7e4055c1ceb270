package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

type publicSchools interface {
	ListPublic(ctx context.Context, level string) ([]models.School, bool, error)
}

type publicNews interface {
	ListPublished(ctx context.Context, category string, limit int) ([]models.News, bool, error)
	GetPublished(ctx context.Context, slug string) (*models.News, bool, error)
}

type publicGallery interface {
	ListPublic(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, bool, error)
}

type publicAdmission interface {
	PublicWindow(ctx context.Context) (models.AdmissionWindow, bool, error)
}

// PublicHandler serves the cached content read by the public site.
type PublicHandler struct {
	schools   publicSchools
	news      publicNews
	gallery   publicGallery
	admission publicAdmission
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(schools publicSchools, news publicNews, gallery publicGallery, admission publicAdmission) *PublicHandler {
	return &PublicHandler{schools: schools, news: news, gallery: gallery, admission: admission}
}

// Schools godoc
// @Summary List foundation schools
// @Tags Public
// @Produce json
// @Param level query string false "RA, TK, MI, MTs or MA"
// @Success 200 {object} response.Envelope
// @Router /sekolah [get]
func (h *PublicHandler) Schools(c *gin.Context) {
	h.listSchools(c, c.Query("level"))
}

// SchoolsByLevel godoc
// @Summary List schools of one level
// @Tags Public
// @Produce json
// @Param level path string true "RA, TK, MI, MTs or MA"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sekolah/{level} [get]
func (h *PublicHandler) SchoolsByLevel(c *gin.Context) {
	h.listSchools(c, c.Param("level"))
}

func (h *PublicHandler) listSchools(c *gin.Context, level string) {
	start := time.Now()
	schools, hit, err := h.schools.ListPublic(c.Request.Context(), level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, nil, cacheMeta(c, hit, start))
}

// News godoc
// @Summary List published news
// @Tags Public
// @Produce json
// @Param category query string false "prestasi, kegiatan, pengumuman, berita or all"
// @Param limit query int false "Maximum items"
// @Success 200 {object} response.Envelope
// @Router /news [get]
func (h *PublicHandler) News(c *gin.Context) {
	start := time.Now()
	items, hit, err := h.news.ListPublished(c.Request.Context(), c.Query("category"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, cacheMeta(c, hit, start))
}

// NewsDetail godoc
// @Summary Get a published article
// @Tags Public
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /news/{slug} [get]
func (h *PublicHandler) NewsDetail(c *gin.Context) {
	start := time.Now()
	item, hit, err := h.news.GetPublished(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil, cacheMeta(c, hit, start))
}

// Gallery godoc
// @Summary List gallery images
// @Tags Public
// @Produce json
// @Param category query string false "Category or all"
// @Param featured query bool false "Featured only"
// @Param limit query int false "Maximum items"
// @Success 200 {object} response.Envelope
// @Router /gallery [get]
func (h *PublicHandler) Gallery(c *gin.Context) {
	start := time.Now()
	filter := models.GalleryFilter{
		Category:     c.Query("category"),
		FeaturedOnly: c.Query("featured") == "true",
		Limit:        queryInt(c, "limit", 0),
	}
	items, hit, err := h.gallery.ListPublic(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, cacheMeta(c, hit, start))
}

// Admission godoc
// @Summary Current admission window
// @Description Whether PPDB registration is open, with the academic year and dates
// @Tags PPDB
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ppdb [get]
func (h *PublicHandler) Admission(c *gin.Context) {
	start := time.Now()
	window, hit, err := h.admission.PublicWindow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil, cacheMeta(c, hit, start))
}
