package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/service"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

const uploadField = "file"

type mediaService interface {
	Upload(ctx context.Context, folder string, upload service.MediaUpload) (*dto.MediaUploadResponse, error)
	UploadDocument(ctx context.Context, upload service.MediaUpload) (*dto.MediaUploadResponse, error)
}

// MediaHandler accepts dashboard image uploads.
type MediaHandler struct {
	service mediaService
}

// NewMediaHandler constructs the handler.
func NewMediaHandler(svc mediaService) *MediaHandler {
	return &MediaHandler{service: svc}
}

// Upload godoc
// @Summary Upload an image
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param folder formData string true "gallery, news or schools"
// @Param file formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	upload, closer, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer.Close()

	res, err := h.service.Upload(c.Request.Context(), c.PostForm("folder"), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, res, nil)
}

// readUpload opens the multipart file field.
func readUpload(c *gin.Context) (service.MediaUpload, io.Closer, error) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		return service.MediaUpload{}, nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{uploadField: "Berkas wajib diunggah"})
	}
	file, err := header.Open()
	if err != nil {
		return service.MediaUpload{}, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	return service.MediaUpload{Filename: header.Filename, Size: header.Size, Content: file}, file, nil
}
