package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/response"
)

type wizardService interface {
	Start(ctx context.Context) (*dto.DraftResponse, error)
	Get(ctx context.Context, id string) (*dto.DraftResponse, error)
	Update(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error)
	Next(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error)
	Prev(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error)
	Submit(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.SubmitRegistrationResponse, error)
}

type ppdbService interface {
	Submit(ctx context.Context, form models.RegistrationForm) (*dto.SubmitRegistrationResponse, error)
	LookupStatus(ctx context.Context, req dto.StatusLookupRequest) (*dto.StatusLookupResponse, error)
	Success(number string) (*dto.SuccessResponse, error)
	QRCode(number string) ([]byte, error)
	Receipt(ctx context.Context, token string) ([]byte, string, error)
}

// PPDBHandler serves the public admission endpoints.
type PPDBHandler struct {
	wizard        wizardService
	registrations ppdbService
	media         mediaService
}

// NewPPDBHandler constructs the handler.
func NewPPDBHandler(wizard wizardService, registrations ppdbService, media mediaService) *PPDBHandler {
	return &PPDBHandler{wizard: wizard, registrations: registrations, media: media}
}

// StartDraft godoc
// @Summary Start a registration draft
// @Tags PPDB
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ppdb/drafts [post]
func (h *PPDBHandler) StartDraft(c *gin.Context) {
	res, err := h.wizard.Start(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// GetDraft godoc
// @Summary Get a registration draft
// @Tags PPDB
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ppdb/drafts/{id} [get]
func (h *PPDBHandler) GetDraft(c *gin.Context) {
	res, err := h.wizard.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// UpdateDraft godoc
// @Summary Save the fields of the current step
// @Tags PPDB
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.DraftStepRequest true "Step fields"
// @Success 200 {object} response.Envelope
// @Router /ppdb/drafts/{id} [put]
func (h *PPDBHandler) UpdateDraft(c *gin.Context) {
	h.step(c, h.wizard.Update)
}

// NextStep godoc
// @Summary Validate the current step and advance
// @Tags PPDB
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.DraftStepRequest false "Step fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ppdb/drafts/{id}/next [post]
func (h *PPDBHandler) NextStep(c *gin.Context) {
	h.step(c, h.wizard.Next)
}

// PrevStep godoc
// @Summary Go back one step
// @Tags PPDB
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.DraftStepRequest false "Step fields"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ppdb/drafts/{id}/prev [post]
func (h *PPDBHandler) PrevStep(c *gin.Context) {
	h.step(c, h.wizard.Prev)
}

func (h *PPDBHandler) step(c *gin.Context, action func(context.Context, string, dto.DraftStepRequest) (*dto.DraftResponse, error)) {
	req, err := bindDraftStep(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := action(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SubmitDraft godoc
// @Summary Submit the completed draft
// @Tags PPDB
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.DraftStepRequest false "Last step fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /ppdb/drafts/{id}/submit [post]
func (h *PPDBHandler) SubmitDraft(c *gin.Context) {
	req, err := bindDraftStep(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.wizard.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Submit godoc
// @Summary Submit a complete registration form
// @Tags PPDB
// @Accept json
// @Produce json
// @Param payload body models.RegistrationForm true "Registration form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ppdb/registrations [post]
func (h *PPDBHandler) Submit(c *gin.Context) {
	var form models.RegistrationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	res, err := h.registrations.Submit(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Status godoc
// @Summary Look up a registration
// @Description Accepts registration and email as query parameters (GET) or a JSON body (POST)
// @Tags PPDB
// @Accept json
// @Produce json
// @Param registration query string false "Registration number"
// @Param email query string false "Parent email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ppdb/status [get]
func (h *PPDBHandler) Status(c *gin.Context) {
	var req dto.StatusLookupRequest
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup payload"))
		return
	}
	res, err := h.registrations.LookupStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Success godoc
// @Summary Confirmation screen data
// @Tags PPDB
// @Produce json
// @Param registration query string true "Registration number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ppdb/success [get]
func (h *PPDBHandler) Success(c *gin.Context) {
	res, err := h.registrations.Success(c.Query("registration"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SuccessQR godoc
// @Summary QR code linking to the status page
// @Tags PPDB
// @Produce png
// @Param registration query string true "Registration number"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /ppdb/success/qr [get]
func (h *PPDBHandler) SuccessQR(c *gin.Context) {
	png, err := h.registrations.QRCode(c.Query("registration"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Receipt godoc
// @Summary Download the registration receipt
// @Tags PPDB
// @Produce application/pdf
// @Param token path string true "Signed receipt token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /ppdb/receipt/{token} [get]
func (h *PPDBHandler) Receipt(c *gin.Context) {
	pdf, filename, err := h.registrations.Receipt(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", pdf)
}

// UploadDocument godoc
// @Summary Upload an applicant photo or document
// @Tags PPDB
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPEG, PNG, WebP or PDF"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ppdb/uploads [post]
func (h *PPDBHandler) UploadDocument(c *gin.Context) {
	upload, closer, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer.Close()

	res, err := h.media.UploadDocument(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// bindDraftStep accepts an empty body as "no edits".
func bindDraftStep(c *gin.Context) (dto.DraftStepRequest, error) {
	var req dto.DraftStepRequest
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draft payload")
	}
	return req, nil
}
