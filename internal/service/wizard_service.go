package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/validation"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

const draftNotFoundMessage = "Sesi pendaftaran tidak ditemukan atau sudah kedaluwarsa. Silakan mulai kembali."

type draftStore interface {
	Save(ctx context.Context, draft *models.RegistrationDraft, ttl time.Duration) error
	Find(ctx context.Context, id string) (*models.RegistrationDraft, error)
	Delete(ctx context.Context, id string) error
}

type registrationSubmitter interface {
	Submit(ctx context.Context, form models.RegistrationForm) (*dto.SubmitRegistrationResponse, error)
}

// WizardService drives the four step admission form. Drafts live in Redis
// so every field survives navigation between steps until they expire.
type WizardService struct {
	drafts    draftStore
	admission admissionGate
	schools   schoolFinder
	submitter registrationSubmitter
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewWizardService constructs a WizardService.
func NewWizardService(drafts draftStore, admission admissionGate, schools schoolFinder, submitter registrationSubmitter, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *WizardService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WizardService{
		drafts:    drafts,
		admission: admission,
		schools:   schools,
		submitter: submitter,
		validator: validate,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Start opens a new draft on the school selection step.
func (s *WizardService) Start(ctx context.Context) (*dto.DraftResponse, error) {
	settings, err := s.admission.EnsureOpen(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	draft := &models.RegistrationDraft{
		ID:        uuid.NewString(),
		Step:      models.StepSchool,
		CreatedAt: now,
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return s.view(ctx, draft, settings), nil
}

// Get returns the current state of a draft.
func (s *WizardService) Get(ctx context.Context, id string) (*dto.DraftResponse, error) {
	settings, draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, draft, settings), nil
}

// Update stores the fields of the current step without moving.
func (s *WizardService) Update(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error) {
	settings, draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mergeStep(draft, req.Form)
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return s.view(ctx, draft, settings), nil
}

// Next validates the current step and advances one step.
func (s *WizardService) Next(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error) {
	settings, draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mergeStep(draft, req.Form)
	if !draft.CanNext() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "Ini adalah langkah terakhir.")
	}
	if err := s.validateStep(ctx, draft); err != nil {
		// keep what the applicant typed even though the step is incomplete
		if saveErr := s.save(ctx, draft); saveErr != nil {
			s.logger.Warn("failed to keep draft input", zap.String("draft_id", draft.ID), zap.Error(saveErr))
		}
		return nil, err
	}
	draft.Step++
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return s.view(ctx, draft, settings), nil
}

// Prev goes back one step, keeping everything entered so far.
func (s *WizardService) Prev(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.DraftResponse, error) {
	settings, draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mergeStep(draft, req.Form)
	if !draft.CanPrev() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "Ini adalah langkah pertama.")
	}
	draft.Step--
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}
	return s.view(ctx, draft, settings), nil
}

// Submit sends the completed draft for registration. The draft is removed
// only after the registration is stored, so a failed attempt can be retried.
func (s *WizardService) Submit(ctx context.Context, id string, req dto.DraftStepRequest) (*dto.SubmitRegistrationResponse, error) {
	_, draft, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mergeStep(draft, req.Form)
	if !draft.CanSubmit() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStep, "Lengkapi semua langkah sebelum mengirim pendaftaran.")
	}
	if err := s.save(ctx, draft); err != nil {
		return nil, err
	}

	resp, err := s.submitter.Submit(ctx, draft.Form)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, draft.ID); err != nil {
		s.logger.Warn("failed to delete submitted draft", zap.String("draft_id", draft.ID), zap.Error(err))
	}
	return resp, nil
}

func (s *WizardService) load(ctx context.Context, id string) (*models.AdmissionSettings, *models.RegistrationDraft, error) {
	settings, err := s.admission.EnsureOpen(ctx)
	if err != nil {
		return nil, nil, err
	}
	draft, err := s.drafts.Find(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, draftNotFoundMessage)
		}
		return nil, nil, internalError(err, "failed to load registration draft")
	}
	return settings, draft, nil
}

func (s *WizardService) save(ctx context.Context, draft *models.RegistrationDraft) error {
	now := s.now().UTC()
	draft.UpdatedAt = now
	draft.ExpiresAt = now.Add(s.ttl)
	if err := s.drafts.Save(ctx, draft, s.ttl); err != nil {
		return internalError(err, "failed to save registration draft")
	}
	return nil
}

func (s *WizardService) validateStep(ctx context.Context, draft *models.RegistrationDraft) error {
	normalizeForm(&draft.Form)
	if err := s.validator.Struct(draft.Form.Section(draft.Step)); err != nil {
		return validation.Wrap(err, "Lengkapi data pada langkah ini.")
	}
	if draft.Step != models.StepSchool {
		return nil
	}
	if _, err := s.schools.FindByID(ctx, draft.Form.SchoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return unknownSchoolError()
		}
		return internalError(err, "failed to load school")
	}
	return nil
}

func (s *WizardService) view(ctx context.Context, draft *models.RegistrationDraft, settings *models.AdmissionSettings) *dto.DraftResponse {
	resp := &dto.DraftResponse{
		Draft:     draft,
		StepTitle: models.StepTitles[draft.Step],
		CanNext:   draft.CanNext(),
		CanPrev:   draft.CanPrev(),
		CanSubmit: draft.CanSubmit(),
	}
	if draft.Step != models.StepPreviousSchool {
		return resp
	}
	form := draft.Form
	_, academicYear := models.AdmissionYear(settings, s.now())
	summary := &dto.DraftSummary{
		StudentName:  form.StudentName,
		Gender:       form.Gender,
		DateOfBirth:  form.DateOfBirth,
		ParentName:   form.ParentName,
		ParentPhone:  form.ParentPhone,
		ParentEmail:  form.ParentEmail,
		AcademicYear: academicYear,
	}
	if school, err := s.schools.FindByID(ctx, form.SchoolID); err == nil {
		summary.SchoolName = school.Name
		summary.SchoolLevel = string(school.Level)
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to load school for draft summary", zap.String("draft_id", draft.ID), zap.Error(err))
	}
	resp.Summary = summary
	return resp
}

// mergeStep copies only the section edited on the current step.
func mergeStep(draft *models.RegistrationDraft, form *models.RegistrationForm) {
	if form == nil {
		return
	}
	switch draft.Step {
	case models.StepSchool:
		draft.Form.SchoolSelection = form.SchoolSelection
	case models.StepStudent:
		draft.Form.StudentData = form.StudentData
	case models.StepParent:
		draft.Form.ParentData = form.ParentData
	case models.StepPreviousSchool:
		draft.Form.PreviousSchoolData = form.PreviousSchoolData
	}
}
