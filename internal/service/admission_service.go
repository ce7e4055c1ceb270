package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/validation"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type admissionRepository interface {
	List(ctx context.Context) ([]models.AdmissionSettings, error)
	FindByID(ctx context.Context, id string) (*models.AdmissionSettings, error)
	FindActive(ctx context.Context) (*models.AdmissionSettings, error)
	Create(ctx context.Context, item *models.AdmissionSettings) error
	Update(ctx context.Context, item *models.AdmissionSettings) (*models.AdmissionSettings, error)
	SetActive(ctx context.Context, id string, active bool) (*models.AdmissionSettings, error)
	Delete(ctx context.Context, id string) error
}

type registrationCounter interface {
	CountActive(ctx context.Context, academicYear string) (int, error)
}

// AdmissionService manages admission window settings and decides whether the
// public registration form is open.
type AdmissionService struct {
	repo      admissionRepository
	counter   registrationCounter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewAdmissionService constructs an AdmissionService. Window dates are
// compared against the calendar day in loc; nil means UTC.
func NewAdmissionService(repo admissionRepository, counter registrationCounter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *AdmissionService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AdmissionService{repo: repo, counter: counter, cache: cache, validator: validate, logger: logger, loc: loc, now: time.Now}
}

// Active returns the active settings row, or nil when none is active.
func (s *AdmissionService) Active(ctx context.Context) (*models.AdmissionSettings, error) {
	settings, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load admission settings")
	}
	return settings, nil
}

// Window evaluates the admission window right now. It is open only while a
// settings row is active, today lies within its dates and, when a quota is
// set, fewer non-cancelled registrations exist for its academic year.
func (s *AdmissionService) Window(ctx context.Context) (models.AdmissionWindow, *models.AdmissionSettings, error) {
	settings, err := s.Active(ctx)
	if err != nil {
		return models.AdmissionWindow{}, nil, err
	}
	if settings == nil {
		return models.AdmissionWindow{Reason: models.WindowClosedInactive, Message: models.ClosedMessage("")}, nil, nil
	}

	window := models.AdmissionWindow{
		AcademicYear:     settings.AcademicYear,
		StartDate:        settings.StartDate,
		EndDate:          settings.EndDate,
		RegistrationLink: settings.RegistrationLink,
		MaxStudents:      settings.MaxStudents,
		AnnouncementText: settings.AnnouncementText,
	}

	if s.counter != nil {
		registered, err := s.counter.CountActive(ctx, settings.AcademicYear)
		if err != nil {
			return models.AdmissionWindow{}, nil, internalError(err, "failed to count registrations")
		}
		window.Registered = registered
	}

	today := models.NewDate(s.now().In(s.loc))
	switch {
	case settings.StartDate != nil && today.Before(settings.StartDate.Time):
		window.Reason = models.WindowClosedNotStarted
		window.Message = models.ClosedMessage(settings.AcademicYear)
	case settings.EndDate != nil && today.After(settings.EndDate.Time):
		window.Reason = models.WindowClosedEnded
		window.Message = endedMessage(settings.AcademicYear)
	case settings.MaxStudents > 0 && window.Registered >= settings.MaxStudents:
		window.Reason = models.WindowClosedQuota
		window.Message = quotaMessage(settings.AcademicYear)
	default:
		window.IsOpen = true
	}
	return window, settings, nil
}

// PublicWindow is Window served through the public cache.
func (s *AdmissionService) PublicWindow(ctx context.Context) (models.AdmissionWindow, bool, error) {
	return Remember(ctx, s.cache, cacheWindow, func() (models.AdmissionWindow, error) {
		window, _, err := s.Window(ctx)
		return window, err
	})
}

// EnsureOpen returns the active settings when registrations are accepted and
// a PPDB_CLOSED or PPDB_QUOTA_REACHED error otherwise.
func (s *AdmissionService) EnsureOpen(ctx context.Context) (*models.AdmissionSettings, error) {
	window, settings, err := s.Window(ctx)
	if err != nil {
		return nil, err
	}
	if window.IsOpen {
		return settings, nil
	}
	if window.Reason == models.WindowClosedQuota {
		return nil, appErrors.Clone(appErrors.ErrQuotaReached, window.Message)
	}
	return nil, appErrors.Clone(appErrors.ErrAdmissionClosed, window.Message)
}

// List returns every settings row.
func (s *AdmissionService) List(ctx context.Context) ([]models.AdmissionSettings, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list admission settings")
	}
	return items, nil
}

// Get returns one settings row.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.AdmissionSettings, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "admission settings not found", "failed to load admission settings")
	}
	return item, nil
}

// Create stores a new, inactive settings row.
func (s *AdmissionService) Create(ctx context.Context, req dto.AdmissionSettingsRequest) (*models.AdmissionSettings, error) {
	item, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create admission settings")
	}
	return item, nil
}

// Update batch-saves academic year, dates, link, quota and announcement.
func (s *AdmissionService) Update(ctx context.Context, id string, req dto.AdmissionSettingsRequest) (*models.AdmissionSettings, error) {
	item, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	item.ID = id
	stored, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, notFoundOr(err, "admission settings not found", "failed to update admission settings")
	}
	s.cache.Invalidate(ctx, cacheWindow)
	return stored, nil
}

// SetActive persists the active flag immediately. Activating a row
// deactivates whichever row was active before.
func (s *AdmissionService) SetActive(ctx context.Context, id string, active bool) (*models.AdmissionSettings, error) {
	stored, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another admission window was activated concurrently")
		}
		return nil, notFoundOr(err, "admission settings not found", "failed to toggle admission settings")
	}
	s.cache.Invalidate(ctx, cacheWindow)
	s.logger.Info("admission window toggled", zap.String("id", id), zap.Bool("active", active), zap.String("academic_year", stored.AcademicYear))
	return stored, nil
}

// Delete removes an inactive settings row.
func (s *AdmissionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "inactive admission settings not found")
		}
		return internalError(err, "failed to delete admission settings")
	}
	return nil
}

func (s *AdmissionService) fromRequest(req dto.AdmissionSettingsRequest) (*models.AdmissionSettings, error) {
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid admission settings payload")
	}
	item := &models.AdmissionSettings{
		AcademicYear:     req.AcademicYear,
		RegistrationLink: trimmedPtr(req.RegistrationLink),
		MaxStudents:      req.MaxStudents,
		AnnouncementText: trimmedPtr(req.AnnouncementText),
	}
	var err error
	if item.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return nil, err
	}
	if item.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		return nil, err
	}
	if item.StartDate != nil && item.EndDate != nil && item.EndDate.Before(item.StartDate.Time) {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{
			"end_date": "end_date tidak boleh sebelum start_date",
		})
	}
	return item, nil
}

func parseOptionalDate(raw *string) (*models.Date, error) {
	v := trimmedPtr(raw)
	if v == nil {
		return nil, nil
	}
	d, err := models.ParseDate(*v)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	return &d, nil
}

func endedMessage(academicYear string) string {
	return fmt.Sprintf("Pendaftaran peserta didik baru untuk tahun ajaran %s telah ditutup.", yearLabel(academicYear))
}

func quotaMessage(academicYear string) string {
	return fmt.Sprintf("Kuota pendaftaran peserta didik baru untuk tahun ajaran %s sudah terpenuhi.", yearLabel(academicYear))
}

func yearLabel(academicYear string) string {
	if label := strings.TrimSpace(academicYear); label != "" {
		return label
	}
	return "ini"
}
