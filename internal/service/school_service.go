package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/validation"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id string) error
}

// SchoolService manages the foundation's schools.
type SchoolService struct {
	repo      schoolRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService.
func NewSchoolService(repo schoolRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns schools ordered by level. level may be blank or "all" for
// every school; otherwise it matches case-insensitively.
func (s *SchoolService) List(ctx context.Context, level string) ([]models.School, error) {
	filter, err := schoolFilter(level)
	if err != nil {
		return nil, err
	}
	schools, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list schools")
	}
	return schools, nil
}

// ListPublic is List served through the public cache. The bool reports a cache hit.
func (s *SchoolService) ListPublic(ctx context.Context, level string) ([]models.School, bool, error) {
	filter, err := schoolFilter(level)
	if err != nil {
		return nil, false, err
	}
	key := cacheSchools + ":" + strings.ToLower(string(filter.Level))
	return Remember(ctx, s.cache, key, func() ([]models.School, error) {
		return s.List(ctx, string(filter.Level))
	})
}

// Get returns one school.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "school not found", "failed to load school")
	}
	return school, nil
}

// Create adds a school.
func (s *SchoolService) Create(ctx context.Context, req dto.SchoolRequest) (*models.School, error) {
	school, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, internalError(err, "failed to create school")
	}
	s.cache.Invalidate(ctx, cacheSchools)
	return school, nil
}

// Update replaces the editable fields of a school.
func (s *SchoolService) Update(ctx context.Context, id string, req dto.SchoolRequest) (*models.School, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	school, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	school.ID = existing.ID
	school.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, notFoundOr(err, "school not found", "failed to update school")
	}
	s.cache.Invalidate(ctx, cacheSchools)
	return school, nil
}

// Delete removes a school. Schools referenced by registrations are kept.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return appErrors.Clone(appErrors.ErrConflict, "school still has admission registrations")
		}
		return notFoundOr(err, "school not found", "failed to delete school")
	}
	s.cache.Invalidate(ctx, cacheSchools)
	return nil
}

func (s *SchoolService) fromRequest(req dto.SchoolRequest) (*models.School, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid school payload")
	}
	return &models.School{
		Name:        req.Name,
		Level:       models.SchoolLevel(req.Level),
		Description: trimmedPtr(req.Description),
		Address:     trimmedPtr(req.Address),
		Phone:       trimmedPtr(req.Phone),
		Email:       trimmedPtr(req.Email),
		Website:     trimmedPtr(req.Website),
		LogoURL:     trimmedPtr(req.LogoURL),
	}, nil
}

func schoolFilter(level string) (models.SchoolFilter, error) {
	raw := categoryFilter(level)
	if raw == "" {
		return models.SchoolFilter{}, nil
	}
	lvl, ok := models.ParseSchoolLevel(raw)
	if !ok {
		return models.SchoolFilter{}, appErrors.Clone(appErrors.ErrValidation, "unknown school level")
	}
	return models.SchoolFilter{Level: lvl}, nil
}
