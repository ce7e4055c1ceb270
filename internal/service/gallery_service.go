package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/validation"
)

type galleryRepository interface {
	List(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, error)
	FindByID(ctx context.Context, id string) (*models.Gallery, error)
	Create(ctx context.Context, item *models.Gallery) error
	Update(ctx context.Context, item *models.Gallery) error
	ToggleFeatured(ctx context.Context, id string) (*models.Gallery, error)
	Delete(ctx context.Context, id string) error
}

// GalleryService manages gallery images.
type GalleryService struct {
	repo      galleryRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGalleryService constructs a GalleryService.
func NewGalleryService(repo galleryRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GalleryService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GalleryService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns images newest first. category "all" or blank disables the filter.
func (s *GalleryService) List(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, error) {
	filter.Category = categoryFilter(filter.Category)
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list gallery")
	}
	return items, nil
}

// ListPublic is List served through the public cache.
func (s *GalleryService) ListPublic(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, bool, error) {
	filter.Category = categoryFilter(filter.Category)
	key := fmt.Sprintf("%s:%s:%t:%d", cacheGallery, strings.ToLower(filter.Category), filter.FeaturedOnly, filter.Limit)
	return Remember(ctx, s.cache, key, func() ([]models.Gallery, error) {
		return s.List(ctx, filter)
	})
}

// Get returns one image.
func (s *GalleryService) Get(ctx context.Context, id string) (*models.Gallery, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "gallery item not found", "failed to load gallery item")
	}
	return item, nil
}

// Create adds an image.
func (s *GalleryService) Create(ctx context.Context, req dto.GalleryRequest) (*models.Gallery, error) {
	item, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create gallery item")
	}
	s.cache.Invalidate(ctx, cacheGallery)
	return item, nil
}

// Update replaces the editable fields of an image.
func (s *GalleryService) Update(ctx context.Context, id string, req dto.GalleryRequest) (*models.Gallery, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, notFoundOr(err, "gallery item not found", "failed to update gallery item")
	}
	s.cache.Invalidate(ctx, cacheGallery)
	return item, nil
}

// ToggleFeatured flips the featured flag and returns the stored image.
func (s *GalleryService) ToggleFeatured(ctx context.Context, id string) (*models.Gallery, error) {
	item, err := s.repo.ToggleFeatured(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "gallery item not found", "failed to toggle gallery item")
	}
	s.cache.Invalidate(ctx, cacheGallery)
	return item, nil
}

// Delete removes an image.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "gallery item not found", "failed to delete gallery item")
	}
	s.cache.Invalidate(ctx, cacheGallery)
	return nil
}

func (s *GalleryService) fromRequest(req dto.GalleryRequest) (*models.Gallery, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid gallery payload")
	}
	return &models.Gallery{
		Title:       req.Title,
		Description: trimmedPtr(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Category:    req.Category,
		IsFeatured:  req.IsFeatured,
	}, nil
}
