package service

import (
	"context"
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

const defaultPublicNewsLimit = 10

type newsRepository interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error)
	FindByID(ctx context.Context, id string) (*models.News, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.News, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.News) error
	Update(ctx context.Context, item *models.News) error
	TogglePublished(ctx context.Context, id string) (*models.News, error)
	Delete(ctx context.Context, id string) error
}

// NewsService manages news articles.
type NewsService struct {
	repo      newsRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNewsService constructs a NewsService.
func NewNewsService(repo newsRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns a page of articles for the dashboard, drafts included.
func (s *NewsService) List(ctx context.Context, category string, page, size int) ([]models.News, *models.Pagination, error) {
	filter, err := newsFilter(category)
	if err != nil {
		return nil, nil, err
	}
	filter.Page, filter.PageSize = models.NormalizePage(page, size)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list news")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListPublished returns the newest published articles through the cache.
func (s *NewsService) ListPublished(ctx context.Context, category string, limit int) ([]models.News, bool, error) {
	filter, err := newsFilter(category)
	if err != nil {
		return nil, false, err
	}
	if limit <= 0 || limit > 50 {
		limit = defaultPublicNewsLimit
	}
	filter.PublishedOnly = true
	filter.Limit = limit
	key := fmt.Sprintf("%s:list:%s:%d", cacheNews, filter.Category, limit)
	return Remember(ctx, s.cache, key, func() ([]models.News, error) {
		items, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, internalError(err, "failed to list news")
		}
		return items, nil
	})
}

// GetPublished returns a published article by slug through the cache.
func (s *NewsService) GetPublished(ctx context.Context, slug string) (*models.News, bool, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	return Remember(ctx, s.cache, cacheNews+":slug:"+slug, func() (*models.News, error) {
		item, err := s.repo.FindPublishedBySlug(ctx, slug)
		if err != nil {
			return nil, notFoundOr(err, "news not found", "failed to load news")
		}
		return item, nil
	})
}

// Get returns one article, published or not.
func (s *NewsService) Get(ctx context.Context, id string) (*models.News, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "news not found", "failed to load news")
	}
	return item, nil
}

// Create writes a new article with a unique slug derived from its title.
func (s *NewsService) Create(ctx context.Context, authorID string, req dto.NewsRequest) (*models.News, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	slug, err := s.slugFor(ctx, req.Title, "")
	if err != nil {
		return nil, err
	}
	item := &models.News{
		Title:       req.Title,
		Slug:        slug,
		Excerpt:     trimmedPtr(req.Excerpt),
		Content:     req.Content,
		ImageURL:    trimmedPtr(req.ImageURL),
		Category:    models.NewsCategory(req.Category),
		AuthorID:    optional(authorID),
		IsPublished: req.IsPublished,
	}
	if item.IsPublished {
		now := s.now().UTC()
		item.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create news")
	}
	s.cache.Invalidate(ctx, cacheNews)
	return item, nil
}

// Update edits an article. The slug follows the title and stays unique.
func (s *NewsService) Update(ctx context.Context, id string, req dto.NewsRequest) (*models.News, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != item.Title {
		slug, err := s.slugFor(ctx, req.Title, item.ID)
		if err != nil {
			return nil, err
		}
		item.Slug = slug
	}
	item.Title = req.Title
	item.Excerpt = trimmedPtr(req.Excerpt)
	item.Content = req.Content
	item.ImageURL = trimmedPtr(req.ImageURL)
	item.Category = models.NewsCategory(req.Category)
	item.IsPublished = req.IsPublished
	if item.IsPublished && item.PublishedAt == nil {
		now := s.now().UTC()
		item.PublishedAt = &now
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, notFoundOr(err, "news not found", "failed to update news")
	}
	s.cache.Invalidate(ctx, cacheNews)
	return item, nil
}

// TogglePublish flips the published flag and returns the stored article.
func (s *NewsService) TogglePublish(ctx context.Context, id string) (*models.News, error) {
	item, err := s.repo.TogglePublished(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "news not found", "failed to toggle news")
	}
	s.cache.Invalidate(ctx, cacheNews)
	return item, nil
}

// Delete removes an article.
func (s *NewsService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "news not found", "failed to delete news")
	}
	s.cache.Invalidate(ctx, cacheNews)
	return nil
}

func (s *NewsService) validate(req *dto.NewsRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.validator.Struct(req); err != nil {
		return validation.Wrap(err, "invalid news payload")
	}
	return nil
}

func (s *NewsService) slugFor(ctx context.Context, title, excludeID string) (string, error) {
	slug, err := uniqueSlug(ctx, slugify(title), "berita", func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, excludeID)
	})
	if err != nil {
		return "", internalError(err, "failed to generate slug")
	}
	return slug, nil
}

func newsFilter(category string) (models.NewsFilter, error) {
	raw := strings.ToLower(categoryFilter(category))
	if raw == "" {
		return models.NewsFilter{}, nil
	}
	for _, c := range models.NewsCategories {
		if string(c) == raw {
			return models.NewsFilter{Category: c}, nil
		}
	}
	return models.NewsFilter{}, appErrors.Clone(appErrors.ErrValidation, "unknown news category")
}
