package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fathussalafi/yayasan-api/internal/models"
)

const galleryColumns = `id, title, description, image_url, category, is_featured, created_at, updated_at`

// GalleryRepository handles persistence of gallery images.
type GalleryRepository struct {
	db *sqlx.DB
}

// NewGalleryRepository constructs the repository.
func NewGalleryRepository(db *sqlx.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// List returns images newest first.
func (r *GalleryRepository) List(ctx context.Context, filter models.GalleryFilter) ([]models.Gallery, error) {
	var conditions []string
	var args []interface{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "is_featured = TRUE")
	}
	query := `SELECT ` + galleryColumns + ` FROM galleries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	items := []models.Gallery{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	return items, nil
}

// FindByID returns one image.
func (r *GalleryRepository) FindByID(ctx context.Context, id string) (*models.Gallery, error) {
	var item models.Gallery
	if err := r.db.GetContext(ctx, &item, `SELECT `+galleryColumns+` FROM galleries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find gallery: %w", err)
	}
	return &item, nil
}

// Create inserts an image.
func (r *GalleryRepository) Create(ctx context.Context, item *models.Gallery) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO galleries (id, title, description, image_url, category, is_featured, created_at, updated_at)
VALUES (:id, :title, :description, :image_url, :category, :is_featured, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create gallery: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an image.
func (r *GalleryRepository) Update(ctx context.Context, item *models.Gallery) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE galleries SET title = :title, description = :description, image_url = :image_url, category = :category,
is_featured = :is_featured, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update gallery: %w", err)
	}
	return expectAffected(res)
}

// ToggleFeatured flips is_featured in place and returns the stored row.
func (r *GalleryRepository) ToggleFeatured(ctx context.Context, id string) (*models.Gallery, error) {
	const query = `UPDATE galleries SET is_featured = NOT is_featured, updated_at = $2 WHERE id = $1 RETURNING ` + galleryColumns
	var item models.Gallery
	if err := r.db.GetContext(ctx, &item, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle gallery featured: %w", err)
	}
	return &item, nil
}

// Delete removes an image. Returns sql.ErrNoRows when nothing was deleted.
func (r *GalleryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM galleries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete gallery: %w", err)
	}
	return expectAffected(res)
}

// Count returns the number of images.
func (r *GalleryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM galleries`); err != nil {
		return 0, fmt.Errorf("count gallery: %w", err)
	}
	return total, nil
}
