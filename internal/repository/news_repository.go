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

const newsColumns = `id, title, slug, excerpt, content, image_url, category, author_id, is_published, published_at, created_at, updated_at`

// NewsRepository handles persistence of news articles.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository constructs the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// List returns articles newest first. Limit caps the result when positive,
// otherwise Page/PageSize paginate and the total count is returned.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "is_published = TRUE")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := ` ORDER BY COALESCE(published_at, created_at) DESC, created_at DESC`
	var bounds string
	if filter.Limit > 0 {
		bounds = fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else {
		page, size := models.NormalizePage(filter.Page, filter.PageSize)
		bounds = fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	items := []models.News{}
	if err := r.db.SelectContext(ctx, &items, `SELECT `+newsColumns+` FROM news`+where+order+bounds, args...); err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM news`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	return items, total, nil
}

// FindByID returns one article.
func (r *NewsRepository) FindByID(ctx context.Context, id string) (*models.News, error) {
	return r.findOne(ctx, `SELECT `+newsColumns+` FROM news WHERE id = $1`, id)
}

// FindPublishedBySlug returns a published article by slug.
func (r *NewsRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.News, error) {
	return r.findOne(ctx, `SELECT `+newsColumns+` FROM news WHERE slug = $1 AND is_published = TRUE`, slug)
}

func (r *NewsRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.News, error) {
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find news: %w", err)
	}
	return &item, nil
}

// SlugExists reports whether slug is taken by an article other than excludeID.
func (r *NewsRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM news WHERE slug = $1 AND id::text <> $2)`
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check news slug: %w", err)
	}
	return exists, nil
}

// Create inserts an article.
func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO news (id, title, slug, excerpt, content, image_url, category, author_id, is_published, published_at, created_at, updated_at)
VALUES (:id, :title, :slug, :excerpt, :content, :image_url, :category, :author_id, :is_published, :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an article.
func (r *NewsRepository) Update(ctx context.Context, item *models.News) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news SET title = :title, slug = :slug, excerpt = :excerpt, content = :content, image_url = :image_url,
category = :category, is_published = :is_published, published_at = :published_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return expectAffected(res)
}

// TogglePublished flips is_published in place, stamping published_at the
// first time an article goes live, and returns the stored row.
func (r *NewsRepository) TogglePublished(ctx context.Context, id string) (*models.News, error) {
	const query = `UPDATE news SET is_published = NOT is_published,
published_at = CASE WHEN NOT is_published AND published_at IS NULL THEN $2 ELSE published_at END,
updated_at = $2 WHERE id = $1 RETURNING ` + newsColumns
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle news publish: %w", err)
	}
	return &item, nil
}

// Delete removes an article. Returns sql.ErrNoRows when nothing was deleted.
func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return expectAffected(res)
}

// Counts returns the total and published article counts.
func (r *NewsRepository) Counts(ctx context.Context) (total int, published int, err error) {
	var row struct {
		Total     int `db:"total"`
		Published int `db:"published"`
	}
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_published) AS published FROM news`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count news: %w", err)
	}
	return row.Total, row.Published, nil
}
