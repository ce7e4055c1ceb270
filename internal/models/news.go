package models

import "time"

// NewsCategory groups news articles.
type NewsCategory string

const (
	NewsCategoryPrestasi   NewsCategory = "prestasi"
	NewsCategoryKegiatan   NewsCategory = "kegiatan"
	NewsCategoryPengumuman NewsCategory = "pengumuman"
	NewsCategoryBerita     NewsCategory = "berita"
)

// NewsCategories lists the accepted categories.
var NewsCategories = []NewsCategory{NewsCategoryPrestasi, NewsCategoryKegiatan, NewsCategoryPengumuman, NewsCategoryBerita}

// News is an article shown on the public site once published.
type News struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Slug        string       `db:"slug" json:"slug"`
	Excerpt     *string      `db:"excerpt" json:"excerpt,omitempty"`
	Content     string       `db:"content" json:"content"`
	ImageURL    *string      `db:"image_url" json:"image_url,omitempty"`
	Category    NewsCategory `db:"category" json:"category"`
	AuthorID    *string      `db:"author_id" json:"author_id,omitempty"`
	IsPublished bool         `db:"is_published" json:"is_published"`
	PublishedAt *time.Time   `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// NewsFilter narrows news listings.
type NewsFilter struct {
	Category      NewsCategory
	PublishedOnly bool
	Limit         int
	Page          int
	PageSize      int
}
