package models

import "time"

// Gallery is a photo shown in the public gallery.
type Gallery struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Category    string    `db:"category" json:"category"`
	IsFeatured  bool      `db:"is_featured" json:"is_featured"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GalleryFilter narrows gallery listings.
type GalleryFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}
