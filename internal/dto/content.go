package dto

// SchoolRequest creates or updates a school.
type SchoolRequest struct {
	Name        string  `json:"name" validate:"required,max=150"`
	Level       string  `json:"level" validate:"required,school_level"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Website     *string `json:"website" validate:"omitempty,url"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,max=500"`
}

// NewsRequest creates or updates a news article.
type NewsRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Excerpt     *string `json:"excerpt" validate:"omitempty,max=500"`
	Content     string  `json:"content" validate:"required"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=500"`
	Category    string  `json:"category" validate:"required,news_category"`
	IsPublished bool    `json:"is_published"`
}

// GalleryRequest creates or updates a gallery image.
type GalleryRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	ImageURL    string  `json:"image_url" validate:"required,max=500"`
	Category    string  `json:"category" validate:"required,max=50"`
	IsFeatured  bool    `json:"is_featured"`
}

// MediaUploadResponse describes a stored upload.
type MediaUploadResponse struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
