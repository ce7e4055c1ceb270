package dto

import "github.com/fathussalafi/yayasan-api/internal/models"

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	TotalNews          int                       `json:"total_news"`
	PublishedNews      int                       `json:"published_news"`
	TotalGallery       int                       `json:"total_gallery"`
	TotalSchools       int                       `json:"total_schools"`
	Registrations      map[string]int            `json:"registrations"`
	TotalRegistrations int                       `json:"total_registrations"`
	ActiveAdmission    *models.AdmissionSettings `json:"active_admission,omitempty"`
	Window             models.AdmissionWindow    `json:"window"`
	LatestNews         []models.News             `json:"latest_news"`
}
