package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
)

const cacheDashboard = "dashboard:stats"

type newsStats interface {
	Counts(ctx context.Context) (total int, published int, err error)
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error)
}

type rowCounter interface {
	Count(ctx context.Context) (int, error)
}

type registrationStats interface {
	CountByStatus(ctx context.Context, academicYear string) ([]models.StatusCount, error)
}

type windowProvider interface {
	Window(ctx context.Context) (models.AdmissionWindow, *models.AdmissionSettings, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL        time.Duration
	LatestNewsLimit int
}

// DashboardService composes the admin landing page summary.
type DashboardService struct {
	news          newsStats
	galleries     rowCounter
	schools       rowCounter
	registrations registrationStats
	admission     windowProvider
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	News          newsStats
	Galleries     rowCounter
	Schools       rowCounter
	Registrations registrationStats
	Admission     windowProvider
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.LatestNewsLimit <= 0 {
		cfg.LatestNewsLimit = 3
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		news:          params.News,
		galleries:     params.Galleries,
		schools:       params.Schools,
		registrations: params.Registrations,
		admission:     params.Admission,
		cache:         params.Cache,
		logger:        logger,
		cfg:           cfg,
	}
}

// Stats returns the dashboard summary and indicates cache utilisation.
// Registration counts cover the active academic year, or all years when no
// window is active.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	var cached dto.DashboardStats
	if s.cache.Get(ctx, cacheDashboard, &cached) {
		return &cached, true, nil
	}

	stats := &dto.DashboardStats{Registrations: map[string]int{}}
	var err error
	if stats.TotalNews, stats.PublishedNews, err = s.news.Counts(ctx); err != nil {
		return nil, false, internalError(err, "failed to count news")
	}
	if stats.TotalGallery, err = s.galleries.Count(ctx); err != nil {
		return nil, false, internalError(err, "failed to count gallery")
	}
	if stats.TotalSchools, err = s.schools.Count(ctx); err != nil {
		return nil, false, internalError(err, "failed to count schools")
	}

	window, settings, err := s.admission.Window(ctx)
	if err != nil {
		return nil, false, err
	}
	stats.Window = window
	stats.ActiveAdmission = settings

	academicYear := ""
	if settings != nil {
		academicYear = settings.AcademicYear
	}
	counts, err := s.registrations.CountByStatus(ctx, academicYear)
	if err != nil {
		return nil, false, internalError(err, "failed to count registrations")
	}
	for _, status := range models.RegistrationStatuses {
		stats.Registrations[string(status)] = 0
	}
	for _, c := range counts {
		stats.Registrations[string(c.Status)] = c.Total
		stats.TotalRegistrations += c.Total
	}

	latest, _, err := s.news.List(ctx, models.NewsFilter{Limit: s.cfg.LatestNewsLimit})
	if err != nil {
		return nil, false, internalError(err, "failed to load latest news")
	}
	stats.LatestNews = latest

	s.cache.Set(ctx, cacheDashboard, stats, s.cfg.CacheTTL)
	s.logger.Debug("dashboard stats computed", zap.String("academic_year", academicYear), zap.Int("registrations", stats.TotalRegistrations))
	return stats, false, nil
}
