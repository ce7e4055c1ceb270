package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/fathussalafi/yayasan-api/api/swagger"
	"github.com/fathussalafi/yayasan-api/internal/handler"
	"github.com/fathussalafi/yayasan-api/internal/middleware"
	"github.com/fathussalafi/yayasan-api/internal/repository"
	"github.com/fathussalafi/yayasan-api/internal/service"
	"github.com/fathussalafi/yayasan-api/internal/validation"
	"github.com/fathussalafi/yayasan-api/pkg/cache"
	"github.com/fathussalafi/yayasan-api/pkg/config"
	"github.com/fathussalafi/yayasan-api/pkg/database"
	"github.com/fathussalafi/yayasan-api/pkg/export"
	"github.com/fathussalafi/yayasan-api/pkg/jobs"
	"github.com/fathussalafi/yayasan-api/pkg/logger"
	"github.com/fathussalafi/yayasan-api/pkg/mailer"
	corsmiddleware "github.com/fathussalafi/yayasan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fathussalafi/yayasan-api/pkg/middleware/requestid"
	"github.com/fathussalafi/yayasan-api/pkg/storage"
)

const foundationName = "Yayasan Fathus Salafi"

// @title Yayasan Fathus Salafi API
// @version 1.0.0
// @description Public site content, PPDB admission and admin dashboard API
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	version, err := database.Migrate(db, database.MigrateUp, 0)
	if err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}
	logr.Info("schema ready", zap.Uint("version", version))

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	media, err := storage.NewLocalStorage(cfg.Media.StorageDir, cfg.Media.BaseURL)
	if err != nil {
		logr.Fatal("failed to prepare media storage", zap.Error(err))
	}

	validate := validation.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	draftRepo := repository.NewDraftRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	auditSvc := service.NewAuditService(auditRepo, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	schoolSvc := service.NewSchoolService(schoolRepo, cacheSvc, validate, logr)
	newsSvc := service.NewNewsService(newsRepo, cacheSvc, validate, logr)
	gallerySvc := service.NewGalleryService(galleryRepo, cacheSvc, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, registrationRepo, cacheSvc, validate, logr, cfg.Location)

	notifier := service.NewNotificationService(newMailSender(cfg, logr), export.NewReceiptRenderer(), metrics, logr,
		service.NotificationConfig{Foundation: foundationName, PublicBaseURL: cfg.PublicBaseURL},
		jobs.QueueConfig{Workers: cfg.Mail.Workers, MaxRetries: cfg.Mail.Retries, RetryDelay: cfg.Mail.RetryDelay, Timeout: 30 * time.Second},
	)
	notifier.Start(ctx)
	defer notifier.Stop()

	signer := storage.NewSignedURLSigner(cfg.PPDB.ReceiptSignedURLSecret, cfg.PPDB.ReceiptSignedURLTTL)
	registrationSvc := service.NewRegistrationService(registrationRepo, schoolRepo, admissionSvc, notifier, auditSvc, signer, cacheSvc, metrics, validate, logr,
		service.RegistrationServiceConfig{Foundation: foundationName, PublicBaseURL: cfg.PublicBaseURL, APIPrefix: cfg.APIPrefix},
	)
	wizardSvc := service.NewWizardService(draftRepo, admissionSvc, schoolRepo, registrationSvc, validate, logr, cfg.PPDB.DraftTTL)
	mediaSvc := service.NewMediaService(media, admissionSvc, logr, service.MediaServiceConfig{
		MaxFileSize:  cfg.Media.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Media.AllowedMIMEs,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		News:          newsRepo,
		Galleries:     galleryRepo,
		Schools:       schoolRepo,
		Registrations: registrationRepo,
		Admission:     admissionSvc,
		Cache:         cacheSvc,
		Logger:        logr,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Media.MaxFileSizeBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Public:        handler.NewPublicHandler(schoolSvc, newsSvc, gallerySvc, admissionSvc),
		PPDB:          handler.NewPPDBHandler(wizardSvc, registrationSvc, mediaSvc),
		Schools:       handler.NewSchoolHandler(schoolSvc),
		News:          handler.NewNewsHandler(newsSvc),
		Gallery:       handler.NewGalleryHandler(gallerySvc),
		Admission:     handler.NewAdmissionHandler(admissionSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc, auditSvc),
		Media:         handler.NewMediaHandler(mediaSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"postgres": handler.PingFunc(db.PingContext),
			"redis":    cacheRepo,
		}, logr),
	}, authSvc, auditSvc)

	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		r.Static(cfg.Media.BaseURL, media.Dir())
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newMailSender(cfg *config.Config, logr *zap.Logger) mailer.Sender {
	if cfg.Mail.SendGridAPIKey == "" {
		logr.Warn("SENDGRID_API_KEY not set, parent emails are only logged")
		return mailer.NewLogSender(logr)
	}
	return mailer.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
}
