package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fathussalafi/yayasan-api/internal/middleware"
	"github.com/fathussalafi/yayasan-api/internal/models"
)

// Handlers groups every HTTP handler mounted by the API.
type Handlers struct {
	Auth          *AuthHandler
	Public        *PublicHandler
	PPDB          *PPDBHandler
	Schools       *SchoolHandler
	News          *NewsHandler
	Gallery       *GalleryHandler
	Admission     *AdmissionHandler
	Registrations *RegistrationHandler
	Dashboard     *DashboardHandler
	Media         *MediaHandler
	Metrics       *MetricsHandler
}

// Register mounts the routes on r. Public content and the PPDB flow are
// anonymous; everything under /dashboard requires a token.
func Register(r *gin.Engine, prefix string, h Handlers, tokens middleware.TokenValidator, audit middleware.AuditRecorder) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	authed := auth.Group("")
	authed.Use(middleware.JWT(tokens))
	authed.POST("/logout", h.Auth.Logout)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.GET("/me", h.Auth.Me)

	api.GET("/sekolah", h.Public.Schools)
	api.GET("/sekolah/:level", h.Public.SchoolsByLevel)
	api.GET("/news", h.Public.News)
	api.GET("/news/:slug", h.Public.NewsDetail)
	api.GET("/gallery", h.Public.Gallery)

	ppdb := api.Group("/ppdb")
	ppdb.GET("", h.Public.Admission)
	ppdb.POST("/drafts", h.PPDB.StartDraft)
	ppdb.GET("/drafts/:id", h.PPDB.GetDraft)
	ppdb.PUT("/drafts/:id", h.PPDB.UpdateDraft)
	ppdb.POST("/drafts/:id/next", h.PPDB.NextStep)
	ppdb.POST("/drafts/:id/prev", h.PPDB.PrevStep)
	ppdb.POST("/drafts/:id/submit", h.PPDB.SubmitDraft)
	ppdb.POST("/registrations", h.PPDB.Submit)
	ppdb.POST("/uploads", h.PPDB.UploadDocument)
	ppdb.GET("/status", h.PPDB.Status)
	ppdb.POST("/status", h.PPDB.Status)
	ppdb.GET("/success", h.PPDB.Success)
	ppdb.GET("/success/qr", h.PPDB.SuccessQR)
	ppdb.GET("/receipt/:token", h.PPDB.Receipt)

	dash := api.Group("/dashboard")
	dash.Use(middleware.JWT(tokens))

	review := dash.Group("")
	review.Use(middleware.RequireRoles(middleware.Reviewers...))
	review.GET("/stats", h.Dashboard.Stats)
	review.GET("/registrations", h.Registrations.List)
	review.GET("/registrations/export", middleware.Audit(audit, models.AuditActionExport, "ppdb_registrations"), h.Registrations.Export)
	review.GET("/registrations/:id", h.Registrations.Get)
	review.PATCH("/registrations/:id/status", h.Registrations.Transition)

	content := dash.Group("")
	content.Use(middleware.RequireRoles(middleware.ContentManagers...))
	content.GET("/audit-logs", h.Dashboard.AuditLogs)
	content.POST("/media", middleware.Audit(audit, models.AuditActionCreate, "media"), h.Media.Upload)

	content.GET("/schools", h.Schools.List)
	content.GET("/schools/:id", h.Schools.Get)
	content.POST("/schools", middleware.Audit(audit, models.AuditActionCreate, "schools"), h.Schools.Create)
	content.PUT("/schools/:id", middleware.Audit(audit, models.AuditActionUpdate, "schools"), h.Schools.Update)
	content.DELETE("/schools/:id", middleware.Audit(audit, models.AuditActionDelete, "schools"), h.Schools.Delete)

	content.GET("/news", h.News.List)
	content.GET("/news/:id", h.News.Get)
	content.POST("/news", middleware.Audit(audit, models.AuditActionCreate, "news"), h.News.Create)
	content.PUT("/news/:id", middleware.Audit(audit, models.AuditActionUpdate, "news"), h.News.Update)
	content.PATCH("/news/:id/publish", middleware.Audit(audit, models.AuditActionToggle, "news"), h.News.TogglePublish)
	content.DELETE("/news/:id", middleware.Audit(audit, models.AuditActionDelete, "news"), h.News.Delete)

	content.GET("/gallery", h.Gallery.List)
	content.GET("/gallery/:id", h.Gallery.Get)
	content.POST("/gallery", middleware.Audit(audit, models.AuditActionCreate, "galleries"), h.Gallery.Create)
	content.PUT("/gallery/:id", middleware.Audit(audit, models.AuditActionUpdate, "galleries"), h.Gallery.Update)
	content.PATCH("/gallery/:id/featured", middleware.Audit(audit, models.AuditActionToggle, "galleries"), h.Gallery.ToggleFeatured)
	content.DELETE("/gallery/:id", middleware.Audit(audit, models.AuditActionDelete, "galleries"), h.Gallery.Delete)

	content.GET("/ppdb/settings", h.Admission.List)
	content.GET("/ppdb/settings/:id", h.Admission.Get)
	content.POST("/ppdb/settings", middleware.Audit(audit, models.AuditActionCreate, "ppdb_settings"), h.Admission.Create)
	content.PUT("/ppdb/settings/:id", middleware.Audit(audit, models.AuditActionUpdate, "ppdb_settings"), h.Admission.Update)
	content.PATCH("/ppdb/settings/:id/toggle", middleware.Audit(audit, models.AuditActionToggle, "ppdb_settings"), h.Admission.Toggle)
	content.DELETE("/ppdb/settings/:id", middleware.Audit(audit, models.AuditActionDelete, "ppdb_settings"), h.Admission.Delete)
}
