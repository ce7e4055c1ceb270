package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/internal/validation"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/export"
)

const (
	submitFailedMessage   = "Terjadi kesalahan saat mendaftar. Silakan coba lagi."
	lookupNotFoundMessage = "Data pendaftaran tidak ditemukan. Periksa kembali nomor registrasi dan email Anda."
	successMessage        = "Pendaftaran berhasil! Simpan nomor registrasi ini untuk cek status pendaftaran."
	receiptResource       = "receipt"
	qrCodeSize            = 256
)

var registrationNumberPattern = regexp.MustCompile(`^PPDB-\d{4}-\d{3,}$`)

type registrationRepository interface {
	CreateWithNumber(ctx context.Context, reg *models.Registration, year, quota int) error
	FindByNumberAndEmail(ctx context.Context, number, email string) (*models.Registration, error)
	FindByNumber(ctx context.Context, number string) (*models.Registration, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	ListAll(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id string, from models.RegistrationStatus, upd models.StatusUpdate) (*models.Registration, error)
}

type schoolFinder interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type admissionGate interface {
	EnsureOpen(ctx context.Context) (*models.AdmissionSettings, error)
}

type registrationNotifier interface {
	RegistrationSubmitted(reg models.Registration)
	StatusChanged(reg models.Registration)
}

type auditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type receiptSigner interface {
	Generate(subject, resource string) (string, time.Time, error)
	Parse(token string) (subject, resource string, expiresAt time.Time, err error)
}

// RegistrationServiceConfig addresses links handed to parents.
type RegistrationServiceConfig struct {
	Foundation    string
	PublicBaseURL string
	APIPrefix     string
}

// RegistrationExport is a rendered registrations file.
type RegistrationExport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// RegistrationService accepts admission registrations, answers public status
// lookups and lets administrators moderate them.
type RegistrationService struct {
	repo      registrationRepository
	schools   schoolFinder
	admission admissionGate
	notifier  registrationNotifier
	audit     auditRecorder
	signer    receiptSigner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RegistrationServiceConfig
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	receipts  *export.ReceiptRenderer
	now       func() time.Time
}

// NewRegistrationService constructs the service with defaults.
func NewRegistrationService(repo registrationRepository, schools schoolFinder, admission admissionGate, notifier registrationNotifier, audit auditRecorder, signer receiptSigner, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RegistrationServiceConfig) *RegistrationService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.Foundation == "" {
		cfg.Foundation = "Yayasan Fathus Salafi"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &RegistrationService{
		repo:      repo,
		schools:   schools,
		admission: admission,
		notifier:  notifier,
		audit:     audit,
		signer:    signer,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		receipts:  export.NewReceiptRenderer(),
		now:       time.Now,
	}
}

// Submit validates a complete form, allocates the registration number and
// stores the registration as pending.
func (s *RegistrationService) Submit(ctx context.Context, form models.RegistrationForm) (*dto.SubmitRegistrationResponse, error) {
	normalizeForm(&form)
	if err := s.validator.Struct(form); err != nil {
		return nil, validation.Wrap(err, "data pendaftaran belum lengkap")
	}
	settings, err := s.admission.EnsureOpen(ctx)
	if err != nil {
		return nil, err
	}
	school, err := s.schools.FindByID(ctx, form.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, unknownSchoolError()
		}
		return nil, internalError(err, submitFailedMessage)
	}

	dob, err := models.ParseDate(form.DateOfBirth)
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"date_of_birth": "date_of_birth harus berformat YYYY-MM-DD"})
	}
	year, academicYear := models.AdmissionYear(settings, s.now())
	reg := &models.Registration{
		AcademicYear:          academicYear,
		SchoolID:              school.ID,
		StudentName:           form.StudentName,
		StudentNISN:           optional(form.StudentNISN),
		PlaceOfBirth:          form.PlaceOfBirth,
		DateOfBirth:           dob,
		Gender:                form.Gender,
		Religion:              form.Religion,
		Address:               form.Address,
		PhoneNumber:           optional(form.PhoneNumber),
		ParentName:            form.ParentName,
		ParentPhone:           form.ParentPhone,
		ParentEmail:           form.ParentEmail,
		ParentOccupation:      optional(form.ParentOccupation),
		PreviousSchoolName:    optional(form.PreviousSchoolName),
		PreviousSchoolAddress: optional(form.PreviousSchoolAddress),
		PhotoURL:              optional(form.PhotoURL),
		BirthCertificateURL:   optional(form.BirthCertificateURL),
		FamilyCardURL:         optional(form.FamilyCardURL),
		Status:                models.StatusPending,
	}
	quota := 0
	if settings != nil {
		quota = settings.MaxStudents
	}
	if err := s.repo.CreateWithNumber(ctx, reg, year, quota); err != nil {
		if errors.Is(err, appErrors.ErrQuotaReached) {
			s.cache.Invalidate(ctx, cacheWindow)
			return nil, appErrors.Clone(appErrors.ErrQuotaReached, quotaMessage(academicYear))
		}
		if pqCode(err) == pqForeignKeyViolation {
			return nil, unknownSchoolError()
		}
		s.logger.Error("failed to store registration", zap.Int("year", year), zap.Error(err))
		return nil, internalError(err, submitFailedMessage)
	}
	reg.SchoolName = school.Name
	reg.SchoolLevel = school.Level

	s.metrics.RecordRegistration(school.Level)
	s.cache.Invalidate(ctx, cacheWindow)
	if s.notifier != nil {
		s.notifier.RegistrationSubmitted(*reg)
	}
	s.logger.Info("registration submitted",
		zap.String("registration_number", reg.RegistrationNumber),
		zap.String("school_id", reg.SchoolID),
		zap.String("academic_year", reg.AcademicYear),
	)

	resp := &dto.SubmitRegistrationResponse{
		RegistrationNumber: reg.RegistrationNumber,
		Status:             reg.Status,
		StatusLabel:        reg.Status.Label(),
		SuccessPath:        successPath(reg.RegistrationNumber),
	}
	if s.signer != nil {
		token, expiresAt, err := s.signer.Generate(reg.RegistrationNumber, receiptResource)
		if err != nil {
			s.logger.Warn("failed to sign receipt link", zap.String("registration_number", reg.RegistrationNumber), zap.Error(err))
		} else {
			resp.ReceiptPath = fmt.Sprintf("%s/ppdb/receipt/%s", s.cfg.APIPrefix, token)
			resp.ReceiptExpiresAt = &expiresAt
		}
	}
	return resp, nil
}

// LookupStatus finds a registration by number and parent email. A missing
// row and a failed query look the same to the caller.
func (s *RegistrationService) LookupStatus(ctx context.Context, req dto.StatusLookupRequest) (*dto.StatusLookupResponse, error) {
	number := strings.ToUpper(strings.TrimSpace(req.RegistrationNumber))
	email := strings.TrimSpace(req.ParentEmail)
	details := map[string]string{}
	if number == "" {
		details["registration_number"] = "Nomor registrasi wajib diisi"
	}
	if email == "" {
		details["parent_email"] = "Email orang tua wajib diisi"
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "Nomor registrasi dan email wajib diisi."), details)
	}

	reg, err := s.repo.FindByNumberAndEmail(ctx, number, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("status lookup failed", zap.String("registration_number", number), zap.Error(err))
		}
		s.metrics.RecordLookup(false)
		return nil, appErrors.Clone(appErrors.ErrNotFound, lookupNotFoundMessage)
	}
	s.metrics.RecordLookup(true)
	return statusView(reg), nil
}

func statusView(reg *models.Registration) *dto.StatusLookupResponse {
	resp := &dto.StatusLookupResponse{
		RegistrationNumber: reg.RegistrationNumber,
		AcademicYear:       reg.AcademicYear,
		StudentName:        reg.StudentName,
		SchoolName:         reg.SchoolName,
		SchoolLevel:        reg.SchoolLevel,
		Status:             reg.Status,
		StatusLabel:        reg.Status.Label(),
		CreatedAt:          reg.CreatedAt,
		VerifiedAt:         reg.VerifiedAt,
		Timeline:           statusTimeline(reg),
	}
	switch reg.Status {
	case models.StatusPending:
		resp.Panel = dto.PanelWaiting
		resp.PanelMessage = "Pendaftaran Anda sedang dalam proses verifikasi. Kami akan menghubungi Anda melalui email jika ada informasi lebih lanjut."
	case models.StatusAccepted:
		resp.Panel = dto.PanelCongratulations
		resp.PanelMessage = "Pendaftaran Anda telah diterima. Silakan hubungi sekolah untuk informasi lebih lanjut mengenai proses selanjutnya."
	case models.StatusRejected:
		resp.Panel = dto.PanelRejected
		resp.RejectionReason = reg.RejectionReason
		resp.PanelMessage = "Mohon maaf, pendaftaran ditolak."
	}
	return resp
}

func statusTimeline(reg *models.Registration) []dto.TimelineEntry {
	created := reg.CreatedAt
	submitted := dto.TimelineEntry{
		Key:         "submitted",
		Title:       "Pendaftaran Diterima",
		State:       dto.TimelineDone,
		Description: "Formulir pendaftaran telah kami terima.",
		At:          &created,
	}

	verification := dto.TimelineEntry{Key: "verification", Title: "Verifikasi Data"}
	switch {
	case reg.VerifiedAt != nil:
		verification.State = dto.TimelineDone
		verification.Description = "Data pendaftaran telah diverifikasi."
		verification.At = reg.VerifiedAt
	case reg.Status == models.StatusPending:
		verification.State = dto.TimelineCurrent
		verification.Description = "Sedang dalam proses verifikasi"
	default:
		verification.State = dto.TimelineWaiting
		verification.Description = "Tidak diverifikasi"
	}

	decision := dto.TimelineEntry{Key: "decision", Title: "Keputusan Akhir", At: reg.DecidedAt}
	switch reg.Status {
	case models.StatusAccepted:
		decision.State = dto.TimelineDone
		decision.Description = "Selamat! Anda diterima"
	case models.StatusRejected:
		decision.State = dto.TimelineFailed
		decision.Description = "Mohon maaf, pendaftaran ditolak"
	case models.StatusCancelled:
		decision.State = dto.TimelineFailed
		decision.Description = "Pendaftaran dibatalkan"
	case models.StatusVerified:
		decision.State = dto.TimelineCurrent
		decision.Description = "Menunggu keputusan"
	default:
		decision.State = dto.TimelineWaiting
		decision.Description = "Menunggu keputusan"
	}
	return []dto.TimelineEntry{submitted, verification, decision}
}

// Get returns one registration for the dashboard.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "registration not found", "failed to load registration")
	}
	return reg, nil
}

// List returns a page of registrations, newest first.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	if err := checkStatuses(filter.Statuses); err != nil {
		return nil, nil, err
	}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list registrations")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Transition moves a registration along the status lifecycle on behalf of
// an administrator.
func (s *RegistrationService) Transition(ctx context.Context, actorID, id string, req dto.StatusTransitionRequest, ip, userAgent string) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"status": "unknown status"})
	}
	reason := trimmedPtr(req.Reason)
	if req.Status == models.StatusRejected && reason == nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "rejection requires a reason"), map[string]string{"reason": "reason is required when rejecting"})
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move registration from %s to %s", current.Status, req.Status))
	}

	now := s.now().UTC()
	upd := models.StatusUpdate{
		To:              req.Status,
		Notes:           trimmedPtr(req.Notes),
		RejectionReason: current.RejectionReason,
		At:              now,
	}
	switch req.Status {
	case models.StatusVerified:
		upd.VerifiedAt = &now
		upd.VerifiedBy = &actorID
	case models.StatusRejected:
		upd.RejectionReason = reason
		upd.DecidedAt = &now
	case models.StatusAccepted, models.StatusCancelled:
		upd.DecidedAt = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, current.Status, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration was changed by someone else, reload and try again")
		}
		return nil, internalError(err, "failed to update registration status")
	}

	s.metrics.RecordTransition(current.Status, updated.Status)
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{
			UserID:     actorID,
			Action:     models.AuditActionStatusChange,
			Resource:   "ppdb_registrations",
			ResourceID: updated.ID,
			Before:     map[string]interface{}{"status": current.Status, "rejection_reason": current.RejectionReason},
			After:      map[string]interface{}{"status": updated.Status, "rejection_reason": updated.RejectionReason},
			IPAddress:  ip,
			UserAgent:  userAgent,
		})
	}
	if s.notifier != nil {
		s.notifier.StatusChanged(*updated)
	}
	if updated.Status == models.StatusCancelled {
		s.cache.Invalidate(ctx, cacheWindow)
	}
	s.logger.Info("registration status changed",
		zap.String("registration_number", updated.RegistrationNumber),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actorID),
	)
	return updated, nil
}

var registrationExportColumns = []export.Column{
	{Key: "registration_number", Label: "No. Registrasi", Width: 30},
	{Key: "academic_year", Label: "Tahun Ajaran", Width: 22},
	{Key: "level", Label: "Jenjang", Width: 14},
	{Key: "school", Label: "Sekolah", Width: 40},
	{Key: "student_name", Label: "Nama Siswa", Width: 40},
	{Key: "gender", Label: "L/P", Width: 10},
	{Key: "date_of_birth", Label: "Tanggal Lahir", Width: 22},
	{Key: "parent_name", Label: "Orang Tua", Width: 35},
	{Key: "parent_phone", Label: "Telepon", Width: 25},
	{Key: "parent_email", Label: "Email", Width: 40},
	{Key: "status", Label: "Status", Width: 25},
	{Key: "created_at", Label: "Tanggal Daftar", Width: 28},
}

// Export renders the matching registrations as csv or pdf.
func (s *RegistrationService) Export(ctx context.Context, filter models.RegistrationFilter, format string) (*RegistrationExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"format": "format must be csv or pdf"})
	}
	if err := checkStatuses(filter.Statuses); err != nil {
		return nil, err
	}
	items, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to load registrations")
	}

	data := export.Dataset{Columns: registrationExportColumns, Rows: make([]map[string]string, 0, len(items))}
	for _, reg := range items {
		data.Rows = append(data.Rows, map[string]string{
			"registration_number": reg.RegistrationNumber,
			"academic_year":       reg.AcademicYear,
			"level":               string(reg.SchoolLevel),
			"school":              reg.SchoolName,
			"student_name":        reg.StudentName,
			"gender":              reg.Gender,
			"date_of_birth":       reg.DateOfBirth.String(),
			"parent_name":         reg.ParentName,
			"parent_phone":        reg.ParentPhone,
			"parent_email":        reg.ParentEmail,
			"status":              reg.Status.Label(),
			"created_at":          reg.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	stamp := s.now().Format("20060102-150405")
	out := &RegistrationExport{Filename: fmt.Sprintf("pendaftaran-ppdb-%s.%s", stamp, format)}
	if format == "pdf" {
		out.ContentType = "application/pdf"
		out.Content, err = s.pdf.Render(data, "Data Pendaftaran PPDB "+s.cfg.Foundation)
	} else {
		out.ContentType = "text/csv; charset=utf-8"
		out.Content, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	return out, nil
}

// Success builds the confirmation screen for a registration number. Only the
// number format is checked so the endpoint reveals nothing about stored rows.
func (s *RegistrationService) Success(number string) (*dto.SuccessResponse, error) {
	number, err := checkRegistrationNumber(number)
	if err != nil {
		return nil, err
	}
	return &dto.SuccessResponse{
		RegistrationNumber: number,
		StatusPath:         statusPath(number),
		StatusURL:          s.cfg.PublicBaseURL + statusPath(number),
		QRCodePath:         fmt.Sprintf("%s/ppdb/success/qr?registration=%s", s.cfg.APIPrefix, url.QueryEscape(number)),
		Message:            successMessage,
	}, nil
}

// QRCode renders a PNG QR code linking to the status page of number.
func (s *RegistrationService) QRCode(number string) ([]byte, error) {
	number, err := checkRegistrationNumber(number)
	if err != nil {
		return nil, err
	}
	png, err := export.QRCodePNG(s.cfg.PublicBaseURL+statusPath(number), qrCodeSize)
	if err != nil {
		return nil, internalError(err, "failed to render qr code")
	}
	return png, nil
}

// Receipt renders the PDF receipt addressed by a signed token.
func (s *RegistrationService) Receipt(ctx context.Context, token string) ([]byte, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
	}
	number, resource, _, err := s.signer.Parse(token)
	if err != nil || resource != receiptResource {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt link is invalid or expired")
	}
	reg, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, "", notFoundOr(err, "receipt not found", "failed to load registration")
	}
	pdf, err := s.receipts.Render(export.Receipt{
		Foundation:         s.cfg.Foundation,
		RegistrationNumber: reg.RegistrationNumber,
		AcademicYear:       reg.AcademicYear,
		SchoolName:         reg.SchoolName,
		StudentName:        reg.StudentName,
		ParentName:         reg.ParentName,
		ParentEmail:        reg.ParentEmail,
		StatusLabel:        reg.Status.Label(),
		SubmittedAt:        reg.CreatedAt,
		StatusURL:          s.cfg.PublicBaseURL + statusPath(reg.RegistrationNumber),
	})
	if err != nil {
		return nil, "", internalError(err, "failed to render receipt")
	}
	return pdf, receiptFilename(reg.RegistrationNumber), nil
}

func normalizeForm(form *models.RegistrationForm) {
	form.SchoolID = strings.TrimSpace(form.SchoolID)
	form.StudentName = strings.TrimSpace(form.StudentName)
	form.StudentNISN = strings.TrimSpace(form.StudentNISN)
	form.PlaceOfBirth = strings.TrimSpace(form.PlaceOfBirth)
	form.DateOfBirth = strings.TrimSpace(form.DateOfBirth)
	form.Gender = strings.ToUpper(strings.TrimSpace(form.Gender))
	form.Religion = strings.TrimSpace(form.Religion)
	form.Address = strings.TrimSpace(form.Address)
	form.PhoneNumber = strings.TrimSpace(form.PhoneNumber)
	form.ParentName = strings.TrimSpace(form.ParentName)
	form.ParentPhone = strings.TrimSpace(form.ParentPhone)
	form.ParentEmail = strings.TrimSpace(form.ParentEmail)
	form.ParentOccupation = strings.TrimSpace(form.ParentOccupation)
	form.PreviousSchoolName = strings.TrimSpace(form.PreviousSchoolName)
	form.PreviousSchoolAddress = strings.TrimSpace(form.PreviousSchoolAddress)
}

func unknownSchoolError() *appErrors.Error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "Sekolah tujuan tidak ditemukan."), map[string]string{"school_id": "Sekolah tujuan tidak ditemukan"})
}

func checkStatuses(statuses []models.RegistrationStatus) error {
	for _, st := range statuses {
		if !st.Valid() {
			return appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"status": fmt.Sprintf("unknown status %q", st)})
		}
	}
	return nil
}

func checkRegistrationNumber(raw string) (string, error) {
	number := strings.ToUpper(strings.TrimSpace(raw))
	if !registrationNumberPattern.MatchString(number) {
		return "", appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "Nomor registrasi tidak valid."), map[string]string{"registration": "format PPDB-YYYY-NNN"})
	}
	return number, nil
}

func successPath(number string) string {
	return "/ppdb/success?registration=" + url.QueryEscape(number)
}

func statusPath(number string) string {
	return "/ppdb/status?registration=" + url.QueryEscape(number)
}

func receiptFilename(number string) string {
	return fmt.Sprintf("bukti-pendaftaran-%s.pdf", strings.ToLower(number))
}
