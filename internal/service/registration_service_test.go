package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	"github.com/fathussalafi/yayasan-api/internal/models"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
	"github.com/fathussalafi/yayasan-api/pkg/storage"
)

const testSchoolID = "5b1f8f3e-2a59-4f6e-9a53-1b1d2c3e4f50"

type mockRegistrationRepo struct {
	created      []*models.Registration
	createdYear  int
	quotas       []int
	createErr    error
	nextSeq      int
	byNumber     map[string]*models.Registration
	findErr      error
	lookupNumber string
	lookupEmail  string
	listed       models.RegistrationFilter
	items        []models.Registration
	updates      []models.StatusUpdate
	updateFrom   models.RegistrationStatus
	updateErr    error
}

func (m *mockRegistrationRepo) CreateWithNumber(ctx context.Context, reg *models.Registration, year, quota int) error {
	m.quotas = append(m.quotas, quota)
	if m.createErr != nil {
		return m.createErr
	}
	m.nextSeq++
	m.createdYear = year
	reg.ID = "reg-1"
	reg.RegistrationNumber = models.FormatRegistrationNumber(year, m.nextSeq)
	reg.CreatedAt = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	m.created = append(m.created, reg)
	return nil
}

func (m *mockRegistrationRepo) FindByNumberAndEmail(ctx context.Context, number, email string) (*models.Registration, error) {
	m.lookupNumber, m.lookupEmail = number, email
	if m.findErr != nil {
		return nil, m.findErr
	}
	reg, ok := m.byNumber[number]
	if !ok || reg.ParentEmail != email {
		return nil, sql.ErrNoRows
	}
	return reg, nil
}

func (m *mockRegistrationRepo) FindByNumber(ctx context.Context, number string) (*models.Registration, error) {
	if reg, ok := m.byNumber[number]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	for _, reg := range m.byNumber {
		if reg.ID == id {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	m.listed = filter
	return m.items, len(m.items), nil
}

func (m *mockRegistrationRepo) ListAll(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	m.listed = filter
	return m.items, nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, from models.RegistrationStatus, upd models.StatusUpdate) (*models.Registration, error) {
	m.updateFrom = from
	m.updates = append(m.updates, upd)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	reg, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reg.Status = upd.To
	reg.RejectionReason = upd.RejectionReason
	if upd.VerifiedAt != nil {
		reg.VerifiedAt = upd.VerifiedAt
		reg.VerifiedBy = upd.VerifiedBy
	}
	if upd.DecidedAt != nil {
		reg.DecidedAt = upd.DecidedAt
	}
	return reg, nil
}

type mockSchoolFinder struct {
	schools map[string]*models.School
	err     error
}

func (m *mockSchoolFinder) FindByID(ctx context.Context, id string) (*models.School, error) {
	if m.err != nil {
		return nil, m.err
	}
	if school, ok := m.schools[id]; ok {
		return school, nil
	}
	return nil, sql.ErrNoRows
}

type mockAdmissionGate struct {
	settings *models.AdmissionSettings
	err      error
	calls    int
}

func (m *mockAdmissionGate) EnsureOpen(ctx context.Context) (*models.AdmissionSettings, error) {
	m.calls++
	return m.settings, m.err
}

type mockNotifier struct {
	submitted []models.Registration
	changed   []models.Registration
}

func (m *mockNotifier) RegistrationSubmitted(reg models.Registration) {
	m.submitted = append(m.submitted, reg)
}

func (m *mockNotifier) StatusChanged(reg models.Registration) {
	m.changed = append(m.changed, reg)
}

type mockAuditRecorder struct {
	entries []AuditEntry
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry AuditEntry) {
	m.entries = append(m.entries, entry)
}

type registrationFixture struct {
	repo     *mockRegistrationRepo
	gate     *mockAdmissionGate
	notifier *mockNotifier
	audit    *mockAuditRecorder
	signer   *storage.SignedURLSigner
	svc      *RegistrationService
}

func newRegistrationFixture() *registrationFixture {
	f := &registrationFixture{
		repo:     &mockRegistrationRepo{byNumber: map[string]*models.Registration{}},
		gate:     &mockAdmissionGate{settings: &models.AdmissionSettings{ID: "set-1", IsActive: true, AcademicYear: "2025/2026"}},
		notifier: &mockNotifier{},
		audit:    &mockAuditRecorder{},
		signer:   storage.NewSignedURLSigner("receipt-secret", time.Hour),
	}
	schools := &mockSchoolFinder{schools: map[string]*models.School{
		testSchoolID: {ID: testSchoolID, Name: "MI Fathus Salafi", Level: models.LevelMI},
	}}
	f.svc = NewRegistrationService(f.repo, schools, f.gate, f.notifier, f.audit, f.signer, nil, nil, nil, nil, RegistrationServiceConfig{
		PublicBaseURL: "https://fathussalafi.sch.id/",
		APIPrefix:     "/api/v1",
	})
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	return f
}

func validForm() models.RegistrationForm {
	return models.RegistrationForm{
		SchoolSelection: models.SchoolSelection{SchoolID: testSchoolID},
		StudentData: models.StudentData{
			StudentName:  " Ahmad Fauzi ",
			PlaceOfBirth: "Malang",
			DateOfBirth:  "2018-03-14",
			Gender:       "l",
			Religion:     "Islam",
			Address:      "Jl. Pesantren 1",
		},
		ParentData: models.ParentData{
			ParentName:  "Siti Aminah",
			ParentPhone: "081234567890",
			ParentEmail: "siti@example.com",
		},
	}
}

func (f *registrationFixture) seed(reg models.Registration) *models.Registration {
	stored := reg
	f.repo.byNumber[reg.RegistrationNumber] = &stored
	return &stored
}

func pendingRegistration() models.Registration {
	return models.Registration{
		ID:                 "reg-9",
		RegistrationNumber: "PPDB-2025-009",
		AcademicYear:       "2025/2026",
		SchoolID:           testSchoolID,
		SchoolName:         "MI Fathus Salafi",
		SchoolLevel:        models.LevelMI,
		StudentName:        "Ahmad Fauzi",
		ParentName:         "Siti Aminah",
		ParentEmail:        "siti@example.com",
		Status:             models.StatusPending,
		CreatedAt:          time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRegistrationServiceSubmit(t *testing.T) {
	f := newRegistrationFixture()

	resp, err := f.svc.Submit(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, "PPDB-2025-001", resp.RegistrationNumber)
	assert.Equal(t, models.StatusPending, resp.Status)
	assert.Equal(t, "Menunggu Verifikasi", resp.StatusLabel)
	assert.Equal(t, "/ppdb/success?registration=PPDB-2025-001", resp.SuccessPath)
	require.NotNil(t, resp.ReceiptExpiresAt)
	assert.True(t, strings.HasPrefix(resp.ReceiptPath, "/api/v1/ppdb/receipt/"))

	require.Len(t, f.repo.created, 1)
	reg := f.repo.created[0]
	assert.Equal(t, 2025, f.repo.createdYear)
	assert.Equal(t, "2025/2026", reg.AcademicYear)
	assert.Equal(t, "Ahmad Fauzi", reg.StudentName)
	assert.Equal(t, "L", reg.Gender)
	assert.Equal(t, "2018-03-14", reg.DateOfBirth.String())
	assert.Nil(t, reg.StudentNISN)
	assert.Nil(t, reg.PreviousSchoolName)
	assert.Equal(t, models.StatusPending, reg.Status)

	require.Len(t, f.notifier.submitted, 1)
	assert.Equal(t, "MI Fathus Salafi", f.notifier.submitted[0].SchoolName)
}

func TestRegistrationServiceSubmitFallsBackToCalendarYear(t *testing.T) {
	f := newRegistrationFixture()
	f.gate.settings = &models.AdmissionSettings{IsActive: true, AcademicYear: "Gelombang 1"}

	resp, err := f.svc.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "PPDB-2025-001", resp.RegistrationNumber)
	assert.Equal(t, "2025/2026", f.repo.created[0].AcademicYear)
}

func TestRegistrationServiceSubmitValidation(t *testing.T) {
	f := newRegistrationFixture()
	form := validForm()
	form.StudentName = ""
	form.ParentEmail = "bukan-email"
	form.Gender = "X"

	_, err := f.svc.Submit(context.Background(), form)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "student_name")
	assert.Contains(t, appErr.Details, "parent_email")
	assert.Contains(t, appErr.Details, "gender")
	assert.Empty(t, f.repo.created)
	assert.Zero(t, f.gate.calls)
}

func TestRegistrationServiceSubmitClosed(t *testing.T) {
	f := newRegistrationFixture()
	f.gate.err = appErrors.Clone(appErrors.ErrAdmissionClosed, models.ClosedMessage("2025/2026"))

	_, err := f.svc.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAdmissionClosed)
	assert.Contains(t, err.Error(), "tahun ajaran 2025/2026 belum dibuka")
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.notifier.submitted)
}

func TestRegistrationServiceSubmitUnknownSchool(t *testing.T) {
	f := newRegistrationFixture()
	form := validForm()
	form.SchoolID = "0b1f8f3e-2a59-4f6e-9a53-1b1d2c3e4f51"

	_, err := f.svc.Submit(context.Background(), form)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "school_id")
}

func TestRegistrationServiceSubmitStoreFailure(t *testing.T) {
	f := newRegistrationFixture()
	f.repo.createErr = errors.New("allocate registration number: connection reset")

	_, err := f.svc.Submit(context.Background(), validForm())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, submitFailedMessage, appErr.Message)
	assert.Empty(t, f.notifier.submitted)
}

func TestRegistrationServiceSubmitQuotaFilledConcurrently(t *testing.T) {
	f := newRegistrationFixture()
	f.gate.settings.MaxStudents = 30
	f.repo.createErr = appErrors.ErrQuotaReached

	_, err := f.svc.Submit(context.Background(), validForm())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrQuotaReached.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "tahun ajaran 2025/2026 sudah terpenuhi")
	assert.Equal(t, []int{30}, f.repo.quotas)
	assert.Empty(t, f.notifier.submitted)
}

func TestRegistrationServiceSubmitForeignKeyViolation(t *testing.T) {
	f := newRegistrationFixture()
	f.repo.createErr = &pq.Error{Code: pqForeignKeyViolation}

	_, err := f.svc.Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegistrationServiceLookupStatus(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())

	resp, err := f.svc.LookupStatus(context.Background(), dto.StatusLookupRequest{
		RegistrationNumber: " ppdb-2025-009 ",
		ParentEmail:        "siti@example.com ",
	})
	require.NoError(t, err)
	assert.Equal(t, "PPDB-2025-009", f.repo.lookupNumber)
	assert.Equal(t, "siti@example.com", f.repo.lookupEmail)
	assert.Equal(t, "Menunggu Verifikasi", resp.StatusLabel)
	assert.Equal(t, dto.PanelWaiting, resp.Panel)
	assert.Nil(t, resp.RejectionReason)

	require.Len(t, resp.Timeline, 3)
	assert.Equal(t, dto.TimelineDone, resp.Timeline[0].State)
	assert.Equal(t, dto.TimelineCurrent, resp.Timeline[1].State)
	assert.Equal(t, dto.TimelineWaiting, resp.Timeline[2].State)
}

func TestRegistrationServiceLookupStatusNotFound(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())

	_, err := f.svc.LookupStatus(context.Background(), dto.StatusLookupRequest{
		RegistrationNumber: "PPDB-2025-009",
		ParentEmail:        "other@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, lookupNotFoundMessage, appErrors.FromError(err).Message)

	f.repo.findErr = errors.New("connection refused")
	_, dbErr := f.svc.LookupStatus(context.Background(), dto.StatusLookupRequest{
		RegistrationNumber: "PPDB-2025-009",
		ParentEmail:        "siti@example.com",
	})
	require.Error(t, dbErr)
	assert.Equal(t, appErrors.FromError(err).Message, appErrors.FromError(dbErr).Message)
	assert.Equal(t, appErrors.FromError(err).Status, appErrors.FromError(dbErr).Status)
}

func TestRegistrationServiceLookupStatusRequiresBothFields(t *testing.T) {
	f := newRegistrationFixture()

	_, err := f.svc.LookupStatus(context.Background(), dto.StatusLookupRequest{RegistrationNumber: "PPDB-2025-001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Details, "parent_email")
	assert.Empty(t, f.repo.lookupNumber)
}

func TestStatusViewPanels(t *testing.T) {
	decided := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	reason := "Berkas tidak lengkap"

	accepted := pendingRegistration()
	accepted.Status = models.StatusAccepted
	accepted.VerifiedAt = &decided
	accepted.DecidedAt = &decided
	view := statusView(&accepted)
	assert.Equal(t, dto.PanelCongratulations, view.Panel)
	assert.Equal(t, dto.TimelineDone, view.Timeline[1].State)
	assert.Equal(t, dto.TimelineDone, view.Timeline[2].State)
	assert.Equal(t, &decided, view.Timeline[2].At)

	rejected := pendingRegistration()
	rejected.Status = models.StatusRejected
	rejected.RejectionReason = &reason
	view = statusView(&rejected)
	assert.Equal(t, dto.PanelRejected, view.Panel)
	assert.Equal(t, &reason, view.RejectionReason)
	assert.Equal(t, dto.TimelineFailed, view.Timeline[2].State)

	cancelled := pendingRegistration()
	cancelled.Status = models.StatusCancelled
	cancelled.RejectionReason = &reason
	view = statusView(&cancelled)
	assert.Empty(t, view.Panel)
	assert.Nil(t, view.RejectionReason)

	verified := pendingRegistration()
	verified.Status = models.StatusVerified
	verified.VerifiedAt = &decided
	view = statusView(&verified)
	assert.Empty(t, view.Panel)
	assert.Equal(t, dto.TimelineCurrent, view.Timeline[2].State)
}

func TestRegistrationServiceTransitionVerify(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())

	updated, err := f.svc.Transition(context.Background(), "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusVerified}, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, updated.Status)
	require.NotNil(t, updated.VerifiedAt)
	require.NotNil(t, updated.VerifiedBy)
	assert.Equal(t, "admin-1", *updated.VerifiedBy)
	assert.Nil(t, updated.DecidedAt)
	assert.Equal(t, models.StatusPending, f.repo.updateFrom)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStatusChange, f.audit.entries[0].Action)
	assert.Equal(t, "reg-9", f.audit.entries[0].ResourceID)
	require.Len(t, f.notifier.changed, 1)
}

func TestRegistrationServiceTransitionRules(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusAccepted}, "", "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = f.svc.Transition(ctx, "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusRejected}, "", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Transition(ctx, "admin-1", "reg-9", dto.StatusTransitionRequest{Status: "archived"}, "", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Transition(ctx, "admin-1", "missing", dto.StatusTransitionRequest{Status: models.StatusVerified}, "", "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Empty(t, f.repo.updates)
	assert.Empty(t, f.notifier.changed)
}

func TestRegistrationServiceTransitionRejectThenCancelKeepsReason(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())
	ctx := context.Background()
	reason := "  Kuota penuh "

	rejected, err := f.svc.Transition(ctx, "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusRejected, Reason: &reason}, "", "")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Kuota penuh", *rejected.RejectionReason)
	assert.NotNil(t, rejected.DecidedAt)
	f.repo.byNumber[rejected.RegistrationNumber] = rejected

	cancelled, err := f.svc.Transition(ctx, "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusCancelled}, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.RejectionReason)
	assert.Equal(t, "Kuota penuh", *cancelled.RejectionReason)
}

func TestRegistrationServiceTransitionLostRace(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())
	f.repo.updateErr = sql.ErrNoRows

	_, err := f.svc.Transition(context.Background(), "admin-1", "reg-9", dto.StatusTransitionRequest{Status: models.StatusVerified}, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.audit.entries)
}

func TestRegistrationServiceList(t *testing.T) {
	f := newRegistrationFixture()
	f.repo.items = []models.Registration{pendingRegistration()}

	items, page, err := f.svc.List(context.Background(), models.RegistrationFilter{Statuses: []models.RegistrationStatus{models.StatusPending}, Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, f.repo.listed.PageSize, page.PageSize)

	_, _, err = f.svc.List(context.Background(), models.RegistrationFilter{Statuses: []models.RegistrationStatus{"draft"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegistrationServiceExport(t *testing.T) {
	f := newRegistrationFixture()
	f.repo.items = []models.Registration{pendingRegistration()}

	csvOut, err := f.svc.Export(context.Background(), models.RegistrationFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", csvOut.ContentType)
	assert.True(t, strings.HasSuffix(csvOut.Filename, ".csv"))
	assert.Contains(t, string(csvOut.Content), "No. Registrasi")
	assert.Contains(t, string(csvOut.Content), "PPDB-2025-009")
	assert.Contains(t, string(csvOut.Content), "MI Fathus Salafi")

	pdfOut, err := f.svc.Export(context.Background(), models.RegistrationFilter{}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfOut.ContentType)
	assert.True(t, bytes.HasPrefix(pdfOut.Content, []byte("%PDF")))

	_, err = f.svc.Export(context.Background(), models.RegistrationFilter{}, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegistrationServiceSuccessAndQRCode(t *testing.T) {
	f := newRegistrationFixture()

	resp, err := f.svc.Success(" ppdb-2025-001 ")
	require.NoError(t, err)
	assert.Equal(t, "PPDB-2025-001", resp.RegistrationNumber)
	assert.Equal(t, "/ppdb/status?registration=PPDB-2025-001", resp.StatusPath)
	assert.Equal(t, "https://fathussalafi.sch.id/ppdb/status?registration=PPDB-2025-001", resp.StatusURL)
	assert.Equal(t, "/api/v1/ppdb/success/qr?registration=PPDB-2025-001", resp.QRCodePath)

	_, err = f.svc.Success("2025-001")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	png, err := f.svc.QRCode("PPDB-2025-1234")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = f.svc.QRCode("")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRegistrationServiceReceipt(t *testing.T) {
	f := newRegistrationFixture()
	f.seed(pendingRegistration())

	token, _, err := f.signer.Generate("PPDB-2025-009", receiptResource)
	require.NoError(t, err)

	pdf, filename, err := f.svc.Receipt(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "bukti-pendaftaran-ppdb-2025-009.pdf", filename)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = f.svc.Receipt(context.Background(), token+"x")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	other, _, err := f.signer.Generate("PPDB-2025-009", "photo")
	require.NoError(t, err)
	_, _, err = f.svc.Receipt(context.Background(), other)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
