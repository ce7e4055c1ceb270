package service

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/models"
	"github.com/fathussalafi/yayasan-api/pkg/export"
	"github.com/fathussalafi/yayasan-api/pkg/jobs"
	"github.com/fathussalafi/yayasan-api/pkg/mailer"
)

// Notification job types.
const (
	MailRegistrationConfirmation = "registration_confirmation"
	MailStatusChanged            = "status_changed"
)

// NotificationConfig describes how parent emails are addressed and linked.
type NotificationConfig struct {
	Foundation    string
	PublicBaseURL string
}

// NotificationService emails parents about their registration. Messages are
// composed synchronously and delivered by a background queue with retries,
// so a slow mail provider never blocks a submission.
type NotificationService struct {
	sender   mailer.Sender
	receipts *export.ReceiptRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      NotificationConfig
	queue    *jobs.Queue
}

// NewNotificationService wires the delivery queue around sender.
func NewNotificationService(sender mailer.Sender, receipts *export.ReceiptRenderer, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig, queueCfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if receipts == nil {
		receipts = export.NewReceiptRenderer()
	}
	s := &NotificationService{sender: sender, receipts: receipts, metrics: metrics, logger: logger, cfg: cfg}
	queueCfg.Logger = logger
	queueCfg.OnResult = func(job jobs.Job, err error) {
		s.metrics.RecordMail(job.Type, err)
	}
	s.queue = jobs.NewQueue("mail", s.deliver, queueCfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries to finish.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// RegistrationSubmitted queues the confirmation email with the PDF receipt attached.
func (s *NotificationService) RegistrationSubmitted(reg models.Registration) {
	msg := mailer.Message{
		To:      mail.Address{Name: reg.ParentName, Address: reg.ParentEmail},
		Subject: fmt.Sprintf("Pendaftaran %s diterima", reg.RegistrationNumber),
	}
	lines := []string{
		fmt.Sprintf("Assalamu'alaikum %s,", reg.ParentName),
		"",
		fmt.Sprintf("Terima kasih, pendaftaran ananda %s di %s untuk tahun ajaran %s telah kami terima.", reg.StudentName, reg.SchoolName, reg.AcademicYear),
		fmt.Sprintf("Nomor registrasi: %s", reg.RegistrationNumber),
		fmt.Sprintf("Status saat ini: %s", reg.Status.Label()),
		"",
		fmt.Sprintf("Cek status pendaftaran kapan saja di %s menggunakan nomor registrasi dan email ini.", s.statusURL(reg.RegistrationNumber)),
	}
	msg.Text, msg.HTML = s.compose(lines)

	pdf, err := s.receipts.Render(s.receipt(reg))
	if err != nil {
		s.logger.Warn("failed to render receipt attachment", zap.String("registration_number", reg.RegistrationNumber), zap.Error(err))
	} else {
		msg.Attachments = []mailer.Attachment{{
			Filename:    receiptFilename(reg.RegistrationNumber),
			ContentType: "application/pdf",
			Content:     pdf,
		}}
	}
	s.enqueue(MailRegistrationConfirmation, msg)
}

// StatusChanged queues an email telling the parent about a new status.
func (s *NotificationService) StatusChanged(reg models.Registration) {
	msg := mailer.Message{
		To:      mail.Address{Name: reg.ParentName, Address: reg.ParentEmail},
		Subject: fmt.Sprintf("Status pendaftaran %s: %s", reg.RegistrationNumber, reg.Status.Label()),
	}
	lines := []string{
		fmt.Sprintf("Assalamu'alaikum %s,", reg.ParentName),
		"",
		fmt.Sprintf("Status pendaftaran ananda %s (%s) kini: %s.", reg.StudentName, reg.RegistrationNumber, reg.Status.Label()),
	}
	switch reg.Status {
	case models.StatusAccepted:
		lines = append(lines, "Selamat! Ananda dinyatakan diterima. Informasi daftar ulang akan disampaikan oleh panitia.")
	case models.StatusRejected:
		if reg.RejectionReason != nil {
			lines = append(lines, fmt.Sprintf("Alasan: %s", *reg.RejectionReason))
		}
	}
	lines = append(lines, "", fmt.Sprintf("Detail status: %s", s.statusURL(reg.RegistrationNumber)))
	msg.Text, msg.HTML = s.compose(lines)
	s.enqueue(MailStatusChanged, msg)
}

func (s *NotificationService) enqueue(kind string, msg mailer.Message) {
	if msg.To.Address == "" {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: kind, Payload: msg}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to queue notification", zap.String("type", kind), zap.Error(err))
		s.metrics.RecordMail(kind, err)
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.sender.Send(ctx, msg)
}

func (s *NotificationService) compose(lines []string) (string, string) {
	signature := []string{"", "Wassalamu'alaikum,", "Panitia PPDB " + s.cfg.Foundation}
	all := append(append([]string{}, lines...), signature...)
	var b strings.Builder
	for _, line := range all {
		if line == "" {
			b.WriteString("<br>")
			continue
		}
		b.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	return strings.Join(all, "\n"), b.String()
}

func (s *NotificationService) receipt(reg models.Registration) export.Receipt {
	return export.Receipt{
		Foundation:         s.cfg.Foundation,
		RegistrationNumber: reg.RegistrationNumber,
		AcademicYear:       reg.AcademicYear,
		SchoolName:         reg.SchoolName,
		StudentName:        reg.StudentName,
		ParentName:         reg.ParentName,
		ParentEmail:        reg.ParentEmail,
		StatusLabel:        reg.Status.Label(),
		SubmittedAt:        reg.CreatedAt,
		StatusURL:          s.statusURL(reg.RegistrationNumber),
	}
}

func (s *NotificationService) statusURL(number string) string {
	return s.cfg.PublicBaseURL + statusPath(number)
}
