package dto

import (
	"time"

	"github.com/fathussalafi/yayasan-api/internal/models"
)

// SubmitRegistrationResponse is returned after a successful submission. The
// receipt link is only handed to the submitter.
type SubmitRegistrationResponse struct {
	RegistrationNumber string                    `json:"registration_number"`
	Status             models.RegistrationStatus `json:"status"`
	StatusLabel        string                    `json:"status_label"`
	SuccessPath        string                    `json:"success_path"`
	ReceiptPath        string                    `json:"receipt_path,omitempty"`
	ReceiptExpiresAt   *time.Time                `json:"receipt_expires_at,omitempty"`
}

// DraftStepRequest carries the fields edited on the current step. Fields of
// other steps are ignored so navigation never loses data. A missing form
// leaves the draft untouched.
type DraftStepRequest struct {
	Form *models.RegistrationForm `json:"form"`
}

// DraftSummary is the read-only recap shown on the last step.
type DraftSummary struct {
	SchoolName   string `json:"school_name"`
	SchoolLevel  string `json:"school_level"`
	StudentName  string `json:"student_name"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"date_of_birth"`
	ParentName   string `json:"parent_name"`
	ParentPhone  string `json:"parent_phone"`
	ParentEmail  string `json:"parent_email"`
	AcademicYear string `json:"academic_year"`
}

// DraftResponse is the wizard state returned after every action.
type DraftResponse struct {
	Draft     *models.RegistrationDraft `json:"draft"`
	StepTitle string                    `json:"step_title"`
	CanNext   bool                      `json:"can_next"`
	CanPrev   bool                      `json:"can_prev"`
	CanSubmit bool                      `json:"can_submit"`
	Summary   *DraftSummary             `json:"summary,omitempty"`
}

// StatusLookupRequest identifies a registration by number and parent email.
type StatusLookupRequest struct {
	RegistrationNumber string `json:"registration_number" form:"registration" validate:"required"`
	ParentEmail        string `json:"parent_email" form:"email" validate:"required"`
}

// Status panels rendered next to the lookup result.
const (
	PanelWaiting         = "waiting"
	PanelCongratulations = "congratulations"
	PanelRejected        = "rejected"
)

// Timeline entry states.
const (
	TimelineDone    = "done"
	TimelineCurrent = "current"
	TimelineFailed  = "failed"
	TimelineWaiting = "waiting"
)

// TimelineEntry is one step of the status timeline.
type TimelineEntry struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	State       string     `json:"state"`
	Description string     `json:"description"`
	At          *time.Time `json:"at,omitempty"`
}

// StatusLookupResponse is the public view of a registration.
type StatusLookupResponse struct {
	RegistrationNumber string                    `json:"registration_number"`
	AcademicYear       string                    `json:"academic_year"`
	StudentName        string                    `json:"student_name"`
	SchoolName         string                    `json:"school_name"`
	SchoolLevel        models.SchoolLevel        `json:"school_level"`
	Status             models.RegistrationStatus `json:"status"`
	StatusLabel        string                    `json:"status_label"`
	CreatedAt          time.Time                 `json:"created_at"`
	VerifiedAt         *time.Time                `json:"verified_at,omitempty"`
	RejectionReason    *string                   `json:"rejection_reason,omitempty"`
	Panel              string                    `json:"panel,omitempty"`
	PanelMessage       string                    `json:"panel_message,omitempty"`
	Timeline           []TimelineEntry           `json:"timeline"`
}

// SuccessResponse backs the confirmation screen. It carries no personal data.
type SuccessResponse struct {
	RegistrationNumber string `json:"registration_number"`
	StatusPath         string `json:"status_path"`
	StatusURL          string `json:"status_url"`
	QRCodePath         string `json:"qr_code_path"`
	Message            string `json:"message"`
}

// StatusTransitionRequest moves a registration to another status.
type StatusTransitionRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required"`
	Reason *string                   `json:"reason" validate:"omitempty,max=500"`
	Notes  *string                   `json:"notes" validate:"omitempty,max=1000"`
}

// AdmissionSettingsRequest batch-saves an admission window.
type AdmissionSettingsRequest struct {
	AcademicYear     string  `json:"academic_year" validate:"required,max=20"`
	StartDate        *string `json:"start_date" validate:"omitempty,ymd"`
	EndDate          *string `json:"end_date" validate:"omitempty,ymd"`
	RegistrationLink *string `json:"registration_link" validate:"omitempty,max=500"`
	MaxStudents      int     `json:"max_students" validate:"gte=0"`
	AnnouncementText *string `json:"announcement_text"`
}

// ToggleAdmissionRequest sets the active flag explicitly.
type ToggleAdmissionRequest struct {
	IsActive bool `json:"is_active"`
}
