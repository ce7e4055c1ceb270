package models

import (
	"fmt"
	"time"
)

// RegistrationStatus is the lifecycle state of an admission registration.
type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "pending"
	StatusVerified  RegistrationStatus = "verified"
	StatusAccepted  RegistrationStatus = "accepted"
	StatusRejected  RegistrationStatus = "rejected"
	StatusCancelled RegistrationStatus = "cancelled"
)

// RegistrationStatuses lists every status in lifecycle order.
var RegistrationStatuses = []RegistrationStatus{StatusPending, StatusVerified, StatusAccepted, StatusRejected, StatusCancelled}

var statusLabels = map[RegistrationStatus]string{
	StatusPending:   "Menunggu Verifikasi",
	StatusVerified:  "Terverifikasi",
	StatusAccepted:  "Diterima",
	StatusRejected:  "Ditolak",
	StatusCancelled: "Dibatalkan",
}

// Label is the Indonesian display label for the status.
func (s RegistrationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

var statusTransitions = map[RegistrationStatus][]RegistrationStatus{
	StatusPending:  {StatusVerified, StatusRejected, StatusCancelled},
	StatusVerified: {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted: {StatusCancelled},
	StatusRejected: {StatusCancelled},
}

// CanTransition reports whether an administrator may move a registration
// from one status to another.
func CanTransition(from, to RegistrationStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s RegistrationStatus) []RegistrationStatus {
	return append([]RegistrationStatus(nil), statusTransitions[s]...)
}

// FormatRegistrationNumber renders PPDB-<year>-<seq> with seq zero padded to
// three digits.
func FormatRegistrationNumber(year, seq int) string {
	return fmt.Sprintf("PPDB-%d-%03d", year, seq)
}

// Registration is one submitted admission application.
type Registration struct {
	ID                    string             `db:"id" json:"id"`
	RegistrationNumber    string             `db:"registration_number" json:"registration_number"`
	AcademicYear          string             `db:"academic_year" json:"academic_year"`
	SchoolID              string             `db:"school_id" json:"school_id"`
	StudentName           string             `db:"student_name" json:"student_name"`
	StudentNISN           *string            `db:"student_nisn" json:"student_nisn,omitempty"`
	PlaceOfBirth          string             `db:"place_of_birth" json:"place_of_birth"`
	DateOfBirth           Date               `db:"date_of_birth" json:"date_of_birth"`
	Gender                string             `db:"gender" json:"gender"`
	Religion              string             `db:"religion" json:"religion"`
	Address               string             `db:"address" json:"address"`
	PhoneNumber           *string            `db:"phone_number" json:"phone_number,omitempty"`
	ParentName            string             `db:"parent_name" json:"parent_name"`
	ParentPhone           string             `db:"parent_phone" json:"parent_phone"`
	ParentEmail           string             `db:"parent_email" json:"parent_email"`
	ParentOccupation      *string            `db:"parent_occupation" json:"parent_occupation,omitempty"`
	PreviousSchoolName    *string            `db:"previous_school_name" json:"previous_school_name,omitempty"`
	PreviousSchoolAddress *string            `db:"previous_school_address" json:"previous_school_address,omitempty"`
	PhotoURL              *string            `db:"photo_url" json:"photo_url,omitempty"`
	BirthCertificateURL   *string            `db:"birth_certificate_url" json:"birth_certificate_url,omitempty"`
	FamilyCardURL         *string            `db:"family_card_url" json:"family_card_url,omitempty"`
	Status                RegistrationStatus `db:"status" json:"status"`
	Notes                 *string            `db:"notes" json:"notes,omitempty"`
	RejectionReason       *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	VerifiedAt            *time.Time         `db:"verified_at" json:"verified_at,omitempty"`
	VerifiedBy            *string            `db:"verified_by" json:"verified_by,omitempty"`
	DecidedAt             *time.Time         `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt             time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updated_at"`

	SchoolName  string      `db:"school_name" json:"school_name,omitempty"`
	SchoolLevel SchoolLevel `db:"school_level" json:"school_level,omitempty"`
}

// RegistrationFilter narrows the admin registration list.
type RegistrationFilter struct {
	Statuses     []RegistrationStatus
	AcademicYear string
	SchoolID     string
	Search       string
	Page         int
	PageSize     int
}

// StatusCount is the number of registrations in one status.
type StatusCount struct {
	Status RegistrationStatus `db:"status" json:"status"`
	Total  int                `db:"total" json:"total"`
}

// StatusUpdate describes an administrative status change.
type StatusUpdate struct {
	To              RegistrationStatus
	RejectionReason *string
	Notes           *string
	VerifiedAt      *time.Time
	VerifiedBy      *string
	DecidedAt       *time.Time
	At              time.Time
}
