package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AdmissionSettings is one admission window (PPDB) configuration. At most one
// row is active at a time.
type AdmissionSettings struct {
	ID               string    `db:"id" json:"id"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	AcademicYear     string    `db:"academic_year" json:"academic_year"`
	StartDate        *Date     `db:"start_date" json:"start_date,omitempty"`
	EndDate          *Date     `db:"end_date" json:"end_date,omitempty"`
	RegistrationLink *string   `db:"registration_link" json:"registration_link,omitempty"`
	MaxStudents      int       `db:"max_students" json:"max_students"`
	AnnouncementText *string   `db:"announcement_text" json:"announcement_text,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AdmissionYear resolves the numbering year and the academic year label for a
// new registration. The year is the part of the label before "/" and falls
// back to the calendar year of now when no usable label exists.
func AdmissionYear(settings *AdmissionSettings, now time.Time) (int, string) {
	if settings != nil {
		label := strings.TrimSpace(settings.AcademicYear)
		head := strings.TrimSpace(strings.SplitN(label, "/", 2)[0])
		if year, err := strconv.Atoi(head); err == nil && len(head) == 4 {
			return year, label
		}
	}
	year := now.Year()
	return year, fmt.Sprintf("%d/%d", year, year+1)
}

// AdmissionWindow is the public view of the admission window.
type AdmissionWindow struct {
	IsOpen           bool    `json:"is_open"`
	Reason           string  `json:"reason,omitempty"`
	AcademicYear     string  `json:"academic_year,omitempty"`
	StartDate        *Date   `json:"start_date,omitempty"`
	EndDate          *Date   `json:"end_date,omitempty"`
	RegistrationLink *string `json:"registration_link,omitempty"`
	MaxStudents      int     `json:"max_students"`
	Registered       int     `json:"registered"`
	AnnouncementText *string `json:"announcement_text,omitempty"`
	Message          string  `json:"message,omitempty"`
}

// Reasons an admission window is closed.
const (
	WindowClosedInactive   = "inactive"
	WindowClosedNotStarted = "not_started"
	WindowClosedEnded      = "ended"
	WindowClosedQuota      = "quota_reached"
)

// ClosedMessage is the notice shown while the admission window is closed.
func ClosedMessage(academicYear string) string {
	label := strings.TrimSpace(academicYear)
	if label == "" {
		label = "ini"
	}
	return fmt.Sprintf("Pendaftaran peserta didik baru untuk tahun ajaran %s belum dibuka.", label)
}
