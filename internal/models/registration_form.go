package models

import "time"

// Wizard steps of the admission form.
const (
	StepSchool         = 1
	StepStudent        = 2
	StepParent         = 3
	StepPreviousSchool = 4
)

// StepTitles names each wizard step.
var StepTitles = map[int]string{
	StepSchool:         "Pilih Sekolah",
	StepStudent:        "Data Siswa",
	StepParent:         "Data Orang Tua",
	StepPreviousSchool: "Sekolah Asal",
}

// SchoolSelection is wizard step 1.
type SchoolSelection struct {
	SchoolID string `json:"school_id" validate:"required,uuid"`
}

// StudentData is wizard step 2.
type StudentData struct {
	StudentName  string `json:"student_name" validate:"required,max=150"`
	StudentNISN  string `json:"student_nisn" validate:"omitempty,numeric,len=10"`
	PlaceOfBirth string `json:"place_of_birth" validate:"required,max=100"`
	DateOfBirth  string `json:"date_of_birth" validate:"required,ymd"`
	Gender       string `json:"gender" validate:"required,gender"`
	Religion     string `json:"religion" validate:"required,max=50"`
	Address      string `json:"address" validate:"required"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=20"`
}

// ParentData is wizard step 3. The email is later the status lookup credential.
type ParentData struct {
	ParentName       string `json:"parent_name" validate:"required,max=150"`
	ParentPhone      string `json:"parent_phone" validate:"required,max=20"`
	ParentEmail      string `json:"parent_email" validate:"required,email"`
	ParentOccupation string `json:"parent_occupation" validate:"omitempty,max=100"`
}

// PreviousSchoolData is wizard step 4; every field is optional.
type PreviousSchoolData struct {
	PreviousSchoolName    string `json:"previous_school_name" validate:"omitempty,max=150"`
	PreviousSchoolAddress string `json:"previous_school_address"`
	PhotoURL              string `json:"photo_url" validate:"omitempty,max=500"`
	BirthCertificateURL   string `json:"birth_certificate_url" validate:"omitempty,max=500"`
	FamilyCardURL         string `json:"family_card_url" validate:"omitempty,max=500"`
}

// RegistrationForm is the full record collected by the wizard.
type RegistrationForm struct {
	SchoolSelection
	StudentData
	ParentData
	PreviousSchoolData
}

// Section returns the part of the form validated at step, or nil for an
// unknown step.
func (f *RegistrationForm) Section(step int) interface{} {
	switch step {
	case StepSchool:
		return &f.SchoolSelection
	case StepStudent:
		return &f.StudentData
	case StepParent:
		return &f.ParentData
	case StepPreviousSchool:
		return &f.PreviousSchoolData
	}
	return nil
}

// RegistrationDraft is an in-progress wizard session kept in Redis.
type RegistrationDraft struct {
	ID        string           `json:"id"`
	Step      int              `json:"step"`
	Form      RegistrationForm `json:"form"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// CanNext reports whether the draft may advance.
func (d *RegistrationDraft) CanNext() bool { return d.Step < StepPreviousSchool }

// CanPrev reports whether the draft may go back.
func (d *RegistrationDraft) CanPrev() bool { return d.Step > StepSchool }

// CanSubmit reports whether the draft is on the final step.
func (d *RegistrationDraft) CanSubmit() bool { return d.Step == StepPreviousSchool }
