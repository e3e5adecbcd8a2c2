package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentField names an uploadable credential slot on a doctor's submission.
type DocumentField string

const (
	DocumentMedicalLicense    DocumentField = "medical_license"
	DocumentMBBSMDDegree      DocumentField = "mbbs_md_degree"
	DocumentCNIC              DocumentField = "cnic"
	DocumentSpecialistLicense DocumentField = "specialist_license"
	DocumentExperienceLetters DocumentField = "experience_letters"
)

// RequiredDocuments lists the fields that must be present before an application exists.
func RequiredDocuments() []DocumentField {
	return []DocumentField{DocumentMedicalLicense, DocumentMBBSMDDegree, DocumentCNIC}
}

// DisplayName renders the field for error messages, e.g. "MBBS MD DEGREE".
func (f DocumentField) DisplayName() string {
	return strings.ToUpper(strings.ReplaceAll(string(f), "_", " "))
}

// Folder is the storage folder uploads for this field are written to.
func (f DocumentField) Folder() string {
	switch f {
	case DocumentCNIC:
		return "doctor_documents/cnic"
	case DocumentMedicalLicense:
		return "doctor_documents/medical_license"
	case DocumentSpecialistLicense:
		return "doctor_documents/specialist_license"
	case DocumentMBBSMDDegree:
		return "doctor_documents/degrees"
	default:
		return "doctor_documents/experience"
	}
}

// DoctorDocuments holds references to a doctor's uploaded credential files.
type DoctorDocuments struct {
	ID                uuid.UUID
	DoctorID          uuid.UUID
	CNIC              string
	MedicalLicense    string
	MBBSMDDegree      string
	SpecialistLicense string
	ExperienceLetters []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Get returns the stored reference for a single-file field.
func (d *DoctorDocuments) Get(field DocumentField) string {
	switch field {
	case DocumentCNIC:
		return d.CNIC
	case DocumentMedicalLicense:
		return d.MedicalLicense
	case DocumentMBBSMDDegree:
		return d.MBBSMDDegree
	case DocumentSpecialistLicense:
		return d.SpecialistLicense
	case DocumentExperienceLetters:
		if len(d.ExperienceLetters) > 0 {
			return d.ExperienceLetters[0]
		}
	}

	return ""
}

// Set stores the reference for a single-file field. Experience letters are appended.
func (d *DoctorDocuments) Set(field DocumentField, url string) {
	switch field {
	case DocumentCNIC:
		d.CNIC = url
	case DocumentMedicalLicense:
		d.MedicalLicense = url
	case DocumentMBBSMDDegree:
		d.MBBSMDDegree = url
	case DocumentSpecialistLicense:
		d.SpecialistLicense = url
	case DocumentExperienceLetters:
		d.ExperienceLetters = append(d.ExperienceLetters, url)
	}
}

// MissingRequired returns the display names of required fields that are still empty.
func (d *DoctorDocuments) MissingRequired() []string {
	var missing []string
	for _, f := range RequiredDocuments() {
		if d == nil || d.Get(f) == "" {
			missing = append(missing, f.DisplayName())
		}
	}

	return missing
}

// ApplicationStatus is the review state of a doctor's application.
type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationProcessing ApplicationStatus = "processing"
	ApplicationRejected   ApplicationStatus = "rejected"
	ApplicationApproved   ApplicationStatus = "approved"
)

// IsValid checks if the status is a known value.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationProcessing, ApplicationRejected, ApplicationApproved:
		return true
	}

	return false
}

// InReview reports whether the application awaits an admin decision.
func (s ApplicationStatus) InReview() bool {
	return s == ApplicationPending || s == ApplicationProcessing
}

// StatusMessage is the doctor-facing explanation of an application status.
func (s ApplicationStatus) StatusMessage() string {
	switch s {
	case ApplicationPending:
		return "Your application is pending review by our team."
	case ApplicationProcessing:
		return "Your application is currently being processed."
	case ApplicationApproved:
		return "Congratulations! Your application has been approved."
	case ApplicationRejected:
		return "Your application has been rejected. Please review the comments and resubmit."
	default:
		return "Unknown application status."
	}
}

// DoctorApplication is the reviewable bundle pointing at a doctor's documents.
type DoctorApplication struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DocumentsID uuid.UUID
	Status      ApplicationStatus
	Comment     string
	ReviewedBy  *uuid.UUID
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResetForReview puts the application back in the queue and clears the previous decision.
func (a *DoctorApplication) ResetForReview() {
	a.Status = ApplicationPending
	a.Comment = ""
	a.ReviewedBy = nil
	a.ReviewedAt = nil
}

// ConsultationType describes how a doctor sees patients.
type ConsultationType string

const (
	ConsultationInPerson ConsultationType = "in-person"
	ConsultationOnline   ConsultationType = "online"
	ConsultationBoth     ConsultationType = "both"
)

// Education is one degree entry on a doctor's profile.
type Education struct {
	Degree           string `json:"degree"`
	Institution      string `json:"institution"`
	YearOfCompletion int    `json:"yearOfCompletion"`
	FileURL          string `json:"fileUrl,omitempty"`
}

// Experience is one employment entry on a doctor's profile.
type Experience struct {
	Institution string     `json:"institution"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	IsGoingOn   bool       `json:"isGoingOn"`
	FileURL     string     `json:"fileUrl,omitempty"`
}

// DoctorProfile holds the post-approval details a doctor supplies before going live.
type DoctorProfile struct {
	DoctorID            uuid.UUID
	Specializations     []string
	Education           []Education
	Experience          []Experience
	AffiliatedHospital  string
	ConsultationType    ConsultationType
	ConsultationFee     decimal.Decimal
	LicenseNumber       string
	ProfileImageURL     string
	CoverImageURL       string
	DigitalSignatureURL string
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsComplete is the profile-completeness flag used by next-step resolution.
func (p *DoctorProfile) IsComplete() bool {
	return p != nil && p.CompletedAt != nil && len(p.Education) > 0
}
