package handler

import (
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/usecase"
)

// ActorView is the public projection of an actor. Credentials and token hashes never leave the server.
type ActorView struct {
	ID               string     `json:"id"`
	Kind             string     `json:"kind"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	ContactNumber    string     `json:"contact_number,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	IsVerified       bool       `json:"is_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	Status           string     `json:"status"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AuthView is returned by every authentication route.
type AuthView struct {
	Actor    *ActorView `json:"actor,omitempty"`
	NextStep string     `json:"next_step,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// DocumentsView lists the URLs of a doctor's uploaded credentials.
type DocumentsView struct {
	CNIC              string   `json:"cnic"`
	MedicalLicense    string   `json:"medical_license"`
	MBBSMDDegree      string   `json:"mbbs_md_degree"`
	SpecialistLicense string   `json:"specialist_license,omitempty"`
	ExperienceLetters []string `json:"experience_letters"`
}

// ApplicationView is a doctor application as shown to its doctor or a reviewer.
type ApplicationView struct {
	ID         string         `json:"id"`
	DoctorID   string         `json:"doctor_id"`
	Status     string         `json:"status"`
	Comment    string         `json:"comment,omitempty"`
	ReviewedBy *string        `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Documents  *DocumentsView `json:"documents,omitempty"`
	Doctor     *ActorView     `json:"doctor,omitempty"`
}

// ApplicationStatusView is returned to doctors by the onboarding routes.
type ApplicationStatusView struct {
	Application *ApplicationView `json:"application,omitempty"`
	Message     string           `json:"message,omitempty"`
	NextStep    string           `json:"next_step,omitempty"`
}

// ProfileView is a doctor's completed profile.
type ProfileView struct {
	DoctorID            string              `json:"doctor_id"`
	Specializations     []string            `json:"specializations"`
	Education           []entity.Education  `json:"education"`
	Experience          []entity.Experience `json:"experience"`
	AffiliatedHospital  string              `json:"affiliated_hospital,omitempty"`
	ConsultationType    string              `json:"consultation_type"`
	ConsultationFee     string              `json:"consultation_fee"`
	LicenseNumber       string              `json:"license_number"`
	ProfileImageURL     string              `json:"profile_img_url,omitempty"`
	CoverImageURL       string              `json:"cover_img_url,omitempty"`
	DigitalSignatureURL string              `json:"digital_signature,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
}

// AddressView is a customer's saved address.
type AddressView struct {
	ID            string `json:"id"`
	Street        string `json:"street"`
	Town          string `json:"town,omitempty"`
	City          string `json:"city"`
	Province      string `json:"province"`
	ZipCode       string `json:"zip_code,omitempty"`
	Country       string `json:"country"`
	GoogleMapLink string `json:"google_map_link,omitempty"`
}

// PermissionView is one entry of the permission catalogue.
type PermissionView struct {
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// RoleView is a role with its granted permission names.
type RoleView struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

func toActorView(a *entity.Actor) *ActorView {
	if a == nil {
		return nil
	}

	return &ActorView{
		ID:               a.ID.String(),
		Kind:             a.Kind.String(),
		Email:            a.Email,
		FullName:         a.FullName,
		ContactNumber:    a.ContactNumber,
		Gender:           a.Gender,
		DateOfBirth:      a.DateOfBirth,
		IsVerified:       a.IsVerified,
		TwoFactorEnabled: a.TwoFactorEnabled,
		Status:           string(a.Status),
		LastLoginAt:      a.LastLoginAt,
		CreatedAt:        a.CreatedAt,
	}
}

func toAuthView(r *usecase.AuthResult) *AuthView {
	if r == nil {
		return &AuthView{}
	}

	return &AuthView{
		Actor:    toActorView(r.Actor),
		NextStep: string(r.NextStep),
		Message:  r.Message,
	}
}

func toDocumentsView(d *entity.DoctorDocuments) *DocumentsView {
	if d == nil {
		return nil
	}
	letters := d.ExperienceLetters
	if letters == nil {
		letters = []string{}
	}

	return &DocumentsView{
		CNIC:              d.CNIC,
		MedicalLicense:    d.MedicalLicense,
		MBBSMDDegree:      d.MBBSMDDegree,
		SpecialistLicense: d.SpecialistLicense,
		ExperienceLetters: letters,
	}
}

func toApplicationView(app *entity.DoctorApplication, docs *entity.DoctorDocuments, doctor *entity.Actor) *ApplicationView {
	if app == nil {
		return nil
	}

	view := &ApplicationView{
		ID:         app.ID.String(),
		DoctorID:   app.DoctorID.String(),
		Status:     string(app.Status),
		Comment:    app.Comment,
		ReviewedAt: app.ReviewedAt,
		CreatedAt:  app.CreatedAt,
		UpdatedAt:  app.UpdatedAt,
		Documents:  toDocumentsView(docs),
		Doctor:     toActorView(doctor),
	}
	if app.ReviewedBy != nil {
		id := app.ReviewedBy.String()
		view.ReviewedBy = &id
	}

	return view
}

func toReviewView(v *usecase.ApplicationView) *ApplicationView {
	if v == nil {
		return nil
	}

	return toApplicationView(v.Application, v.Documents, v.Doctor)
}

func toApplicationStatusView(out *usecase.ApplicationOutput) *ApplicationStatusView {
	return &ApplicationStatusView{
		Application: toApplicationView(out.Application, out.Documents, nil),
		Message:     out.Message,
		NextStep:    string(out.NextStep),
	}
}

func toProfileView(p *entity.DoctorProfile) *ProfileView {
	if p == nil {
		return nil
	}

	return &ProfileView{
		DoctorID:            p.DoctorID.String(),
		Specializations:     p.Specializations,
		Education:           p.Education,
		Experience:          p.Experience,
		AffiliatedHospital:  p.AffiliatedHospital,
		ConsultationType:    string(p.ConsultationType),
		ConsultationFee:     p.ConsultationFee.StringFixed(2),
		LicenseNumber:       p.LicenseNumber,
		ProfileImageURL:     p.ProfileImageURL,
		CoverImageURL:       p.CoverImageURL,
		DigitalSignatureURL: p.DigitalSignatureURL,
		CompletedAt:         p.CompletedAt,
	}
}

func toAddressView(a *entity.Address) *AddressView {
	if a == nil {
		return nil
	}

	return &AddressView{
		ID:            a.ID.String(),
		Street:        a.Street,
		Town:          a.Town,
		City:          a.City,
		Province:      a.Province,
		ZipCode:       a.ZipCode,
		Country:       a.Country,
		GoogleMapLink: a.GoogleMapLink,
	}
}

func toPermissionView(p *entity.Permission) PermissionView {
	return PermissionView{
		Name:        p.Name(),
		Resource:    string(p.Resource),
		Action:      string(p.Action),
		Description: p.Description,
	}
}

func toRoleView(r *entity.Role) *RoleView {
	names := entity.NewPermissionSet(r.Permissions).Names()

	return &RoleView{
		Name:        r.Name.String(),
		Description: r.Description,
		Permissions: names,
	}
}

// ActivityView is one stored audit record.
type ActivityView struct {
	ID                 string         `json:"id"`
	ActorKind          string         `json:"actor_kind"`
	ActorID            string         `json:"actor_id"`
	Action             string         `json:"action"`
	Description        string         `json:"description,omitempty"`
	ResourceCollection string         `json:"resource_collection,omitempty"`
	ResourceID         string         `json:"resource_id,omitempty"`
	Changes            map[string]any `json:"changes,omitempty"`
	IPAddress          string         `json:"ip_address,omitempty"`
	UserAgent          string         `json:"user_agent,omitempty"`
	OccurredAt         time.Time      `json:"occurred_at"`
}

func toActivityView(r *entity.AuditRecord) *ActivityView {
	return &ActivityView{
		ID:                 r.ID.String(),
		ActorKind:          string(r.ActorKind),
		ActorID:            r.ActorID.String(),
		Action:             r.Action,
		Description:        r.Description,
		ResourceCollection: r.ResourceCollection,
		ResourceID:         r.ResourceID,
		Changes:            r.Changes,
		IPAddress:          r.IPAddress,
		UserAgent:          r.UserAgent,
		OccurredAt:         r.OccurredAt,
	}
}
