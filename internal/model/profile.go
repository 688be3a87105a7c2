package model

import (
	"time"
)

// PersonalFieldKeys are the identity-owned keys that legacy profile documents
// may still carry. Migration strips them; validation reports any leftovers.
var PersonalFieldKeys = []string{"email", "national_id", "phone", "display_name", "name", "surname"}

// LegacyPersonal holds identity-owned fields read off a legacy profile
// document. Present only until migration strips them.
type LegacyPersonal struct {
	Email       string `json:"email,omitempty"`
	NationalID  string `json:"national_id,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
}

// Empty reports whether no legacy personal fields are present.
func (l LegacyPersonal) Empty() bool {
	return l == LegacyPersonal{}
}

// FullName returns the best display name derivable from the legacy fields.
func (l LegacyPersonal) FullName() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	if l.Name != "" && l.Surname != "" {
		return l.Name + " " + l.Surname
	}
	if l.Name != "" {
		return l.Name
	}
	return l.Surname
}

// PatientProfile holds patient domain data. Personal fields live on the
// owning Identity; Legacy mirrors whatever a pre-migration document still
// carries.
type PatientProfile struct {
	ID               string         `json:"id"`
	OwnerIdentityID  *string        `json:"owner_identity_id,omitempty"`
	BloodType        string         `json:"blood_type,omitempty"`
	Allergies        []string       `json:"allergies,omitempty"`
	MedicalHistory   string         `json:"medical_history,omitempty"`
	EmergencyContact string         `json:"emergency_contact,omitempty"`
	Legacy           LegacyPersonal `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Linked reports whether the profile has an owner back-reference.
func (p *PatientProfile) Linked() bool {
	return p.OwnerIdentityID != nil && *p.OwnerIdentityID != ""
}

// PractitionerProfile holds practitioner domain data.
type PractitionerProfile struct {
	ID              string            `json:"id"`
	OwnerIdentityID *string           `json:"owner_identity_id,omitempty"`
	Specialty       string            `json:"specialty,omitempty"`
	LicenseNumber   string            `json:"license_number,omitempty"`
	Biography       string            `json:"biography,omitempty"`
	Schedule        map[string]string `json:"schedule,omitempty"`
	Legacy          LegacyPersonal    `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Linked reports whether the profile has an owner back-reference.
func (p *PractitionerProfile) Linked() bool {
	return p.OwnerIdentityID != nil && *p.OwnerIdentityID != ""
}

// ProfileData is the role-specific payload of a create request. Exactly one
// concrete type exists per role that owns a profile.
type ProfileData interface {
	ProfileRole() Role
}

// PatientProfileData carries the patient fields of a create request.
type PatientProfileData struct {
	BloodType        string   `json:"blood_type,omitempty" binding:"omitempty,bloodtype"`
	Allergies        []string `json:"allergies,omitempty"`
	MedicalHistory   string   `json:"medical_history,omitempty"`
	EmergencyContact string   `json:"emergency_contact,omitempty"`
}

func (PatientProfileData) ProfileRole() Role { return RolePatient }

// PractitionerProfileData carries the practitioner fields of a create request.
type PractitionerProfileData struct {
	Specialty     string            `json:"specialty,omitempty"`
	LicenseNumber string            `json:"license_number,omitempty"`
	Biography     string            `json:"biography,omitempty"`
	Schedule      map[string]string `json:"schedule,omitempty"`
}

func (PractitionerProfileData) ProfileRole() Role { return RolePractitioner }
