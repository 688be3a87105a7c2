package model

import (
	"time"
)

// Role of an identity within the platform.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePractitioner Role = "practitioner"
	RolePatient      Role = "patient"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePractitioner, RolePatient:
		return true
	}
	return false
}

// Identity is the canonical account entity. Its ID is issued by the external
// auth system and doubles as the document key (same-id convention), so the
// two systems never need a mapping table.
type Identity struct {
	ID                          string     `json:"id"`
	Email                       string     `json:"email"`
	DisplayName                 string     `json:"display_name"`
	NationalID                  string     `json:"national_id"`
	Role                        Role       `json:"role"`
	Active                      bool       `json:"active"`
	LinkedPatientProfileID      *string    `json:"linked_patient_profile_id,omitempty"`
	LinkedPractitionerProfileID *string    `json:"linked_practitioner_profile_id,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
	LastAccessAt                *time.Time `json:"last_access_at,omitempty"`
}

// ProfileLink returns the profile id the identity points at for its own role,
// or nil when no link is set (admins never have one).
func (i *Identity) ProfileLink() *string {
	switch i.Role {
	case RolePatient:
		return i.LinkedPatientProfileID
	case RolePractitioner:
		return i.LinkedPractitionerProfileID
	}
	return nil
}

// IdentityPatch is a partial update of the personal fields. Nil fields are
// left untouched.
type IdentityPatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	NationalID  *string `json:"national_id,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p *IdentityPatch) Empty() bool {
	return p == nil || (p.Email == nil && p.DisplayName == nil && p.NationalID == nil && p.Phone == nil && p.Active == nil)
}

// PersonalData is the identity-owned slice of a create request.
type PersonalData struct {
	Email       string `json:"email"`
	NationalID  string `json:"national_id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	// Password is optional; a temporary credential is generated when empty.
	Password string `json:"password,omitempty"`
}
