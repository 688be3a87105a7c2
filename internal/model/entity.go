package model

// LinkStatus describes the state of an identity/profile link, derived at
// read time rather than stored.
type LinkStatus string

const (
	// LinkStatusUnlinked means the identity carries no profile link yet.
	LinkStatusUnlinked LinkStatus = "unlinked"
	// LinkStatusLinked means the link resolves and points back correctly.
	LinkStatusLinked LinkStatus = "linked"
	// LinkStatusDangling means the link targets a missing document or the
	// back-reference does not match.
	LinkStatusDangling LinkStatus = "dangling"
)

// MergedEntity is the read-side join of an Identity and its role profile.
// At most one of Patient/Practitioner is non-nil.
type MergedEntity struct {
	Identity     Identity             `json:"identity"`
	Patient      *PatientProfile      `json:"patient,omitempty"`
	Practitioner *PractitionerProfile `json:"practitioner,omitempty"`
}

// Flatten returns the union of identity and profile fields as a single map.
// Identity is authoritative: a profile field never overrides an identity
// field of the same name.
func (m *MergedEntity) Flatten() map[string]interface{} {
	out := map[string]interface{}{}

	put := func(key string, value interface{}) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case nil:
			return
		}
		out[key] = value
	}

	if p := m.Patient; p != nil {
		put("profile_id", p.ID)
		put("blood_type", p.BloodType)
		put("medical_history", p.MedicalHistory)
		put("emergency_contact", p.EmergencyContact)
		if len(p.Allergies) > 0 {
			out["allergies"] = p.Allergies
		}
	}
	if p := m.Practitioner; p != nil {
		put("profile_id", p.ID)
		put("specialty", p.Specialty)
		put("license_number", p.LicenseNumber)
		put("biography", p.Biography)
		if len(p.Schedule) > 0 {
			out["schedule"] = p.Schedule
		}
	}

	out["id"] = m.Identity.ID
	out["email"] = m.Identity.Email
	out["display_name"] = m.Identity.DisplayName
	out["national_id"] = m.Identity.NationalID
	out["role"] = string(m.Identity.Role)
	out["active"] = m.Identity.Active

	return out
}
