// Package document implements the entity repositories on top of the generic
// document store. All struct<->document conversion lives here; nothing above
// this package reads raw documents by string key.
package document

import (
	"time"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
)

// Identity document keys.
const (
	fieldEmail                   = "email"
	fieldDisplayName             = "display_name"
	fieldNationalID              = "national_id"
	fieldPhone                   = "phone"
	fieldRole                    = "role"
	fieldActive                  = "active"
	fieldLinkedPatientProfile    = "linked_patient_profile_id"
	fieldLinkedPractitionerProf  = "linked_practitioner_profile_id"
	fieldLastAccessAt            = "last_access_at"
	fieldOwnerIdentityID         = "owner_identity_id"
	fieldBloodType               = "blood_type"
	fieldAllergies               = "allergies"
	fieldMedicalHistory          = "medical_history"
	fieldEmergencyContact        = "emergency_contact"
	fieldSpecialty               = "specialty"
	fieldLicenseNumber           = "license_number"
	fieldBiography               = "biography"
	fieldSchedule                = "schedule"
	fieldName                    = "name"
	fieldSurname                 = "surname"
)

func identityToDoc(i *model.Identity) docstore.Document {
	doc := docstore.Document{
		docstore.FieldID: i.ID,
		fieldEmail:       i.Email,
		fieldDisplayName: i.DisplayName,
		fieldNationalID:  i.NationalID,
		fieldRole:        string(i.Role),
		fieldActive:      i.Active,
	}
	if i.LinkedPatientProfileID != nil {
		doc[fieldLinkedPatientProfile] = *i.LinkedPatientProfileID
	}
	if i.LinkedPractitionerProfileID != nil {
		doc[fieldLinkedPractitionerProf] = *i.LinkedPractitionerProfileID
	}
	if i.LastAccessAt != nil {
		doc[fieldLastAccessAt] = i.LastAccessAt.Format(time.RFC3339Nano)
	}
	return doc
}

func identityFromDoc(doc docstore.Document) *model.Identity {
	identity := &model.Identity{
		ID:          doc.ID(),
		Email:       doc.String(fieldEmail),
		DisplayName: doc.String(fieldDisplayName),
		NationalID:  doc.String(fieldNationalID),
		Role:        model.Role(doc.String(fieldRole)),
		CreatedAt:   timeValue(doc[docstore.FieldCreatedAt]),
		UpdatedAt:   timeValue(doc[docstore.FieldUpdatedAt]),
	}
	if active, ok := doc[fieldActive].(bool); ok {
		identity.Active = active
	}
	identity.LinkedPatientProfileID = optionalString(doc, fieldLinkedPatientProfile)
	identity.LinkedPractitionerProfileID = optionalString(doc, fieldLinkedPractitionerProf)
	if raw, ok := doc[fieldLastAccessAt]; ok {
		t := timeValue(raw)
		identity.LastAccessAt = &t
	}
	return identity
}

func patientToDoc(p *model.PatientProfile) docstore.Document {
	doc := docstore.Document{}
	if p.ID != "" {
		doc[docstore.FieldID] = p.ID
	}
	if p.OwnerIdentityID != nil {
		doc[fieldOwnerIdentityID] = *p.OwnerIdentityID
	}
	if p.BloodType != "" {
		doc[fieldBloodType] = p.BloodType
	}
	if len(p.Allergies) > 0 {
		doc[fieldAllergies] = p.Allergies
	}
	if p.MedicalHistory != "" {
		doc[fieldMedicalHistory] = p.MedicalHistory
	}
	if p.EmergencyContact != "" {
		doc[fieldEmergencyContact] = p.EmergencyContact
	}
	legacyToDoc(p.Legacy, doc)
	return doc
}

func patientFromDoc(doc docstore.Document) *model.PatientProfile {
	return &model.PatientProfile{
		ID:               doc.ID(),
		OwnerIdentityID:  optionalString(doc, fieldOwnerIdentityID),
		BloodType:        doc.String(fieldBloodType),
		Allergies:        stringSlice(doc[fieldAllergies]),
		MedicalHistory:   doc.String(fieldMedicalHistory),
		EmergencyContact: doc.String(fieldEmergencyContact),
		Legacy:           legacyFromDoc(doc),
		CreatedAt:        timeValue(doc[docstore.FieldCreatedAt]),
		UpdatedAt:        timeValue(doc[docstore.FieldUpdatedAt]),
	}
}

func practitionerToDoc(p *model.PractitionerProfile) docstore.Document {
	doc := docstore.Document{}
	if p.ID != "" {
		doc[docstore.FieldID] = p.ID
	}
	if p.OwnerIdentityID != nil {
		doc[fieldOwnerIdentityID] = *p.OwnerIdentityID
	}
	if p.Specialty != "" {
		doc[fieldSpecialty] = p.Specialty
	}
	if p.LicenseNumber != "" {
		doc[fieldLicenseNumber] = p.LicenseNumber
	}
	if p.Biography != "" {
		doc[fieldBiography] = p.Biography
	}
	if len(p.Schedule) > 0 {
		doc[fieldSchedule] = p.Schedule
	}
	legacyToDoc(p.Legacy, doc)
	return doc
}

func practitionerFromDoc(doc docstore.Document) *model.PractitionerProfile {
	return &model.PractitionerProfile{
		ID:              doc.ID(),
		OwnerIdentityID: optionalString(doc, fieldOwnerIdentityID),
		Specialty:       doc.String(fieldSpecialty),
		LicenseNumber:   doc.String(fieldLicenseNumber),
		Biography:       doc.String(fieldBiography),
		Schedule:        stringMap(doc[fieldSchedule]),
		Legacy:          legacyFromDoc(doc),
		CreatedAt:       timeValue(doc[docstore.FieldCreatedAt]),
		UpdatedAt:       timeValue(doc[docstore.FieldUpdatedAt]),
	}
}

func legacyToDoc(l model.LegacyPersonal, doc docstore.Document) {
	if l.Email != "" {
		doc[fieldEmail] = l.Email
	}
	if l.NationalID != "" {
		doc[fieldNationalID] = l.NationalID
	}
	if l.Phone != "" {
		doc[fieldPhone] = l.Phone
	}
	if l.DisplayName != "" {
		doc[fieldDisplayName] = l.DisplayName
	}
	if l.Name != "" {
		doc[fieldName] = l.Name
	}
	if l.Surname != "" {
		doc[fieldSurname] = l.Surname
	}
}

func legacyFromDoc(doc docstore.Document) model.LegacyPersonal {
	return model.LegacyPersonal{
		Email:       doc.String(fieldEmail),
		NationalID:  doc.String(fieldNationalID),
		Phone:       doc.String(fieldPhone),
		DisplayName: doc.String(fieldDisplayName),
		Name:        doc.String(fieldName),
		Surname:     doc.String(fieldSurname),
	}
}

func optionalString(doc docstore.Document, field string) *string {
	if s, ok := doc[field].(string); ok && s != "" {
		return &s
	}
	return nil
}

func timeValue(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringMap(v interface{}) map[string]string {
	switch vals := v.(type) {
	case map[string]string:
		return vals
	case map[string]interface{}:
		out := make(map[string]string, len(vals))
		for k, item := range vals {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}
