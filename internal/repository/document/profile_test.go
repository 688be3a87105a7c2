package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsync/clinsync/internal/model"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	apperrors "github.com/clinsync/clinsync/pkg/errors"
)

func TestPatientProfileCreateAndGet(t *testing.T) {
	repo := NewPatientProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	owner := "auth-1"
	profile := &model.PatientProfile{
		OwnerIdentityID: &owner,
		BloodType:       "O+",
		Allergies:       []string{"penicillin"},
		MedicalHistory:  "none",
	}
	require.NoError(t, repo.Create(ctx, profile))
	require.NotEmpty(t, profile.ID)

	got, err := repo.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "O+", got.BloodType)
	assert.Equal(t, []string{"penicillin"}, got.Allergies)
	require.NotNil(t, got.OwnerIdentityID)
	assert.Equal(t, "auth-1", *got.OwnerIdentityID)
	assert.True(t, got.Linked())
}

func TestPatientProfileFindByOwner(t *testing.T) {
	repo := NewPatientProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	owner := "auth-1"
	profile := &model.PatientProfile{OwnerIdentityID: &owner, BloodType: "A-"}
	require.NoError(t, repo.Create(ctx, profile))

	got, err := repo.FindByOwner(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	_, err = repo.FindByOwner(ctx, "auth-unknown")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPatientProfileSetOwner(t *testing.T) {
	repo := NewPatientProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	profile := &model.PatientProfile{BloodType: "B+"}
	require.NoError(t, repo.Create(ctx, profile))
	assert.False(t, profile.Linked())

	require.NoError(t, repo.SetOwner(ctx, profile.ID, "auth-9"))

	got, err := repo.Get(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OwnerIdentityID)
	assert.Equal(t, "auth-9", *got.OwnerIdentityID)
}

func TestPatientProfileStripPersonalFields(t *testing.T) {
	store := docstore.NewMemoryStore()
	repo := NewPatientProfileRepository(store)
	ctx := context.Background()

	profile := &model.PatientProfile{
		BloodType: "O-",
		Legacy: model.LegacyPersonal{
			Email:   "old@example.com",
			Phone:   "555-0100",
			Name:    "Ana",
			Surname: "Soto",
		},
	}
	require.NoError(t, repo.Create(ctx, profile))

	require.NoError(t, repo.StripPersonalFields(ctx, profile.ID))

	got, err := repo.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, got.Legacy.Empty())
	assert.Equal(t, "O-", got.BloodType)

	raw, err := store.Get(ctx, "patient_profiles", profile.ID)
	require.NoError(t, err)
	for _, key := range model.PersonalFieldKeys {
		_, present := raw[key]
		assert.False(t, present, "key %q should be gone", key)
	}
}

func TestPatientProfileUpdateMergesPatch(t *testing.T) {
	repo := NewPatientProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	profile := &model.PatientProfile{BloodType: "AB+", MedicalHistory: "none"}
	require.NoError(t, repo.Create(ctx, profile))

	err := repo.Update(ctx, profile.ID, docstore.Document{"medical_history": "appendectomy 2020"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "appendectomy 2020", got.MedicalHistory)
	assert.Equal(t, "AB+", got.BloodType)
}

func TestPractitionerProfileRoundTrip(t *testing.T) {
	repo := NewPractitionerProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	owner := "auth-2"
	profile := &model.PractitionerProfile{
		OwnerIdentityID: &owner,
		Specialty:       "cardiology",
		LicenseNumber:   "LIC-42",
		Schedule:        map[string]string{"mon": "09:00-17:00"},
	}
	require.NoError(t, repo.Create(ctx, profile))

	got, err := repo.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "cardiology", got.Specialty)
	assert.Equal(t, "LIC-42", got.LicenseNumber)
	assert.Equal(t, map[string]string{"mon": "09:00-17:00"}, got.Schedule)
}

func TestProfileDelete(t *testing.T) {
	repo := NewPractitionerProfileRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	profile := &model.PractitionerProfile{Specialty: "dermatology"}
	require.NoError(t, repo.Create(ctx, profile))
	require.NoError(t, repo.Delete(ctx, profile.ID))

	_, err := repo.Get(ctx, profile.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
