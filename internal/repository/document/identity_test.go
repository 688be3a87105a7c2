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

func newIdentity(id, email, nationalID string, role model.Role) *model.Identity {
	return &model.Identity{
		ID:          id,
		Email:       email,
		NationalID:  nationalID,
		DisplayName: "Test Person",
		Role:        role,
		Active:      true,
	}
}

func TestIdentityCreateAndGet(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	identity := newIdentity("auth-1", "ana@example.com", "X123", model.RolePatient)
	require.NoError(t, repo.Create(ctx, identity))

	got, err := repo.Get(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "auth-1", got.ID)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "X123", got.NationalID)
	assert.Equal(t, model.RolePatient, got.Role)
	assert.True(t, got.Active)
	assert.Nil(t, got.LinkedPatientProfileID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestIdentityCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))

	err := repo.Create(ctx, newIdentity("auth-2", "ana@example.com", "X2", model.RolePatient))
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicate(err))
}

func TestIdentityCreateRejectsDuplicateNationalID(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))

	err := repo.Create(ctx, newIdentity("auth-2", "other@example.com", "X1", model.RolePatient))
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicate(err))
}

func TestIdentityGetNotFound(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityFindByEmail(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))

	got, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "auth-1", got.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityUpdate(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))

	name := "Ana Soto"
	require.NoError(t, repo.Update(ctx, "auth-1", &model.IdentityPatch{DisplayName: &name}))

	got, err := repo.Get(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Soto", got.DisplayName)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestIdentityUpdateRejectsEmailCollision(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))
	require.NoError(t, repo.Create(ctx, newIdentity("auth-2", "ben@example.com", "X2", model.RolePatient)))

	taken := "ana@example.com"
	err := repo.Update(ctx, "auth-2", &model.IdentityPatch{Email: &taken})
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicate(err))
}

func TestIdentitySetProfileLink(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))
	require.NoError(t, repo.Create(ctx, newIdentity("auth-2", "doc@example.com", "X2", model.RolePractitioner)))

	require.NoError(t, repo.SetProfileLink(ctx, "auth-1", model.RolePatient, "prof-1"))
	require.NoError(t, repo.SetProfileLink(ctx, "auth-2", model.RolePractitioner, "prof-2"))

	patient, err := repo.Get(ctx, "auth-1")
	require.NoError(t, err)
	require.NotNil(t, patient.LinkedPatientProfileID)
	assert.Equal(t, "prof-1", *patient.LinkedPatientProfileID)
	assert.Nil(t, patient.LinkedPractitionerProfileID)

	practitioner, err := repo.Get(ctx, "auth-2")
	require.NoError(t, err)
	require.NotNil(t, practitioner.LinkedPractitionerProfileID)
	assert.Equal(t, "prof-2", *practitioner.LinkedPractitionerProfileID)
}

func TestIdentityTouchLastAccess(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "ana@example.com", "X1", model.RolePatient)))

	before, err := repo.Get(ctx, "auth-1")
	require.NoError(t, err)
	assert.Nil(t, before.LastAccessAt)

	require.NoError(t, repo.TouchLastAccess(ctx, "auth-1"))

	after, err := repo.Get(ctx, "auth-1")
	require.NoError(t, err)
	require.NotNil(t, after.LastAccessAt)
	assert.False(t, after.LastAccessAt.IsZero())
}

func TestIdentityList(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "a@example.com", "X1", model.RolePatient)))
	require.NoError(t, repo.Create(ctx, newIdentity("auth-2", "b@example.com", "X2", model.RoleAdmin)))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIdentityDelete(t *testing.T) {
	repo := NewIdentityRepository(docstore.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newIdentity("auth-1", "a@example.com", "X1", model.RolePatient)))
	require.NoError(t, repo.Delete(ctx, "auth-1"))

	_, err := repo.Get(ctx, "auth-1")
	assert.True(t, apperrors.IsNotFound(err))
}
