package repository

import (
	"context"
	"testing"

	"lnbot/models"
	"lnbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSettingsRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettingsRepository(testDB.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, "admin-1", &models.CreateBotSettings{Token: "T1", Standalone: false})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", created.Admin)
	assert.Equal(t, "T1", created.Token)
	assert.False(t, created.Standalone)
	assert.Nil(t, created.Name)

	got, err := repo.GetByAdmin(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Token, got.Token)
}

func TestSettingsRepository_CreateIsUpsertPerAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettingsRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "admin-1", &models.CreateBotSettings{Token: "T1"})
	require.NoError(t, err)

	// Re-registering the same admin replaces the token, no second row
	updated, err := repo.Create(ctx, "admin-1", &models.CreateBotSettings{Token: "T2", Standalone: true})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Token)
	assert.True(t, updated.Standalone)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSettingsRepository_UpdatePartial(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettingsRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "admin-1", &models.CreateBotSettings{Token: "T1"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "admin-1", &models.UpdateBotSettings{
		Name: strPtr("satbot"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "satbot", *updated.Name)
	assert.Equal(t, "T1", updated.Token, "unset fields stay unchanged")
}

func TestSettingsRepository_GetMissingIsNil(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettingsRepository(testDB.DB)

	got, err := repo.GetByAdmin(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSettingsRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettingsRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "admin-1", &models.CreateBotSettings{Token: "T1"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "admin-1"))

	got, err := repo.GetByAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(ctx, "admin-1"))
}
