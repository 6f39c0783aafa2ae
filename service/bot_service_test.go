package service

import (
	"context"
	"testing"

	"lnbot/lnbits"
	"lnbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByAdmin(ctx context.Context, adminID string) (*models.BotSettings, error) {
	args := m.Called(ctx, adminID)
	var settings *models.BotSettings
	if args.Get(0) != nil {
		settings = args.Get(0).(*models.BotSettings)
	}
	return settings, args.Error(1)
}

func (m *mockStore) GetAll(ctx context.Context) ([]*models.BotSettings, error) {
	args := m.Called(ctx)
	var all []*models.BotSettings
	if args.Get(0) != nil {
		all = args.Get(0).([]*models.BotSettings)
	}
	return all, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotSettings, error) {
	args := m.Called(ctx, adminID, data)
	var settings *models.BotSettings
	if args.Get(0) != nil {
		settings = args.Get(0).(*models.BotSettings)
	}
	return settings, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotSettings, error) {
	args := m.Called(ctx, adminID, data)
	var settings *models.BotSettings
	if args.Get(0) != nil {
		settings = args.Get(0).(*models.BotSettings)
	}
	return settings, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, adminID string) error {
	args := m.Called(ctx, adminID)
	return args.Error(0)
}

type mockSupervisor struct {
	mock.Mock
}

func (m *mockSupervisor) Start(ctx context.Context, settings *models.BotSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockSupervisor) Stop(settings *models.BotSettings) error {
	args := m.Called(settings)
	return args.Error(0)
}

func (m *mockSupervisor) Restart(ctx context.Context, settings *models.BotSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockSupervisor) Online(token string) *bool {
	args := m.Called(token)
	var online *bool
	if args.Get(0) != nil {
		online = args.Get(0).(*bool)
	}
	return online
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListDiscordUsers(ctx context.Context) ([]lnbits.User, error) {
	args := m.Called(ctx)
	var users []lnbits.User
	if args.Get(0) != nil {
		users = args.Get(0).([]lnbits.User)
	}
	return users, args.Error(1)
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func managedSettings(admin, token string) *models.BotSettings {
	return &models.BotSettings{Admin: admin, Token: token}
}

func TestGetBot_NoneRegistered(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	store.On("GetByAdmin", mock.Anything, "admin-1").Return(nil, nil)

	info, err := svc.GetBot(context.Background(), "admin-1")

	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetBot_ManagedCarriesLiveness(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	store.On("GetByAdmin", mock.Anything, "admin-1").Return(managedSettings("admin-1", "tok"), nil)
	sup.On("Online", "tok").Return(boolPtr(true))

	info, err := svc.GetBot(context.Background(), "admin-1")

	require.NoError(t, err)
	require.NotNil(t, info.Online)
	assert.True(t, *info.Online)
}

func TestGetBot_StandaloneLivenessUnknown(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	settings := managedSettings("admin-1", "tok")
	settings.Standalone = true
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(settings, nil)

	info, err := svc.GetBot(context.Background(), "admin-1")

	require.NoError(t, err)
	assert.Nil(t, info.Online)
	sup.AssertNotCalled(t, "Online", mock.Anything)
}

func TestCreateBot_StartsManagedBot(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	created := managedSettings("admin-1", "tok")
	store.On("Create", mock.Anything, "admin-1", mock.Anything).Return(created, nil)
	sup.On("Start", mock.Anything, created).Return(nil)
	sup.On("Online", "tok").Return(boolPtr(true))

	info, err := svc.CreateBot(context.Background(), "admin-1", &models.CreateBotSettings{Token: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "tok", info.Token)
	sup.AssertCalled(t, "Start", mock.Anything, created)
}

func TestCreateBot_StartFailureKeepsRegistration(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	created := managedSettings("admin-1", "tok")
	store.On("Create", mock.Anything, "admin-1", mock.Anything).Return(created, nil)
	sup.On("Start", mock.Anything, created).Return(assert.AnError)
	sup.On("Online", "tok").Return(nil)

	info, err := svc.CreateBot(context.Background(), "admin-1", &models.CreateBotSettings{Token: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "tok", info.Token)
}

func TestCreateBot_StandaloneNeverStarted(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	created := managedSettings("admin-1", "tok")
	created.Standalone = true
	store.On("Create", mock.Anything, "admin-1", mock.Anything).Return(created, nil)

	_, err := svc.CreateBot(context.Background(), "admin-1", &models.CreateBotSettings{Token: "tok", Standalone: true})

	require.NoError(t, err)
	sup.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestUpdateBot_NoBotRegistered(t *testing.T) {
	store := new(mockStore)
	svc := NewBotService(store, new(mockSupervisor), new(mockDirectory))

	store.On("GetByAdmin", mock.Anything, "admin-1").Return(nil, nil)

	_, err := svc.UpdateBot(context.Background(), "admin-1", &models.UpdateBotSettings{})

	assert.ErrorIs(t, err, ErrNoBot)
}

func TestUpdateBot_TokenChangeStopsOldConnection(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	current := managedSettings("admin-1", "old-tok")
	updated := managedSettings("admin-1", "new-tok")
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(current, nil)
	store.On("Update", mock.Anything, "admin-1", mock.Anything).Return(updated, nil)
	sup.On("Stop", current).Return(nil)
	sup.On("Restart", mock.Anything, updated).Return(nil)
	sup.On("Online", "new-tok").Return(boolPtr(true))

	info, err := svc.UpdateBot(context.Background(), "admin-1", &models.UpdateBotSettings{Token: strPtr("new-tok")})

	require.NoError(t, err)
	assert.Equal(t, "new-tok", info.Token)
	sup.AssertCalled(t, "Stop", current)
	sup.AssertCalled(t, "Restart", mock.Anything, updated)
}

func TestUpdateBot_SwitchToStandaloneStopsConnection(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	current := managedSettings("admin-1", "tok")
	updated := managedSettings("admin-1", "tok")
	updated.Standalone = true
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(current, nil)
	store.On("Update", mock.Anything, "admin-1", mock.Anything).Return(updated, nil)
	sup.On("Stop", updated).Return(nil)

	info, err := svc.UpdateBot(context.Background(), "admin-1", &models.UpdateBotSettings{Standalone: boolPtr(true)})

	require.NoError(t, err)
	assert.Nil(t, info.Online)
	sup.AssertNotCalled(t, "Restart", mock.Anything, mock.Anything)
}

func TestDeleteBot_StopsBeforeDeleting(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	settings := managedSettings("admin-1", "tok")
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(settings, nil)
	sup.On("Stop", settings).Return(nil)
	store.On("Delete", mock.Anything, "admin-1").Return(nil)

	err := svc.DeleteBot(context.Background(), "admin-1")

	require.NoError(t, err)
	sup.AssertCalled(t, "Stop", settings)
	store.AssertCalled(t, "Delete", mock.Anything, "admin-1")
}

func TestDeleteBot_NoBotRegistered(t *testing.T) {
	store := new(mockStore)
	svc := NewBotService(store, new(mockSupervisor), new(mockDirectory))

	store.On("GetByAdmin", mock.Anything, "admin-1").Return(nil, nil)

	err := svc.DeleteBot(context.Background(), "admin-1")

	assert.ErrorIs(t, err, ErrNoBot)
}

func TestStartBot_StandaloneRejected(t *testing.T) {
	store := new(mockStore)
	svc := NewBotService(store, new(mockSupervisor), new(mockDirectory))

	settings := managedSettings("admin-1", "tok")
	settings.Standalone = true
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(settings, nil)

	_, err := svc.StartBot(context.Background(), "admin-1")

	assert.ErrorIs(t, err, ErrStandalone)
}

func TestStopBot_StopsManagedBot(t *testing.T) {
	store := new(mockStore)
	sup := new(mockSupervisor)
	svc := NewBotService(store, sup, new(mockDirectory))

	settings := managedSettings("admin-1", "tok")
	store.On("GetByAdmin", mock.Anything, "admin-1").Return(settings, nil)
	sup.On("Stop", settings).Return(nil)
	sup.On("Online", "tok").Return(boolPtr(false))

	info, err := svc.StopBot(context.Background(), "admin-1")

	require.NoError(t, err)
	require.NotNil(t, info.Online)
	assert.False(t, *info.Online)
}

func TestListUsers_UnpacksDiscordIdentity(t *testing.T) {
	directory := new(mockDirectory)
	svc := NewBotService(new(mockStore), new(mockSupervisor), directory)

	directory.On("ListDiscordUsers", mock.Anything).Return([]lnbits.User{
		{
			ID:    "u1",
			Name:  "alice",
			Admin: "admin-1",
			Extra: map[string]string{
				"discord_id":         "111",
				"discord_avatar_url": "https://cdn.example/alice.png",
			},
		},
		{
			ID:    "u2",
			Name:  "bob",
			Admin: "admin-1",
			Extra: map[string]string{"discord_id": "222"},
		},
	}, nil)

	users, err := svc.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "111", users[0].DiscordID)
	require.NotNil(t, users[0].AvatarURL)
	assert.Equal(t, "https://cdn.example/alice.png", *users[0].AvatarURL)
	assert.Nil(t, users[1].AvatarURL)
}
