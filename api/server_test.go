package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lnbot/models"
	"lnbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "admin-key"

// fakeService keeps one settings record in memory and counts lifecycle
// calls, enough to drive the HTTP layer.
type fakeService struct {
	bots     map[string]*models.BotSettings
	online   map[string]bool
	users    []*models.DiscordUser
	started  int
	stopped  int
	deleted  int
}

func newFakeService() *fakeService {
	return &fakeService{
		bots:   make(map[string]*models.BotSettings),
		online: make(map[string]bool),
	}
}

func (f *fakeService) infoFor(settings *models.BotSettings) *models.BotInfo {
	var online *bool
	if !settings.Standalone {
		v := f.online[settings.Token]
		online = &v
	}
	return models.NewBotInfo(settings, online)
}

func (f *fakeService) GetBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, ok := f.bots[adminID]
	if !ok {
		return nil, nil
	}
	return f.infoFor(settings), nil
}

func (f *fakeService) CreateBot(ctx context.Context, adminID string, data *models.CreateBotSettings) (*models.BotInfo, error) {
	settings := &models.BotSettings{Admin: adminID, Token: data.Token, Standalone: data.Standalone}
	f.bots[adminID] = settings
	if !data.Standalone {
		f.online[data.Token] = true
	}
	return f.infoFor(settings), nil
}

func (f *fakeService) UpdateBot(ctx context.Context, adminID string, data *models.UpdateBotSettings) (*models.BotInfo, error) {
	settings, ok := f.bots[adminID]
	if !ok {
		return nil, service.ErrNoBot
	}
	if data.Token != nil {
		settings.Token = *data.Token
	}
	if data.Standalone != nil {
		settings.Standalone = *data.Standalone
	}
	return f.infoFor(settings), nil
}

func (f *fakeService) DeleteBot(ctx context.Context, adminID string) error {
	if _, ok := f.bots[adminID]; !ok {
		return service.ErrNoBot
	}
	delete(f.bots, adminID)
	f.deleted++
	return nil
}

func (f *fakeService) StartBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, ok := f.bots[adminID]
	if !ok {
		return nil, service.ErrNoBot
	}
	if settings.Standalone {
		return nil, service.ErrStandalone
	}
	f.online[settings.Token] = true
	f.started++
	return f.infoFor(settings), nil
}

func (f *fakeService) StopBot(ctx context.Context, adminID string) (*models.BotInfo, error) {
	settings, ok := f.bots[adminID]
	if !ok {
		return nil, service.ErrNoBot
	}
	if settings.Standalone {
		return nil, service.ErrStandalone
	}
	f.online[settings.Token] = false
	f.stopped++
	return f.infoFor(settings), nil
}

func (f *fakeService) ListUsers(ctx context.Context) ([]*models.DiscordUser, error) {
	return f.users, nil
}

func doRequest(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-API-KEY", testKey)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestRequireAPIKey(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bot?usr=admin-1", nil)
	req.Header.Set("X-API-KEY", "wrong-key")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetBot_MissingAdminParam(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/bot", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBot_BadRequestWhenUnregistered(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/bot?usr=admin-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no bot registered", body["detail"])
}

func TestCreateBot_ReturnsOnlineInfo(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{Token: "tok"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var info models.BotInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "tok", info.Token)
	require.NotNil(t, info.Online)
	assert.True(t, *info.Online)
}

func TestCreateBot_RejectsEmptyToken(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBot_PatchesToken(t *testing.T) {
	svc := newFakeService()
	server := NewServer(svc, testKey)
	doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{Token: "old"})

	token := "new"
	rec := doRequest(t, server, http.MethodPatch, "/api/v1/bot?usr=admin-1",
		models.UpdateBotSettings{Token: &token})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new", svc.bots["admin-1"].Token)
}

func TestUpdateBot_BadRequestWhenUnregistered(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	token := "tok"
	rec := doRequest(t, server, http.MethodPatch, "/api/v1/bot?usr=admin-1",
		models.UpdateBotSettings{Token: &token})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartStop_Lifecycle(t *testing.T) {
	svc := newFakeService()
	server := NewServer(svc, testKey)
	doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{Token: "tok"})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/bot/stop?usr=admin-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.stopped)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/bot/start?usr=admin-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.started)
}

func TestStartBot_StandaloneIsBadRequest(t *testing.T) {
	svc := newFakeService()
	server := NewServer(svc, testKey)
	doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{Token: "tok", Standalone: true})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/bot/start?usr=admin-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartBot_UnregisteredIsBadRequest(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/bot/start?usr=admin-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteBot(t *testing.T) {
	svc := newFakeService()
	server := NewServer(svc, testKey)
	doRequest(t, server, http.MethodPost, "/api/v1/bot?usr=admin-1",
		models.CreateBotSettings{Token: "tok"})

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/bot?usr=admin-1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.bots)
}

func TestUninstall_IdempotentWhenNothingRegistered(t *testing.T) {
	server := NewServer(newFakeService(), testKey)

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/?usr=admin-1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListUsers(t *testing.T) {
	svc := newFakeService()
	avatar := "https://cdn.example/a.png"
	svc.users = []*models.DiscordUser{
		{ID: "u1", Name: "alice", DiscordID: "111", AvatarURL: &avatar},
	}
	server := NewServer(svc, testKey)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users?usr=admin-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var users []*models.DiscordUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "111", users[0].DiscordID)
}
