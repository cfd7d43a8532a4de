package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/sbc-auth/internal/config"
	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/models/dto"
	"github.com/hongminglow/sbc-auth/internal/server"
	"github.com/hongminglow/sbc-auth/internal/storage/memory"
)

type fakeAPI struct {
	meUser    models.User
	meErr     error
	loginUser models.User
	loginErr  error
	regErr    error
	logoutErr error
	logouts   int
}

func (f *fakeAPI) Register(context.Context, dto.RegisterRequest) error { return f.regErr }
func (f *fakeAPI) Login(context.Context, string, string) (models.User, error) {
	return f.loginUser, f.loginErr
}
func (f *fakeAPI) Me(context.Context) (models.User, error) { return f.meUser, f.meErr }
func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

type recordingNav struct{ paths []string }

func (r *recordingNav) Navigate(path string) { r.paths = append(r.paths, path) }

func TestDestinationFor(t *testing.T) {
	assert.Equal(t, "/admin", DestinationFor(models.RoleAdmin))
	assert.Equal(t, "/owner", DestinationFor(models.RoleOwner))
	assert.Equal(t, "/checker", DestinationFor(models.RoleChecker))
	assert.Equal(t, "/leader", DestinationFor(models.RoleLeader))
	assert.Equal(t, "/", DestinationFor(""))
	assert.Equal(t, "/", DestinationFor("player"))
}

func TestState_InitSilentOnFailure(t *testing.T) {
	s := NewState(&fakeAPI{meErr: &APIError{Status: http.StatusUnauthorized}}, nil)
	s.Init(context.Background())
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Role())

	s = NewState(&fakeAPI{meErr: errors.New("network down")}, nil)
	s.Init(context.Background())
	assert.False(t, s.IsAuthenticated())
}

func TestState_InitRecoversSession(t *testing.T) {
	s := NewState(&fakeAPI{meUser: models.User{Email: "a@x.com", Role: models.RoleOwner}}, nil)
	s.Init(context.Background())
	u, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, models.RoleOwner, s.Role())
}

func TestState_Login(t *testing.T) {
	nav := &recordingNav{}
	api := &fakeAPI{loginUser: models.User{Email: "a@x.com", Role: models.RoleChecker}}
	s := NewState(api, nav)

	_, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/checker"}, nav.paths)
	assert.Equal(t, models.RoleChecker, s.Role())

	api.loginErr = &APIError{Status: http.StatusUnauthorized, Message: "wrong email or password"}
	_, err = s.Login(context.Background(), "a@x.com", "bad")
	require.Error(t, err)
	assert.Equal(t, "401: wrong email or password", err.Error())
	assert.Equal(t, models.RoleChecker, s.Role(), "failed login leaves the cell untouched")
	assert.Len(t, nav.paths, 1)
}

func TestState_RegisterDoesNotSignIn(t *testing.T) {
	nav := &recordingNav{}
	s := NewState(&fakeAPI{}, nav)

	require.NoError(t, s.Register(context.Background(), dto.RegisterRequest{Email: "a@x.com"}))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, []string{LoginPath}, nav.paths)

	s = NewState(&fakeAPI{regErr: &APIError{Status: http.StatusConflict, Message: "email already registered"}}, nav)
	err := s.Register(context.Background(), dto.RegisterRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Len(t, nav.paths, 1)
}

func TestState_LogoutAlwaysClears(t *testing.T) {
	nav := &recordingNav{}
	api := &fakeAPI{loginUser: models.User{Role: models.RoleLeader}}
	s := NewState(api, nav)

	// Never signed in: still a no-op success.
	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())

	_, err := s.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	api.logoutErr = errors.New("network down")

	err = s.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 2, api.logouts)
	assert.Equal(t, []string{LoginPath, "/leader", LoginPath}, nav.paths)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		StoreBackend: config.BackendMemory,
		JWTSecret:    "test-secret",
		JWTIssuer:    "sbc-auth",
		JWTTTL:       time.Hour,
		CookieName:   "authToken",
		BcryptCost:   4,
		DefaultRole:  models.RoleLeader,
		CORSOrigins:  []string{"*"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(server.NewHandler(cfg, memory.NewUserStore(), logger, nil))
	t.Cleanup(ts.Close)
	return ts
}

func TestStateAgainstServer(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	api, err := NewAPI(ts.URL, "authToken")
	require.NoError(t, err)
	nav := &recordingNav{}
	s := NewState(api, nav)

	s.Init(ctx)
	assert.False(t, s.IsAuthenticated())

	reg := dto.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret1", Phone: "555-0001"}
	require.NoError(t, s.Register(ctx, reg))
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, api.SessionToken())

	err = s.Register(ctx, reg)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	_, err = s.Login(ctx, "a@x.com", "wrong")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "wrong email or password", apiErr.Message)

	user, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, models.RoleLeader, user.Role)
	assert.NotEmpty(t, api.SessionToken())

	// A fresh client that imports the saved token recovers the same session.
	api2, err := NewAPI(ts.URL, "authToken")
	require.NoError(t, err)
	api2.SetSessionToken(api.SessionToken())
	s2 := NewState(api2, nil)
	s2.Init(ctx)
	u2, ok := s2.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user.ID, u2.ID)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, api.SessionToken())

	s.Init(ctx)
	assert.False(t, s.IsAuthenticated())

	assert.Equal(t, []string{LoginPath, "/leader", LoginPath}, nav.paths)
}

func TestNewAPI_RejectsRelativeURL(t *testing.T) {
	_, err := NewAPI("localhost:8080", "")
	assert.Error(t, err)
}
