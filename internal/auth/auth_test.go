package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/config"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

func setupUsers(t *testing.T) *storage.FileStorage {
	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(usersFile, []byte(`[
		{"id":"u1","token":"TOKEN-1","name":"Demo User"},
		{"id":"admin","token":"TOKEN-ADMIN","name":"Admin","role":"admin"}
	]`), 0644))
	s, err := storage.NewFileStorage(filepath.Join(dir, "entries.json"), usersFile, internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLocalAuthProvider(t *testing.T) {
	p := NewLocalAuthProvider(setupUsers(t), internal.NewNopLogger())
	ctx := context.Background()

	got, err := p.Authenticate(ctx, "TOKEN-1")
	require.NoError(t, err)
	assert.Equal(t, &internal.Principal{ID: "u1", Role: internal.RoleUser}, got)

	got, err = p.Authenticate(ctx, "TOKEN-ADMIN")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	_, err = p.Authenticate(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTProviderRoundTrip(t *testing.T) {
	p := NewJWTProvider("secret", internal.NewNopLogger())
	token, err := p.Issue("u1", internal.RoleAdmin, time.Hour)
	require.NoError(t, err)

	got, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.True(t, got.IsAdmin())
}

func TestJWTProviderRejects(t *testing.T) {
	p := NewJWTProvider("secret", internal.NewNopLogger())
	other := NewJWTProvider("other", internal.NewNopLogger())

	forged, err := other.Issue("u1", internal.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := p.Issue("u1", internal.RoleUser, time.Hour)
	require.NoError(t, err)
	p.now = time.Now
	_, err = p.Authenticate(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTProviderUnknownRoleIsUser(t *testing.T) {
	p := NewJWTProvider("secret", internal.NewNopLogger())
	token, err := p.Issue("u1", internal.Role("root"), time.Hour)
	require.NoError(t, err)
	got, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, internal.RoleUser, got.Role)
}

func TestRemoteAuthProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["token"] {
		case "good":
			_, _ = w.Write([]byte(`{"id":"u7","role":"admin"}`))
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	p := NewRemoteAuthProvider(srv.URL, internal.NewNopLogger())
	got, err := p.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, &internal.Principal{ID: "u7", Role: internal.RoleAdmin}, got)

	_, err = p.Authenticate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Authenticate(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestNewProvider(t *testing.T) {
	users := setupUsers(t)
	for mode, want := range map[string]interface{}{
		"token":  &LocalAuthProvider{},
		"jwt":    &JWTProvider{},
		"remote": &RemoteAuthProvider{},
	} {
		p, err := NewProvider(config.AuthConfig{Mode: mode, JWTSecret: "s", ServiceURL: "http://auth"}, users, internal.NewNopLogger())
		require.NoError(t, err)
		assert.IsType(t, want, p)
	}
	_, err := NewProvider(config.AuthConfig{Mode: "saml"}, users, internal.NewNopLogger())
	assert.Error(t, err)
}

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	p := NewLocalAuthProvider(setupUsers(t), internal.NewNopLogger())
	g := r.Group("/", Middleware(p, internal.NewNopLogger()))
	g.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, PrincipalFrom(c)) })
	g.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	r := newRouter(t)

	w := doGet(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, internal.CodeUnauthorized, body["error"])

	w = doGet(r, "/me", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/me", "TOKEN-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"user"}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(t)

	w := doGet(r, "/admin", "TOKEN-1")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), internal.CodeForbidden)

	w = doGet(r, "/admin", "TOKEN-ADMIN")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
