package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpineda/aichat-be/internal/api"
	"github.com/rpineda/aichat-be/internal/api/handlers"
	"github.com/rpineda/aichat-be/internal/auth"
	"github.com/rpineda/aichat-be/internal/completion"
	"github.com/rpineda/aichat-be/internal/config"
	"github.com/rpineda/aichat-be/internal/database"
	"github.com/rpineda/aichat-be/internal/models"
	"github.com/rpineda/aichat-be/internal/services"
)

// stubProvider is a scripted completion provider.
type stubProvider struct {
	reply models.Message
	err   error
}

func (p *stubProvider) Complete(_ context.Context, _ []models.Message) (models.Message, error) {
	if p.err != nil {
		return models.Message{}, p.err
	}
	return p.reply, nil
}

type testEnv struct {
	srv    *httptest.Server
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T, provider completion.Provider) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		FrontendOrigin: "http://localhost:5173",
		AppEnv:         "test",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		CookieName:     "auth_token",
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.CookieName)

	userHandler := handlers.NewUserHandler(services.NewUserService(db), tokens, cfg)
	chatHandler := handlers.NewChatHandler(services.NewChatService(db, provider))
	srv := httptest.NewServer(api.NewRouter(cfg, tokens, userHandler, chatHandler))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (e *testEnv) signup(t *testing.T, name, email, password string) string {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/user/signup", "",
		map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return sessionCookie(t, resp)
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			return c.Value
		}
	}
	t.Fatal("no auth_token cookie in response")
	return ""
}

func TestSignup(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t, &stubProvider{})

	resp, body := env.do(t, http.MethodPost, "/user/signup", "",
		map[string]string{"name": "Ann", "email": "ann@x.com", "password": "pw123"})
	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal("Ann", body["name"])
	req.Equal("ann@x.com", body["email"])
	req.NotContains(body, "password")

	cookie := sessionCookie(t, resp)
	claims, err := env.tokens.Verify(cookie)
	req.NoError(err)
	req.Equal("ann@x.com", claims.Email)
}

func TestSignupErrors(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	env.signup(t, "Ann", "ann@x.com", "pw123")

	tests := []struct {
		name       string
		payload    map[string]string
		wantStatus int
	}{
		{"missing name", map[string]string{"email": "bob@x.com", "password": "pw"}, http.StatusBadRequest},
		{"missing password", map[string]string{"name": "Bob", "email": "bob@x.com"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "Bob", "email": "not-an-email", "password": "pw"}, http.StatusBadRequest},
		{"duplicate email", map[string]string{"name": "Ann 2", "email": "ann@x.com", "password": "pw"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/user/signup", "", tt.payload)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.Equal(t, "ERROR", body["message"])
		})
	}
}

func TestLogin(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t, &stubProvider{})
	env.signup(t, "Ann", "ann@x.com", "pw123")

	resp, _ := env.do(t, http.MethodPost, "/user/login", "",
		map[string]string{"email": "nobody@x.com", "password": "pw123"})
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/user/login", "",
		map[string]string{"email": "ann@x.com", "password": "wrong"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/user/login", "",
		map[string]string{"email": "ann@x.com", "password": "pw123"})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("Ann", body["name"])
	sessionCookie(t, resp)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/user/auth-status"},
		{http.MethodGet, "/user/logout"},
		{http.MethodGet, "/user/"},
		{http.MethodPost, "/chat/new"},
		{http.MethodGet, "/chat/all-chats"},
		{http.MethodDelete, "/chat/delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.Equal(t, "token not received", body["cause"])
		})
	}
}

func TestAuthStatus(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t, &stubProvider{})
	token := env.signup(t, "Ann", "ann@x.com", "pw123")

	resp, body := env.do(t, http.MethodGet, "/user/auth-status", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("ann@x.com", body["email"])

	// A valid token whose user does not exist is unauthorized
	orphan, err := env.tokens.Issue("missing-id", "ghost@x.com")
	req.NoError(err)
	resp, _ = env.do(t, http.MethodGet, "/user/auth-status", orphan, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// An expired token is rejected with a distinct cause
	expired := auth.NewTokenManager("test-secret", -time.Minute, "auth_token")
	stale, err := expired.Issue("any", "ann@x.com")
	req.NoError(err)
	resp, body = env.do(t, http.MethodGet, "/user/auth-status", stale, nil)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	req.Equal("token expired", body["cause"])
}

func TestChatEndpoints(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{reply: models.Message{Role: models.RoleAssistant, Content: "Hello Ann!"}}
	env := newTestEnv(t, provider)
	token := env.signup(t, "Ann", "ann@x.com", "pw123")

	resp, body := env.do(t, http.MethodPost, "/chat/new", token, map[string]string{"message": "hi"})
	req.Equal(http.StatusOK, resp.StatusCode)
	chats, ok := body["chats"].([]interface{})
	req.True(ok)
	req.Len(chats, 2)

	resp, body = env.do(t, http.MethodGet, "/chat/all-chats", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	chats, ok = body["chats"].([]interface{})
	req.True(ok)
	req.Len(chats, 2)

	// Empty message is a validation error
	resp, _ = env.do(t, http.MethodPost, "/chat/new", token, map[string]string{"message": ""})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/chat/delete", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/chat/all-chats", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Empty(body["chats"])
}

func TestChatProviderFailure(t *testing.T) {
	req := require.New(t)
	provider := &stubProvider{reply: models.Message{Role: models.RoleAssistant, Content: "ok"}}
	env := newTestEnv(t, provider)
	token := env.signup(t, "Ann", "ann@x.com", "pw123")

	provider.err = io.ErrUnexpectedEOF
	resp, body := env.do(t, http.MethodPost, "/chat/new", token, map[string]string{"message": "hi"})
	req.Equal(http.StatusInternalServerError, resp.StatusCode)
	req.Equal("ERROR", body["message"])

	// The failed turn left no trace in the stored history
	resp, body = env.do(t, http.MethodGet, "/chat/all-chats", token, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Empty(body["chats"])
}
