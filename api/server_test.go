package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/blog-api/config"
	"github.com/rpupo63/blog-api/database"
	"github.com/rpupo63/blog-api/services"
)

const (
	testFrontendURL  = "http://frontend.test"
	testAllowedEmail = "owner@example.com"
	ownerCode        = "owner-code"
	intruderCode     = "intruder-code"
	unverifiedCode   = "unverified-code"
)

// fakeProvider maps authorization codes to identities
type fakeProvider struct {
	identities map[string]*services.Identity
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{identities: map[string]*services.Identity{
		ownerCode: {
			ExternalID:    "google-owner",
			Email:         testAllowedEmail,
			EmailVerified: true,
			Name:          "Owner",
			AvatarURL:     "https://example.com/owner.png",
		},
		intruderCode: {
			ExternalID:    "google-intruder",
			Email:         "intruder@example.com",
			EmailVerified: true,
			Name:          "Intruder",
		},
		unverifiedCode: {
			ExternalID: "google-unverified",
			Email:      testAllowedEmail,
			Name:       "Owner?",
		},
	}}
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.test/auth?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*services.Identity, error) {
	identity, ok := f.identities[code]
	if !ok {
		return nil, errors.New("invalid_grant")
	}
	copied := *identity
	return &copied, nil
}

type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	db     database.Database
}

func testSettings() config.Settings {
	return config.Settings{
		Mode:            config.ModeDevelopment,
		AllowedEmail:    testAllowedEmail,
		SessionSecret:   "test-session-secret-with-enough-bytes",
		FrontendURL:     testFrontendURL,
		AcceptedOrigins: []string{testFrontendURL},
	}
}

func newTestDatabase(t *testing.T) database.Database {
	t.Helper()

	db, err := database.Connect(config.Settings{
		Mode:        config.ModeProduction,
		DBType:      "sqlite",
		DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database.New(db)
}

func newTestApp(t *testing.T, opts ...func(*router)) *testApp {
	t.Helper()

	db := newTestDatabase(t)
	opts = append([]func(*router){
		withSettings(testSettings()),
		withStartupTime(time.Now()),
		withIdentityProvider(newFakeProvider()),
	}, opts...)

	srv := httptest.NewServer(newRouter(db, opts...))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:      t,
		server: srv,
		db:     db,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) do(method, path string, body any) *http.Response {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) get(path string) *http.Response {
	return a.do(http.MethodGet, path, nil)
}

// signIn runs the OAuth round trip with code and returns the callback response
func (a *testApp) signIn(code string) *http.Response {
	a.t.Helper()

	start := a.get("/auth/google")
	require.Equal(a.t, http.StatusFound, start.StatusCode)
	location, err := url.Parse(start.Header.Get("Location"))
	require.NoError(a.t, err)
	state := location.Query().Get("state")
	require.NotEmpty(a.t, state)

	return a.get("/auth/google/callback?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(state))
}

func (a *testApp) userCount() int64 {
	a.t.Helper()
	count, err := a.db.UserRepo().Count(context.Background())
	require.NoError(a.t, err)
	return count
}

func (a *testApp) postCount() int64 {
	a.t.Helper()
	count, err := a.db.PostRepo().Count(context.Background())
	require.NoError(a.t, err)
	return count
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t)

	resp := app.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Blog API is running", body["message"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	resp = app.get("/does/not/exist")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", decodeBody(t, resp)["error"])

	resp = app.do(http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.get("/api/blogs")

	resp := app.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "blog_api_http_requests_total")
	assert.Contains(t, string(data), `route="/api/blogs`)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req, err := http.NewRequest(http.MethodOptions, app.server.URL+"/api/dashboard/blogs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", testFrontendURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, testFrontendURL, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req, err = http.NewRequest(http.MethodOptions, app.server.URL+"/api/dashboard/blogs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = app.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoginLogoutFlow(t *testing.T) {
	app := newTestApp(t)

	resp := app.get("/auth/user")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", decodeBody(t, resp)["error"])

	resp = app.signIn(ownerCode)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, testFrontendURL+"/admin/dashboard", resp.Header.Get("Location"))
	assert.EqualValues(t, 1, app.userCount())

	resp = app.get("/auth/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeBody(t, resp)["user"].(map[string]any)
	assert.Equal(t, testAllowedEmail, user["email"])
	assert.Equal(t, "Owner", user["name"])
	assert.Equal(t, "https://example.com/owner.png", user["avatar"])
	assert.NotEmpty(t, user["id"])

	// second login reuses the stored user
	app.signIn(ownerCode)
	assert.EqualValues(t, 1, app.userCount())

	resp = app.get("/auth/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", decodeBody(t, resp)["message"])

	resp = app.get("/auth/user")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsAccountsOtherThanAllowed(t *testing.T) {
	for _, code := range []string{intruderCode, unverifiedCode, "unknown-code"} {
		t.Run(code, func(t *testing.T) {
			app := newTestApp(t)

			resp := app.signIn(code)
			require.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, testFrontendURL+"/admin/login?error=auth_failed", resp.Header.Get("Location"))
			assert.Zero(t, app.userCount())

			resp = app.get("/auth/user")
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	app := newTestApp(t)
	failureURL := testFrontendURL + "/admin/login?error=auth_failed"

	// no login started, so no nonce in the session
	resp := app.get("/auth/google/callback?code=" + ownerCode + "&state=anything")
	assert.Equal(t, failureURL, resp.Header.Get("Location"))

	app.get("/auth/google")
	resp = app.get("/auth/google/callback?code=" + ownerCode + "&state=forged")
	assert.Equal(t, failureURL, resp.Header.Get("Location"))

	// a state issued for another browser is useless here
	other := newTestApp(t)
	start := other.get("/auth/google")
	location, err := url.Parse(start.Header.Get("Location"))
	require.NoError(t, err)
	app.get("/auth/google")
	resp = app.get("/auth/google/callback?code=" + ownerCode + "&state=" + url.QueryEscape(location.Query().Get("state")))
	assert.Equal(t, failureURL, resp.Header.Get("Location"))

	resp = app.get("/auth/google/callback?error=access_denied")
	assert.Equal(t, failureURL, resp.Header.Get("Location"))

	assert.Zero(t, app.userCount())
}

// failingStore hands out sessions but can never save them
type failingStore struct{}

func (s failingStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return s.New(r, name)
}

func (s failingStore) New(_ *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	session.Options = &sessions.Options{Path: "/", MaxAge: sessionMaxAge}
	return session, nil
}

func (failingStore) Save(*http.Request, http.ResponseWriter, *sessions.Session) error {
	return errors.New("store unavailable")
}

func TestLogoutFailure(t *testing.T) {
	app := newTestApp(t, withSessionStore(failingStore{}))

	resp := app.get("/auth/logout")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Logout failed", decodeBody(t, resp)["error"])
}

// replay sends a request carrying exactly cookies, outside the app's own jar
func (a *testApp) replay(method, path string, body any, cookies []*http.Cookie) *http.Response {
	a.t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	u, err := url.Parse(a.server.URL)
	require.NoError(a.t, err)
	jar.SetCookies(u, cookies)

	replayed := &testApp{t: a.t, server: a.server, db: a.db, client: &http.Client{Jar: jar}}
	return replayed.do(method, path, body)
}

func (a *testApp) cookies() []*http.Cookie {
	a.t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(a.t, err)
	cookies := a.client.Jar.Cookies(u)
	require.NotEmpty(a.t, cookies)
	return cookies
}

func TestLogoutInvalidatesCopiedCookie(t *testing.T) {
	app := newTestApp(t)
	app.signIn(ownerCode)
	saved := app.cookies()

	resp := app.replay(http.MethodGet, "/auth/user", nil, saved)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.get("/auth/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.replay(http.MethodGet, "/auth/user", nil, saved)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.replay(http.MethodPost, "/api/dashboard/blogs", map[string]any{"title": "Late", "body": "b", "category": "writings"}, saved)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, app.postCount())
}

func TestLoginIssuesFreshSession(t *testing.T) {
	app := newTestApp(t)
	app.signIn(ownerCode)
	first := app.cookies()

	app.signIn(ownerCode)
	resp := app.get("/auth/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.replay(http.MethodGet, "/auth/user", nil, first)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerStartReturnsAfterShutdown(t *testing.T) {
	settings := testSettings()
	settings.Port = "0"
	server, err := NewServer(newTestDatabase(t), settings)
	require.NoError(t, err)

	// buffered like main's channel: nobody reads once shutdown has begun
	errChannel := make(chan error, 2)
	done := make(chan struct{})
	go func() {
		server.Start(errChannel)
		close(done)
	}()

	server.ShutdownGracefully(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after shutdown")
	}
	assert.ErrorIs(t, <-errChannel, http.ErrServerClosed)
}
