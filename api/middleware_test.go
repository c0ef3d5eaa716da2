package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/blog-api/models"
)

type stubUserFinder struct {
	user *models.User
	err  error
}

func (s stubUserFinder) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func newTestSessionManager(t *testing.T) *sessionManager {
	t.Helper()
	store := newTestDatabase(t).SessionStore(sessionOptions(testSettings()), []byte(testSettings().SessionSecret))
	return newSessionManager(store)
}

// sessionCookies signs userID into a session cookie the way login does
func sessionCookies(t *testing.T, sm *sessionManager, userID uuid.UUID) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.login(rec, httptest.NewRequest(http.MethodGet, "/", nil), userID))
	return rec.Result().Cookies()
}

func TestLoadPrincipal(t *testing.T) {
	sm := newTestSessionManager(t)
	user := &models.User{ID: uuid.New(), Email: testAllowedEmail, Name: "Owner"}

	tests := []struct {
		name    string
		finder  stubUserFinder
		cookies []*http.Cookie
		want    bool
	}{
		{"no session", stubUserFinder{user: user}, nil, false},
		{"known user", stubUserFinder{user: user}, sessionCookies(t, sm, user.ID), true},
		{"unknown user", stubUserFinder{}, sessionCookies(t, sm, user.ID), false},
		{"lookup error", stubUserFinder{err: errors.New("db down")}, sessionCookies(t, sm, user.ID), false},
		{"tampered cookie", stubUserFinder{user: user}, []*http.Cookie{{Name: sessionName, Value: "garbage"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newAuthMiddleware(sm, tt.finder, true)

			var got *models.User
			var ok bool
			handler := m.loadPrincipal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = principalFromCtx(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, user.ID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	m := newAuthMiddleware(newTestSessionManager(t), stubUserFinder{}, false)

	called := false
	handler := m.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/blogs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/blogs", nil)
	req = req.WithContext(ctxWithPrincipal(req.Context(), &models.User{ID: uuid.New()}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, called)
}

func TestSessionCookieOptions(t *testing.T) {
	dev := sessionOptions(testSettings())
	assert.True(t, dev.HttpOnly)
	assert.False(t, dev.Secure)
	assert.Equal(t, http.SameSiteLaxMode, dev.SameSite)
	assert.Equal(t, sessionMaxAge, dev.MaxAge)

	settings := testSettings()
	settings.Mode = "production"
	prod := sessionOptions(settings)
	assert.True(t, prod.Secure)
	assert.Equal(t, http.SameSiteNoneMode, prod.SameSite)
}

func TestLogInternalServerErrors(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	LogInternalServerErrors(false)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	LogInternalServerErrors(true)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stack"`)
}

func TestPrincipalFromCtx(t *testing.T) {
	_, ok := principalFromCtx(context.Background())
	assert.False(t, ok)

	_, ok = principalFromCtx(ctxWithPrincipal(context.Background(), nil))
	assert.False(t, ok)

	user := &models.User{ID: uuid.New()}
	got, ok := principalFromCtx(ctxWithPrincipal(context.Background(), user))
	assert.True(t, ok)
	assert.Same(t, user, got)
}
