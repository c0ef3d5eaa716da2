package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/rpupo63/blog-api/config"
)

const (
	sessionName   = "blog_session"
	sessionMaxAge = 24 * 60 * 60

	sessionUserKey  = "uid"
	sessionNonceKey = "oauth_nonce"
)

// sessionManager keeps the signed-in user id in a server-side session
type sessionManager struct {
	store sessions.Store
}

// sessionDiscarder is implemented by stores that can drop a session before it is reissued
type sessionDiscarder interface {
	Discard(r *http.Request, session *sessions.Session) error
}

// sessionOptions are the cookie attributes of every session
func sessionOptions(settings config.Settings) *sessions.Options {
	options := &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   settings.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	// the frontend lives on another site in production
	if settings.IsProduction() {
		options.SameSite = http.SameSiteNoneMode
	}
	return options
}

func newSessionManager(store sessions.Store) *sessionManager {
	return &sessionManager{store: store}
}

// session returns the request's session. An unreadable cookie yields a fresh one.
func (m *sessionManager) session(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, sessionName)
	if s == nil {
		s = sessions.NewSession(m.store, sessionName)
		s.IsNew = true
	}
	if s.Options == nil {
		s.Options = &sessions.Options{Path: "/", MaxAge: sessionMaxAge, HttpOnly: true}
	}
	return s
}

// userID returns the id stored at login. Missing or malformed ids report false.
func (m *sessionManager) userID(r *http.Request) (uuid.UUID, bool) {
	s, err := m.store.Get(r, sessionName)
	if err != nil || s == nil {
		return uuid.Nil, false
	}
	raw, ok := s.Values[sessionUserKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (m *sessionManager) setNonce(w http.ResponseWriter, r *http.Request, nonce string) error {
	s := m.session(r)
	s.Values[sessionNonceKey] = nonce
	return s.Save(r, w)
}

func (m *sessionManager) nonce(r *http.Request) string {
	nonce, _ := m.session(r).Values[sessionNonceKey].(string)
	return nonce
}

// login replaces the session contents with the user id under a fresh session id
func (m *sessionManager) login(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	if d, ok := m.store.(sessionDiscarder); ok {
		if err := d.Discard(r, s); err != nil {
			return err
		}
	}
	s.ID = ""
	s.Values[sessionUserKey] = userID.String()
	return s.Save(r, w)
}

// clearNonce drops a consumed nonce without touching the rest of the session
func (m *sessionManager) clearNonce(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	if _, ok := s.Values[sessionNonceKey]; !ok {
		return nil
	}
	delete(s.Values, sessionNonceKey)
	return s.Save(r, w)
}

// logout deletes the stored session, so earlier copies of the cookie stop working
func (m *sessionManager) logout(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}
