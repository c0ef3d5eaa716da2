package database

import (
	"context"
	"encoding/base32"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/blog-api/models"
)

// defaultSessionTTL bounds the row of a browser-lifetime cookie (MaxAge 0)
const defaultSessionTTL = 24 * time.Hour

var errSessionID = errors.New("failed to generate session id")

// SessionStore is a gorilla sessions.Store that keeps session values in the sessions table.
// The cookie carries only the signed session ID, so deleting the row ends the session
// for every copy of the cookie.
type SessionStore struct {
	db      *gorm.DB
	codecs  []securecookie.Codec
	Options *sessions.Options
	now     func() time.Time
}

var _ sessions.Store = (*SessionStore)(nil)

// NewSessionStore signs cookies with keyPairs, the same way sessions.NewCookieStore does.
func NewSessionStore(db *gorm.DB, options *sessions.Options, keyPairs ...[]byte) *SessionStore {
	opts := *options
	s := &SessionStore{
		db:      db,
		codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
		now:     time.Now,
	}
	for _, codec := range s.codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}
	return s
}

// Get returns the session cached for this request, loading it on first use
func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, expired or deleted
// session yields a fresh one; a cookie that fails verification also returns the error.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return session, err
	}

	var row models.Session
	err = s.db.WithContext(r.Context()).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session, nil
	}
	if err != nil {
		return session, err
	}
	if !row.ExpiresAt.After(s.now()) {
		s.db.WithContext(r.Context()).Delete(&models.Session{}, "id = ?", id)
		return session, nil
	}

	if err := securecookie.DecodeMulti(name, row.Data, &session.Values, s.codecs...); err != nil {
		return session, err
	}
	session.ID = id
	session.IsNew = false
	return session, nil
}

// Save writes the session row and its cookie. A negative MaxAge deletes both.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.db.WithContext(r.Context()).Delete(&models.Session{}, "id = ?", session.ID).Error; err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return errSessionID
		}
		session.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(key), "=")

		// new sessions are rare enough to sweep abandoned ones here
		if _, err := s.DeleteExpired(r.Context()); err != nil {
			return err
		}
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.codecs...)
	if err != nil {
		return err
	}

	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	row := models.Session{
		ID:        session.ID,
		Data:      data,
		ExpiresAt: s.now().Add(ttl),
	}
	err = s.db.WithContext(r.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Discard deletes the stored row of session and clears its ID, so the next Save issues a new one
func (s *SessionStore) Discard(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	if err := s.db.WithContext(r.Context()).Delete(&models.Session{}, "id = ?", session.ID).Error; err != nil {
		return err
	}
	session.ID = ""
	return nil
}

// DeleteExpired removes sessions whose expiry has passed
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
