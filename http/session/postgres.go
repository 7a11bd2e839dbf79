package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gorilla "github.com/gorilla/sessions"
	"github.com/xy-planning-network/drover"
	"gorm.io/gorm"
)

const sessionsTable = "drover_sessions"

// A SessionRecord is one session row persisted by a PostgresStore.
type SessionRecord struct {
	ID        string `gorm:"primaryKey"`
	Data      string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string { return sessionsTable }

// A PostgresStore implements gorilla.Store by persisting sessions
// in a Postgres table through gorm.
//
// Only the session ID travels in the cookie;
// session values stay server-side in the sessions table.
type PostgresStore struct {
	Options *gorilla.Options
	codecs  []securecookie.Codec
	db      *gorm.DB
	maxAge  int
}

// NewPostgresStore constructs a PostgresStore around the provided gorm.DB,
// migrating the sessions table if it does not exist.
func NewPostgresStore(db *gorm.DB, maxAge int, keyPairs ...[]byte) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db cannot be nil", drover.ErrBadConfig)
	}

	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("%w: failed migrating %s: %s", drover.ErrBadConfig, sessionsTable, err)
	}

	return &PostgresStore{
		Options: &gorilla.Options{Path: "/", MaxAge: maxAge},
		codecs:  securecookie.CodecsFromPairs(keyPairs...),
		db:      db,
		maxAge:  maxAge,
	}, nil
}

// Get returns the session registered for the request, loading it on first access.
//
// Get implements gorilla.Store.
func (ps *PostgresStore) Get(r *http.Request, name string) (*gorilla.Session, error) {
	return gorilla.GetRegistry(r).Get(ps, name)
}

// New loads the session the request's cookie identifies,
// or constructs a brand new one.
//
// New implements gorilla.Store.
func (ps *PostgresStore) New(r *http.Request, name string) (*gorilla.Session, error) {
	s := gorilla.NewSession(ps, name)
	opts := *ps.Options
	s.Options = &opts
	s.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return s, nil
	}

	if err := securecookie.DecodeMulti(name, c.Value, &s.ID, ps.codecs...); err != nil {
		return s, nil
	}

	if err := ps.load(s); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s, nil
		}
		return s, err
	}

	s.IsNew = false
	return s, nil
}

// Save persists the session to the sessions table and writes its cookie.
//
// A negative MaxAge deletes the session.
//
// Save implements gorilla.Store.
func (ps *PostgresStore) Save(r *http.Request, w http.ResponseWriter, s *gorilla.Session) error {
	if s.Options.MaxAge < 0 {
		if s.ID != "" {
			if err := ps.db.Delete(&SessionRecord{ID: s.ID}).Error; err != nil {
				return err
			}
		}
		http.SetCookie(w, gorilla.NewCookie(s.Name(), "", s.Options))
		return nil
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	data, err := securecookie.EncodeMulti(s.Name(), s.Values, ps.codecs...)
	if err != nil {
		return err
	}

	rec := SessionRecord{
		ID:        s.ID,
		Data:      data,
		ExpiresAt: time.Now().UTC().Add(time.Duration(s.Options.MaxAge) * time.Second),
	}
	if err := ps.db.Save(&rec).Error; err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(s.Name(), s.ID, ps.codecs...)
	if err != nil {
		return err
	}

	http.SetCookie(w, gorilla.NewCookie(s.Name(), encoded, s.Options))
	return nil
}

// load hydrates s.Values from the session's row,
// treating expired rows as not found.
func (ps *PostgresStore) load(s *gorilla.Session) error {
	var rec SessionRecord
	if err := ps.db.First(&rec, "id = ?", s.ID).Error; err != nil {
		return err
	}

	if rec.ExpiresAt.Before(time.Now().UTC()) {
		ps.db.Delete(&rec)
		return gorm.ErrRecordNotFound
	}

	return securecookie.DecodeMulti(s.Name(), rec.Data, &s.Values, ps.codecs...)
}

// Cleanup deletes expired session rows.
//
// Run periodically; Save and load only evict lazily.
func (ps *PostgresStore) Cleanup() error {
	return ps.db.Delete(&SessionRecord{}, "expires_at < ?", time.Now().UTC()).Error
}
