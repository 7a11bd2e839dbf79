package dispatch

import (
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/session"
)

const (
	// storageKey namespaces stored requests within a session.
	storageKey = "drover-stored-requests"

	// DefaultExpiration is how long a stored request outlives its StoreRequest call.
	DefaultExpiration = 10 * time.Minute

	tokenLen = 10
)

func init() {
	gob.Register(map[string]StoredRequest{})
	gob.Register(Request{})
}

// A StoredRequest pairs a Request with the user who stored it
// and the moment it expires.
//
// A nil Owner marks an anonymous entry any user may restore;
// otherwise only the matching user may.
type StoredRequest struct {
	Owner   *uint
	Req     *Request
	Expires time.Time
}

// An IdentityResolver yields the user ID a request acts as
// when its session holds no registered user,
// e.g. [session.JWTIdentity] for API-style clients carrying a signed token.
type IdentityResolver interface {
	UserID(r *http.Request) (uint, error)
}

// A RequestStorage persists Requests under short opaque tokens
// in a session-scoped namespace,
// for flows that must survive a client round-trip:
// store before redirecting, restore when the token comes back.
type RequestStorage struct {
	sessions   session.SessionStorer
	identity   IdentityResolver
	expiration time.Duration
}

// A StorageOpt configures the provided *RequestStorage,
// returning an error if unable to.
type StorageOpt func(*RequestStorage) error

// WithIdentity sets the fallback IdentityResolver consulted
// when the session itself holds no registered user.
func WithIdentity(id IdentityResolver) StorageOpt {
	return func(rs *RequestStorage) error {
		if id == nil {
			return fmt.Errorf("%w: identity cannot be nil", drover.ErrBadConfig)
		}

		rs.identity = id
		return nil
	}
}

// NewRequestStorage constructs a RequestStorage over the session store.
func NewRequestStorage(sessions session.SessionStorer, opts ...StorageOpt) (*RequestStorage, error) {
	if sessions == nil {
		return nil, fmt.Errorf("%w: sessions cannot be nil", drover.ErrBadConfig)
	}

	rs := &RequestStorage{sessions: sessions, expiration: DefaultExpiration}
	for _, opt := range opts {
		if err := opt(rs); err != nil {
			return nil, err
		}
	}

	return rs, nil
}

// StoreRequest persists req in the request's session under a new token
// and returns the token.
//
// The entry is bound to the session's current user when one is registered
// and expires after ttl; a non-positive ttl falls back to DefaultExpiration.
func (rs *RequestStorage) StoreRequest(w http.ResponseWriter, r *http.Request, req *Request, ttl time.Duration) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: req cannot be nil", drover.ErrMissingData)
	}

	if ttl <= 0 {
		ttl = rs.expiration
	}

	s, err := rs.sessions.GetSession(r)
	if err != nil {
		return "", fmt.Errorf("can't retrieve session: %w", err)
	}

	ns := namespace(s)
	purgeExpired(ns)

	// regenerate until the token is new to this namespace;
	// collisions at this length are already vanishingly rare
	token := newToken()
	for _, ok := ns[token]; ok; _, ok = ns[token] {
		token = newToken()
	}

	ns[token] = StoredRequest{
		Owner:   rs.userID(s, r),
		Req:     req.Clone(),
		Expires: time.Now().UTC().Add(ttl),
	}

	if err := s.Set(w, r, storageKey, ns); err != nil {
		return "", fmt.Errorf("can't save session: %w", err)
	}

	return token, nil
}

// GetStoredRequest restores the Request persisted under token.
//
// It returns nil when no live entry exists for token or when the entry
// belongs to a different user than the session's current one.
//
// When the stored request targets the same presenter current does,
// a clone flagged as restored returns,
// carrying over current's flash-message parameter when one is set.
//
// Otherwise the restore must travel through the client:
// GetStoredRequest returns a *RedispatchError wrapping a redirect to the
// stored request's own presenter, with the token reattached under the
// reserved resume parameter so the next lifecycle completes the restore.
func (rs *RequestStorage) GetStoredRequest(w http.ResponseWriter, r *http.Request, token string, current *Request) (*Request, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: current cannot be nil", drover.ErrMissingData)
	}

	s, err := rs.sessions.GetSession(r)
	if err != nil {
		return nil, fmt.Errorf("can't retrieve session: %w", err)
	}

	ns := namespace(s)
	entry, ok := ns[token]
	if !ok || entry.Req == nil || entry.Expires.Before(time.Now().UTC()) {
		return nil, nil
	}

	if entry.Owner != nil {
		id := rs.userID(s, r)
		if id == nil || *entry.Owner != *id {
			return nil, nil
		}
	}

	restored := entry.Req.Clone()

	if restored.Presenter != current.Presenter {
		action := restored.Param(ActionKey)
		delete(restored.Params, ActionKey)
		restored.Params[ResumeKey] = token

		target := restored.Presenter
		if action != "" {
			target += ":" + action
		}

		return nil, &RedispatchError{Response: NewRedirect(target, restored.Params)}
	}

	restored.restored = true
	if flash := current.Param(FlashKey); flash != "" {
		restored.Params[FlashKey] = flash
	}

	return restored, nil
}

// userID resolves the identity the request acts as:
// the session's registered user first,
// then the fallback IdentityResolver when the session holds none.
// nil marks the request anonymous.
func (rs *RequestStorage) userID(s session.Session, r *http.Request) *uint {
	id, err := s.UserID()
	if err == nil {
		return &id
	}

	if errors.Is(err, session.ErrNoUser) && rs.identity != nil {
		if id, err := rs.identity.UserID(r); err == nil {
			return &id
		}
	}

	return nil
}

// namespace pulls the stored-request map out of the session,
// initializing a fresh one when absent.
func namespace(s session.Session) map[string]StoredRequest {
	ns, ok := s.Get(storageKey).(map[string]StoredRequest)
	if !ok {
		ns = make(map[string]StoredRequest)
	}

	return ns
}

// purgeExpired drops dead entries so the namespace never grows unbounded.
func purgeExpired(ns map[string]StoredRequest) {
	now := time.Now().UTC()
	for token, entry := range ns {
		if entry.Expires.Before(now) {
			delete(ns, token)
		}
	}
}

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newToken derives a short URL-safe token from fresh UUID entropy.
func newToken() string {
	id := uuid.New()
	return strings.ToLower(tokenEncoding.EncodeToString(id[:]))[:tokenLen]
}
