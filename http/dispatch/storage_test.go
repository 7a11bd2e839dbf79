package dispatch_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/dispatch"
	"github.com/xy-planning-network/drover/http/session"
)

type identityFunc func(r *http.Request) (uint, error)

func (fn identityFunc) UserID(r *http.Request) (uint, error) { return fn(r) }

func TestRequestStorageRoundTrip(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req := dispatch.NewRequest("checkout", dispatch.OpForward, map[string]any{"step": "2", dispatch.ActionKey: "review"})

	// Act
	token, err := storage.StoreRequest(w, r, req, 0)

	// Assert
	require.Nil(t, err)
	require.NotEmpty(t, token)

	// Arrange
	current := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, current)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, restored)
	require.True(t, restored.Restored())
	require.Equal(t, req.Presenter, restored.Presenter)
	require.Equal(t, req.Params, restored.Params)
	require.False(t, req.Restored(), "the stored original must stay untouched")
}

func TestRequestStorageFlashCarryOver(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/profile", nil)
	req := dispatch.NewRequest("profile", dispatch.OpForward, nil)

	token, err := storage.StoreRequest(w, r, req, 0)
	require.Nil(t, err)

	current := dispatch.NewRequest("profile", dispatch.OpForward, map[string]any{dispatch.FlashKey: "af8x"})

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, current)

	// Assert
	require.Nil(t, err)
	require.Equal(t, "af8x", restored.Param(dispatch.FlashKey))
}

func TestRequestStorageAbsent(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	current := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

	// Act: a token never stored
	restored, err := storage.GetStoredRequest(w, r, "nosuchtokn", current)

	// Assert
	require.Nil(t, err)
	require.Nil(t, restored)
}

func TestRequestStorageExpired(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

	token, err := storage.StoreRequest(w, r, req, time.Nanosecond)
	require.Nil(t, err)
	time.Sleep(time.Millisecond)

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, req)

	// Assert
	require.Nil(t, err)
	require.Nil(t, restored)
}

func TestRequestStorageOwnership(t *testing.T) {
	// Arrange: user 1 stores, then another user holds the session
	sessions := session.NewStub(true)
	storage, err := dispatch.NewRequestStorage(sessions)
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

	token, err := storage.StoreRequest(w, r, req, 0)
	require.Nil(t, err)

	s, err := sessions.GetSession(r)
	require.Nil(t, err)
	require.Nil(t, s.RegisterUser(w, r, 2))

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, req)

	// Assert
	require.Nil(t, err)
	require.Nil(t, restored)
}

func TestRequestStorageAnonymousEntry(t *testing.T) {
	// Arrange: entries stored without a user are readable by anyone
	sessions := session.NewStub(false)
	storage, err := dispatch.NewRequestStorage(sessions)
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

	token, err := storage.StoreRequest(w, r, req, 0)
	require.Nil(t, err)

	s, err := sessions.GetSession(r)
	require.Nil(t, err)
	require.Nil(t, s.RegisterUser(w, r, 7))

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, req)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, restored)
}

func TestRequestStorageIdentityFallback(t *testing.T) {
	t.Run("resolved identity owns the entry", func(t *testing.T) {
		// Arrange: no session user, so ownership falls to the resolver
		sessions := session.NewStub(false)
		resolver := identityFunc(func(r *http.Request) (uint, error) { return 5, nil })
		storage, err := dispatch.NewRequestStorage(sessions, dispatch.WithIdentity(resolver))
		require.Nil(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

		token, err := storage.StoreRequest(w, r, req, 0)
		require.Nil(t, err)

		// Act
		restored, err := storage.GetStoredRequest(w, r, token, req)

		// Assert
		require.Nil(t, err)
		require.NotNil(t, restored)
	})

	t.Run("mismatched identity cannot read the entry", func(t *testing.T) {
		// Arrange: user 5 stores, user 9 presents the token
		sessions := session.NewStub(false)
		asFive, err := dispatch.NewRequestStorage(
			sessions,
			dispatch.WithIdentity(identityFunc(func(r *http.Request) (uint, error) { return 5, nil })),
		)
		require.Nil(t, err)

		asNine, err := dispatch.NewRequestStorage(
			sessions,
			dispatch.WithIdentity(identityFunc(func(r *http.Request) (uint, error) { return 9, nil })),
		)
		require.Nil(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

		token, err := asFive.StoreRequest(w, r, req, 0)
		require.Nil(t, err)

		// Act
		restored, err := asNine.GetStoredRequest(w, r, token, req)

		// Assert
		require.Nil(t, err)
		require.Nil(t, restored)
	})

	t.Run("session user wins over the resolver", func(t *testing.T) {
		// Arrange: a registered session user must never be shadowed by a token
		sessions := session.NewStub(true)
		resolver := identityFunc(func(r *http.Request) (uint, error) { return 9, nil })
		storage, err := dispatch.NewRequestStorage(sessions, dispatch.WithIdentity(resolver))
		require.Nil(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

		token, err := storage.StoreRequest(w, r, req, 0)
		require.Nil(t, err)

		// Act: the stub session still holds user 1
		restored, err := storage.GetStoredRequest(w, r, token, req)

		// Assert
		require.Nil(t, err)
		require.NotNil(t, restored)
	})

	t.Run("resolver failure stores anonymously", func(t *testing.T) {
		// Arrange
		sessions := session.NewStub(false)
		resolver := identityFunc(func(r *http.Request) (uint, error) { return 0, errors.New("bad token") })
		storage, err := dispatch.NewRequestStorage(sessions, dispatch.WithIdentity(resolver))
		require.Nil(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req := dispatch.NewRequest("checkout", dispatch.OpForward, nil)

		token, err := storage.StoreRequest(w, r, req, 0)
		require.Nil(t, err)

		s, err := sessions.GetSession(r)
		require.Nil(t, err)
		require.Nil(t, s.RegisterUser(w, r, 7))

		// Act: anonymous entries remain readable once a user registers
		restored, err := storage.GetStoredRequest(w, r, token, req)

		// Assert
		require.Nil(t, err)
		require.NotNil(t, restored)
	})

	t.Run("nil resolver rejected", func(t *testing.T) {
		// Act
		_, err := dispatch.NewRequestStorage(session.NewStub(false), dispatch.WithIdentity(nil))

		// Assert
		require.ErrorIs(t, err, drover.ErrBadConfig)
	})
}

func TestRequestStorageCrossPresenterResume(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req := dispatch.NewRequest("checkout", dispatch.OpForward, map[string]any{dispatch.ActionKey: "review", "step": "2"})

	token, err := storage.StoreRequest(w, r, req, 0)
	require.Nil(t, err)

	current := dispatch.NewRequest("home", dispatch.OpForward, nil)

	// Act
	restored, err := storage.GetStoredRequest(w, r, token, current)

	// Assert: the restore travels through the client as a redirect
	require.Nil(t, restored)

	var rd *dispatch.RedispatchError
	require.ErrorAs(t, err, &rd)
	require.Nil(t, rd.Req)

	redirect, ok := rd.Response.(*dispatch.RedirectResponse)
	require.True(t, ok)
	require.Equal(t, "checkout:review", redirect.Target)
	require.Equal(t, token, redirect.Params[dispatch.ResumeKey])
	require.NotContains(t, redirect.Params, dispatch.ActionKey)
	require.Equal(t, "2", redirect.Params["step"])
}

func TestRequestStorageTokenUniqueness(t *testing.T) {
	// Arrange
	storage, err := dispatch.NewRequestStorage(session.NewStub(true))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/checkout", nil)

	seen := make(map[string]bool)

	// Act
	for i := 0; i < 25; i++ {
		token, err := storage.StoreRequest(w, r, dispatch.NewRequest("checkout", dispatch.OpForward, nil), 0)

		// Assert
		require.Nil(t, err)
		require.Len(t, token, 10)
		require.False(t, seen[token])
		seen[token] = true
	}
}
