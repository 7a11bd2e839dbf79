package session_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/session"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewPostgresStore(t *testing.T) {
	// Act
	ps, err := session.NewPostgresStore(nil, 60)

	// Assert
	require.ErrorIs(t, err, drover.ErrBadConfig)
	require.Nil(t, ps)
}

func TestSessionRecordTableName(t *testing.T) {
	require.Equal(t, "drover_sessions", session.SessionRecord{}.TableName())
}

// testDB connects to the database DATABASE_TEST_URL names,
// skipping the test when none is configured.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.Nil(t, err)

	return db
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	// Arrange
	db := testDB(t)
	ps, err := session.NewPostgresStore(db, 3600, []byte("auth-key-for-tests"))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	// Act: first touch constructs a fresh session
	s, err := ps.New(r, "drover-test")

	// Assert
	require.Nil(t, err)
	require.True(t, s.IsNew)

	// Act: persist a value and replay the cookie on a brand new request
	s.Values["plan"] = "premium"
	require.Nil(t, ps.Save(r, w, s))
	require.NotEmpty(t, s.ID)

	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	restored, err := ps.New(r, "drover-test")

	// Assert
	require.Nil(t, err)
	require.False(t, restored.IsNew)
	require.Equal(t, s.ID, restored.ID)
	require.Equal(t, "premium", restored.Values["plan"])

	// Act: a negative MaxAge deletes the row and expires the cookie
	w = httptest.NewRecorder()
	restored.Options.MaxAge = -1
	require.Nil(t, ps.Save(r, w, restored))

	gone, err := ps.New(r, "drover-test")

	// Assert
	require.Nil(t, err)
	require.True(t, gone.IsNew)
}

func TestPostgresStoreCleanup(t *testing.T) {
	// Arrange: an already expired session row
	db := testDB(t)
	ps, err := session.NewPostgresStore(db, -3600, []byte("auth-key-for-tests"))
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	s, err := ps.New(r, "drover-test")
	require.Nil(t, err)

	s.Options.MaxAge = 0
	s.Values["plan"] = "lapsed"
	require.Nil(t, ps.Save(r, w, s))

	// Act
	require.Nil(t, ps.Cleanup())

	// Assert
	var count int64
	require.Nil(t, db.Model(&session.SessionRecord{}).Where("id = ?", s.ID).Count(&count).Error)
	require.Zero(t, count)
}