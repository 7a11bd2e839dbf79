package corral_test

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/corral"
	"github.com/xy-planning-network/drover/http/dispatch"
	"github.com/xy-planning-network/drover/http/middleware"
	"github.com/xy-planning-network/drover/http/router"
	"github.com/xy-planning-network/drover/http/session"
	"github.com/xy-planning-network/drover/logger"
)

type stubFactory map[string]dispatch.Presenter

func (f stubFactory) PresenterClass(name string) (string, error) {
	if _, ok := f[name]; !ok {
		return "", fmt.Errorf("%w: %s", dispatch.ErrInvalidPresenter, name)
	}

	return name, nil
}

func (f stubFactory) Create(name string) (dispatch.Presenter, error) {
	p, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dispatch.ErrInvalidPresenter, name)
	}

	return p, nil
}

type presenterFunc func(req *dispatch.Request) (dispatch.Response, error)

func (fn presenterFunc) Run(req *dispatch.Request) (dispatch.Response, error) { return fn(req) }

func quietLogger() logger.Logger {
	return logger.New(logger.WithLogger(log.New(io.Discard, "", 0)))
}

func TestNew(t *testing.T) {
	// Act
	c, err := corral.New(corral.WithLogger(quietLogger()))

	// Assert
	require.ErrorIs(t, err, drover.ErrBadConfig)
	require.Nil(t, c)

	// Arrange
	factory := stubFactory{
		"home": presenterFunc(func(req *dispatch.Request) (dispatch.Response, error) {
			return dispatch.NewPayload("text/plain", []byte("howdy")), nil
		}),
	}

	// Act
	c, err = corral.New(
		corral.WithEnv(drover.Testing.String()),
		corral.WithLogger(quietLogger()),
		corral.WithPresenterFactory(factory),
		corral.WithSessionStore(session.NewStub(false)),
	)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, c)
	require.Equal(t, drover.Testing, c.Env())
	require.NotNil(t, c.EmitLogger())
	require.NotNil(t, c.EmitSessionStore())
	require.NotNil(t, c.EmitStorage())
	require.Nil(t, c.EmitIdentity(), "no identity resolver without JWT_SIGNING_KEY or WithIdentity")
}

func TestNewWithIdentity(t *testing.T) {
	// Arrange
	factory := stubFactory{
		"home": presenterFunc(func(req *dispatch.Request) (dispatch.Response, error) {
			return dispatch.NewPayload("text/plain", []byte("howdy")), nil
		}),
	}

	id, err := session.NewJWTIdentity("a-signing-key")
	require.Nil(t, err)

	// Act
	c, err := corral.New(
		corral.WithEnv(drover.Testing.String()),
		corral.WithIdentity(id),
		corral.WithLogger(quietLogger()),
		corral.WithPresenterFactory(factory),
		corral.WithSessionStore(session.NewStub(false)),
	)

	// Assert
	require.Nil(t, err)
	require.Equal(t, id, c.EmitIdentity())

	// Act: the env var stands in when no option supplies one
	t.Setenv("JWT_SIGNING_KEY", "an-env-signing-key")
	c, err = corral.New(
		corral.WithEnv(drover.Testing.String()),
		corral.WithLogger(quietLogger()),
		corral.WithPresenterFactory(factory),
		corral.WithSessionStore(session.NewStub(false)),
	)

	// Assert
	require.Nil(t, err)
	require.NotNil(t, c.EmitIdentity())
}

func TestCorralServeHTTP(t *testing.T) {
	// Arrange
	rt := router.New()
	require.Nil(t, rt.Handle(router.Route{Path: "/home", Method: http.MethodGet, Presenter: "home"}))

	factory := stubFactory{
		"home": presenterFunc(func(req *dispatch.Request) (dispatch.Response, error) {
			return dispatch.NewPayload("text/plain", []byte("howdy")), nil
		}),
	}

	c, err := corral.New(
		corral.WithEnv(drover.Testing.String()),
		corral.WithLogger(quietLogger()),
		corral.WithMiddleware(middleware.RequestID()),
		corral.WithPresenterFactory(factory),
		corral.WithRouter(rt),
		corral.WithSessionStore(session.NewStub(false)),
	)
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/home", nil)

	// Act
	c.Handler().ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "howdy", w.Body.String())

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com/missing", nil)

	// Act
	c.Handler().ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCorralErrorPresenter(t *testing.T) {
	// Arrange
	rt := router.New()
	require.Nil(t, rt.Handle(router.Route{Path: "/boom", Presenter: "boom"}))

	factory := stubFactory{
		"boom": presenterFunc(func(req *dispatch.Request) (dispatch.Response, error) {
			return nil, fmt.Errorf("kaboom")
		}),
		"error": presenterFunc(func(req *dispatch.Request) (dispatch.Response, error) {
			return dispatch.NewPayload("text/plain", []byte("recovered")), nil
		}),
	}

	c, err := corral.New(
		corral.WithAppOpts(dispatch.WithCatchErrors(true), dispatch.WithErrorPresenter("error")),
		corral.WithEnv(drover.Testing.String()),
		corral.WithLogger(quietLogger()),
		corral.WithMiddleware(),
		corral.WithPresenterFactory(factory),
		corral.WithRouter(rt),
		corral.WithSessionStore(session.NewStub(false)),
	)
	require.Nil(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/boom", nil)

	// Act
	c.Handler().ServeHTTP(w, r)

	// Assert
	require.Equal(t, "recovered", w.Body.String())
}
