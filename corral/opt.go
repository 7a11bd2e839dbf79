package corral

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/dispatch"
	"github.com/xy-planning-network/drover/http/middleware"
	"github.com/xy-planning-network/drover/http/router"
	"github.com/xy-planning-network/drover/http/session"
	"github.com/xy-planning-network/drover/logger"
)

// An Option configures a *Corral either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some Options require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithLogger is an example of the first.
// An unexported field on the passed in *Corral is updated with the enclosed value.
//
// WithSessionStore is an example of the second.
// An unexported field on the passed in *Corral
// is updated only when the closure it returns is called,
// after the Environment and app defaults settle.
type Option func(c *Corral) (OptFollowup, error)
type OptFollowup func() error

// WithAppOpts appends [dispatch.ApplicationOpt] applied to every
// per-request [dispatch.Application] the Corral constructs.
func WithAppOpts(opts ...dispatch.ApplicationOpt) Option {
	return func(c *Corral) (OptFollowup, error) {
		c.appOpts = append(c.appOpts, opts...)
		return nil, nil
	}
}

// WithContext exposes the provided context.Context to the drover app.
func WithContext(ctx context.Context) Option {
	return func(c *Corral) (OptFollowup, error) {
		c.ctx = ctx
		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the default Environment is Development.
func WithEnv(envVar string) Option {
	e := drover.Environment(envVar)
	if err := e.Valid(); err == nil {
		return func(c *Corral) (OptFollowup, error) {
			c.env = e
			return nil, nil
		}
	}

	return func(c *Corral) (OptFollowup, error) {
		c.env = drover.EnvVarOrEnv(environmentEnvVar, drover.Development)
		return nil, nil
	}
}

// WithLogger exposes the provided logger.Logger to the drover app.
func WithLogger(l logger.Logger) Option {
	return func(c *Corral) (OptFollowup, error) {
		c.l = l
		return nil, nil
	}
}

// WithMiddleware replaces the default middleware stack wrapping the
// dispatch handler with the provided adapters.
func WithMiddleware(mws ...middleware.Adapter) Option {
	return func(c *Corral) (OptFollowup, error) {
		return func() error {
			c.mws = mws
			return nil
		}, nil
	}
}

// WithPresenterFactory exposes the provided dispatch.PresenterFactory to the drover app.
//
// A Corral cannot dispatch without one.
func WithPresenterFactory(f dispatch.PresenterFactory) Option {
	return func(c *Corral) (OptFollowup, error) {
		if f == nil {
			return nil, fmt.Errorf("%w: factory cannot be nil", drover.ErrBadConfig)
		}

		c.factory = f
		return nil, nil
	}
}

// WithRouter constructs a followup option that, when called,
// exposes the *router.Router to the drover app.
func WithRouter(r *router.Router) Option {
	return func(c *Corral) (OptFollowup, error) {
		return func() error {
			c.Router = r
			return nil
		}, nil
	}
}

// WithServer exposes the *http.Server to the drover app.
func WithServer(s *http.Server) Option {
	return func(c *Corral) (OptFollowup, error) {
		old := c.srv
		c.srv = s

		if old != nil {
			c.srv.Handler = old.Handler
		}

		return nil, nil
	}
}

// WithIdentity exposes the dispatch.IdentityResolver consulted for
// request ownership when a session holds no registered user.
func WithIdentity(id dispatch.IdentityResolver) Option {
	return func(c *Corral) (OptFollowup, error) {
		if id == nil {
			return nil, fmt.Errorf("%w: identity cannot be nil", drover.ErrBadConfig)
		}

		c.identity = id
		return nil, nil
	}
}

// WithSessionStore exposes the session.SessionStorer to the drover app.
// The Corral derives its *dispatch.RequestStorage from it unless
// WithStorage provides one outright.
func WithSessionStore(store session.SessionStorer) Option {
	return func(c *Corral) (OptFollowup, error) {
		return func() error {
			c.sessions = store
			return nil
		}, nil
	}
}

// WithStorage exposes the provided *dispatch.RequestStorage to the drover app,
// overriding the one the Corral derives from its session store.
func WithStorage(rs *dispatch.RequestStorage) Option {
	return func(c *Corral) (OptFollowup, error) {
		return func() error {
			c.storage = rs
			return nil
		}, nil
	}
}
