package corral

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	// TODO(dlk): configurable env files
	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/dispatch"
	"github.com/xy-planning-network/drover/http/middleware"
	"github.com/xy-planning-network/drover/http/router"
	"github.com/xy-planning-network/drover/http/session"
	"github.com/xy-planning-network/drover/logger"
)

// A Corral manages and exposes all components of a drover app to one another.
//
// A Corral is itself an http.Handler: each inbound request gets
// a brand new [dispatch.Application] driving that request's lifecycle.
type Corral struct {
	*router.Router

	appOpts  []dispatch.ApplicationOpt
	ctx      context.Context
	env      drover.Environment
	factory  dispatch.PresenterFactory
	identity dispatch.IdentityResolver
	l        logger.Logger
	mws      []middleware.Adapter
	sessions session.SessionStorer
	srv      *http.Server
	storage  *dispatch.RequestStorage
	url      *url.URL
}

// New constructs a Corral from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
//
// A presenter factory is the one collaborator New cannot default;
// supply it with WithPresenterFactory.
func New(opts ...Option) (*Corral, error) {
	c := new(Corral)
	followups := make([]OptFollowup, 0)

	// NOTE(dlk): calling an option configures the *Corral under construction.
	// Some options require data from other options.
	// These options, therefore, must delay configuring the *Corral
	// until either (1) user supplied Options or (2) default Options
	// configure the *Corral first.
	// They return an OptFollowup to be called after the initial set of options are run.
	for _, opt := range append(defaultOpts(), opts...) {
		fn, err := opt(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", drover.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", drover.ErrBadConfig, err)
		}
	}

	if c.factory == nil {
		return nil, fmt.Errorf("%w: a presenter factory is required", drover.ErrBadConfig)
	}

	if err := c.defaults(); err != nil {
		return nil, fmt.Errorf("%w: %s", drover.ErrBadConfig, err)
	}

	c.srv.Handler = c.Handler()

	return c, nil
}

func (c *Corral) Env() drover.Environment                 { return c.env }
func (c *Corral) EmitIdentity() dispatch.IdentityResolver { return c.identity }
func (c *Corral) EmitLogger() logger.Logger               { return c.l }
func (c *Corral) EmitSessionStore() session.SessionStorer { return c.sessions }
func (c *Corral) EmitStorage() *dispatch.RequestStorage   { return c.storage }

// Handler wraps the Corral in its middleware stack.
func (c *Corral) Handler() http.Handler {
	h := middleware.Chain(c, c.mws...)
	return http.HandlerFunc(middleware.ReportPanic(c.env)(h.ServeHTTP))
}

// ServeHTTP runs one dispatch lifecycle for the request.
//
// ServeHTTP implements http.Handler.
func (c *Corral) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t := dispatch.NewHTTPTransport(w, r)
	opts := append([]dispatch.ApplicationOpt{
		dispatch.WithLogger(c.l),
		dispatch.WithStorage(c.storage),
		dispatch.WithTransport(t),
	}, c.appOpts...)

	app, err := dispatch.New(c.Router, c.factory, opts...)
	if err != nil {
		c.l.Error(err.Error(), &logger.LogContext{Error: err, Request: r})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	err = app.Run(w, r)
	if err == nil || t.Sent() {
		return
	}

	code := http.StatusInternalServerError
	var bre *dispatch.BadRequestError
	if errors.As(err, &bre) {
		code = http.StatusNotFound
		if bre.Code != 0 {
			code = bre.Code
		}
	}

	http.Error(w, http.StatusText(code), code)
}

// Drive begins the web server.
//
// These, and (*Corral).Shutdown, stop Drive:
//
// - os.Interrupt
// - os.Kill
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (c *Corral) Drive() error {
	var cancel context.CancelFunc
	c.ctx, cancel = context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(
		ch,
		os.Interrupt,
		os.Kill,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)

	go func() {
		s := <-ch
		c.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
		cancel()
	}()

	go func() {
		c.l.Info(fmt.Sprintf("running web server at %s", c.srv.Addr), nil)
		if err := c.srv.ListenAndServe(); err != http.ErrServerClosed {
			err = fmt.Errorf("could not listen: %w", err)
			c.l.Error(err.Error(), nil)
		}
	}()

	<-c.ctx.Done()
	return c.Shutdown()
}

// Shutdown shutdowns the web server.
func (c *Corral) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.l.Info("shutting down web server", nil)
	err := c.srv.Shutdown(shutdownCtx)
	if err == http.ErrServerClosed {
		c.l.Info("web server shutdown successfully", nil)
		return nil
	}

	if err != nil {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	c.l.Info("web server shutdown successfully", nil)
	return nil
}
