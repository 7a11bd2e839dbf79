package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/logger"
)

// defaultMaxLoop bounds the total requests one lifecycle may process,
// counting the initial request and every forward after it.
const defaultMaxLoop = 20

// An Application orchestrates one full request lifecycle:
// route the inbound HTTP request into a Request, resolve its presenter,
// run it, and either send the resulting Response or follow its forward
// back into the loop.
//
// One Application serves exactly one lifecycle at a time.
// Construct a fresh one per inbound request rather than sharing
// an instance across simultaneous requests.
type Application struct {
	router  Router
	factory PresenterFactory
	storage *RequestStorage
	l       logger.Logger

	errPresenter string
	catchErrors  bool
	maxLoop      int

	transport Transport
	r         *http.Request
	w         http.ResponseWriter

	// requests is the append-only log of every Request processed
	// in this lifecycle, in call order.
	requests []*Request

	// presenter is the most recently resolved presenter,
	// kept for error-forwarding context.
	presenter Presenter

	hooks hooks
}

// New constructs an Application around its two required collaborators.
func New(router Router, factory PresenterFactory, opts ...ApplicationOpt) (*Application, error) {
	if router == nil {
		return nil, fmt.Errorf("%w: router cannot be nil", drover.ErrBadConfig)
	}

	if factory == nil {
		return nil, fmt.Errorf("%w: factory cannot be nil", drover.ErrBadConfig)
	}

	app := &Application{
		router:  router,
		factory: factory,
		maxLoop: defaultMaxLoop,
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("%w: %s", drover.ErrBadConfig, err)
		}
	}

	if app.l == nil {
		app.l = logger.New()
	}

	return app, nil
}

// Requests exposes the log of Requests processed so far in this lifecycle.
// The returned slice is a copy; appends stay with the Application.
func (app *Application) Requests() []*Request {
	reqs := make([]*Request, len(app.requests))
	copy(reqs, app.requests)
	return reqs
}

// Presenter exposes the presenter most recently resolved in this lifecycle,
// or nil when none has been.
func (app *Application) Presenter() Presenter { return app.presenter }

// Run drives the whole lifecycle for one inbound HTTP request.
//
// On failure, and when configured with an error presenter and
// WithCatchErrors, Run reroutes the failure there for one recovery attempt:
// a successful recovery swallows the failure after flagging it to the
// shutdown hooks, a failed recovery re-raises the original failure.
// Shutdown hooks fire exactly once either way.
func (app *Application) Run(w http.ResponseWriter, r *http.Request) error {
	app.w, app.r = w, r
	if app.transport == nil {
		app.transport = NewHTTPTransport(w, r)
	}

	app.hooks.fireStartup(app)

	err := app.dispatch()
	if err == nil {
		app.hooks.fireShutdown(app, nil)
		return nil
	}

	app.l.Error(err.Error(), &logger.LogContext{Error: err, Request: r})
	app.hooks.fireError(app, err)

	if app.catchErrors && app.errPresenter != "" {
		if rerr := app.processError(err); rerr != nil {
			app.l.Error(rerr.Error(), &logger.LogContext{Error: rerr, Request: r})
			app.hooks.fireError(app, rerr)
			app.hooks.fireShutdown(app, err)
			return err
		}

		app.hooks.fireShutdown(app, err)
		return nil
	}

	app.hooks.fireShutdown(app, err)
	return err
}

// dispatch builds the initial Request and processes it,
// translating abort signals raised while building it.
func (app *Application) dispatch() error {
	req, err := app.createInitialRequest()
	if err != nil {
		var rd *RedispatchError
		if errors.As(err, &rd) {
			return app.redispatch(rd)
		}
		return err
	}

	return app.ProcessRequest(req)
}

// createInitialRequest routes the inbound HTTP request into the Request
// the lifecycle starts from.
//
// It fails with a *BadRequestError when the router yields no match,
// when the matched presenter is the configured error presenter
// (the error presenter is never reachable from outside),
// or when the factory rejects the matched presenter name.
//
// When the reserved resume parameter names a valid stored request,
// that stored request is returned in place of the fresh match.
func (app *Application) createInitialRequest() (*Request, error) {
	req := app.router.Match(app.r)
	if req == nil {
		return nil, &BadRequestError{Err: fmt.Errorf("%w: no route matches %s", drover.ErrNotExist, app.r.URL.Path)}
	}

	if app.errPresenter != "" && strings.EqualFold(req.Presenter, app.errPresenter) {
		return nil, &BadRequestError{Err: fmt.Errorf("%w: presenter %q cannot be reached directly", drover.ErrNotValid, req.Presenter)}
	}

	if _, err := app.factory.PresenterClass(req.Presenter); err != nil {
		return nil, &BadRequestError{Err: err}
	}

	if token := app.transport.Param(ResumeKey); token != "" && app.storage != nil {
		restored, err := app.storage.GetStoredRequest(app.w, app.r, token, req)
		if err != nil {
			return nil, err
		}

		if restored != nil {
			return restored, nil
		}
	}

	return req, nil
}

// ProcessRequest runs req's presenter and follows forwards until a
// terminal Response is sent, nothing needs sending, or the loop guard trips.
func (app *Application) ProcessRequest(req *Request) error {
	for req != nil {
		next, err := app.step(req)
		if err != nil {
			var rd *RedispatchError
			if errors.As(err, &rd) {
				if rd.Req == nil && rd.Response == nil {
					return err
				}
				if rd.Req != nil {
					req = rd.Req
					continue
				}
				return app.send(rd.Response)
			}
			return err
		}

		req = next
	}

	return nil
}

// step processes exactly one Request.
// A non-nil returned Request is a forward to continue the loop with.
func (app *Application) step(req *Request) (*Request, error) {
	if len(app.requests) >= app.maxLoop {
		return nil, &LoopError{Max: app.maxLoop}
	}

	app.requests = append(app.requests, req)
	app.hooks.fireRequest(app, req)

	p, err := app.factory.Create(req.Presenter)
	if err != nil {
		return nil, err
	}

	app.presenter = p
	app.hooks.firePresenter(app, p)

	res, err := p.Run(req)
	if err != nil {
		return nil, err
	}

	switch res := res.(type) {
	case nil:
		// a presenter may legitimately answer with nothing
		return nil, nil

	case *ForwardResponse:
		return res.Req, nil

	default:
		return nil, app.send(res)
	}
}

// send notifies response hooks and delivers res to the client.
func (app *Application) send(res Response) error {
	if res == nil {
		return nil
	}

	app.hooks.fireResponse(app, res)
	return app.transport.Send(res)
}

// redispatch resumes the loop or sends the response an abort signal carries.
func (app *Application) redispatch(rd *RedispatchError) error {
	if rd.Req != nil {
		return app.ProcessRequest(rd.Req)
	}

	if rd.Response != nil {
		return app.send(rd.Response)
	}

	return rd
}

// processError is the fault barrier: one recovery attempt rerouting the
// triggering failure to the configured error presenter.
//
// Failures raised during recovery propagate to Run for final handling.
func (app *Application) processError(trigger error) error {
	if !app.transport.Sent() {
		code := http.StatusInternalServerError

		var bad *BadRequestError
		if errors.As(trigger, &bad) {
			code = bad.Code
			if code == 0 {
				code = http.StatusNotFound
			}
		}

		app.transport.SetCode(code)
	}

	params := map[string]any{ExceptionKey: trigger}
	if len(app.requests) > 0 {
		params[OriginKey] = app.requests[len(app.requests)-1]
	}

	errReq := NewRequest(app.errPresenter, OpForward, params)

	if fw, ok := app.presenter.(Forwarder); ok {
		err := fw.Forward(app.errPresenter, params)

		var rd *RedispatchError
		if errors.As(err, &rd) {
			next := rd.Req
			if next == nil {
				next = fw.LastCreatedRequest()
			}
			return app.ProcessRequest(next)
		}

		if err != nil {
			return err
		}
	}

	return app.ProcessRequest(errReq)
}
