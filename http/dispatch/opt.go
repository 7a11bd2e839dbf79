package dispatch

import (
	"fmt"

	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/logger"
)

// An ApplicationOpt configures the provided *Application,
// returning an error if unable to.
type ApplicationOpt func(*Application) error

// WithCatchErrors toggles the fault barrier:
// when on, failures reroute to the error presenter instead of
// surfacing raw to the hosting server.
//
// WithErrorPresenter must also be set for the barrier to engage.
func WithCatchErrors(on bool) ApplicationOpt {
	return func(app *Application) error {
		app.catchErrors = on
		return nil
	}
}

// WithErrorPresenter names the presenter failures reroute to.
//
// The named presenter is unreachable by direct client request.
func WithErrorPresenter(name string) ApplicationOpt {
	return func(app *Application) error {
		app.errPresenter = name
		return nil
	}
}

// WithLogger sets the logger.Logger the Application logs failures through.
func WithLogger(l logger.Logger) ApplicationOpt {
	return func(app *Application) error {
		app.l = l
		return nil
	}
}

// WithMaxLoop caps the total requests one lifecycle may process.
//
// Otherwise, the Application uses defaultMaxLoop.
func WithMaxLoop(max int) ApplicationOpt {
	return func(app *Application) error {
		if max < 1 {
			return fmt.Errorf("%w: max must be at least 1, have %d", drover.ErrNotValid, max)
		}

		app.maxLoop = max
		return nil
	}
}

// WithStorage sets the RequestStorage consulted for resume tokens.
func WithStorage(rs *RequestStorage) ApplicationOpt {
	return func(app *Application) error {
		app.storage = rs
		return nil
	}
}

// WithTransport replaces the HTTPTransport the Application builds by default.
func WithTransport(t Transport) ApplicationOpt {
	return func(app *Application) error {
		app.transport = t
		return nil
	}
}
