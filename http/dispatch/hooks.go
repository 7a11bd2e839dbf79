package dispatch

// hooks are the callback registries an Application notifies at fixed points
// of its lifecycle. Callbacks fire in registration order, never reordered
// or batched. Downstream consumers attach cross-cutting behavior here:
// request logging, profiling, metrics.
type hooks struct {
	onStartup   []func(*Application)
	onShutdown  []func(*Application, error)
	onRequest   []func(*Application, *Request)
	onPresenter []func(*Application, Presenter)
	onResponse  []func(*Application, Response)
	onError     []func(*Application, error)
}

// OnStartup registers fn to run once, before the lifecycle begins.
func (app *Application) OnStartup(fn func(*Application)) {
	app.hooks.onStartup = append(app.hooks.onStartup, fn)
}

// OnShutdown registers fn to run once, after the lifecycle ends.
// The error is the failure that flagged the lifecycle, nil on success.
func (app *Application) OnShutdown(fn func(*Application, error)) {
	app.hooks.onShutdown = append(app.hooks.onShutdown, fn)
}

// OnRequest registers fn to run each time the loop receives a Request.
func (app *Application) OnRequest(fn func(*Application, *Request)) {
	app.hooks.onRequest = append(app.hooks.onRequest, fn)
}

// OnPresenter registers fn to run each time a presenter is created.
func (app *Application) OnPresenter(fn func(*Application, Presenter)) {
	app.hooks.onPresenter = append(app.hooks.onPresenter, fn)
}

// OnResponse registers fn to run when a terminal Response is ready,
// before it is sent.
func (app *Application) OnResponse(fn func(*Application, Response)) {
	app.hooks.onResponse = append(app.hooks.onResponse, fn)
}

// OnError registers fn to run on each unhandled failure:
// once for the triggering failure and,
// should the recovery attempt itself fail, once more for that failure.
func (app *Application) OnError(fn func(*Application, error)) {
	app.hooks.onError = append(app.hooks.onError, fn)
}

func (h hooks) fireStartup(app *Application) {
	for _, fn := range h.onStartup {
		fn(app)
	}
}

func (h hooks) fireShutdown(app *Application, err error) {
	for _, fn := range h.onShutdown {
		fn(app, err)
	}
}

func (h hooks) fireRequest(app *Application, req *Request) {
	for _, fn := range h.onRequest {
		fn(app, req)
	}
}

func (h hooks) firePresenter(app *Application, p Presenter) {
	for _, fn := range h.onPresenter {
		fn(app, p)
	}
}

func (h hooks) fireResponse(app *Application, res Response) {
	for _, fn := range h.onResponse {
		fn(app, res)
	}
}

func (h hooks) fireError(app *Application, err error) {
	for _, fn := range h.onError {
		fn(app, err)
	}
}
