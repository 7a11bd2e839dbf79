package dispatch

import "net/http"

// A Router maps an inbound HTTP request to a structured Request,
// or nil when no route matches.
type Router interface {
	Match(r *http.Request) *Request
}

// A PresenterFactory resolves presenter names into running presenters.
type PresenterFactory interface {
	// PresenterClass resolves name into the identifier of the presenter
	// implementation serving it, failing with ErrInvalidPresenter
	// when name is unknown.
	PresenterClass(name string) (string, error)

	// Create constructs the presenter serving name.
	Create(name string) (Presenter, error)
}

// A Presenter executes the business logic for one Request.
type Presenter interface {
	Run(req *Request) (Response, error)
}

// A Forwarder is a Presenter rich enough to redirect internally.
//
// Forward conventionally returns a *RedispatchError:
// the forward is not a failure but an instruction to abandon the current
// response path and process the request Forward created.
// LastCreatedRequest exposes that request to the dispatch loop.
type Forwarder interface {
	Presenter

	Forward(target string, params map[string]any) error
	LastCreatedRequest() *Request
}
