package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/dispatch"
)

const defaultAction = "default"

// A Route maps a path and HTTP method to a presenter and one of its actions.
type Route struct {
	Path      string
	Method    string
	Presenter string
	Action    string
}

// Router maps inbound HTTP requests onto [dispatch.Request] values.
//
// Router implements [dispatch.Router] by wrapping a [*mux.Router]:
// registered Routes become named mux routes,
// and a match translates the route's presenter, action, path variables
// and query parameters into the Request the dispatch loop starts from.
type Router struct {
	r *mux.Router
}

// New constructs an empty *Router.
func New() *Router {
	return &Router{r: mux.NewRouter()}
}

// Handle applies the [Route] to the [*Router].
//
// A Route without an Action serves defaultAction;
// a Route without a Method matches every method.
func (rt *Router) Handle(route Route) error {
	if route.Path == "" || route.Presenter == "" {
		return fmt.Errorf("%w: a route requires a Path and a Presenter", drover.ErrBadConfig)
	}

	action := route.Action
	if action == "" {
		action = defaultAction
	}

	r := rt.r.Path(route.Path).Name(route.Presenter + ":" + action)
	if route.Method != "" {
		r.Methods(route.Method)
	}

	// NOTE: mux requires a handler for a route to match,
	// but dispatch drives execution; the handler never runs.
	r.Handler(http.NotFoundHandler())

	return nil
}

// HandleRoutes registers the set of Routes on the Router.
func (rt *Router) HandleRoutes(routes []Route) error {
	for _, route := range routes {
		if err := rt.Handle(route); err != nil {
			return err
		}
	}

	return nil
}

// Subrouter constructs a [*Router] that handles requests to endpoints matching the prefix.
//
// e.g., rt.Subrouter("/admin") handles requests to endpoints like /admin/users
func (rt *Router) Subrouter(prefix string) *Router {
	return &Router{r: rt.r.PathPrefix(prefix).Subrouter()}
}

// Match translates the inbound HTTP request into the [dispatch.Request]
// its matching Route describes, or nil when no Route matches.
//
// Query parameters come first, then path variables,
// then the route's action under the reserved action parameter,
// so path variables shadow query parameters of the same name.
func (rt *Router) Match(r *http.Request) *dispatch.Request {
	var m mux.RouteMatch
	if !rt.r.Match(r, &m) || m.MatchErr != nil || m.Route == nil {
		return nil
	}

	presenter, action, _ := strings.Cut(m.Route.GetName(), ":")
	if presenter == "" {
		return nil
	}

	params := make(map[string]any)
	for k, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[k] = vals[len(vals)-1]
		}
	}
	for k, v := range m.Vars {
		params[k] = v
	}
	params[dispatch.ActionKey] = action

	return dispatch.NewRequest(presenter, dispatch.OpForward, params)
}
