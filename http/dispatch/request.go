package dispatch

// An Op is the kind of operation a Request asks its presenter to perform.
type Op string

const (
	// OpForward marks a request produced by an internal forward.
	OpForward Op = "FORWARD"

	// OpRedirect marks a request produced by a client-facing redirect.
	OpRedirect Op = "REDIRECT"

	// OpOrigin marks a request replayed from where a forwarding chain began.
	OpOrigin Op = "ORIGIN"
)

// Reserved parameter keys.
const (
	// ResumeKey carries a stored-request token across a redirect.
	ResumeKey = "_rid"

	// FlashKey carries the flash-message parameter across a resume.
	FlashKey = "_fid"

	// ActionKey names the presenter action a request targets.
	ActionKey = "action"

	// ExceptionKey carries the triggering error on an error-forward request.
	ExceptionKey = "exception"

	// OriginKey carries the request being handled when an error-forward was built.
	OriginKey = "request"
)

// A Request describes one unit of work for a presenter:
// the presenter's name, the kind of operation asked of it,
// and the parameters the operation applies to.
//
// A Request is immutable by convention.
// It is created by a Router match or restored from a RequestStorage,
// mutated only by the dispatch step that owns it,
// and never shared across lifecycles.
type Request struct {
	Presenter string
	Op        Op
	Params    map[string]any

	restored bool
}

// NewRequest constructs a Request for the named presenter.
// A nil params is initialized to an empty map.
func NewRequest(presenter string, op Op, params map[string]any) *Request {
	if params == nil {
		params = make(map[string]any)
	}

	return &Request{Presenter: presenter, Op: op, Params: params}
}

// Clone copies the Request, including its parameter map,
// so mutations of the copy never reach the original.
func (r *Request) Clone() *Request {
	params := make(map[string]any, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}

	return &Request{
		Presenter: r.Presenter,
		Op:        r.Op,
		Params:    params,
		restored:  r.restored,
	}
}

// Param retrieves the string parameter stored under key,
// or "" when the parameter is missing or not a string.
func (r *Request) Param(key string) string {
	val, _ := r.Params[key].(string)
	return val
}

// Restored reports whether the Request was rebuilt from a stored request
// rather than routed fresh.
func (r *Request) Restored() bool { return r.restored }
