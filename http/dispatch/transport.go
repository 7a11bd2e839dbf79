package dispatch

import (
	"fmt"
	"net/http"

	"github.com/xy-planning-network/drover"
)

// A Transport is the client-facing side of a dispatch lifecycle:
// query-parameter access on the way in, response delivery on the way out.
type Transport interface {
	// Param retrieves the named query parameter from the inbound request.
	Param(key string) string

	// Send delivers a terminal Response to the client.
	Send(res Response) error

	// Sent reports whether anything was already delivered.
	Sent() bool

	// SetCode stages the HTTP status code to respond with.
	// Calls after Send are ignored.
	SetCode(code int)
}

// An HTTPTransport adapts an http.ResponseWriter and *http.Request
// into the Transport the dispatch loop drives.
type HTTPTransport struct {
	w    http.ResponseWriter
	r    *http.Request
	code int
	sent bool
}

// NewHTTPTransport constructs an HTTPTransport around one request/response pair.
func NewHTTPTransport(w http.ResponseWriter, r *http.Request) *HTTPTransport {
	return &HTTPTransport{w: w, r: r}
}

// Param retrieves the named query parameter.
func (t *HTTPTransport) Param(key string) string {
	return t.r.URL.Query().Get(key)
}

// Send writes the Response to the underlying http.ResponseWriter.
//
// A *ForwardResponse cannot be sent; forwards are the dispatch loop's to handle.
func (t *HTTPTransport) Send(res Response) error {
	switch res := res.(type) {
	case *RedirectResponse:
		code := res.Code
		if code == 0 {
			code = http.StatusFound
		}

		http.Redirect(t.w, t.r, res.URL(), code)
		t.sent = true
		return nil

	case *PayloadResponse:
		if res.ContentType != "" {
			t.w.Header().Set("Content-Type", res.ContentType)
		}

		code := res.Code
		if code == 0 {
			code = t.code
		}
		if code == 0 {
			code = http.StatusOK
		}

		t.w.WriteHeader(code)
		t.sent = true
		_, err := t.w.Write(res.Body)
		return err

	case *ForwardResponse:
		return fmt.Errorf("%w: a forward cannot be sent to the client", drover.ErrNotValid)

	default:
		return fmt.Errorf("%w: unknown response %T", drover.ErrNotValid, res)
	}
}

// Sent reports whether a Response already went out.
func (t *HTTPTransport) Sent() bool { return t.sent }

// SetCode stages the status code a later Send uses,
// unless the Response carries its own.
func (t *HTTPTransport) SetCode(code int) {
	if t.sent {
		return
	}

	t.code = code
}
