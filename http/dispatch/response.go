package dispatch

import (
	"net/http"
	"net/url"
	"strings"
)

// A Response is the polymorphic result of running a presenter.
//
// A *ForwardResponse re-enters the dispatch loop;
// every other variant is terminal and is sent to the client.
// A nil Response is a valid terminal outcome: nothing is sent.
type Response interface {
	response()
}

// A ForwardResponse wraps a new Request to process
// in place of sending anything to the client.
type ForwardResponse struct {
	Req *Request
}

// NewForward constructs a ForwardResponse around req.
func NewForward(req *Request) *ForwardResponse { return &ForwardResponse{Req: req} }

func (*ForwardResponse) response() {}

// A RedirectResponse instructs the client to re-request at a new location.
//
// Target is either a "presenter:action" pair resolved into a path,
// or a literal URL when it contains a "/".
type RedirectResponse struct {
	Target string
	Params map[string]any
	Code   int
}

// NewRedirect constructs a RedirectResponse toward target carrying params.
// The status code defaults to 302.
func NewRedirect(target string, params map[string]any) *RedirectResponse {
	return &RedirectResponse{Target: target, Params: params, Code: http.StatusFound}
}

func (*RedirectResponse) response() {}

// URL resolves the redirect's Target and Params into the location
// the client is sent to.
func (rr *RedirectResponse) URL() string {
	var p string
	if strings.Contains(rr.Target, "/") {
		p = rr.Target
	} else {
		name, action, _ := strings.Cut(rr.Target, ":")
		p = "/" + strings.ToLower(name)
		if action != "" {
			p += "/" + strings.ToLower(action)
		}
	}

	q := url.Values{}
	for k, v := range rr.Params {
		if s, ok := v.(string); ok {
			q.Set(k, s)
		}
	}

	if enc := q.Encode(); enc != "" {
		p += "?" + enc
	}

	return p
}

// A PayloadResponse writes bytes to the client as-is.
type PayloadResponse struct {
	Code        int
	ContentType string
	Body        []byte
}

// NewPayload constructs a PayloadResponse around body.
func NewPayload(contentType string, body []byte) *PayloadResponse {
	return &PayloadResponse{ContentType: contentType, Body: body}
}

func (*PayloadResponse) response() {}
