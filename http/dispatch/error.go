package dispatch

import (
	"errors"
	"fmt"
)

// ErrInvalidPresenter marks a presenter name a PresenterFactory does not recognize.
var ErrInvalidPresenter = errors.New("invalid presenter")

// A BadRequestError is a client-facing failure:
// the request could not be routed or targets a presenter it may not reach.
//
// Code is the HTTP status to respond with; 0 falls back to 404.
type BadRequestError struct {
	Code int
	Err  error
}

func (e *BadRequestError) Error() string {
	if e.Err == nil {
		return "bad request"
	}
	return fmt.Sprintf("bad request: %s", e.Err)
}

func (e *BadRequestError) Unwrap() error { return e.Err }

// A LoopError is fatal: the dispatch loop processed more requests in one
// lifecycle than its configured maximum allows.
// It indicates misconfigured presenters forwarding to each other indefinitely,
// not bad client data.
type LoopError struct {
	Max int
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("too many loops: max %d requests per lifecycle", e.Max)
}

// A RedispatchError is a control signal, not a true failure:
// discard the current response path and carry on with what it holds.
//
// When Req is set, the dispatch loop resumes with it.
// When Response is set, the response is sent and the lifecycle ends.
type RedispatchError struct {
	Req      *Request
	Response Response
}

func (e *RedispatchError) Error() string { return "abort and redispatch" }
