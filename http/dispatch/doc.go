/*
Package dispatch is the front controller of a drover app.

# Overview

An [Application] services one inbound HTTP request end to end.
It asks its [Router] for the [Request] the HTTP request maps to,
asks its [PresenterFactory] for the presenter serving that Request,
runs the presenter, and interprets the resulting [Response]:
a [*ForwardResponse] feeds its embedded Request back into the loop
without a client round-trip, any other Response is sent to the client
through the [Transport], and a nil Response ends the lifecycle quietly.
A configurable guard caps how many Requests one lifecycle may process,
so presenters forwarding to each other indefinitely fail fast
with a [*LoopError] instead of spinning.

# Fault barrier

When constructed with [WithCatchErrors] and [WithErrorPresenter],
an Application reroutes any unhandled failure to the named error presenter
for exactly one recovery attempt, carrying the failure and the Request
being handled as parameters. A failed recovery never masks the
triggering failure: Run re-raises the original to the hosting server.

# Stored requests

[RequestStorage] persists a Request under a short opaque token in the
user's session, for redirect-after-post flows that must pick up where
they left off: store the Request, redirect, and the token travelling
under the reserved resume parameter restores it in the next lifecycle.
Entries expire and are bound to the user who stored them.
*/
package dispatch
