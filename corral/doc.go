/*
Package corral initializes and manages a drover app with sane defaults.

# Corral

The main entrypoint to package corral is the [Corral] type.
A [Corral] ought to be constructed with [New] from a set of [Option].
The one collaborator [New] cannot default is the [dispatch.PresenterFactory];
supply it with [WithPresenterFactory].

A [Corral] handles each inbound HTTP request by constructing
a brand new [dispatch.Application] and running the full
dispatch lifecycle on it, behind the configured middleware stack.

[*Corral.Drive] begins the app's web server.
By default, [*Corral.Drive] listens on [DefaultHost][DefaultPort] (localhost:3000),
assuming either a reverse proxy proxies requests
or only a client application makes direct requests to the drover web server.

Stop the web server with [*Corral.Shutdown]
or send a signal [*Corral.Drive] listens for.

# Configuration

A developer configures a drover app through environment variables
and through the [Option] set passed to [New].

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - APP_TITLE: a short title for the application; names the session cookie
  - BASE_URL: the base URL the application runs on; replaces HOST & PORT
  - ENVIRONMENT: the environment the application is running in; cf. [drover.Environment]
  - JWT_SIGNING_KEY: when set, stored-request ownership falls back to a [session.JWTIdentity] verifying tokens signed with this key
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - PORT: the port the application should listen on; default: :3000
  - SENTRY_DSN: when set, error and fatal logs ship to Sentry
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - SESSION_AUTH_KEY: a hex-encoded key for authenticating cookies; cf. [encoding/hex]
  - SESSION_ENCRYPTION_KEY: a hex-encoded key for encrypting cookies; cf. [encoding/hex]
*/
package corral
