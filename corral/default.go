package corral

import (
	"context"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/xy-planning-network/drover"
	"github.com/xy-planning-network/drover/http/dispatch"
	"github.com/xy-planning-network/drover/http/middleware"
	"github.com/xy-planning-network/drover/http/router"
	"github.com/xy-planning-network/drover/http/session"
	"github.com/xy-planning-network/drover/logger"
)

const (
	// Base URL defaults
	BaseURLEnvVar = "BASE_URL"

	// App metadata
	AppTitleEnvVar  = "APP_TITLE"
	defaultAppTitle = "drover"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar = "LOG_LEVEL"

	// Web server defaults
	DefaultHost               = "localhost"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second

	// Session defaults
	SessionAuthKeyEnvVar    = "SESSION_AUTH_KEY"
	SessionEncryptKeyEnvVar = "SESSION_ENCRYPTION_KEY"

	// Token identity defaults
	jwtKeyEnvVar = "JWT_SIGNING_KEY"
)

var defaultBaseURL = "http://" + DefaultHost + DefaultPort

// defaultOpts are applied before the options passed to New.
func defaultOpts() []Option {
	return []Option{
		WithEnv(os.Getenv(environmentEnvVar)),
	}
}

// defaults fills every collaborator no option configured.
func (c *Corral) defaults() error {
	if c.l == nil {
		c.l = defaultLogger(c.env)
	}

	if c.url == nil {
		c.url = drover.EnvVarOrURL(BaseURLEnvVar, defaultBaseURL)
	}

	if c.sessions == nil {
		store, err := defaultSessionStore(c.env)
		if err != nil {
			return err
		}

		c.sessions = store
	}

	if c.identity == nil {
		if key := os.Getenv(jwtKeyEnvVar); key != "" {
			id, err := session.NewJWTIdentity(key)
			if err != nil {
				return err
			}

			c.identity = id
		}
	}

	if c.storage == nil {
		var opts []dispatch.StorageOpt
		if c.identity != nil {
			opts = append(opts, dispatch.WithIdentity(c.identity))
		}

		rs, err := dispatch.NewRequestStorage(c.sessions, opts...)
		if err != nil {
			return err
		}

		c.storage = rs
	}

	if c.Router == nil {
		c.Router = router.New()
	}

	if c.srv == nil {
		c.srv = defaultServer(c.ctx)
	}

	if c.mws == nil {
		c.mws = defaultMiddleware(c)
	}

	return nil
}

// defaultLogger constructs the logger.Logger the app runs with.
//
// logger.New wraps itself in a SentryLogger when SENTRY_DSN is set.
func defaultLogger(env drover.Environment) logger.Logger {
	opts := []logger.LoggerOptFn{logger.WithEnv(env.String())}
	if lvl := logger.NewLogLevel(os.Getenv(logLevelEnvVar)); lvl != logger.LogLevelUnk {
		opts = append(opts, logger.WithLevel(lvl))
	}

	return logger.New(opts...)
}

// defaultMiddleware is the operational surface every request passes through
// before reaching the dispatch loop.
func defaultMiddleware(c *Corral) []middleware.Adapter {
	return []middleware.Adapter{
		middleware.ForceHTTPS(c.env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(c.l),
		middleware.InjectSession(c.sessions, drover.SessionKey),
	}
}

// defaultSessionStore constructs a SessionStorer to be used for storing session data.
//
// defaultSessionStore relies on three env vars:
//   - APP_TITLE
//   - SESSION_AUTH_KEY
//   - SESSION_ENCRYPTION_KEY
//
// Both KEY env vars must be valid hex encoded values; cf. [encoding/hex].
func defaultSessionStore(env drover.Environment) (session.SessionStorer, error) {
	appName := strings.ToLower(drover.EnvVarOrString(AppTitleEnvVar, defaultAppTitle))
	appName = regexp.MustCompile(`[,':]`).ReplaceAllString(appName, "")
	appName = regexp.MustCompile(`\s`).ReplaceAllString(appName, "-")

	cfg := session.Config{
		AuthKey:     os.Getenv(SessionAuthKeyEnvVar),
		EncryptKey:  os.Getenv(SessionEncryptKeyEnvVar),
		Env:         env,
		SessionName: "drover-" + appName,
	}

	args := []session.ServiceOpt{
		session.WithMaxAge(3600 * 24 * 7),
		session.WithCookie(),
	}

	return session.NewStoreService(cfg, args...)
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context) *http.Server {
	port := drover.EnvVarOrString(portEnvVar, DefaultPort)
	if port[0] != ':' {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		IdleTimeout:  drover.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  drover.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: drover.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
