package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/drover"
)

// ReportPanic encloses the env and returns a function that when called,
// wraps the passed in http.HandlerFunc in sentryhttp.HandleFunc
// in order to recover and report panics.
func ReportPanic(env drover.Environment) func(http.HandlerFunc) http.HandlerFunc {
	return func(handler http.HandlerFunc) http.HandlerFunc {
		if env.IsDevelopment() {
			return func(w http.ResponseWriter, r *http.Request) {
				handler(w, r)
			}
		}

		sh := sentryhttp.New(sentryhttp.Options{
			Repanic:         false,
			WaitForDelivery: true,
		})
		return sh.HandleFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		})
	}
}
