package middleware

import (
	"fmt"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 and logs it. Panics are first
// reported to Sentry when a client is configured; without one the Sentry
// layer is a no-op.
func Recovery(logger *zap.Logger, sentryTimeout time.Duration) func(next http.Handler) http.Handler {
	reporter := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
		Timeout: sentryTimeout,
	})

	return func(next http.Handler) http.Handler {
		reported := reporter.Handle(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Handler panicked",
					zap.String("requestID", GetRequestIDFromContext(r.Context())),
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("panic", fmt.Sprint(rec)),
					zap.Stack("stack"),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			reported.ServeHTTP(w, r)
		})
	}
}
