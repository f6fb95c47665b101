package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{
		ResponseWriter: w,
		responseData:   &responseData{},
	}
}

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	if r.responseData.status == 0 {
		r.responseData.status = statusCode
	}
}

// Status reports 200 for handlers that never wrote anything.
func (r *loggingResponseWriter) Status() int {
	if r.responseData.status == 0 {
		return http.StatusOK
	}
	return r.responseData.status
}

func WithLogging(logger *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestIDFromContext(r.Context())

		logger.Debug("Request received",
			zap.String("type", "request"),
			zap.String("requestID", requestID),
			zap.String("uri", r.RequestURI),
			zap.String("method", r.Method),
		)

		start := time.Now()
		lw := newLoggingResponseWriter(w)

		h.ServeHTTP(lw, r)

		logger.Info("Response sent",
			zap.String("type", "response"),
			zap.String("requestID", requestID),
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Int("status", lw.Status()),
			zap.Int("size", lw.responseData.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return WithLogging(logger, next)
	}
}
