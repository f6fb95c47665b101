package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
)

var compressibleTypes = []string{"application/json", "text/html", "text/plain"}

// GzipMiddleware inflates gzip request bodies and compresses text responses
// for clients that accept gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			gzReader, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "Invalid gzip body", http.StatusBadRequest)
				return
			}
			defer gzReader.Close()
			r.Body = gzReader
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		grw := &gzipResponseWriter{ResponseWriter: w}
		defer grw.close()

		next.ServeHTTP(grw, r)
	})
}

// gzipResponseWriter decides on compression once the response headers are known.
type gzipResponseWriter struct {
	http.ResponseWriter
	writer      *gzip.Writer
	wroteHeader bool
}

func (grw *gzipResponseWriter) WriteHeader(statusCode int) {
	if grw.wroteHeader {
		return
	}
	grw.wroteHeader = true

	if statusCode != http.StatusNoContent && statusCode != http.StatusNotModified &&
		isCompressible(grw.Header().Get("Content-Type")) {
		grw.Header().Set("Content-Encoding", "gzip")
		grw.Header().Add("Vary", "Accept-Encoding")
		grw.Header().Del("Content-Length")
		grw.writer = gzip.NewWriter(grw.ResponseWriter)
	}

	grw.ResponseWriter.WriteHeader(statusCode)
}

func (grw *gzipResponseWriter) Write(b []byte) (int, error) {
	if !grw.wroteHeader {
		if grw.Header().Get("Content-Type") == "" {
			grw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		grw.WriteHeader(http.StatusOK)
	}

	if grw.writer != nil {
		return grw.writer.Write(b)
	}
	return grw.ResponseWriter.Write(b)
}

func (grw *gzipResponseWriter) close() {
	if grw.writer != nil {
		_ = grw.writer.Close()
	}
}

func isCompressible(contentType string) bool {
	for _, t := range compressibleTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
