package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	type want struct {
		statusCode   int
		bodyContains string
	}

	tests := []struct {
		name   string
		method string
		path   string
		want   want
	}{
		{
			name:   "ping with in-memory store",
			method: http.MethodGet,
			path:   "/ping",
			want:   want{statusCode: http.StatusOK},
		},
		{
			name:   "metrics exposed",
			method: http.MethodGet,
			path:   "/metrics",
			want:   want{statusCode: http.StatusOK, bodyContains: "http_requests_total"},
		},
		{
			name:   "unknown api route",
			method: http.MethodGet,
			path:   "/api/unknown",
			want:   want{statusCode: http.StatusNotFound, bodyContains: "Not Found"},
		},
		{
			name:   "wrong method on home",
			method: http.MethodDelete,
			path:   "/",
			want:   want{statusCode: http.StatusMethodNotAllowed, bodyContains: "Method Not Allowed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			// prime the request counter so it shows up on /metrics
			env.router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if tt.want.bodyContains != "" {
				assert.Contains(t, w.Body.String(), tt.want.bodyContains)
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
