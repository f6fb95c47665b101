package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/shortlink/internal/models"
)

func TestGetUserURLsHandler(t *testing.T) {
	type want struct {
		statusCode int
		urls       []models.UserURL
	}

	tests := []struct {
		name     string
		signed   bool
		setupURL []string
		want     want
	}{
		{
			name:     "positive: user has URLs",
			signed:   true,
			setupURL: []string{"https://yandex.ru", "https://google.com"},
			want: want{
				statusCode: http.StatusOK,
				urls: []models.UserURL{
					{ShortURL: testBaseURL + "/aaa111", OriginalURL: "https://yandex.ru"},
					{ShortURL: testBaseURL + "/bbb222", OriginalURL: "https://google.com"},
				},
			},
		},
		{
			name:   "positive: user without URLs",
			signed: true,
			want: want{
				statusCode: http.StatusNoContent,
			},
		},
		{
			name:   "negative: anonymous",
			signed: false,
			want: want{
				statusCode: http.StatusUnauthorized,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &sequenceGenerator{codes: []string{"aaa111", "bbb222"}})

			var cookie *http.Cookie
			if tt.signed {
				cookie, _ = env.signIn(t, "alice@example.com")
			}

			for _, u := range tt.setupURL {
				request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(u))
				request.AddCookie(cookie)
				w := httptest.NewRecorder()
				env.router.ServeHTTP(w, request)
				require.Equal(t, http.StatusCreated, w.Code)
			}

			request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
			if cookie != nil {
				request.AddCookie(cookie)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, request)

			result := w.Result()
			defer result.Body.Close()

			assert.Equal(t, tt.want.statusCode, result.StatusCode)

			if tt.want.urls != nil {
				var urls []models.UserURL
				require.NoError(t, json.NewDecoder(result.Body).Decode(&urls))
				assert.Equal(t, tt.want.urls, urls)
			}
		})
	}
}
