package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectHandler(t *testing.T) {
	type want struct {
		statusCode int
		location   string
		clicks     int64
		checkClick bool
	}

	tests := []struct {
		name   string
		method string
		code   string
		seed   func(t *testing.T, env *testEnv)
		want   want
	}{
		{
			name:   "positive: existing code without scheme",
			method: http.MethodGet,
			code:   "abc123",
			seed: func(t *testing.T, env *testEnv) {
				env.seed(t, "abc123", "example.com", 5)
			},
			want: want{
				statusCode: http.StatusFound,
				location:   "https://example.com",
				clicks:     6,
				checkClick: true,
			},
		},
		{
			name:   "positive: existing code keeps http scheme",
			method: http.MethodGet,
			code:   "plain1",
			seed: func(t *testing.T, env *testEnv) {
				env.seed(t, "plain1", "http://example.com/page?q=1", 0)
			},
			want: want{
				statusCode: http.StatusFound,
				location:   "http://example.com/page?q=1",
				clicks:     1,
				checkClick: true,
			},
		},
		{
			name:   "negative: unknown code goes home",
			method: http.MethodGet,
			code:   "zzz999",
			seed:   func(t *testing.T, env *testEnv) {},
			want: want{
				statusCode: http.StatusFound,
				location:   "/",
			},
		},
		{
			name:   "negative: wrong method POST",
			method: http.MethodPost,
			code:   "abc123",
			seed: func(t *testing.T, env *testEnv) {
				env.seed(t, "abc123", "https://a.com", 0)
			},
			want: want{
				statusCode: http.StatusMethodNotAllowed,
				clicks:     0,
				checkClick: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			tt.seed(t, env)

			request := httptest.NewRequest(tt.method, "/"+tt.code, nil)
			w := httptest.NewRecorder()

			env.router.ServeHTTP(w, request)

			result := w.Result()
			defer result.Body.Close()

			assert.Equal(t, tt.want.statusCode, result.StatusCode)
			if tt.want.location != "" {
				assert.Equal(t, tt.want.location, result.Header.Get("Location"))
			}

			if tt.want.checkClick {
				env.service.Close()

				link, err := env.store.SelectLink(context.Background(), tt.code)
				require.NoError(t, err)
				assert.Equal(t, tt.want.clicks, link.Clicks)
			}
		})
	}
}

func TestRedirectDoesNotRewriteStoredURL(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "abc123", "example.com", 0)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/abc123", nil))
		require.Equal(t, http.StatusFound, w.Code)
	}
	env.service.Close()

	link, err := env.store.SelectLink(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "example.com", link.LongURL)
	assert.Equal(t, int64(2), link.Clicks)
}

func TestRedirectCountsEachVisit(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, "abc123", "example.com", 5)

	ctx := context.Background()
	last := int64(5)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/abc123", nil))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Location"))

		link, err := env.store.SelectLink(ctx, "abc123")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, link.Clicks, last, "counter went down after visit %d", i+1)
		last = link.Clicks
	}
	env.service.Close()

	link, err := env.store.SelectLink(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(15), link.Clicks)
}

func TestHomeHandler(t *testing.T) {
	env := newTestEnv(t, nil)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "shortlink")
}
