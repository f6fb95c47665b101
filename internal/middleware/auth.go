package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/auth"
	"github.com/mmeshcher/shortlink/internal/models"
)

type contextKey string

const (
	userIDKey       contextKey = "userID"
	sessionTokenKey contextKey = "sessionToken"
)

const SessionCookieName = "session"

// SessionResolver maps a session token to the signed-in user.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// Auth attaches the signed-in user to the request context when the request
// carries a valid session. Requests without one pass through anonymously;
// handlers decide whether a user is required.
func Auth(resolver SessionResolver, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionTokenKey, token)

			user, err := resolver.CurrentUser(ctx, token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidSession) {
					logger.Warn("Failed to resolve session",
						zap.String("requestID", GetRequestIDFromContext(ctx)),
						zap.Error(err))
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = context.WithValue(ctx, userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionTokenFromRequest prefers an Authorization bearer token over the
// session cookie.
func SessionTokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func GetSessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey).(string)
	return token
}
