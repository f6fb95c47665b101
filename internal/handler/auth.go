package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/auth"
	"github.com/mmeshcher/shortlink/internal/middleware"
	"github.com/mmeshcher/shortlink/internal/models"
)

func (h *Handler) SignUpHandler(rw http.ResponseWriter, r *http.Request) {
	creds, ok := h.readCredentials(rw, r)
	if !ok {
		return
	}

	user, err := h.auth.SignUp(r.Context(), creds.Email, creds.Password)
	switch {
	case err == nil:
		h.writeJSON(rw, http.StatusCreated, user)
	case errors.Is(err, auth.ErrInvalidInput):
		h.writeJSONError(rw, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUserExists):
		h.writeJSONError(rw, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Sign up failed", zap.Error(err))
		h.writeJSONError(rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *Handler) LoginHandler(rw http.ResponseWriter, r *http.Request) {
	creds, ok := h.readCredentials(rw, r)
	if !ok {
		return
	}

	session, err := h.auth.SignIn(r.Context(), creds.Email, creds.Password)
	switch {
	case err == nil:
		middleware.SetSessionCookie(rw, session.AccessToken, session.ExpiresAt)
		h.writeJSON(rw, http.StatusOK, session)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.writeJSONError(rw, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error("Sign in failed", zap.Error(err))
		h.writeJSONError(rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *Handler) LogoutHandler(rw http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionTokenFromContext(r.Context())
	if token == "" {
		h.writeJSONError(rw, http.StatusUnauthorized, auth.ErrInvalidSession.Error())
		return
	}

	err := h.auth.SignOut(r.Context(), token)
	switch {
	case err == nil, errors.Is(err, auth.ErrInvalidSession):
		middleware.ClearSessionCookie(rw)
		rw.WriteHeader(http.StatusNoContent)
	default:
		h.logger.Error("Sign out failed", zap.Error(err))
		h.writeJSONError(rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (h *Handler) CurrentUserHandler(rw http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		h.writeJSONError(rw, http.StatusUnauthorized, auth.ErrInvalidSession.Error())
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), middleware.GetSessionTokenFromContext(r.Context()))
	if err != nil {
		h.writeJSONError(rw, http.StatusUnauthorized, auth.ErrInvalidSession.Error())
		return
	}

	h.writeJSON(rw, http.StatusOK, user)
}

func (h *Handler) readCredentials(rw http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	if !isJSONRequest(r) {
		h.writeJSONError(rw, http.StatusBadRequest, "Content-Type must be application/json")
		return models.Credentials{}, false
	}

	var creds models.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeJSONError(rw, http.StatusBadRequest, "invalid JSON")
		return models.Credentials{}, false
	}

	return creds, true
}
