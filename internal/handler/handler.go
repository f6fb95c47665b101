package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/auth"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
	"github.com/mmeshcher/shortlink/internal/service"
)

const sentryFlushTimeout = 2 * time.Second

type Handler struct {
	service        *service.ShortenerService
	auth           *auth.Provider
	logger         *zap.Logger
	requestTimeout time.Duration
}

func NewHandler(service *service.ShortenerService, auth *auth.Provider, logger *zap.Logger, requestTimeout time.Duration) *Handler {
	return &Handler{
		service:        service,
		auth:           auth,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// creationStatus maps a link creation failure to its HTTP status. Store
// rejections keep their message so the caller sees it unchanged.
func creationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyURL):
		return http.StatusBadRequest, "url is required"
	case repository.IsKind(err, repository.KindPolicy):
		return http.StatusForbidden, err.Error()
	case repository.IsKind(err, repository.KindConstraint):
		return http.StatusConflict, err.Error()
	case repository.IsKind(err, repository.KindTransient):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(rw http.ResponseWriter, status int, message string) {
	h.writeJSON(rw, status, models.ErrorResponse{Error: message})
}
